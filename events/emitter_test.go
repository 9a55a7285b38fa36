package events_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeninja55/vitalgate/events"
	"github.com/stretchr/testify/assert"
)

func TestEmitter_PostsEnqueuedEvent(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/data-flow/emit", r.URL.Path)
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := events.New(srv.URL, 100)
	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	e.Emit(events.Event{Step: events.StepMQTTReceived, Status: events.StatusSuccess, Topic: "dusun_sub"})

	assert.Eventually(t, func() bool { return received.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	e.Wait()
}

func TestRedact_RemovesLocationFields(t *testing.T) {
	v := map[string]any{"gps": map[string]any{"lat": 1.0}, "value": 98}
	out := events.Redact(events.DefaultProfile(), v)
	assert.NotContains(t, out, "gps")
	assert.Equal(t, 98, out["value"])
}
