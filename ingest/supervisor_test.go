package ingest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/classify"
	"github.com/codeninja55/vitalgate/events"
	fhirclient "github.com/codeninja55/vitalgate/fhir/client"
	"github.com/codeninja55/vitalgate/history"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/codeninja55/vitalgate/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestSupervisor(t *testing.T, mem *store.MemStore, fhirURL, emitURL string) *Supervisor {
	t.Helper()
	cfg := SupervisorConfig{Workers: 2, QueueHigh: 16, QueueLow: 4}
	fc := fhirclient.New(fhirclient.Config{
		BaseURL:          fhirURL,
		MaxAttempts:      1,
		AssumeStoreDedup: true,
	}, http.DefaultClient)
	emitter := events.New(emitURL, 100)
	return NewSupervisor(cfg, classify.New(true), identity.New(mem), history.New(mem), fc, emitter, nil, testLogger())
}

func TestSupervisor_ResolvedKatiVital_WritesHistoryAndFHIR(t *testing.T) {
	fhirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer fhirSrv.Close()
	emitSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer emitSrv.Close()

	mem := store.NewMemStore()
	mem.SeedWatch(store.Watch{IMEI: "8612345", PatientID: "patient-1"})

	sup := newTestSupervisor(t, mem, fhirSrv.URL, emitSrv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.Start(ctx)

	acked := make(chan struct{}, 1)
	payload := []byte(`{"IMEI":"8612345","heartRate":72,"spO2":97,"bloodPressure":{"bp_sys":120,"bp_dia":78},"timeStamps":"2026-01-01T00:00:00Z"}`)
	sup.Submit("iMEDE_watch/VitalSign", payload, time.Now(), func() { acked <- struct{}{} })

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never acked")
	}

	docs := mem.History(history.Series(canonical.KindBP))
	require.Len(t, docs, 1)
	assert.Equal(t, "patient-1", docs[0].PatientID)
}

func TestSupervisor_UnresolvedDevice_HistoryKeptFHIRSkipped(t *testing.T) {
	fhirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("FHIR store should never be called for an unresolved device")
	}))
	defer fhirSrv.Close()
	emitSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer emitSrv.Close()

	mem := store.NewMemStore() // no watch seeded: IMEI is unknown

	sup := newTestSupervisor(t, mem, fhirSrv.URL, emitSrv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.Start(ctx)

	acked := make(chan struct{}, 1)
	payload := []byte(`{"IMEI":"unknown-imei","spO2":96,"timeStamps":"2026-01-01T00:00:00Z"}`)
	sup.Submit("iMEDE_watch/VitalSign", payload, time.Now(), func() { acked <- struct{}{} })

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("message was never acked")
	}

	docs := mem.History(history.Series(canonical.KindSpO2))
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].PatientID)
	assert.Contains(t, docs[0].DisplayName, "Unmapped Device")
}

func TestSupervisor_MalformedPayload_DroppedAndAcked(t *testing.T) {
	fhirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("FHIR store should never be called for a malformed payload")
	}))
	defer fhirSrv.Close()
	emitSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Event events.Event `json:"event"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))
	defer emitSrv.Close()

	mem := store.NewMemStore()
	sup := newTestSupervisor(t, mem, fhirSrv.URL, emitSrv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup.Start(ctx)

	acked := make(chan struct{}, 1)
	sup.Submit("iMEDE_watch/hb", []byte{0xff, 0xfe, 0x00, 0x01}, time.Now(), func() { acked <- struct{}{} })

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("malformed message was never acked")
	}
}

func TestSupervisor_Shutdown_DrainsInFlightThenReturns(t *testing.T) {
	fhirSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer fhirSrv.Close()
	emitSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer emitSrv.Close()

	mem := store.NewMemStore()
	mem.SeedWatch(store.Watch{IMEI: "8612345", PatientID: "patient-1"})
	sup := newTestSupervisor(t, mem, fhirSrv.URL, emitSrv.URL)
	ctx := context.Background()
	sup.Start(ctx)

	acked := make(chan struct{}, 1)
	payload := []byte(`{"IMEI":"8612345","spO2":97,"timeStamps":"2026-01-01T00:00:00Z"}`)
	sup.Submit("iMEDE_watch/VitalSign", payload, time.Now(), func() { acked <- struct{}{} })
	<-acked

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sup.Shutdown(shutdownCtx)

	// A second Shutdown call must be a no-op, not a panic (sync.Once).
	sup.Shutdown(shutdownCtx)
}
