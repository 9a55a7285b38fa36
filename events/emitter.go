package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Step is a pipeline stage marker, per spec.md §4.7.
type Step string

const (
	StepMQTTReceived   Step = "1_mqtt_received"
	StepPayloadParsed  Step = "2_payload_parsed"
	StepFHIRValidation Step = "2.5_fhir_validation"
	StepPatientLookup  Step = "3_patient_lookup"
	StepFHIRProjected  Step = "4_fhir_projected"
	StepHistoryStored  Step = "5_history_stored"
	StepFHIRStorage    Step = "6_fhir_storage"
	StepError          Step = "error"
)

// Status is the outcome of a Step.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is the body spec.md §6.5 posts to the monitoring sink.
type Event struct {
	Step         Step   `json:"step"`
	Status       Status `json:"status"`
	DeviceType   string `json:"device_type"`
	Topic        string `json:"topic"`
	Payload      any    `json:"payload,omitempty"`
	PatientInfo  any    `json:"patient_info,omitempty"`
	Error        string `json:"error,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

const queueCapacity = 4096

var eventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "vitalgate_events_dropped_total",
	Help: "Events dropped because the emitter queue was full.",
})

func init() {
	prometheus.MustRegister(eventsDropped)
}

// Emitter owns a bounded queue drained by a single goroutine that posts
// to the monitoring sink non-blockingly, per spec.md §4.7. On overflow it
// drops the oldest queued event rather than blocking ingestion.
type Emitter struct {
	sinkURL string
	http    *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	queue []Event

	notify chan struct{}
	done   chan struct{}
}

// New builds an Emitter posting to sinkURL. rps bounds the outbound post
// rate to the sink so a burst of ingestion never overwhelms it.
func New(sinkURL string, rps float64) *Emitter {
	e := &Emitter{
		sinkURL: sinkURL,
		http:    &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		queue:   make([]Event, 0, queueCapacity),
		notify:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	return e
}

// Run drains the queue until ctx is cancelled. Callers run this once in
// its own goroutine.
func (e *Emitter) Run(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.notify:
		}
		for {
			ev, ok := e.pop()
			if !ok {
				break
			}
			e.post(ctx, ev)
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// Emit enqueues ev without blocking; on overflow the oldest event is
// dropped and events_dropped is incremented.
func (e *Emitter) Emit(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	e.mu.Lock()
	if len(e.queue) >= queueCapacity {
		e.queue = e.queue[1:]
		eventsDropped.Inc()
	}
	e.queue = append(e.queue, ev)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Wait blocks until Run has returned after its context was cancelled,
// so a graceful shutdown can be sure the drain goroutine has stopped.
func (e *Emitter) Wait() {
	<-e.done
}

func (e *Emitter) pop() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return Event{}, false
	}
	ev := e.queue[0]
	e.queue = e.queue[1:]
	return ev, true
}

func (e *Emitter) post(ctx context.Context, ev Event) {
	if err := e.limiter.Wait(ctx); err != nil {
		return
	}
	body, err := json.Marshal(struct {
		Event Event `json:"event"`
	}{Event: ev})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.sinkURL+"/api/data-flow/emit", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.http.Do(req)
	if err != nil {
		return // a failed post is dropped: it is neither retried nor counted
	}
	resp.Body.Close()
}
