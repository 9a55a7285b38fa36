// Package ingest implements the MQTT session (C8) and ingestion
// supervisor (C9): the worker pool that drives every accepted message
// through classification, identity resolution, history append, FHIR
// projection and write, and event emission, per spec.md §4.8, §4.9, §5.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/classify"
	"github.com/codeninja55/vitalgate/deadletter"
	"github.com/codeninja55/vitalgate/events"
	fhirclient "github.com/codeninja55/vitalgate/fhir/client"
	"github.com/codeninja55/vitalgate/fhir/project"
	"github.com/codeninja55/vitalgate/fhir/r5/resources"
	"github.com/codeninja55/vitalgate/history"
	"github.com/codeninja55/vitalgate/identity"
)

// tracer emits one span per message, covering classification through
// FHIR write, so a slow or failing stage is visible in whatever trace
// backend the deployment wires into the global otel.TracerProvider (a
// no-op by default, per SPEC_FULL.md's ambient observability stack).
var tracer = otel.Tracer("github.com/codeninja55/vitalgate/ingest")

// SupervisorConfig configures the worker pool and its backpressure
// watermarks, per spec.md §5 and §6.6.
type SupervisorConfig struct {
	Workers   int
	QueueHigh int
	QueueLow  int
}

func (c *SupervisorConfig) setDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2 * runtime.NumCPU()
	}
	if c.QueueHigh <= 0 {
		c.QueueHigh = 1024
	}
	if c.QueueLow <= 0 {
		c.QueueLow = 256
	}
}

// job is a classified (or classification-failed) message en route to a
// worker queue, keyed by the device's partition key.
type job struct {
	topic       string
	receivedAt  time.Time
	ack         func()
	result      classify.Result
	classifyErr *canonical.PayloadError
}

// Supervisor is the ingestion state machine (C9): a fixed worker pool
// with per-device serialization, driving every message from
// classification through history append, FHIR projection/write, and
// event emission, per spec.md §4.9 and §5.
type Supervisor struct {
	cfg SupervisorConfig

	classifier *classify.Classifier
	resolver   *identity.Resolver
	history    *history.Router
	fhir       *fhirclient.Client
	emitter    *events.Emitter
	deadLetter *deadletter.Queue
	logger     *log.Logger

	queues []chan job
	gate   *watermarkGate

	closeMu sync.RWMutex
	closed  bool

	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// NewSupervisor builds a Supervisor. deadLetterQueue may be nil, in which
// case FHIR write exhaustion is logged but not persisted for replay.
func NewSupervisor(
	cfg SupervisorConfig,
	classifier *classify.Classifier,
	resolver *identity.Resolver,
	historyRouter *history.Router,
	fhirClient *fhirclient.Client,
	emitter *events.Emitter,
	deadLetterQueue *deadletter.Queue,
	logger *log.Logger,
) *Supervisor {
	cfg.setDefaults()
	queues := make([]chan job, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan job, cfg.QueueHigh)
	}
	return &Supervisor{
		cfg:        cfg,
		classifier: classifier,
		resolver:   resolver,
		history:    historyRouter,
		fhir:       fhirClient,
		emitter:    emitter,
		deadLetter: deadLetterQueue,
		logger:     logger,
		queues:     queues,
		gate:       newWatermarkGate(cfg.QueueHigh, cfg.QueueLow),
	}
}

// Start launches the worker pool. It returns immediately; workers run
// until Shutdown is called.
func (s *Supervisor) Start(ctx context.Context) {
	s.wg.Add(len(s.queues))
	for i := range s.queues {
		go s.worker(ctx, i)
	}
}

// Submit is the ingest.Handler passed to Session: it classifies the
// payload inline (cheap, CPU-bound per spec.md §5) so the resulting
// canonical.Observation's partition key is known before queueing, then
// routes the job onto the worker owning that key. If the supervisor has
// begun shutting down, the message is silently refused and left unacked
// so the broker redelivers it after restart.
func (s *Supervisor) Submit(topic string, payload []byte, receivedAt time.Time, ack func()) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}

	result, cerr := s.classifier.Classify(topic, payload, receivedAt)
	j := job{topic: topic, receivedAt: receivedAt, ack: ack, result: result, classifyErr: cerr}

	key := topic
	if cerr == nil && result.Observation != nil {
		key = result.Observation.PartitionKey()
	}

	s.gate.waitUntilResumed()
	s.gate.inc()
	s.queues[s.indexFor(key)] <- j
}

func (s *Supervisor) indexFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(s.queues)
}

func (s *Supervisor) worker(ctx context.Context, idx int) {
	defer s.wg.Done()
	for j := range s.queues[idx] {
		ack := s.process(ctx, j)
		s.gate.dec()
		if ack {
			j.ack()
		}
	}
}

// process drives one message through the state machine and reports
// whether the broker delivery should be acknowledged. Transport-class
// failures (store unreachable during identity resolution or history
// append) return false so QoS-1 redelivers the message on restart; every
// other terminal state — dropped, resolved and
// written, resolved and dead-lettered, or unresolved-but-history-kept —
// returns true.
func (s *Supervisor) process(ctx context.Context, j job) bool {
	ctx, span := tracer.Start(ctx, "ingest.process", trace.WithAttributes(
		attribute.String("topic", j.topic),
	))
	defer span.End()

	emit := func(step events.Step, status events.Status, deviceType, errMsg string) {
		ev := events.Event{
			Step:       step,
			Status:     status,
			DeviceType: deviceType,
			Topic:      j.topic,
			Error:      errMsg,
			Timestamp:  j.receivedAt.Unix(),
		}
		if status == events.StatusError && j.result.Observation != nil {
			ev.Payload = events.RedactRaw(j.result.Observation.RawPayload)
		}
		s.emitter.Emit(ev)
	}

	emit(events.StepMQTTReceived, events.StatusSuccess, "", "")

	if j.classifyErr != nil {
		span.RecordError(j.classifyErr)
		span.SetStatus(codes.Error, "classify: "+j.classifyErr.Error())
		ev := events.Event{
			Step:      events.StepError,
			Status:    events.StatusError,
			Topic:     j.topic,
			Error:     j.classifyErr.Error(),
			Timestamp: j.receivedAt.Unix(),
		}
		if j.classifyErr.Hex != "" {
			ev.Payload = j.classifyErr.Hex
		}
		s.emitter.Emit(ev)
		return true // Payload-class: drop, ack, no retry (spec.md §7)
	}

	obs := j.result.Observation
	deviceType := string(obs.SourceVendor)
	span.SetAttributes(attribute.String("device_type", deviceType), attribute.String("kind", string(obs.SubDeviceKind)))
	emit(events.StepPayloadParsed, events.StatusSuccess, deviceType, "")

	for _, w := range j.result.Warnings {
		emit(events.StepFHIRValidation, events.StatusError, deviceType, w.Error())
	}

	res, err := s.resolver.Resolve(ctx, obs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve: "+err.Error())
		emit(events.StepPatientLookup, events.StatusError, deviceType, err.Error())
		return false // Transport-class: leave unacked, redeliver
	}
	if res.Resolved() {
		emit(events.StepPatientLookup, events.StatusSuccess, deviceType, "")
	} else {
		emit(events.StepPatientLookup, events.StatusError, deviceType, "unresolved device identity")
	}

	if err := s.appendHistory(ctx, obs, res); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append history: "+err.Error())
		emit(events.StepError, events.StatusError, deviceType, err.Error())
		return false // Transport-class: leave unacked, redeliver
	}
	emit(events.StepHistoryStored, events.StatusSuccess, deviceType, "")

	if !res.Resolved() {
		// Resolution-class: history is the record of truth, FHIR is
		// skipped, and the message is fully handled.
		return true
	}

	fhirResources := project.Project(obs, res, time.Now())
	emit(events.StepFHIRProjected, events.StatusSuccess, deviceType, "")

	if err := s.writeFHIR(ctx, obs, fhirResources); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write fhir: "+err.Error())
		emit(events.StepFHIRStorage, events.StatusError, deviceType, err.Error())
		s.pushDeadLetter(ctx, obs, fhirResources, err)
		return true // Partial-downstream: dead-lettered for replay, ack
	}
	emit(events.StepFHIRStorage, events.StatusSuccess, deviceType, "")
	span.SetStatus(codes.Ok, "")
	return true
}

func (s *Supervisor) appendHistory(ctx context.Context, obs *canonical.Observation, res identity.Resolution) error {
	if obs.SubDeviceKind == canonical.KindBatchVitals {
		return s.history.AppendBatch(ctx, obs, res)
	}
	return s.history.AppendObservation(ctx, obs, obs.SubDeviceKind, obs.Values, res)
}

func (s *Supervisor) writeFHIR(ctx context.Context, obs *canonical.Observation, resourcesToWrite []resources.Observation) error {
	if len(resourcesToWrite) == 0 {
		return nil
	}
	if len(resourcesToWrite) == 1 {
		key := fmt.Sprintf("%s:%s:0", obs.IngestID, obs.SubDeviceKind)
		return s.fhir.WriteObservation(ctx, resourcesToWrite[0], key)
	}
	_, err := s.fhir.WriteBatch(ctx, resourcesToWrite, obs.IngestID.String())
	return err
}

func (s *Supervisor) pushDeadLetter(ctx context.Context, obs *canonical.Observation, resourcesToWrite []resources.Observation, cause error) {
	if s.deadLetter == nil {
		s.logger.Error("FHIR write exhausted and no dead-letter queue configured", "ingest_id", obs.IngestID, "err", cause)
		return
	}
	payload, err := json.Marshal(resourcesToWrite)
	if err != nil {
		s.logger.Error("dead-letter payload marshal failed", "ingest_id", obs.IngestID, "err", err)
		return
	}
	entry := deadletter.Entry{
		IngestID: obs.IngestID.String(),
		Kind:     string(obs.SubDeviceKind),
		Payload:  payload,
		Reason:   cause.Error(),
	}
	if err := s.deadLetter.Push(ctx, entry); err != nil {
		s.logger.Error("dead-letter push failed", "ingest_id", obs.IngestID, "err", err)
	}
}

// Shutdown stops accepting new messages, closes the worker queues so any
// buffered jobs drain, and waits up to the context deadline before
// abandoning whatever remains in flight (spec.md §5: drain in-flight up
// to 30s, then abandon — abandoned messages stay unacked and redeliver
// on the broker's next QoS-1 cycle).
func (s *Supervisor) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		for _, q := range s.queues {
			close(q)
		}
		s.closeMu.Unlock()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("shutdown deadline exceeded, abandoning in-flight messages")
		}
	})
}
