package history

import (
	"context"
	"fmt"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/codeninja55/vitalgate/store"
)

// Router appends canonical observations to the store's history series,
// per spec.md §4.6. It is deliberately thin: all the naming logic lives
// in Series/UnmappedDisplayName in series.go so it can be unit-tested
// without a store.
type Router struct {
	Store store.HistoryStore
}

// New builds a Router over s.
func New(s store.HistoryStore) *Router {
	return &Router{Store: s}
}

// AppendObservation writes a single canonical reading to its history
// series, tagging it unmapped when identity resolution missed. The
// series is append-only and tolerates duplicate ingest_ids under
// at-least-once MQTT redelivery (spec.md §5).
func (r *Router) AppendObservation(ctx context.Context, obs *canonical.Observation, kind canonical.Kind, values canonical.Values, res identity.Resolution) error {
	doc := store.HistoryDocument{
		IngestID:      obs.IngestID.String(),
		EffectiveTime: obs.EffectiveTime,
		ReceivedTime:  obs.ReceivedTime,
		SubDeviceKind: string(kind),
		SourceVendor:  string(obs.SourceVendor),
		DeviceID:      obs.DeviceID(),
		Values:        values,
	}
	if res.Resolved() {
		doc.PatientID = res.PatientID
	} else {
		doc.DisplayName = UnmappedDisplayName(obs.DeviceID())
	}

	series := Series(kind)
	if err := r.Store.AppendHistory(ctx, series, doc); err != nil {
		return fmt.Errorf("history: append to %q: %w", series, err)
	}
	return nil
}

// AppendBatch appends every sample of a batch_vitals observation, each to
// its own sample kind's series.
func (r *Router) AppendBatch(ctx context.Context, obs *canonical.Observation, res identity.Resolution) error {
	for _, sample := range obs.Batch {
		doc := store.HistoryDocument{
			IngestID:      obs.IngestID.String(),
			EffectiveTime: sample.EffectiveTime,
			ReceivedTime:  obs.ReceivedTime,
			SubDeviceKind: string(sample.Kind),
			SourceVendor:  string(obs.SourceVendor),
			DeviceID:      obs.DeviceID(),
			Values:        sample.Values,
		}
		if res.Resolved() {
			doc.PatientID = res.PatientID
		} else {
			doc.DisplayName = UnmappedDisplayName(obs.DeviceID())
		}
		series := Series(sample.Kind)
		if err := r.Store.AppendHistory(ctx, series, doc); err != nil {
			return fmt.Errorf("history: append batch sample to %q: %w", series, err)
		}
	}
	return nil
}
