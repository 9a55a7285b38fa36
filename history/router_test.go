package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/codeninja55/vitalgate/history"
	"github.com/codeninja55/vitalgate/identity"
	"github.com/codeninja55/vitalgate/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendObservation_Resolved(t *testing.T) {
	mem := store.NewMemStore()
	r := history.New(mem)
	obs := &canonical.Observation{
		IngestID:      uuid.New(),
		SourceVendor:  canonical.VendorKati,
		DeviceIMEI:    "imei-1",
		EffectiveTime: time.Now(),
		ReceivedTime:  time.Now(),
	}

	err := r.AppendObservation(context.Background(), obs, canonical.KindBP, canonical.Values{"systolic": 120}, identity.Resolution{PatientID: "p1", Confidence: identity.ConfidenceExact})
	require.NoError(t, err)

	docs := mem.History(history.Series(canonical.KindBP))
	require.Len(t, docs, 1)
	assert.Equal(t, "p1", docs[0].PatientID)
	assert.Empty(t, docs[0].DisplayName)
}

func TestAppendObservation_Unresolved_TagsUnmapped(t *testing.T) {
	mem := store.NewMemStore()
	r := history.New(mem)
	obs := &canonical.Observation{
		IngestID:     uuid.New(),
		SourceVendor: canonical.VendorAVA4,
		GatewayMAC:   "gw-9",
	}

	err := r.AppendObservation(context.Background(), obs, canonical.KindSpO2, canonical.Values{"value": 98}, identity.Resolution{Confidence: identity.ConfidenceUnresolved})
	require.NoError(t, err)

	docs := mem.History(history.Series(canonical.KindSpO2))
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].PatientID)
	assert.Contains(t, docs[0].DisplayName, "Unmapped Device")
}

func TestAppendBatch_OnePerSample(t *testing.T) {
	mem := store.NewMemStore()
	r := history.New(mem)
	obs := &canonical.Observation{
		IngestID:     uuid.New(),
		SourceVendor: canonical.VendorKati,
		DeviceIMEI:   "imei-2",
		Batch: []canonical.Sample{
			{Kind: canonical.KindBP, Values: canonical.Values{"systolic": 118, "diastolic": 76}},
			{Kind: canonical.KindSpO2, Values: canonical.Values{"value": 97}},
		},
	}

	err := r.AppendBatch(context.Background(), obs, identity.Resolution{PatientID: "p3", Confidence: identity.ConfidenceExact})
	require.NoError(t, err)

	assert.Len(t, mem.History(history.Series(canonical.KindBP)), 1)
	assert.Len(t, mem.History(history.Series(canonical.KindSpO2)), 1)
}
