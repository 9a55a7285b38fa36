// Package history implements the history router (C5 in spec.md §4.6):
// it appends canonical observations to per-kind, append-only history
// series and names unmapped records for downstream display.
package history

import (
	"fmt"

	"github.com/codeninja55/vitalgate/canonical"
)

// seriesByKind is the kind -> history-series-name dictionary from
// spec.md §4.6, grounded on the same dictionary-lookup pattern a UID
// registry uses: a static map plus a single lookup function.
var seriesByKind = map[canonical.Kind]string{
	canonical.KindBP:           "blood_pressure_histories",
	canonical.KindGlucose:      "blood_sugar_histories",
	canonical.KindSpO2:         "spo2_histories",
	canonical.KindTemp:         "temperature_histories",
	canonical.KindWeight:       "body_data_histories",
	canonical.KindSteps:        "step_histories",
	canonical.KindSleep:        "sleep_data_histories",
	canonical.KindChol:         "lipid_histories",
	canonical.KindUA:           "creatinine_histories",
	canonical.KindLocation:     "device_event_histories",
	canonical.KindDeviceStatus: "device_event_histories",
	canonical.KindFall:         "device_event_histories",
	canonical.KindSOS:          "device_event_histories",
}

// fallbackSeries is used for kinds spec.md §4.6 does not name a series
// for (salt has no dedicated series in the spec's dictionary) and for
// batch_vitals, which decomposes into its per-sample kinds before Series
// is consulted by any real caller.
const fallbackSeries = "device_event_histories"

// Series returns the history-series name for k.
func Series(k canonical.Kind) string {
	if s, ok := seriesByKind[k]; ok {
		return s
	}
	return fallbackSeries
}

// UnmappedDisplayName formats the display string spec.md §4.6 requires for
// a record whose identity resolution missed.
func UnmappedDisplayName(deviceID string) string {
	return fmt.Sprintf("Unmapped Device (%s)", deviceID)
}
