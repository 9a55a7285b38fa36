package classify

import (
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codeninja55/vitalgate/canonical"
	"github.com/google/uuid"
)

// MaxPayloadBytes is the maximum accepted MQTT payload size, per spec.md
// §6.1.
const MaxPayloadBytes = 64 * 1024

// Classifier dispatches a raw MQTT message to the vendor-specific parser
// matching its topic, then validates the result. A range violation
// (spec.md §7's "Semantic" row) always drops the message — per the §8
// scenario S5 worked example, range errors are never clamped or kept,
// only clock skew is. Strict is retained for forward compatibility with
// the validation.strict config option (spec.md §6.6) but currently has
// no effect on range-check outcomes.
type Classifier struct {
	Strict bool
}

// New builds a Classifier. strict mirrors the validation.strict config
// option (spec.md §6.6).
func New(strict bool) *Classifier {
	return &Classifier{Strict: strict}
}

// Result is the outcome of classifying one MQTT message: either a
// validated Observation, or one or more PayloadErrors explaining why it
// was rejected. Non-fatal warnings (ClockSkewWarning) are returned
// alongside a non-nil Observation.
type Result struct {
	Observation *canonical.Observation
	Warnings    []*canonical.PayloadError
}

// Classify parses, classifies, and validates a single MQTT message. topic
// is the verbatim MQTT topic (spec.md §3.1 source_topic); payload is the
// raw bytes as delivered by the broker; receivedAt is the broker-ingress
// timestamp set by C8.
func (c *Classifier) Classify(topic string, payload []byte, receivedAt time.Time) (Result, *canonical.PayloadError) {
	if len(payload) > MaxPayloadBytes {
		return Result{}, canonical.NewMalformedEncoding(hex.EncodeToString(payload))
	}
	if !utf8.Valid(payload) {
		return Result{}, canonical.NewMalformedEncoding(hex.EncodeToString(payload))
	}

	var (
		obs *canonical.Observation
		err *canonical.PayloadError
	)
	switch {
	case isAVA4Topic(topic):
		obs, err = parseAVA4(topic, payload, receivedAt)
	case isKatiTopic(topic):
		obs, err = parseKati(topic, payload, receivedAt)
	case isQubeTopic(topic):
		obs, err = parseQube(topic, payload, receivedAt)
	default:
		return Result{}, canonical.NewUnknownTopic(topic)
	}
	if err != nil {
		return Result{}, err
	}

	obs.IngestID = uuid.New()
	obs.SourceTopic = topic
	obs.ReceivedTime = receivedAt
	obs.RawPayload = payload

	var warnings []*canonical.PayloadError
	originalEffective := obs.EffectiveTime
	obs.ClampEffectiveTime()
	if obs.ClockSkewClamped {
		warnings = append(warnings, canonical.NewClockSkewWarning(originalEffective))
	}

	if obs.SubDeviceKind == canonical.KindBatchVitals {
		for _, s := range obs.Batch {
			if verr := Validate(s.Kind, s.Values); verr != nil {
				return Result{}, verr.(*canonical.PayloadError)
			}
		}
	} else if obs.Values != nil {
		if verr := Validate(obs.SubDeviceKind, obs.Values); verr != nil {
			return Result{}, verr.(*canonical.PayloadError)
		}
	}

	return Result{Observation: obs, Warnings: warnings}, nil
}

func isAVA4Topic(topic string) bool {
	return topic == "ESP32_BLE_GW_TX" || topic == "dusun_sub" || topic == "dusun_status"
}

func isKatiTopic(topic string) bool {
	return strings.HasPrefix(topic, "iMEDE_watch/")
}

func isQubeTopic(topic string) bool {
	return topic == "CM4_BLE_GW_TX"
}
