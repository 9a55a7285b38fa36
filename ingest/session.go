package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// subscriptionTopics is the fixed topic set from spec.md §6.1. Kati's
// `iMEDE_watch/#` wildcard intentionally admits every sub-topic the
// classifier recognizes; topics it doesn't recognize are dropped
// downstream as UnknownTopic rather than filtered here.
var subscriptionTopics = []string{
	"ESP32_BLE_GW_TX",
	"dusun_sub",
	"dusun_status",
	"iMEDE_watch/#",
	"CM4_BLE_GW_TX",
}

// SessionConfig configures the broker connection, per spec.md §6.6's
// mqtt.* options.
type SessionConfig struct {
	Broker   string
	Port     int
	User     string
	Pass     string
	QoS      byte
	ClientID string
}

func (c *SessionConfig) setDefaults() {
	if c.QoS == 0 {
		c.QoS = 1
	}
	if c.ClientID == "" {
		c.ClientID = "vitalgate"
	}
}

// Handler receives one broker delivery. ack must be called once the
// message has been fully handed off to the ingestion supervisor — never
// before, per spec.md §4.8's non-UTF-8-safe handoff rule.
type Handler func(topic string, payload []byte, receivedAt time.Time, ack func())

// Session is the MQTT broker connection (C8): QoS-1 subscriptions,
// atomic resubscribe on every (re)connect, and exponential-backoff
// reconnect with no retry ceiling.
type Session struct {
	cfg     SessionConfig
	client  mqtt.Client
	handler Handler
	logger  *log.Logger

	shutdownOnce sync.Once
}

// NewSession builds a Session. The client is not connected until Connect
// is called.
func NewSession(cfg SessionConfig, handler Handler, logger *log.Logger) *Session {
	cfg.setDefaults()
	return &Session{cfg: cfg, handler: handler, logger: logger}
}

// Connect dials the broker, retrying with exponential backoff (500ms to
// a 30s cap, indefinitely) until ctx is cancelled, per spec.md §4.8.
func (s *Session) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", s.cfg.Broker, s.cfg.Port)).
		SetClientID(s.cfg.ClientID).
		SetUsername(s.cfg.User).
		SetPassword(s.cfg.Pass).
		SetCleanSession(false).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(30 * time.Second).
		SetAutoAckDisabled(true).
		SetConnectionLostHandler(s.onConnectionLost).
		SetOnConnectHandler(s.onConnect)

	s.client = mqtt.NewClient(opts)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // indefinite retry, per spec.md §4.8

	return backoff.Retry(func() error {
		token := s.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			err := fmt.Errorf("ingest: mqtt connect timed out")
			s.logger.Warn("mqtt connect attempt failed", "err", err)
			return err
		}
		if err := token.Error(); err != nil {
			s.logger.Warn("mqtt connect attempt failed", "err", err)
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

// onConnect (re)subscribes every topic atomically relative to message
// delivery: paho only starts routing messages to onMessage after
// Subscribe's token resolves, so no message is delivered to a topic this
// loop hasn't reached yet.
func (s *Session) onConnect(c mqtt.Client) {
	for _, topic := range subscriptionTopics {
		token := c.Subscribe(topic, s.cfg.QoS, s.onMessage)
		token.Wait()
		if err := token.Error(); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", topic, "err", err)
		}
	}
	s.logger.Info("mqtt session (re)subscribed", "topics", len(subscriptionTopics))
}

func (s *Session) onConnectionLost(_ mqtt.Client, err error) {
	s.logger.Warn("mqtt connection lost, reconnecting", "err", err)
}

func (s *Session) onMessage(_ mqtt.Client, msg mqtt.Message) {
	receivedAt := time.Now()
	payload := append([]byte(nil), msg.Payload()...)
	s.handler(msg.Topic(), payload, receivedAt, msg.Ack)
}

// Disconnect closes the broker connection. It does not wait for
// in-flight message handoffs — that is the supervisor's Shutdown.
func (s *Session) Disconnect() {
	s.shutdownOnce.Do(func() {
		if s.client != nil && s.client.IsConnected() {
			s.client.Disconnect(250)
		}
	})
}
