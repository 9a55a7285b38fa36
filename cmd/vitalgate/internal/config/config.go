// Package config loads and validates the vitalgate process's runtime
// configuration, following spec.md §6.6.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// GlobalConfig is the root configuration structure, shared by every
// kong subcommand the way the teacher CLI threads its own GlobalConfig
// through every command's Run method.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" kong:"name='log-level',default='info',help='trace|debug|info|warn|error|fatal'"`
	Pretty   bool   `yaml:"pretty" kong:"default='true',help='Human-readable log output instead of JSON'"`
	Debug    bool   `yaml:"debug" kong:"default='false',help='Include caller info in logs'"`

	ConfigFile string `yaml:"-" kong:"name='config',type='path',help='Path to a YAML config file'"`

	MQTT       MQTTConfig       `yaml:"mqtt"`
	Workers    int              `yaml:"workers" kong:"default='0',help='Worker pool size; 0 means 2x cores'"`
	Queue      QueueConfig      `yaml:"queue"`
	FHIR       FHIRConfig       `yaml:"fhir"`
	Store      StoreConfig      `yaml:"store"`
	Emit       EmitConfig       `yaml:"emit"`
	Validation ValidationConfig `yaml:"validation"`
	DeadLetter DeadLetterConfig `yaml:"dead_letter"`
}

// MQTTConfig is spec.md §6.6's `mqtt.*` block.
type MQTTConfig struct {
	Broker string `yaml:"broker" validate:"required"`
	Port   int    `yaml:"port" validate:"required"`
	User   string `yaml:"user"`
	Pass   string `yaml:"pass"`
	QoS    byte   `yaml:"qos" validate:"oneof=0 1 2"`
}

// QueueConfig is spec.md §6.6's `queue.high`/`queue.low` backpressure
// watermarks.
type QueueConfig struct {
	High int `yaml:"high" validate:"required,gtfield=Low"`
	Low  int `yaml:"low" validate:"required"`
}

// FHIRConfig is spec.md §6.6's `fhir.*` block.
type FHIRConfig struct {
	BaseURL          string `yaml:"base_url" validate:"required,url"`
	Token            string `yaml:"token"`
	TimeoutMS        int    `yaml:"timeout_ms" validate:"required"`
	AssumeStoreDedup bool   `yaml:"assume_store_dedup"`
}

// StoreConfig is spec.md §6.6's `store.*` document-store connection.
type StoreConfig struct {
	URI string `yaml:"uri" validate:"required"`
	DB  string `yaml:"db" validate:"required"`
}

// EmitConfig is spec.md §6.6's `emit.*` monitoring-sink block.
type EmitConfig struct {
	SinkURL       string  `yaml:"sink_url" validate:"required,url"`
	QueueCapacity int     `yaml:"queue_capacity" validate:"required"`
	RPS           float64 `yaml:"rps"`
}

// ValidationConfig is spec.md §6.6's `validation.strict` switch.
type ValidationConfig struct {
	Strict bool `yaml:"strict"`
}

// DeadLetterConfig configures the FHIR dead-letter replay queue (spec.md
// §4.5/§7's "partial downstream" policy). Redis and Slack are both
// optional: an empty RedisURI disables dead-lettering (failures are only
// logged), and an empty SlackChannel disables the backlog alert.
type DeadLetterConfig struct {
	RedisURI       string `yaml:"redis_uri"`
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	AlertThreshold int64  `yaml:"alert_threshold"`
}

// Default returns a GlobalConfig with the defaults spec.md names
// (workers = 2x cores, queue watermarks 1024/256).
func Default() GlobalConfig {
	return GlobalConfig{
		LogLevel: "info",
		Pretty:   true,
		Workers:  2 * runtime.NumCPU(),
		Queue:    QueueConfig{High: 1024, Low: 256},
		MQTT:     MQTTConfig{Port: 1883, QoS: 1},
		Emit:     EmitConfig{QueueCapacity: 4096, RPS: 50},
	}
}

// Load reads path as YAML over the defaults and validates the result.
func Load(path string) (GlobalConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, Validate(cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return GlobalConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return GlobalConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 2 * runtime.NumCPU()
	}
	return cfg, Validate(cfg)
}

var validate = validator.New()

// Validate checks required fields and value constraints.
func Validate(cfg GlobalConfig) error {
	if err := validate.Struct(cfg.MQTT); err != nil {
		return fmt.Errorf("config: mqtt: %w", err)
	}
	if err := validate.Struct(cfg.Queue); err != nil {
		return fmt.Errorf("config: queue: %w", err)
	}
	if err := validate.Struct(cfg.FHIR); err != nil {
		return fmt.Errorf("config: fhir: %w", err)
	}
	if err := validate.Struct(cfg.Store); err != nil {
		return fmt.Errorf("config: store: %w", err)
	}
	if err := validate.Struct(cfg.Emit); err != nil {
		return fmt.Errorf("config: emit: %w", err)
	}
	return nil
}
