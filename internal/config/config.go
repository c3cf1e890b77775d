// Package config defines process configuration and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, optional YAML file, and ANU_-prefixed env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for health and metrics.
	Addr string `koanf:"addr"`

	// DBPath locates the local sqlite database.
	DBPath string `koanf:"db_path"`

	// RemoteURL is the base URL of the classroom server.
	RemoteURL string `koanf:"remote_url"`

	// RobotID identifies this robot to the server.
	RobotID string `koanf:"robot_id"`

	// NotifyRecipients receive emergency notifications.
	NotifyRecipients []string `koanf:"notify_recipients"`

	// ProbeInterval sets how often connectivity is checked.
	ProbeInterval time.Duration `koanf:"probe_interval"`

	// BackoffInitial and BackoffMax bound per-record retry intervals.
	BackoffInitial time.Duration `koanf:"backoff_initial"`
	BackoffMax     time.Duration `koanf:"backoff_max"`

	// BusCapacity bounds the in-memory event queue.
	BusCapacity int `koanf:"bus_capacity"`

	// HistoryWindow caps the per-student turn history used by the
	// policy.
	HistoryWindow int `koanf:"history_window"`

	// ReplayCapacity and ReplayBatch size the experience replay buffer.
	ReplayCapacity int `koanf:"replay_capacity"`
	ReplayBatch    int `koanf:"replay_batch"`

	// Epsilon is the exploration rate; zero means always greedy.
	Epsilon float64 `koanf:"epsilon"`

	// LearningRate and Discount tune the policy update.
	LearningRate float64 `koanf:"learning_rate"`
	Discount     float64 `koanf:"discount"`

	// SubCost, InsCost and DelCost weight the alignment edit operations.
	SubCost float64 `koanf:"sub_cost"`
	InsCost float64 `koanf:"ins_cost"`
	DelCost float64 `koanf:"del_cost"`

	// FallbackPrompt is spoken when recognition fails repeatedly.
	FallbackPrompt string `koanf:"fallback_prompt"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9090",
		DBPath:         "anu.db",
		RemoteURL:      "http://localhost:8080",
		RobotID:        "anu-01",
		ProbeInterval:  30 * time.Second,
		BackoffInitial: 500 * time.Millisecond,
		BackoffMax:     30 * time.Second,
		BusCapacity:    1024,
		HistoryWindow:  10,
		ReplayCapacity: 512,
		ReplayBatch:    16,
		Epsilon:        0,
		LearningRate:   0.05,
		Discount:       0.95,
		SubCost:        1,
		InsCost:        1,
		DelCost:        1,
		FallbackPrompt: "Let's try that again. Repeat after me, nice and slow.",
	}
}
