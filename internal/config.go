package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=250ms"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s"`
	LatencyThreshold     time.Duration `env:"LATENCY_THRESHOLD,default=100ms"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10"`
	// Empty keeps the pairing journal in memory.
	BadgerFilepath   string `env:"BADGER_FILEPATH"`
	JournalPageLimit int    `env:"JOURNAL_PAGE_LIMIT,default=50"`
	MaxNameLength    int    `env:"MAX_NAME_LENGTH,default=64"`
	// Empty disables lifecycle publishing.
	NatsURL           string `env:"NATS_URL"`
	NatsSubjectPrefix string `env:"NATS_SUBJECT_PREFIX,default=buddy"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects values the runtime cannot work with.
func (c Config) Validate() error {
	switch {
	case c.BufferSize < 1:
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d", c.BufferSize)
	case c.ConnectionBufferSize < 1:
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	case c.MaxNameLength < 1:
		return fmt.Errorf("MAX_NAME_LENGTH must be positive, got %d", c.MaxNameLength)
	case c.JournalPageLimit < 1:
		return fmt.Errorf("JOURNAL_PAGE_LIMIT must be positive, got %d", c.JournalPageLimit)
	}
	return nil
}
