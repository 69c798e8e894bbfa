package config

import "time"

type Images struct {
	BatchLimit        int           `env:"IMAGES_BATCH_LIMIT" envDefault:"20"`
	Interval          time.Duration `env:"IMAGES_INTERVAL" envDefault:"5m"`
	Concurrency       int           `env:"IMAGES_CONCURRENCY" envDefault:"4"`
	MaxBytes          int64         `env:"IMAGES_MAX_BYTES" envDefault:"10485760"`
	ProbeSize         bool          `env:"IMAGES_PROBE_SIZE" envDefault:"true"`
	RetryFailed       bool          `env:"IMAGES_RETRY_FAILED" envDefault:"false"`
	FetchTimeout      time.Duration `env:"IMAGES_FETCH_TIMEOUT" envDefault:"30s"`
	RequestsPerSecond float64       `env:"IMAGES_REQUESTS_PER_SECOND" envDefault:"10"`
	UserAgent         string        `env:"IMAGES_USER_AGENT" envDefault:"catalog-sync/1.0"`
}
