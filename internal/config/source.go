package config

import (
	"strings"
	"time"
)

const MaxSourcePageSize = 100

// Source describes how to reach the external base/table API.
// Credentials are deliberately not marked required so that a missing value
// surfaces as a configuration error from the importer instead of at startup.
type Source struct {
	BaseURL           string        `env:"SOURCE_BASE_URL" envDefault:"https://api.airtable.com"`
	Token             string        `env:"SOURCE_TOKEN"`
	BaseID            string        `env:"SOURCE_BASE_ID"`
	Table             string        `env:"SOURCE_TABLE"`
	View              string        `env:"SOURCE_VIEW"`
	PageSize          int           `env:"SOURCE_PAGE_SIZE" envDefault:"100"`
	RequestsPerSecond float64       `env:"SOURCE_REQUESTS_PER_SECOND" envDefault:"5"`
	Timeout           time.Duration `env:"SOURCE_TIMEOUT" envDefault:"30s"`
}

// MissingFields lists the required settings that are empty.
func (s Source) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(s.Token) == "" {
		missing = append(missing, "SOURCE_TOKEN")
	}
	if strings.TrimSpace(s.BaseID) == "" {
		missing = append(missing, "SOURCE_BASE_ID")
	}
	if strings.TrimSpace(s.Table) == "" {
		missing = append(missing, "SOURCE_TABLE")
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		missing = append(missing, "SOURCE_BASE_URL")
	}
	return missing
}

// EffectivePageSize clamps PageSize into [1, MaxSourcePageSize].
func (s Source) EffectivePageSize() int {
	if s.PageSize <= 0 || s.PageSize > MaxSourcePageSize {
		return MaxSourcePageSize
	}
	return s.PageSize
}
