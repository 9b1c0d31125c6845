package config

import (
	"time"
)

// GetInterval returns the regeneration interval as time.Duration
func (r *RegenerateSettings) GetInterval() time.Duration {
	if r.Interval <= 0 {
		return 0
	}
	return time.Duration(r.Interval) * time.Second
}

// GetTimeout returns the import timeout as time.Duration
func (s *ImportSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultImportTimeout * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}
