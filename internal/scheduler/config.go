package scheduler

import (
	"time"

	"github.com/smallbiznis/luggagehub/internal/config"
)

const JobPurgeLinkTokens = "purge_link_tokens"

// lockGrace pads the job lock TTL past the job timeout.
const lockGrace = 5 * time.Second

// Config controls scheduler intervals and which jobs run.
type Config struct {
	RunInterval time.Duration
	JobTimeout  time.Duration
	// EnabledJobs empty means every job runs.
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 10 * time.Minute,
		JobTimeout:  30 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Scheduler.RunInterval,
		EnabledJobs: cfg.Scheduler.EnabledJobs,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}
