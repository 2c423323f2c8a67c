package worker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the maintenance worker.
type Config struct {
	// Interval is the time between two maintenance passes.
	// Default: 5 minutes
	Interval time.Duration

	// TaskTimeout is the maximum time a single task is allowed to run.
	// Default: 30 seconds
	TaskTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for a running pass.
	// Default: 10 seconds
	ShutdownTimeout time.Duration

	// SchemaIdle is how long an unused entity type schema stays cached.
	// Default: 30 minutes
	SchemaIdle time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Interval:        5 * time.Minute,
		TaskTimeout:     30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SchemaIdle:      30 * time.Minute,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Interval < time.Second {
		return fmt.Errorf("interval must be at least 1 second, got %v", c.Interval)
	}
	if c.TaskTimeout < time.Second {
		return fmt.Errorf("task timeout must be at least 1 second, got %v", c.TaskTimeout)
	}
	if c.TaskTimeout > c.Interval {
		return fmt.Errorf("task timeout %v exceeds interval %v", c.TaskTimeout, c.Interval)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	if c.SchemaIdle < time.Minute {
		return fmt.Errorf("schema idle time must be at least 1 minute, got %v", c.SchemaIdle)
	}
	return nil
}
