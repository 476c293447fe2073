package core

import (
	"context"
	"time"
)

type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

// StatusReporter is implemented by repositories that can describe their connection.
type StatusReporter interface {
	Status(ctx context.Context) map[string]interface{}
}

func (c *Core) Health() *Health {
	return &Health{
		Status:    "OK",
		Timestamp: c.now(),
		Uptime:    time.Since(c.started).Seconds(),
	}
}

func (c *Core) DatabaseStatus(ctx context.Context) map[string]interface{} {
	if reporter, ok := c.repo.(StatusReporter); ok {
		return reporter.Status(ctx)
	}
	return map[string]interface{}{"connectionState": "disconnected"}
}
