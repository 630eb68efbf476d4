// ABOUTME: Background poller for the assistant's status endpoint.
// ABOUTME: Runs independently of chat sends; its result only drives the indicator.

package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/shopdesk/internal/metrics"
)

// Checker reports the assistant's health.
type Checker interface {
	Check(ctx context.Context) Health
}

// Indicator is what the chat page shows.
type Indicator struct {
	Health    Health    `json:"health"`
	Online    bool      `json:"online"`
	Text      string    `json:"text"`
	CheckedAt time.Time `json:"checked_at,omitzero"`
}

// StatusPoller keeps the latest health of the assistant.
type StatusPoller struct {
	checker  Checker
	interval time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	health    Health
	checkedAt time.Time
}

// NewStatusPoller creates a poller. Call Run to start it.
func NewStatusPoller(checker Checker, interval time.Duration, logger *slog.Logger) *StatusPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatusPoller{
		checker:  checker,
		interval: interval,
		logger:   logger.With("component", "status_poller"),
		health:   HealthUnknown,
	}
}

// Run checks immediately and then every interval until ctx is done.
func (p *StatusPoller) Run(ctx context.Context) {
	p.Poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one check and records the result.
func (p *StatusPoller) Poll(ctx context.Context) Health {
	h := p.checker.Check(ctx)

	p.mu.Lock()
	prev := p.health
	p.health = h
	p.checkedAt = time.Now().UTC()
	p.mu.Unlock()

	if h == HealthOnline {
		metrics.AssistantStatus.Set(1)
	} else {
		metrics.AssistantStatus.Set(0)
	}
	if prev != h {
		p.logger.Info("assistant status changed", "from", prev, "to", h)
	}
	return h
}

// Current returns the indicator for the last check.
func (p *StatusPoller) Current() Indicator {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Indicator{
		Health:    p.health,
		Online:    p.health == HealthOnline,
		Text:      indicatorText(p.health),
		CheckedAt: p.checkedAt,
	}
}

func indicatorText(h Health) string {
	switch h {
	case HealthOnline:
		return "Assistant online"
	case HealthError:
		return "Assistant server error"
	case HealthOffline:
		return "Assistant offline"
	default:
		return "Checking assistant..."
	}
}
