package util

import (
	"time"

	"github.com/OFFIS-RIT/wikigraph/pkg/logger"
)

// Progress logs a monotonically increasing counter at a bounded cadence.
// It is purely observational and only safe for use from a single goroutine.
type Progress struct {
	label      string
	every      int64
	count      int64
	lastLogged int64
	start      time.Time
}

// NewProgress creates a progress reporter that logs every `every` increments.
func NewProgress(label string, every int64) *Progress {
	if every <= 0 {
		every = 1000
	}
	return &Progress{
		label: label,
		every: every,
		start: time.Now(),
	}
}

// Add advances the counter by n, logging when the cadence threshold is crossed.
func (p *Progress) Add(n int64) {
	p.count += n
	if p.count-p.lastLogged >= p.every {
		p.lastLogged = p.count
		logger.Info(p.label, "count", p.count)
	}
}

// Count returns the current counter value.
func (p *Progress) Count() int64 {
	return p.count
}

// Done logs the final count and total elapsed time.
func (p *Progress) Done() {
	logger.Info(p.label+" done", "count", p.count, "elapsed", time.Since(p.start).Round(time.Millisecond))
}
