// Package analytics drives the repeat-donor stream: each contribution line is
// parsed, classified against donor history and, for repeat donors, folded
// into the running percentile of its (recipient, zone, year) group.
//
// Processing is strictly sequential. Donor history is shared across all
// groups and the running percentile depends on insertion order, so lines are
// handled one at a time in input order.
package analytics

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rewired-gh/donation-analytics/internal/donor"
	"github.com/rewired-gh/donation-analytics/internal/models"
	"github.com/rewired-gh/donation-analytics/internal/percentile"
)

// Processor owns the donor history and the per-group estimators for one run
type Processor struct {
	runID   string
	p       float64
	tracker *donor.Tracker
	groups  map[models.GroupKey]*percentile.Running
}

// New creates a Processor for the percentile fraction p in (0, 1]
func New(p float64) (*Processor, error) {
	if !(p > 0 && p <= 1) {
		return nil, fmt.Errorf("invalid percentile %v: must be in (0, 1]", p)
	}
	return &Processor{
		runID:   uuid.New().String(),
		p:       p,
		tracker: donor.NewTracker(),
		groups:  make(map[models.GroupKey]*percentile.Running),
	}, nil
}

// Process handles one input line.
// It returns a malformed-record error from the models package when the line
// is skipped, (nil, nil) when the donor is not a repeat donor, and the updated
// group result otherwise. Skipped lines leave all state untouched.
func (p *Processor) Process(line string) (*models.Result, error) {
	c, err := models.ParseContribution(line)
	if err != nil {
		return nil, err
	}

	if !p.tracker.CheckAndRecord(c.Donor(), c.Year()) {
		return nil, nil
	}

	key := c.Group()
	est, exists := p.groups[key]
	if !exists {
		est = percentile.New(p.p)
		p.groups[key] = est
	}
	est.Add(c.Amount)

	value, _ := est.Percentile()
	return &models.Result{
		Key:        key,
		Percentile: value,
		Total:      est.Total(),
		Count:      est.Count(),
	}, nil
}

// RunID returns the unique identifier of this run
func (p *Processor) RunID() string {
	return p.runID
}

// Donors returns the number of distinct donors seen so far
func (p *Processor) Donors() int {
	return p.tracker.Len()
}

// Groups returns the number of output series created so far
func (p *Processor) Groups() int {
	return len(p.groups)
}
