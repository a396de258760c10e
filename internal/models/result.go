package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Result is one emitted output row for a repeat-donor contribution
type Result struct {
	Key        GroupKey
	Percentile float64
	Total      float64
	Count      int
}

// TotalRounded returns the running total rounded half to even
func (r *Result) TotalRounded() int64 {
	return int64(math.RoundToEven(r.Total))
}

// String formats the result as recipient|zone|year|percentile|total|count
func (r *Result) String() string {
	fields := []string{
		r.Key.Recipient,
		r.Key.Zone,
		strconv.Itoa(r.Key.Year),
		strconv.FormatFloat(r.Percentile, 'f', -1, 64),
		strconv.FormatInt(r.TotalRounded(), 10),
		strconv.Itoa(r.Count),
	}
	return strings.Join(fields, "|")
}

// Validate checks that all result fields are valid
func (r *Result) Validate() error {
	if r.Key.Recipient == "" {
		return errors.New("recipient must not be empty")
	}
	if len(r.Key.Zone) != ZoneLength {
		return errors.New("zone must be exactly 5 characters")
	}
	if r.Count < 1 {
		return errors.New("count must be at least 1")
	}
	if math.IsNaN(r.Percentile) || math.IsNaN(r.Total) {
		return errors.New("percentile and total must be numbers")
	}
	return nil
}
