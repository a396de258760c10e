package models

import "strings"

// DonorIdentity identifies a donor by upper-cased name and postal zone.
// It is comparable and used directly as a map key.
type DonorIdentity struct {
	Name string
	Zone string
}

// NewDonorIdentity normalizes the name so differently cased spellings collapse
func NewDonorIdentity(name, zone string) DonorIdentity {
	return DonorIdentity{Name: strings.ToUpper(name), Zone: zone}
}

// GroupKey identifies one running-statistics series
type GroupKey struct {
	Recipient string
	Zone      string
	Year      int
}
