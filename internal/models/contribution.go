// Package models defines the core domain entities for donation analytics.
// These models represent parsed contribution records, donor identities, the
// (recipient, zip, year) grouping key and the emitted result rows.
//
// Terminology (matching the FEC individual contributions file):
//   - Recipient: the committee receiving the contribution (CMTE_ID).
//   - Zone: the first five characters of the donor's ZIP_CODE.
//   - Other ID: set when the contribution came through another entity.
package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field positions in a pipe-delimited contribution line.
const (
	fieldRecipient = 0
	fieldName      = 7
	fieldZip       = 10
	fieldDate      = 13
	fieldAmount    = 14
	fieldOtherID   = 15

	minFieldCount = fieldOtherID + 1
)

// ZoneLength is the number of ZIP_CODE characters forming a postal zone.
const ZoneLength = 5

// DateLayout is the MMDDYYYY layout of TRANSACTION_DT.
const DateLayout = "01022006"

// Malformed-record causes. A line failing any of these is skipped.
var (
	ErrEmptyLine      = errors.New("empty line")
	ErrFieldCount     = errors.New("too few fields")
	ErrOtherID        = errors.New("other id present")
	ErrEmptyAmount    = errors.New("transaction amount is empty")
	ErrInvalidAmount  = errors.New("transaction amount is not a number")
	ErrEmptyRecipient = errors.New("recipient id is empty")
	ErrShortZip       = errors.New("zip code shorter than 5 characters")
	ErrInvalidDate    = errors.New("transaction date is invalid")
)

// Contribution is a single validated contribution record
type Contribution struct {
	Recipient string
	Name      string
	Zone      string
	Date      time.Time
	Amount    float64
}

// Year returns the calendar year of the transaction
func (c *Contribution) Year() int {
	return c.Date.Year()
}

// Donor returns the identity of the contributing donor
func (c *Contribution) Donor() DonorIdentity {
	return NewDonorIdentity(c.Name, c.Zone)
}

// Group returns the key of the output series this contribution belongs to
func (c *Contribution) Group() GroupKey {
	return GroupKey{Recipient: c.Recipient, Zone: c.Zone, Year: c.Year()}
}

// ParseContribution parses one pipe-delimited input line.
// The returned error is one of the sentinel errors above and can be matched
// with errors.Is.
func ParseContribution(line string) (*Contribution, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyLine
	}

	columns := strings.Split(line, "|")
	if len(columns) < minFieldCount {
		return nil, ErrFieldCount
	}

	recipient := columns[fieldRecipient]
	zone := columns[fieldZip]
	if len(zone) > ZoneLength {
		zone = zone[:ZoneLength]
	}
	rawAmount := columns[fieldAmount]

	switch {
	case columns[fieldOtherID] != "":
		return nil, ErrOtherID
	case rawAmount == "":
		return nil, ErrEmptyAmount
	case recipient == "":
		return nil, ErrEmptyRecipient
	case len(zone) < ZoneLength:
		return nil, ErrShortZip
	}

	date, err := time.Parse(DateLayout, columns[fieldDate])
	if err != nil {
		return nil, ErrInvalidDate
	}

	if !isDecimal(rawAmount) {
		return nil, ErrInvalidAmount
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsInf(amount, 0) {
		return nil, ErrInvalidAmount
	}

	return &Contribution{
		Recipient: recipient,
		Name:      columns[fieldName],
		Zone:      zone,
		Date:      date,
		Amount:    amount,
	}, nil
}

// isDecimal reports whether s is a plain decimal number: an optional sign,
// digits and at most one '.', with at least one digit. Exponents, hex floats
// and NaN/Inf spellings are rejected.
func isDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
