package donor

import (
	"testing"

	"github.com/rewired-gh/donation-analytics/internal/models"
)

func TestCheckAndRecord(t *testing.T) {
	tr := NewTracker()
	john := models.NewDonorIdentity("John Smith", "12345")
	jane := models.NewDonorIdentity("jane doe", "12345")

	if tr.CheckAndRecord(john, 2014) {
		t.Error("First contribution must not be a repeat")
	}
	if !tr.CheckAndRecord(john, 2015) {
		t.Error("Contribution after an earlier year must be a repeat")
	}
	if tr.CheckAndRecord(jane, 2015) {
		t.Error("Different donor must not be a repeat")
	}
}

func TestCheckAndRecordSameYear(t *testing.T) {
	tr := NewTracker()
	id := models.NewDonorIdentity("A", "12345")

	tr.CheckAndRecord(id, 2017)
	if tr.CheckAndRecord(id, 2017) {
		t.Error("Same-year repeat must not qualify")
	}
}

func TestCheckAndRecordOutOfOrder(t *testing.T) {
	tr := NewTracker()
	id := models.NewDonorIdentity("A", "12345")

	// A later year first, then an earlier one: the earlier record is not a repeat.
	if tr.CheckAndRecord(id, 2018) {
		t.Error("First contribution must not be a repeat")
	}
	if tr.CheckAndRecord(id, 2017) {
		t.Error("Earlier year must not be a repeat of a later one")
	}
	// 2018 now has 2017 on file.
	if !tr.CheckAndRecord(id, 2018) {
		t.Error("Expected repeat once an earlier year is on file")
	}
}

func TestCheckAndRecordCaseFolding(t *testing.T) {
	tr := NewTracker()

	tr.CheckAndRecord(models.NewDonorIdentity("john smith", "12345"), 2016)
	if !tr.CheckAndRecord(models.NewDonorIdentity("JOHN SMITH", "12345"), 2017) {
		t.Error("Names differing only in case must be the same donor")
	}
	if tr.Len() != 1 {
		t.Errorf("Expected 1 donor, got %d", tr.Len())
	}
}

func TestYearsMonotone(t *testing.T) {
	tr := NewTracker()
	id := models.NewDonorIdentity("A", "12345")
	years := []int{2017, 2015, 2017, 2016, 2015, 2018}

	prev := 0
	for _, y := range years {
		tr.CheckAndRecord(id, y)
		set := tr.Years(id)
		if len(set) < prev {
			t.Fatalf("Year set shrank from %d to %d", prev, len(set))
		}
		if !set.Contains(y) {
			t.Fatalf("Year %d missing after record", y)
		}
		prev = len(set)
	}
	if prev != 4 {
		t.Errorf("Expected 4 distinct years, got %d", prev)
	}
}
