package domain

import (
	"math"
	"time"
)

const (
	// LoanPeriodDays is the number of calendar days between borrow and due date
	LoanPeriodDays = 7
	// FinePerDay is charged for every started late day
	FinePerDay = 5
)

const day = 24 * time.Hour

// DueDate adds the loan period to the day component of now, keeping the time of day
func DueDate(now time.Time) time.Time {
	return now.AddDate(0, 0, LoanPeriodDays)
}

// LateDays is ceil((returnedAt - due) / 1 day). Zero or negative means on time.
func LateDays(due, returnedAt time.Time) int {
	return int(math.Ceil(float64(returnedAt.Sub(due)) / float64(day)))
}

// Fine computes the fine for returning at returnedAt a book due at due
func Fine(due, returnedAt time.Time) int {
	late := LateDays(due, returnedAt)
	if late <= 0 {
		return 0
	}
	return late * FinePerDay
}

// FineFor returns the fine the book would incur if returned at now
func FineFor(b *Book, now time.Time) int {
	if b.DueDate == nil {
		return 0
	}
	return Fine(*b.DueDate, now)
}

// IsOverdue reports whether a borrowed book is past its due date
func IsOverdue(b *Book, now time.Time) bool {
	return b.Status == StatusBorrowed && b.DueDate != nil && b.DueDate.Before(now)
}

// LendingChange is the all-or-nothing update of status, borrower and due date.
// When ExpectStatus is set the store applies the change only if the current
// status matches.
type LendingChange struct {
	Status       BookStatus
	BorrowerID   *string
	DueDate      *time.Time
	ExpectStatus BookStatus
}

// BorrowChange marks a book as borrowed by studentID until due
func BorrowChange(studentID string, due time.Time) LendingChange {
	return LendingChange{
		Status:       StatusBorrowed,
		BorrowerID:   &studentID,
		DueDate:      &due,
		ExpectStatus: StatusAvailable,
	}
}

// ReturnChange puts a book back on the shelf
func ReturnChange() LendingChange {
	return LendingChange{Status: StatusAvailable}
}

// Validate checks that the change keeps the book invariant
func (c LendingChange) Validate() error {
	probe := Book{Status: c.Status, BorrowerID: c.BorrowerID, DueDate: c.DueDate}
	return probe.CheckInvariant()
}

// Apply writes the change onto b
func (c LendingChange) Apply(b *Book) {
	b.Status = c.Status
	b.BorrowerID = c.BorrowerID
	b.DueDate = c.DueDate
}
