package domain

import "time"

// Role represents the role of an acting identity
type Role string

const (
	RoleAnonymous Role = ""
	RoleStudent   Role = "student"
	RoleAdmin     Role = "admin"
)

// BookStatus represents the lending status of a book
type BookStatus string

const (
	StatusAvailable BookStatus = "available"
	StatusBorrowed  BookStatus = "borrowed"
)

// Book represents a catalog entry in the domain layer
type Book struct {
	ID         string
	Title      string
	Author     string
	Status     BookStatus
	BorrowerID *string
	DueDate    *time.Time
}

// IsAvailable reports whether the book can be borrowed
func (b *Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}

// BorrowedBy returns the borrower id or "" when the book is on the shelf
func (b *Book) BorrowedBy() string {
	if b.BorrowerID == nil {
		return ""
	}
	return *b.BorrowerID
}

// CheckInvariant verifies status=available <=> borrowerId=nil <=> dueDate=nil
func (b *Book) CheckInvariant() error {
	switch b.Status {
	case StatusAvailable:
		if b.BorrowerID != nil || b.DueDate != nil {
			return ErrInvalidLending
		}
	case StatusBorrowed:
		if b.BorrowerID == nil || *b.BorrowerID == "" || b.DueDate == nil {
			return ErrInvalidLending
		}
	default:
		return ErrInvalidLending
	}
	return nil
}

// Student represents a borrower
type Student struct {
	ID   string // roll number
	Name string
}

// Actor is the identity performing an operation. It is resolved by the
// calling layer and passed into every call.
type Actor struct {
	UserID    string
	StudentID string
	Role      Role
	// Verified is set only when the identity came from a signed token
	Verified bool
}

// Anonymous returns an actor with no identity
func Anonymous() Actor {
	return Actor{}
}

// IsAdmin reports whether the actor holds the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// LoanEventKind is the kind of a ledger entry
type LoanEventKind string

const (
	LoanEventBorrow LoanEventKind = "borrow"
	LoanEventReturn LoanEventKind = "return"
)

// LoanEvent is one entry of the circulation history
type LoanEvent struct {
	ID         string
	BookID     string
	StudentID  string
	Kind       LoanEventKind
	DueDate    *time.Time
	Fine       int
	ActorID    string
	Forced     bool
	OccurredAt time.Time
}
