package services

import (
	"context"

	"libtrack/internal/core/domain"
)

// CatalogStore holds the authoritative book and student records.
// Implementations: memory.CatalogStore (in-process) and
// repositories.CatalogStore (gorm).
type CatalogStore interface {
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	CreateBook(ctx context.Context, book *domain.Book) error

	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	// FindStudent matches the id ignoring case
	FindStudent(ctx context.Context, id string) (*domain.Student, error)
	ListStudents(ctx context.Context) ([]*domain.Student, error)
	// CreateStudent fails with domain.ErrDuplicateID when an id equal
	// ignoring case already exists
	CreateStudent(ctx context.Context, student *domain.Student) error

	// MutateBookLending applies status, borrower and due date together.
	// It returns domain.ErrNotFound for unknown ids and domain.ErrNotAvailable
	// when change.ExpectStatus is set and does not match.
	MutateBookLending(ctx context.Context, id string, change domain.LendingChange) (*domain.Book, error)
}

// LoanLedger keeps the circulation history
type LoanLedger interface {
	Append(ctx context.Context, event *domain.LoanEvent) error
	ListByBook(ctx context.Context, bookID string) ([]*domain.LoanEvent, error)
}
