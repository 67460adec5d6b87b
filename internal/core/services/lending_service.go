package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"libtrack/internal/core/domain"
	"libtrack/internal/pkg/idgen"
)

// LendingService implements borrow, return and student registration
type LendingService struct {
	store  CatalogStore
	ledger LoanLedger
	policy domain.AccessPolicy
	ids    idgen.Generator
}

// NewLendingService creates a new lending service. ledger may be nil.
func NewLendingService(
	store CatalogStore,
	ledger LoanLedger,
	policy domain.AccessPolicy,
	ids idgen.Generator,
) *LendingService {
	return &LendingService{
		store:  store,
		ledger: ledger,
		policy: policy,
		ids:    ids,
	}
}

// BorrowResult is the outcome of a successful borrow
type BorrowResult struct {
	Book    *domain.Book
	DueDate time.Time
}

// ReturnResult is the outcome of a successful return
type ReturnResult struct {
	Book *domain.Book
	Fine int
}

// Policy returns the configured access policy
func (s *LendingService) Policy() domain.AccessPolicy {
	return s.policy
}

// Borrow lends a book to a student for the loan period starting at now
func (s *LendingService) Borrow(ctx context.Context, bookID, studentID string, now time.Time) (*BorrowResult, error) {
	// 1. A student must be selected
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, domain.ErrStudentRequired
	}

	// 2. Book must exist
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// 3. Book must be on the shelf
	if !book.IsAvailable() {
		return nil, domain.ErrNotAvailable
	}

	// 4. Student must be registered; the stored id is the canonical one
	student, err := s.store.FindStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	studentID = student.ID

	// 5. Write all three fields at once; the store rejects a lost race
	due := domain.DueDate(now)
	updated, err := s.store.MutateBookLending(ctx, book.ID, domain.BorrowChange(studentID, due))
	if err != nil {
		return nil, err
	}

	s.record(ctx, &domain.LoanEvent{
		BookID:     updated.ID,
		StudentID:  studentID,
		Kind:       domain.LoanEventBorrow,
		DueDate:    &due,
		ActorID:    studentID,
		OccurredAt: now,
	})

	log.Printf("📚 Book %s borrowed by %s (due %s)", updated.ID, studentID, due.Format(time.RFC3339))

	return &BorrowResult{Book: updated, DueDate: due}, nil
}

// Return puts a book back on the shelf and computes the late fine
func (s *LendingService) Return(ctx context.Context, bookID string, now time.Time, actor domain.Actor, force bool) (*ReturnResult, error) {
	// 1. Book must exist
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	// 2. Ask the configured policy
	if !s.policy.CanReturn(actor, book, force) {
		return nil, domain.ErrUnauthorized
	}

	// 3. Fine is computed from the stored due date
	fine := domain.FineFor(book, now)
	borrower := book.BorrowedBy()
	due := book.DueDate

	// 4. Clear status, borrower and due date together
	updated, err := s.store.MutateBookLending(ctx, book.ID, domain.ReturnChange())
	if err != nil {
		return nil, err
	}

	s.record(ctx, &domain.LoanEvent{
		BookID:     updated.ID,
		StudentID:  borrower,
		Kind:       domain.LoanEventReturn,
		DueDate:    due,
		Fine:       fine,
		ActorID:    actorRef(actor),
		Forced:     force,
		OccurredAt: now,
	})

	if fine > 0 {
		log.Printf("💸 Late return of %s, fine %d", updated.ID, fine)
	} else {
		log.Printf("📗 Book %s returned", updated.ID)
	}

	return &ReturnResult{Book: updated, Fine: fine}, nil
}

// CanReturn lets callers decide whether to offer the return action
func (s *LendingService) CanReturn(actor domain.Actor, book *domain.Book, force bool) bool {
	return s.policy.CanReturn(actor, book, force)
}

// RegisterStudent creates a student record
func (s *LendingService) RegisterStudent(ctx context.Context, id, name string) (*domain.Student, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return nil, fmt.Errorf("%w: student id and name are required", domain.ErrInvalidInput)
	}

	student := &domain.Student{ID: id, Name: name}
	if err := s.store.CreateStudent(ctx, student); err != nil {
		return nil, err
	}

	log.Printf("✅ Student registered: %s (%s)", student.Name, student.ID)
	return student, nil
}

// EnsureStudent returns the student whose id equals id ignoring case, creating
// it when there is none. Used to derive students from registered accounts.
func (s *LendingService) EnsureStudent(ctx context.Context, id, name string) (*domain.Student, error) {
	existing, err := s.store.FindStudent(ctx, strings.TrimSpace(id))
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	student, err := s.RegisterStudent(ctx, id, name)
	if isDuplicate(err) {
		// created concurrently
		return s.store.FindStudent(ctx, strings.TrimSpace(id))
	}
	return student, err
}

// AddBook adds a new available book to the catalog
func (s *LendingService) AddBook(ctx context.Context, title, author string) (*domain.Book, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" {
		return nil, fmt.Errorf("%w: title and author are required", domain.ErrInvalidInput)
	}

	book := &domain.Book{
		ID:     s.ids.NewID("b"),
		Title:  title,
		Author: author,
		Status: domain.StatusAvailable,
	}
	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook returns one book
func (s *LendingService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.store.GetBook(ctx, id)
}

// ListBooks lists books with available ones first, then by title
func (s *LendingService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(books, func(i, j int) bool {
		if books[i].Status != books[j].Status {
			return books[i].IsAvailable()
		}
		return books[i].Title < books[j].Title
	})
	return books, nil
}

// ListStudents lists all students
func (s *LendingService) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	return s.store.ListStudents(ctx)
}

// History returns the ledger of a book
func (s *LendingService) History(ctx context.Context, bookID string) ([]*domain.LoanEvent, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	if s.ledger == nil {
		return []*domain.LoanEvent{}, nil
	}
	return s.ledger.ListByBook(ctx, bookID)
}

// record appends to the ledger. The lending change is already applied, so
// failures are only logged.
func (s *LendingService) record(ctx context.Context, event *domain.LoanEvent) {
	if s.ledger == nil {
		return
	}
	event.ID = s.ids.NewID(idgen.EventPrefix)
	if err := s.ledger.Append(ctx, event); err != nil {
		log.Printf("⚠️ Failed to record %s of %s: %v", event.Kind, event.BookID, err)
	}
}

func actorRef(actor domain.Actor) string {
	if actor.UserID != "" {
		return actor.UserID
	}
	return actor.StudentID
}

// CurrentFine reports the fine the book would incur if returned at now
func (s *LendingService) CurrentFine(book *domain.Book, now time.Time) int {
	return domain.FineFor(book, now)
}
