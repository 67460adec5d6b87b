package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"libtrack/internal/core/domain"
)

// CatalogStore keeps books and students in process memory. Records are
// copied in and out so callers never share state with the store.
type CatalogStore struct {
	mu       sync.RWMutex
	books    map[string]*domain.Book
	students map[string]*domain.Student
}

// NewCatalogStore creates an empty store
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{
		books:    make(map[string]*domain.Book),
		students: make(map[string]*domain.Student),
	}
}

func (s *CatalogStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	return copyBook(book), nil
}

func (s *CatalogStore) ListBooks(_ context.Context) ([]*domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*domain.Book, 0, len(s.books))
	for _, book := range s.books {
		books = append(books, copyBook(book))
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books, nil
}

func (s *CatalogStore) CreateBook(_ context.Context, book *domain.Book) error {
	if err := book.CheckInvariant(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; ok {
		return fmt.Errorf("book %s: %w", book.ID, domain.ErrDuplicateID)
	}
	s.books[book.ID] = copyBook(book)
	return nil
}

func (s *CatalogStore) GetStudent(_ context.Context, id string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	student, ok := s.students[id]
	if !ok {
		return nil, fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
	}
	cp := *student
	return &cp, nil
}

func (s *CatalogStore) FindStudent(_ context.Context, id string) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, student := range s.students {
		if strings.EqualFold(key, id) {
			cp := *student
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("student %s: %w", id, domain.ErrNotFound)
}

func (s *CatalogStore) ListStudents(_ context.Context) ([]*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]*domain.Student, 0, len(s.students))
	for _, student := range s.students {
		cp := *student
		students = append(students, &cp)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (s *CatalogStore) CreateStudent(_ context.Context, student *domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.students {
		if strings.EqualFold(id, student.ID) {
			return fmt.Errorf("student %s: %w", student.ID, domain.ErrDuplicateID)
		}
	}
	cp := *student
	s.students[student.ID] = &cp
	return nil
}

func (s *CatalogStore) MutateBookLending(_ context.Context, id string, change domain.LendingChange) (*domain.Book, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	if change.ExpectStatus != "" && book.Status != change.ExpectStatus {
		return nil, domain.ErrNotAvailable
	}

	next := copyBook(book)
	change.Apply(next)
	s.books[id] = next
	return copyBook(next), nil
}

func copyBook(b *domain.Book) *domain.Book {
	cp := *b
	if b.BorrowerID != nil {
		borrower := *b.BorrowerID
		cp.BorrowerID = &borrower
	}
	if b.DueDate != nil {
		due := *b.DueDate
		cp.DueDate = &due
	}
	return &cp
}
