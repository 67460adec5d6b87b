package repositories

import (
	"context"
	"errors"
	"fmt"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/core/domain"

	"gorm.io/gorm"
)

// CatalogStore implements services.CatalogStore on top of gorm
type CatalogStore struct {
	db *gorm.DB
}

// NewCatalogStore creates a new gorm-backed catalog store
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// GetBook gets a book by ID
func (s *CatalogStore) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, notFound(err, "book", id)
	}
	return book.ToDomain(), nil
}

// ListBooks lists all books ordered by title
func (s *CatalogStore) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var rows []*models.Book
	if err := s.db.WithContext(ctx).Order("title").Find(&rows).Error; err != nil {
		return nil, err
	}

	books := make([]*domain.Book, len(rows))
	for i, row := range rows {
		books[i] = row.ToDomain()
	}
	return books, nil
}

// CreateBook inserts a new book
func (s *CatalogStore) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := book.CheckInvariant(); err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", book.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("book %s: %w", book.ID, domain.ErrDuplicateID)
	}

	return s.db.WithContext(ctx).Create(models.BookFromDomain(book)).Error
}

// GetStudent gets a student by ID
func (s *CatalogStore) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&student).Error
	if err != nil {
		return nil, notFound(err, "student", id)
	}
	return student.ToDomain(), nil
}

// FindStudent gets a student by ID ignoring case
func (s *CatalogStore) FindStudent(ctx context.Context, id string) (*domain.Student, error) {
	var student models.Student
	err := s.db.WithContext(ctx).Where("LOWER(id) = LOWER(?)", id).First(&student).Error
	if err != nil {
		return nil, notFound(err, "student", id)
	}
	return student.ToDomain(), nil
}

// ListStudents lists all students ordered by ID
func (s *CatalogStore) ListStudents(ctx context.Context) ([]*domain.Student, error) {
	var rows []*models.Student
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	students := make([]*domain.Student, len(rows))
	for i, row := range rows {
		students[i] = row.ToDomain()
	}
	return students, nil
}

// CreateStudent inserts a student unless the id exists ignoring case
func (s *CatalogStore) CreateStudent(ctx context.Context, student *domain.Student) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("LOWER(id) = LOWER(?)", student.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("student %s: %w", student.ID, domain.ErrDuplicateID)
	}

	return s.db.WithContext(ctx).Create(&models.Student{ID: student.ID, Name: student.Name}).Error
}

// MutateBookLending applies the change with a single conditional UPDATE.
// When change.ExpectStatus is set and another writer got there first, no
// row matches and the caller gets domain.ErrNotAvailable.
func (s *CatalogStore) MutateBookLending(ctx context.Context, id string, change domain.LendingChange) (*domain.Book, error) {
	if err := change.Validate(); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id)
	if change.ExpectStatus != "" {
		query = query.Where("status = ?", string(change.ExpectStatus))
	}

	res := query.Updates(map[string]interface{}{
		"status":      string(change.Status),
		"borrower_id": nullable(change.BorrowerID),
		"due_date":    nullable(change.DueDate),
	})
	if res.Error != nil {
		return nil, res.Error
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	// a miss on the status guard is a lost race even if the row has moved on since
	if res.RowsAffected == 0 && change.ExpectStatus != "" {
		return nil, domain.ErrNotAvailable
	}
	return book, nil
}

// nullable turns a typed nil pointer into an untyped nil so gorm writes NULL
func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}
