package repositories

import (
	"context"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/core/domain"

	"gorm.io/gorm"
)

// LoanLedger stores circulation history in loan_events
type LoanLedger struct {
	db *gorm.DB
}

// NewLoanLedger creates a new gorm-backed ledger
func NewLoanLedger(db *gorm.DB) *LoanLedger {
	return &LoanLedger{db: db}
}

// Append inserts one event
func (l *LoanLedger) Append(ctx context.Context, event *domain.LoanEvent) error {
	row := &models.LoanEvent{
		ID:         event.ID,
		BookID:     event.BookID,
		StudentID:  event.StudentID,
		Kind:       string(event.Kind),
		DueDate:    event.DueDate,
		Fine:       event.Fine,
		ActorID:    event.ActorID,
		Forced:     event.Forced,
		OccurredAt: event.OccurredAt,
	}
	return l.db.WithContext(ctx).Create(row).Error
}

// ListByBook lists the events of a book, oldest first
func (l *LoanLedger) ListByBook(ctx context.Context, bookID string) ([]*domain.LoanEvent, error) {
	var rows []*models.LoanEvent
	err := l.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("occurred_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	events := make([]*domain.LoanEvent, len(rows))
	for i, row := range rows {
		events[i] = row.ToDomain()
	}
	return events, nil
}
