package memory

import (
	"context"
	"sync"

	"libtrack/internal/core/domain"
)

// LoanLedger is an append-only in-memory history
type LoanLedger struct {
	mu     sync.Mutex
	events []domain.LoanEvent
}

// NewLoanLedger creates an empty ledger
func NewLoanLedger() *LoanLedger {
	return &LoanLedger{}
}

func (l *LoanLedger) Append(_ context.Context, event *domain.LoanEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, *event)
	return nil
}

func (l *LoanLedger) ListByBook(_ context.Context, bookID string) ([]*domain.LoanEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := []*domain.LoanEvent{}
	for i := range l.events {
		if l.events[i].BookID == bookID {
			ev := l.events[i]
			events = append(events, &ev)
		}
	}
	return events, nil
}
