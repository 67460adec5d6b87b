package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libtrack/internal/adapters/persistence/memory"
	"libtrack/internal/core/domain"
)

func Test_CatalogStore_MutateBookLending_RejectsLoserOfRace(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memory.NewCatalogStore()
	require.NoError(t, store.CreateBook(ctx, &domain.Book{ID: "b1", Title: "Deep Work", Status: domain.StatusAvailable}))
	due := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	// act
	_, firstErr := store.MutateBookLending(ctx, "b1", domain.BorrowChange("S1", due))
	_, secondErr := store.MutateBookLending(ctx, "b1", domain.BorrowChange("S2", due.AddDate(0, 0, 1)))

	// assert
	require.NoError(t, firstErr)
	assert.ErrorIs(t, secondErr, domain.ErrNotAvailable)

	book, err := store.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "S1", book.BorrowedBy())
	assert.Equal(t, due, *book.DueDate)
}

func Test_CatalogStore_FindStudent_IgnoresCase(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCatalogStore()
	require.NoError(t, store.CreateStudent(ctx, &domain.Student{ID: "STU-010", Name: "Aarav Kumar"}))

	student, err := store.FindStudent(ctx, "stu-010")
	require.NoError(t, err)
	assert.Equal(t, "STU-010", student.ID)

	_, err = store.FindStudent(ctx, "stu-011")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_CatalogStore_MutateBookLending_UnknownBook(t *testing.T) {
	store := memory.NewCatalogStore()

	_, err := store.MutateBookLending(context.Background(), "nope", domain.ReturnChange())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_CatalogStore_MutateBookLending_RejectsBrokenInvariant(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCatalogStore()
	require.NoError(t, store.CreateBook(ctx, &domain.Book{ID: "b1", Status: domain.StatusAvailable}))

	_, err := store.MutateBookLending(ctx, "b1", domain.LendingChange{Status: domain.StatusBorrowed})

	assert.ErrorIs(t, err, domain.ErrInvalidLending)
}

func Test_CatalogStore_ReturnedCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCatalogStore()
	require.NoError(t, store.CreateBook(ctx, &domain.Book{ID: "b1", Title: "Clean Code", Status: domain.StatusAvailable}))

	book, err := store.GetBook(ctx, "b1")
	require.NoError(t, err)
	book.Title = "changed"

	again, err := store.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Clean Code", again.Title)
}

func Test_CatalogStore_CreateStudent_CaseInsensitiveDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewCatalogStore()
	require.NoError(t, store.CreateStudent(ctx, &domain.Student{ID: "STU-001", Name: "Aarav Kumar"}))

	err := store.CreateStudent(ctx, &domain.Student{ID: "stu-001", Name: "Someone Else"})

	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	student, err := store.GetStudent(ctx, "STU-001")
	require.NoError(t, err)
	assert.Equal(t, "Aarav Kumar", student.Name)
}

func Test_LoanLedger_ListByBook(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLoanLedger()
	require.NoError(t, ledger.Append(ctx, &domain.LoanEvent{ID: "ev_1", BookID: "b1", Kind: domain.LoanEventBorrow}))
	require.NoError(t, ledger.Append(ctx, &domain.LoanEvent{ID: "ev_2", BookID: "b2", Kind: domain.LoanEventBorrow}))
	require.NoError(t, ledger.Append(ctx, &domain.LoanEvent{ID: "ev_3", BookID: "b1", Kind: domain.LoanEventReturn}))

	events, err := ledger.ListByBook(ctx, "b1")

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev_1", events[0].ID)
	assert.Equal(t, "ev_3", events[1].ID)
}
