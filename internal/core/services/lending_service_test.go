package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libtrack/internal/adapters/persistence/memory"
	"libtrack/internal/core/domain"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/idgen"
)

var (
	jan1  = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

type fixture struct {
	store   *memory.CatalogStore
	ledger  *memory.LoanLedger
	service *services.LendingService
}

func givenService(t *testing.T, policy domain.AccessPolicy) *fixture {
	t.Helper()

	store := memory.NewCatalogStore()
	ledger := memory.NewLoanLedger()
	require.NoError(t, store.CreateBook(context.Background(), &domain.Book{
		ID:     "b1",
		Title:  "The Pragmatic Programmer",
		Author: "Andrew Hunt, David Thomas",
		Status: domain.StatusAvailable,
	}))
	require.NoError(t, store.CreateStudent(context.Background(), &domain.Student{ID: "S1", Name: "Aarav Kumar"}))
	require.NoError(t, store.CreateStudent(context.Background(), &domain.Student{ID: "S2", Name: "Diya Patel"}))

	return &fixture{
		store:   store,
		ledger:  ledger,
		service: services.NewLendingService(store, ledger, policy, idgen.NewSequence()),
	}
}

func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()

	books, err := f.store.ListBooks(context.Background())
	require.NoError(t, err)
	for _, book := range books {
		assert.NoError(t, book.CheckInvariant(), "book %s", book.ID)
	}
}

func Test_Borrow_Success(t *testing.T) {
	// arrange
	f := givenService(t, domain.RoleGatedPolicy{})

	// act
	result, err := f.service.Borrow(context.Background(), "b1", "S1", jan1)

	// assert
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), result.DueDate)
	assert.Equal(t, domain.StatusBorrowed, result.Book.Status)
	assert.Equal(t, "S1", result.Book.BorrowedBy())
	f.assertInvariant(t)
}

func Test_Borrow_Failures(t *testing.T) {
	testCases := []struct {
		name      string
		bookID    string
		studentID string
		expected  error
	}{
		{name: "no student selected", bookID: "b1", studentID: "", expected: domain.ErrStudentRequired},
		{name: "blank student", bookID: "b1", studentID: "   ", expected: domain.ErrStudentRequired},
		{name: "student checked before book", bookID: "missing", studentID: "", expected: domain.ErrStudentRequired},
		{name: "unknown book", bookID: "missing", studentID: "S1", expected: domain.ErrNotFound},
		{name: "unknown student", bookID: "b1", studentID: "NO-SUCH-STUDENT", expected: domain.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := givenService(t, domain.OpenPolicy{})

			_, err := f.service.Borrow(context.Background(), tc.bookID, tc.studentID, jan1)

			assert.ErrorIs(t, err, tc.expected)
			f.assertInvariant(t)
		})
	}
}

func Test_Borrow_UnknownStudent_LeavesBookOnShelf(t *testing.T) {
	// arrange
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()

	// act
	_, err := f.service.Borrow(ctx, "b1", "NO-SUCH-STUDENT", jan1)

	// assert
	assert.ErrorIs(t, err, domain.ErrNotFound)
	book, err := f.store.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, book.IsAvailable())
	history, err := f.service.History(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func Test_Borrow_StoresRegisteredStudentID(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})

	result, err := f.service.Borrow(context.Background(), "b1", "s1", jan1)

	require.NoError(t, err)
	assert.Equal(t, "S1", result.Book.BorrowedBy())
}

func Test_Borrow_AlreadyBorrowed_LeavesLoanUntouched(t *testing.T) {
	// arrange
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()
	first, err := f.service.Borrow(ctx, "b1", "S1", jan1)
	require.NoError(t, err)

	// act
	_, err = f.service.Borrow(ctx, "b1", "S2", jan1.Add(time.Hour))

	// assert
	assert.ErrorIs(t, err, domain.ErrNotAvailable)
	book, err := f.store.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "S1", book.BorrowedBy())
	assert.Equal(t, first.DueDate, *book.DueDate)
	f.assertInvariant(t)
}

func Test_Return_AtDueDate_NoFine(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()
	borrowed, err := f.service.Borrow(ctx, "b1", "S1", jan1)
	require.NoError(t, err)

	result, err := f.service.Return(ctx, "b1", borrowed.DueDate, domain.Actor{StudentID: "S1"}, false)

	require.NoError(t, err)
	assert.Zero(t, result.Fine)
	assert.Equal(t, domain.StatusAvailable, result.Book.Status)
	f.assertInvariant(t)
}

func Test_Return_OneDayLate(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()
	_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
	require.NoError(t, err)

	result, err := f.service.Return(ctx, "b1", jan1.AddDate(0, 0, domain.LoanPeriodDays+1), domain.Actor{StudentID: "S1"}, false)

	require.NoError(t, err)
	assert.Equal(t, domain.FinePerDay, result.Fine)
}

func Test_Return_OpenPolicy(t *testing.T) {
	ctx := context.Background()
	stranger := domain.Actor{StudentID: "S2", Role: domain.RoleStudent}

	t.Run("non-borrower without force is rejected", func(t *testing.T) {
		f := givenService(t, domain.OpenPolicy{})
		_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
		require.NoError(t, err)

		_, err = f.service.Return(ctx, "b1", jan1.Add(time.Hour), stranger, false)

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
		book, err := f.store.GetBook(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "S1", book.BorrowedBy())
	})

	t.Run("force return by anyone succeeds", func(t *testing.T) {
		f := givenService(t, domain.OpenPolicy{})
		_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
		require.NoError(t, err)

		result, err := f.service.Return(ctx, "b1", jan1.Add(time.Hour), domain.Anonymous(), true)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusAvailable, result.Book.Status)
		f.assertInvariant(t)
	})
}

func Test_Return_RoleGatedPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("original borrower is rejected even with force", func(t *testing.T) {
		f := givenService(t, domain.RoleGatedPolicy{})
		_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
		require.NoError(t, err)

		_, err = f.service.Return(ctx, "b1", jan1.Add(time.Hour), domain.Actor{StudentID: "S1", Role: domain.RoleStudent}, true)

		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("admin succeeds regardless of borrower", func(t *testing.T) {
		f := givenService(t, domain.RoleGatedPolicy{})
		_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
		require.NoError(t, err)

		_, err = f.service.Return(ctx, "b1", jan1.Add(time.Hour), admin, false)

		assert.NoError(t, err)
	})
}

func Test_Return_ServerEnforcedPolicy_RequiresVerifiedAdmin(t *testing.T) {
	ctx := context.Background()
	f := givenService(t, domain.ServerEnforcedPolicy{})
	_, err := f.service.Borrow(ctx, "b1", "S1", jan1)
	require.NoError(t, err)

	_, err = f.service.Return(ctx, "b1", jan1, admin, false)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	verified := admin
	verified.Verified = true
	_, err = f.service.Return(ctx, "b1", jan1, verified, false)
	assert.NoError(t, err)
}

func Test_Return_UnknownBook(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})

	_, err := f.service.Return(context.Background(), "missing", jan1, admin, true)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func Test_Return_AvailableBook_NoFine(t *testing.T) {
	f := givenService(t, domain.RoleGatedPolicy{})

	result, err := f.service.Return(context.Background(), "b1", jan1, admin, false)

	require.NoError(t, err)
	assert.Zero(t, result.Fine)
	f.assertInvariant(t)
}

func Test_Scenario_BorrowJan1_ReturnJan10_AsAdmin(t *testing.T) {
	// arrange
	f := givenService(t, domain.RoleGatedPolicy{})
	ctx := context.Background()
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// act
	borrowed, err := f.service.Borrow(ctx, "b1", "S1", day1)
	require.NoError(t, err)
	returned, err := f.service.Return(ctx, "b1", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), admin, false)
	require.NoError(t, err)

	// assert
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), borrowed.DueDate)
	assert.Equal(t, domain.StatusBorrowed, borrowed.Book.Status)
	assert.Equal(t, 10, returned.Fine)
	assert.Equal(t, domain.StatusAvailable, returned.Book.Status)
	f.assertInvariant(t)

	history, err := f.service.History(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.LoanEventBorrow, history[0].Kind)
	assert.Equal(t, domain.LoanEventReturn, history[1].Kind)
	assert.Equal(t, "S1", history[1].StudentID)
	assert.Equal(t, "admin-1", history[1].ActorID)
	assert.Equal(t, 10, history[1].Fine)
}

func Test_RegisterStudent_RejectsDuplicateIgnoringCase(t *testing.T) {
	// arrange
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()
	_, err := f.service.RegisterStudent(ctx, "STU-001", "Aarav Kumar")
	require.NoError(t, err)

	// act
	_, err = f.service.RegisterStudent(ctx, "stu-001", "Diya Patel")

	// assert
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	student, err := f.store.GetStudent(ctx, "STU-001")
	require.NoError(t, err)
	assert.Equal(t, "Aarav Kumar", student.Name)
}

func Test_RegisterStudent_RequiresIDAndName(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})

	_, err := f.service.RegisterStudent(context.Background(), " ", "Diya Patel")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.service.RegisterStudent(context.Background(), "STU-002", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func Test_EnsureStudent_CreatesOnlyOnce(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()

	first, err := f.service.EnsureStudent(ctx, "R-17", "Diya Patel")
	require.NoError(t, err)
	second, err := f.service.EnsureStudent(ctx, "R-17", "Renamed")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	students, err := f.service.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 3) // S1, S2 and R-17
}

func Test_EnsureStudent_ReturnsExistingIgnoringCase(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})

	student, err := f.service.EnsureStudent(context.Background(), "s2", "Someone Else")

	require.NoError(t, err)
	assert.Equal(t, "S2", student.ID)
	assert.Equal(t, "Diya Patel", student.Name)
}

func Test_ListBooks_AvailableFirstThenTitle(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})
	ctx := context.Background()
	_, err := f.service.AddBook(ctx, "Atomic Habits", "James Clear")
	require.NoError(t, err)
	deep, err := f.service.AddBook(ctx, "Deep Work", "Cal Newport")
	require.NoError(t, err)
	_, err = f.service.AddBook(ctx, "Clean Code", "Robert C. Martin")
	require.NoError(t, err)
	_, err = f.service.Borrow(ctx, deep.ID, "S1", jan1)
	require.NoError(t, err)

	books, err := f.service.ListBooks(ctx)

	require.NoError(t, err)
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
	}
	assert.Equal(t, []string{"Atomic Habits", "Clean Code", "The Pragmatic Programmer", "Deep Work"}, titles)
}

func Test_AddBook_UsesInjectedIDs(t *testing.T) {
	f := givenService(t, domain.OpenPolicy{})

	book, err := f.service.AddBook(context.Background(), "Clean Code", "Robert C. Martin")

	require.NoError(t, err)
	assert.Equal(t, "b_1", book.ID)
	assert.Equal(t, domain.StatusAvailable, book.Status)
}
