package handlers

import (
	"strings"
	"time"

	"libtrack/internal/adapters/http/middleware"
	"libtrack/internal/core/domain"
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/clock"
	"libtrack/internal/pkg/pagination"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog and circulation endpoints
type BookHandler struct {
	lending *services.LendingService
	clock   clock.Clock
}

// NewBookHandler creates a new book handler
func NewBookHandler(lending *services.LendingService, clk clock.Clock) *BookHandler {
	return &BookHandler{lending: lending, clock: clk}
}

// BookResponse DTO
type BookResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Status      string     `json:"status"`
	BorrowerID  *string    `json:"borrower_id"`
	DueDate     *time.Time `json:"due_date"`
	Overdue     bool       `json:"overdue"`
	CurrentFine int        `json:"current_fine"`
	CanReturn   bool       `json:"can_return"`
}

// CreateBookRequest represents the add book request body
type CreateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BorrowRequest represents the borrow request body
type BorrowRequest struct {
	BookID    string `json:"book_id"`
	StudentID string `json:"student_id"` // admins only; students borrow for themselves
}

// ReturnRequest represents the return request body
type ReturnRequest struct {
	BookID string `json:"book_id"`
	Force  bool   `json:"force"`
}

// ListBooks lists the catalog
// @Summary List books
// @Description Paginated catalog, available books first then by title
// @Tags Books
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) ListBooks(c *fiber.Ctx) error {
	books, err := h.lending.ListBooks(c.Context())
	if err != nil {
		return domainError(c, err, "Failed to list books")
	}

	params := pagination.GetParams(c)
	page := pagination.Slice(books, params)

	actor := middleware.ActorFrom(c)
	now := h.clock.Now()
	data := make([]*BookResponse, len(page))
	for i, book := range page {
		data[i] = h.toResponse(actor, book, now)
	}

	return response.Paginated(c, "Books retrieved successfully", data, pagination.GetMeta(params, int64(len(books))))
}

// GetBook returns one book
// @Summary Get book
// @Tags Books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetBook(c *fiber.Ctx) error {
	book, err := h.lending.GetBook(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", h.toResponse(middleware.ActorFrom(c), book, h.clock.Now()))
}

// CreateBook adds a book to the catalog (Admin only)
// @Summary Add book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books [post]
func (h *BookHandler) CreateBook(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.lending.AddBook(c.Context(), req.Title, req.Author)
	if err != nil {
		return domainError(c, err, "Failed to add book")
	}

	return response.Created(c, "Book added successfully", h.toResponse(middleware.ActorFrom(c), book, h.clock.Now()))
}

// Borrow lends a book for the loan period
// @Summary Borrow book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BorrowRequest true "Borrow"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /books/borrow [post]
func (h *BookHandler) Borrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.ActorFrom(c)
	studentID := actor.StudentID
	if requested := strings.TrimSpace(req.StudentID); requested != "" && !strings.EqualFold(requested, studentID) {
		if !actor.IsAdmin() {
			return response.Forbidden(c, "Students can only borrow for themselves")
		}
		studentID = requested
	}

	result, err := h.lending.Borrow(c.Context(), req.BookID, studentID, h.clock.Now())
	if err != nil {
		return domainError(c, err, "Failed to borrow book")
	}

	return response.Success(c, "Book borrowed successfully", fiber.Map{
		"book":     h.toResponse(actor, result.Book, h.clock.Now()),
		"due_date": result.DueDate,
	})
}

// Return puts a book back and reports the late fine
// @Summary Return book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ReturnRequest true "Return"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/return [post]
func (h *BookHandler) Return(c *fiber.Ctx) error {
	var req ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor := middleware.ActorFrom(c)
	now := h.clock.Now()
	result, err := h.lending.Return(c.Context(), req.BookID, now, actor, req.Force)
	if err != nil {
		return domainError(c, err, "Failed to return book")
	}

	return response.Success(c, "Book returned successfully", fiber.Map{
		"book": h.toResponse(actor, result.Book, now),
		"fine": result.Fine,
	})
}

// History lists the circulation history of a book (Admin only)
// @Summary Book history
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/history [get]
func (h *BookHandler) History(c *fiber.Ctx) error {
	events, err := h.lending.History(c.Context(), c.Params("id"))
	if err != nil {
		return domainError(c, err, "Failed to get history")
	}

	data := make([]fiber.Map, len(events))
	for i, e := range events {
		data[i] = fiber.Map{
			"id":          e.ID,
			"kind":        e.Kind,
			"student_id":  e.StudentID,
			"due_date":    e.DueDate,
			"fine":        e.Fine,
			"actor_id":    e.ActorID,
			"forced":      e.Forced,
			"occurred_at": e.OccurredAt,
		}
	}

	return response.Success(c, "History retrieved successfully", data)
}

func (h *BookHandler) toResponse(actor domain.Actor, book *domain.Book, now time.Time) *BookResponse {
	return &BookResponse{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Status:      string(book.Status),
		BorrowerID:  book.BorrowerID,
		DueDate:     book.DueDate,
		Overdue:     domain.IsOverdue(book, now),
		CurrentFine: h.lending.CurrentFine(book, now),
		CanReturn:   !book.IsAvailable() && h.lending.CanReturn(actor, book, false),
	}
}
