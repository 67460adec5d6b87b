package handlers

import (
	"libtrack/internal/core/services"
	"libtrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StudentHandler handles student endpoints
type StudentHandler struct {
	lending *services.LendingService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(lending *services.LendingService) *StudentHandler {
	return &StudentHandler{lending: lending}
}

// RegisterStudentRequest represents the student registration body
type RegisterStudentRequest struct {
	ID   string `json:"id"` // roll number
	Name string `json:"name"`
}

// ListStudents lists all students
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	students, err := h.lending.ListStudents(c.Context())
	if err != nil {
		return domainError(c, err, "Failed to list students")
	}

	data := make([]fiber.Map, len(students))
	for i, s := range students {
		data[i] = fiber.Map{"id": s.ID, "name": s.Name}
	}
	return response.Success(c, "Students retrieved successfully", data)
}

// RegisterStudent creates a student record (Admin only)
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegisterStudentRequest true "Student"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /students [post]
func (h *StudentHandler) RegisterStudent(c *fiber.Ctx) error {
	var req RegisterStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	student, err := h.lending.RegisterStudent(c.Context(), req.ID, req.Name)
	if err != nil {
		return domainError(c, err, "Failed to register student")
	}

	return response.Created(c, "Student registered successfully", fiber.Map{
		"id":   student.ID,
		"name": student.Name,
	})
}
