package models

import (
	"strings"
	"time"

	"libtrack/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Catalog Tables
// ============================================================

// Book represents books table
type Book struct {
	ID         string     `gorm:"primaryKey;size:32" json:"id"`
	Title      string     `gorm:"size:255;not null" json:"title"`
	Author     string     `gorm:"size:255;not null" json:"author"`
	Status     string     `gorm:"size:16;not null;default:'available';index" json:"status"`
	BorrowerID *string    `gorm:"size:64;index" json:"borrower_id"`
	DueDate    *time.Time `json:"due_date"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// ToDomain converts the row to a domain book
func (b *Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		Status:     domain.BookStatus(b.Status),
		BorrowerID: b.BorrowerID,
		DueDate:    b.DueDate,
	}
}

// BookFromDomain converts a domain book to a row
func BookFromDomain(b *domain.Book) *Book {
	return &Book{
		ID:         b.ID,
		Title:      b.Title,
		Author:     b.Author,
		Status:     string(b.Status),
		BorrowerID: b.BorrowerID,
		DueDate:    b.DueDate,
	}
}

// Student represents students table
type Student struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) ToDomain() *domain.Student {
	return &domain.Student{ID: s.ID, Name: s.Name}
}

// LoanEvent represents loan_events table (circulation history)
type LoanEvent struct {
	ID         string     `gorm:"primaryKey;size:40" json:"id"`
	BookID     string     `gorm:"size:32;not null;index" json:"book_id"`
	StudentID  string     `gorm:"size:64;index" json:"student_id"`
	Kind       string     `gorm:"size:16;not null" json:"kind"`
	DueDate    *time.Time `json:"due_date"`
	Fine       int        `gorm:"not null;default:0" json:"fine"`
	ActorID    string     `gorm:"size:64" json:"actor_id"`
	Forced     bool       `gorm:"default:false" json:"forced"`
	OccurredAt time.Time  `gorm:"not null;index" json:"occurred_at"`
}

func (LoanEvent) TableName() string {
	return "loan_events"
}

func (e *LoanEvent) ToDomain() *domain.LoanEvent {
	return &domain.LoanEvent{
		ID:         e.ID,
		BookID:     e.BookID,
		StudentID:  e.StudentID,
		Kind:       domain.LoanEventKind(e.Kind),
		DueDate:    e.DueDate,
		Fine:       e.Fine,
		ActorID:    e.ActorID,
		Forced:     e.Forced,
		OccurredAt: e.OccurredAt,
	}
}

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table (students and admins)
type User struct {
	ID        string         `gorm:"primaryKey;size:32" json:"id"`
	FirstName string         `gorm:"size:100;not null" json:"first_name"`
	LastName  string         `gorm:"size:100;not null" json:"last_name"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;not null;default:'student'" json:"role"`
	RollNo    *string        `gorm:"uniqueIndex;size:64" json:"roll_no"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	RollNo    string    `json:"roll_no,omitempty"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	resp := &UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		FullName:  u.FullName(),
		CreatedAt: u.CreatedAt,
	}
	if u.RollNo != nil {
		resp.RollNo = *u.RollNo
	}
	return resp
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// StudentID returns the roll number of a student account
func (u *User) StudentID() string {
	if u.RollNo == nil {
		return ""
	}
	return *u.RollNo
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:32;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Book{},
		&Student{},
		&LoanEvent{},
		&User{},
		&RefreshToken{},
	)
}
