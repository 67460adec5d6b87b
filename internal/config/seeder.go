package config

import (
	"log"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/pkg/idgen"
	"libtrack/internal/pkg/password"

	"gorm.io/gorm"
)

// DefaultAdmin is the account created on first start
var DefaultAdmin = struct {
	Username string
	Email    string
	Password string
}{
	Username: "admin",
	Email:    "admin@example.com",
	Password: "admin123",
}

var demoStudents = []models.Student{
	{ID: "STU-001", Name: "Aarav Kumar"},
	{ID: "STU-002", Name: "Diya Patel"},
}

var demoBooks = []struct{ Title, Author string }{
	{"Clean Code", "Robert C. Martin"},
	{"The Pragmatic Programmer", "Andrew Hunt, David Thomas"},
	{"Introduction to Algorithms", "Thomas H. Cormen"},
	{"Design Patterns", "Erich Gamma"},
}

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	ids idgen.Generator
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, ids idgen.Generator) *Seeder {
	return &Seeder{db: db, ids: ids}
}

// Run executes all seeders. Each seeder is skipped when its table already has rows.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}
	if err := s.seedStudents(); err != nil {
		log.Printf("⚠️ Student seeder skipped: %v", err)
	}
	if err := s.seedBooks(); err != nil {
		log.Printf("⚠️ Book seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the default admin user.
// Change the password after the first login.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash(DefaultAdmin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:        s.ids.NewID("adm"),
		FirstName: "Library",
		LastName:  "Admin",
		Email:     DefaultAdmin.Email,
		Username:  DefaultAdmin.Username,
		Password:  hashedPassword,
		Role:      "admin",
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

func (s *Seeder) seedStudents() error {
	var count int64
	if err := s.db.Model(&models.Student{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	students := make([]models.Student, len(demoStudents))
	copy(students, demoStudents)
	if err := s.db.Create(&students).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d students", len(students))
	return nil
}

func (s *Seeder) seedBooks() error {
	var count int64
	if err := s.db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	books := make([]models.Book, 0, len(demoBooks))
	for _, b := range demoBooks {
		books = append(books, models.Book{
			ID:     s.ids.NewID("b"),
			Title:  b.Title,
			Author: b.Author,
			Status: "available",
		})
	}
	if err := s.db.Create(&books).Error; err != nil {
		return err
	}

	log.Printf("✅ Seeded %d books", len(books))
	return nil
}
