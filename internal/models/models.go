package models

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/campushire/campushire/internal/identity"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User is a platform account. Students and alumni start unverified until an
// admin has checked their ID card; recruiters and admins start verified.
type User struct {
	BaseModel
	Email        string        `json:"email" gorm:"unique;not null"`
	PasswordHash string        `json:"-" gorm:"not null"`
	Name         string        `json:"name" gorm:"not null"`
	Role         identity.Role `json:"role" gorm:"type:varchar(16);not null;index"`
	IsVerified   bool          `json:"is_verified" gorm:"not null;default:false"`
	IsBlocked    bool          `json:"is_blocked" gorm:"not null;default:false"`

	// Student and alumni profile
	Department string `json:"department,omitempty"`
	Batch      string `json:"batch,omitempty"`
	IDCardPath string `json:"-"`

	// Recruiter profile
	Company  string `json:"company,omitempty"`
	JobTitle string `json:"job_title,omitempty"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Identity converts the row into the profile shape clients receive
func (u *User) Identity() *identity.User {
	profile := map[string]string{}
	switch {
	case u.Role.IsCampusMember():
		profile["department"] = u.Department
		profile["batch"] = u.Batch
	case u.Role == identity.RoleRecruiter:
		profile["company"] = u.Company
		profile["jobTitle"] = u.JobTitle
	}

	raw, _ := json.Marshal(profile)
	return &identity.User{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		Profile:    raw,
	}
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
