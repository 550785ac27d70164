package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campushire/campushire/internal/identity"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection, otherwise every connection sees its own empty memory DB
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}

func TestUser_CreateAssignsULID(t *testing.T) {
	db := openTestDB(t)

	user := &User{Email: "sam@uni.edu", PasswordHash: "x", Name: "Sam", Role: identity.RoleStudent}
	require.NoError(t, db.Create(user).Error)
	assert.Len(t, user.ID, 26)

	var found User
	require.NoError(t, FindByID(db, user.ID, &found))
	assert.Equal(t, "sam@uni.edu", found.Email)
	assert.Equal(t, identity.RoleStudent, found.Role)
	assert.False(t, found.IsVerified)
}

func TestUser_UniqueEmail(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&User{Email: "dup@uni.edu", PasswordHash: "x", Name: "A", Role: identity.RoleAlumni}).Error)
	assert.Error(t, db.Create(&User{Email: "dup@uni.edu", PasswordHash: "y", Name: "B", Role: identity.RoleAlumni}).Error)
}

func TestUser_Identity(t *testing.T) {
	recruiter := &User{
		BaseModel:  BaseModel{ID: "r1"},
		Email:      "rita@acme.test",
		Name:       "Rita",
		Role:       identity.RoleRecruiter,
		IsVerified: true,
		Company:    "Acme",
		JobTitle:   "Talent Lead",
		Department: "ignored",
	}

	id := recruiter.Identity()
	assert.Equal(t, "r1", id.ID)
	assert.Equal(t, identity.RoleRecruiter, id.Role)
	assert.True(t, id.IsVerified)
	assert.JSONEq(t, `{"company":"Acme","jobTitle":"Talent Lead"}`, string(id.Profile))

	student := &User{Role: identity.RoleStudent, Department: "CSE", Batch: "2022"}
	assert.JSONEq(t, `{"department":"CSE","batch":"2022"}`, string(student.Identity().Profile))

	admin := &User{Role: identity.RoleAdmin}
	assert.JSONEq(t, `{}`, string(admin.Identity().Profile))
}
