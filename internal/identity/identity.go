// Package identity holds the user profile and registration shapes shared by the
// campushire client and the development Auth API.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Role is the platform role of an account
type Role string

const (
	RoleStudent   Role = "student"
	RoleAlumni    Role = "alumni"
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Roles lists every known role in display order
var Roles = []Role{RoleStudent, RoleAlumni, RoleRecruiter, RoleAdmin}

// ParseRole converts a case-insensitive role name into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleStudent, RoleAlumni, RoleRecruiter, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role '%s', must be one of: student, alumni, recruiter, admin", s)
}

// String returns the capitalised role name
func (r Role) String() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// UnmarshalJSON accepts any casing so "Recruiter" and "recruiter" decode alike
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = Role(strings.ToLower(s))
	return nil
}

// IsCampusMember reports whether the role registers with department and batch
func (r Role) IsCampusMember() bool {
	return r == RoleStudent || r == RoleAlumni
}

// User is the authenticated user's profile as returned by the backend.
// Profile is passed through untouched.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       Role            `json:"role"`
	IsVerified bool            `json:"isVerified"`
	IsBlocked  bool            `json:"isBlocked"`
	Profile    json.RawMessage `json:"profile,omitempty"`
}

// Registration is the sign-up form. Department and Batch apply to students and
// alumni, Company and JobTitle to recruiters.
type Registration struct {
	Name       string `validate:"required,max=100"`
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=6"`
	Role       Role   `validate:"required,oneof=student alumni recruiter"`
	Department string `validate:"required_if=Role student,required_if=Role alumni"`
	Batch      string `validate:"required_if=Role student,required_if=Role alumni"`
	Company    string `validate:"required_if=Role recruiter"`
	JobTitle   string `validate:"required_if=Role recruiter"`

	// IDCardPath is a local file uploaded as bracuIdCard
	IDCardPath string `validate:"-"`
}

var validate = validator.New()

// Validate checks the form before it is sent or stored
func (r *Registration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return errors.New(ValidationMessage(err))
	}
	return nil
}

// ValidationMessage turns validator errors into one readable sentence
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldLabel(fe.Field())
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func fieldLabel(name string) string {
	switch name {
	case "JobTitle":
		return "job title"
	case "IDCardPath":
		return "ID card"
	default:
		return strings.ToLower(name)
	}
}
