package models

import "time"

// Roles a user account can hold. Stored as plain strings; the service keeps
// the original's behavior of not validating the set on write.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User is the persisted account record. PasswordHash never leaves the
// repository layer except through explicit credential checks; Projection
// produces the externally visible shape.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string

	FirstName      *string
	LastName       *string
	FullName       *string
	Gender         *string
	DateOfBirth    *time.Time
	Phone          *string
	CollegeName    *string
	EnrolledCourse *string
	Address        *string
	City           *string
	State          *string
	Country        *string

	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection is the caller-facing view of a User. Email is present only when
// explicitly requested; the password hash is never part of the projection.
type Projection struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email,omitempty"`
	Username       string  `json:"username"`
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	FullName       *string `json:"full_name"`
	Gender         *string `json:"gender"`
	DateOfBirth    *string `json:"date_of_birth"`
	Phone          *string `json:"phone"`
	CollegeName    *string `json:"college_name"`
	EnrolledCourse *string `json:"enrolled_course"`
	Address        *string `json:"address"`
	City           *string `json:"city"`
	State          *string `json:"state"`
	Country        *string `json:"country"`
	Role           string  `json:"role"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
}

// Projection converts the user to its external view. When includeEmail is
// false the email field is omitted from the serialized form.
func (u *User) Projection(includeEmail bool) Projection {
	p := Projection{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName,
		Gender:         u.Gender,
		Phone:          u.Phone,
		CollegeName:    u.CollegeName,
		EnrolledCourse: u.EnrolledCourse,
		Address:        u.Address,
		City:           u.City,
		State:          u.State,
		Country:        u.Country,
		Role:           u.Role,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt.UTC().Format(time.RFC3339),
	}

	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format("2006-01-02")
		p.DateOfBirth = &dob
	}

	if includeEmail {
		p.Email = u.Email
	}

	return p
}
