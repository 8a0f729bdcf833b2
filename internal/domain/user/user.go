package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// BirthDateLayout is the wire format accepted on signup and profile update.
const BirthDateLayout = "02/01/2006"

// User is the sole persistent entity. PasswordHash is written once at signup
// and never serialized outward on any code path.
type User struct {
	ID           string    `json:"id"`
	LastName     string    `json:"lastName"`
	FirstName    string    `json:"firstName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Address      string    `json:"address"`
	BirthDate    time.Time `json:"birthDate"`
	PhoneNumber  string    `json:"phoneNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUserParams carries everything the store needs to persist a freshly
// validated signup. The password arrives already hashed.
type NewUserParams struct {
	LastName     string
	FirstName    string
	Email        string
	PasswordHash string
	Address      string
	BirthDate    time.Time
	PhoneNumber  string
}

// UpdateParams lists the mutable profile fields. Nil means "leave unchanged".
// Email and the password hash are deliberately absent: the profile-update path
// can never touch them.
type UpdateParams struct {
	LastName    *string
	FirstName   *string
	Address     *string
	BirthDate   *time.Time
	PhoneNumber *string
}

// Empty reports whether the update would change nothing.
func (p UpdateParams) Empty() bool {
	return p.LastName == nil && p.FirstName == nil && p.Address == nil &&
		p.BirthDate == nil && p.PhoneNumber == nil
}

// ParseBirthDate parses a day/month/year date string. An unparsable value is
// rejected before any persistence attempt.
func ParseBirthDate(s string) (time.Time, error) {
	t, err := time.Parse(BirthDateLayout, s)

	if err != nil {
		return time.Time{}, errors.New("invalid date format, expected DD/MM/YYYY")
	}

	return t.UTC(), nil
}
