package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor used for every stored password.
const PasswordHashCost = 12

// Role is a user's position in the control panel hierarchy.
type Role string

const (
	RoleClient  Role = "CLIENT"
	RoleSupport Role = "SUPPORT"
	RoleAdmin   Role = "ADMIN"
	RoleOwner   Role = "OWNER"
)

var roleLevels = map[Role]int{
	RoleClient:  1,
	RoleSupport: 2,
	RoleAdmin:   3,
	RoleOwner:   4,
}

// Level returns the numeric rank of the role. Unknown roles rank 0.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	ID               string     `json:"id"`
	OrganizationID   string     `json:"organizationId,omitempty"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"` // never serialize
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Role             Role       `json:"role"`
	IsActive         bool       `json:"isActive"`
	TwoFactorSecret  string     `json:"-"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// HasPendingTwoFactorSetup is true when a secret has been generated but not yet confirmed.
func (u *User) HasPendingTwoFactorSetup() bool {
	return u.TwoFactorSecret != "" && !u.TwoFactorEnabled
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
