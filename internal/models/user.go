package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleTourist Role = "tourist"
	RoleDriver  Role = "driver"
	RoleAdmin   Role = "admin"
)

// DriverProfile holds the driver-specific attributes of a user account.
// Only present on accounts with RoleDriver.
type DriverProfile struct {
	LicenseNumber     string    `bson:"license_number" json:"license_number"`
	LicenseExpiry     time.Time `bson:"license_expiry" json:"license_expiry"`
	YearsOfExperience int       `bson:"years_of_experience" json:"years_of_experience"`
	Languages         []string  `bson:"languages" json:"languages"`
}

// User represents an account in the shared identity space.
// Tourists, drivers and admins all live in the same collection; the
// role flag distinguishes them.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Phone        string             `bson:"phone" json:"phone"`
	Driver       *DriverProfile     `bson:"driver,omitempty" json:"driver,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username string         `json:"username"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	FullName string         `json:"full_name"`
	Phone    string         `json:"phone"`
	Role     Role           `json:"role"`
	Driver   *DriverProfile `json:"driver,omitempty"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleTourist, RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}
