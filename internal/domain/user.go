package domain

import "time"

// Auth provider tags. Local accounts authenticate with password+OTP; provider
// accounts are pre-verified by the provider and never hold a password hash.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	UserID            string     `json:"id" dynamodbav:"user_id"`
	Email             string     `json:"email" dynamodbav:"email"`
	Phone             *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash      string     `json:"-" dynamodbav:"password_hash"`
	AuthProvider      string     `json:"auth_provider" dynamodbav:"auth_provider"` // "local" | "google" | "github"
	ProviderSubjectID string     `json:"-" dynamodbav:"provider_subject_id"`
	Role              string     `json:"role" dynamodbav:"role"`
	Active            bool       `json:"is_active" dynamodbav:"is_active"`
	Verified          bool       `json:"is_verified" dynamodbav:"is_verified"`
	LastOTPVerifiedAt *time.Time `json:"last_otp_verified_at,omitempty" dynamodbav:"last_otp_verified_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt         time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt         time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Local reports whether the account authenticates via the password+OTP path.
func (u *User) Local() bool {
	return u.AuthProvider == "" || u.AuthProvider == ProviderLocal
}

type UpdateUserRequest struct {
	Email  *string `json:"email" validate:"omitempty,email"`
	Role   *string `json:"role" validate:"omitempty,oneof=user admin"`
	Active *bool   `json:"is_active"`
}
