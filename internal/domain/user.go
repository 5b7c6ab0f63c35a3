package domain

import "time"

// Roles assignable to a user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Mobile       *string    `json:"mobile" dynamodbav:"mobile"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Role         string     `json:"role" dynamodbav:"role"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	Avatar       *string    `json:"avatar" dynamodbav:"avatar"`
	LastLogin    *time.Time `json:"last_login" dynamodbav:"last_login"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// FullName joins first and last name, trimming when either is empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

type RegisterUserRequest struct {
	Username        string `json:"username" validate:"required,max=128"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,max=128"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Mobile    *string `json:"mobile"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Avatar    *string `json:"avatar"`
}

type ChangePasswordRequest struct {
	PreviousPassword string `json:"previous_password" validate:"required"`
	Password         string `json:"password" validate:"required,max=128"`
	ConfirmPassword  string `json:"confirm_password" validate:"required,max=128"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,max=128"`
}
