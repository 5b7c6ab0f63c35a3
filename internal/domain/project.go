package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project lifecycle states.
const (
	ProjectStatusOpen       = "open"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
	ProjectStatusClosed     = "closed"
)

// ValidProjectStatus reports whether s is one of the known lifecycle states.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusClosed:
		return true
	}
	return false
}

type Project struct {
	ProjectID    string           `json:"id" dynamodbav:"project_id"`
	Title        string           `json:"title" dynamodbav:"title"`
	Description  string           `json:"description" dynamodbav:"description"`
	CategorySlug string           `json:"category" dynamodbav:"category_slug"`
	Tags         []string         `json:"tags" dynamodbav:"tags"`
	OwnerID      string           `json:"owner" dynamodbav:"owner_id"`
	Budget       *decimal.Decimal `json:"budget" dynamodbav:"budget,omitempty"`
	Deadline     *time.Time       `json:"deadline" dynamodbav:"deadline,omitempty"`
	Status       string           `json:"status" dynamodbav:"status"`
	Slug         string           `json:"slug" dynamodbav:"slug"`
	Files        []ProjectFile    `json:"files,omitempty" dynamodbav:"-"`
	CreatedAt    time.Time        `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" dynamodbav:"updated_at"`
}

type Category struct {
	CategoryID  string  `json:"id" dynamodbav:"category_id"`
	Name        string  `json:"name" dynamodbav:"name"`
	Description string  `json:"description" dynamodbav:"description"`
	Image       *string `json:"image" dynamodbav:"image"`
	Slug        string  `json:"slug" dynamodbav:"slug"`
}

type Tag struct {
	TagID string `json:"id" dynamodbav:"tag_id"`
	Name  string `json:"name" dynamodbav:"name"`
}

type ProjectFile struct {
	FileID      string    `json:"id" dynamodbav:"file_id"`
	ProjectID   string    `json:"project_id" dynamodbav:"project_id"`
	Object      string    `json:"-" dynamodbav:"object"`
	Name        string    `json:"name" dynamodbav:"name"`
	Size        int64     `json:"size" dynamodbav:"size"`
	ContentType string    `json:"content_type" dynamodbav:"content_type"`
	UploadedBy  string    `json:"uploaded_by" dynamodbav:"uploaded_by_user_id"`
	UploadedAt  time.Time `json:"uploaded_at" dynamodbav:"uploaded_at"`
}

type CreateProjectRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Tags        []string `json:"tags"`
	Budget      *string  `json:"budget"`
	Deadline    *string  `json:"deadline"` // expected format: YYYY-MM-DD
	Status      *string  `json:"status"`
}

type UpdateProjectRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Budget      *string   `json:"budget"`
	Deadline    *string   `json:"deadline"` // expected format: YYYY-MM-DD
	Status      *string   `json:"status"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type UpdateCategoryRequest struct {
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// ProjectFilter narrows project listings. Zero-valued fields are ignored.
type ProjectFilter struct {
	CategorySlug   string
	Status         string
	MinBudget      *decimal.Decimal
	MaxBudget      *decimal.Decimal
	DeadlineAfter  *time.Time
	DeadlineBefore *time.Time
}
