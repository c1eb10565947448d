package models

import "time"

// Collaborator is a person who receives assessment links.
type Collaborator struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Department *string   `db:"department" json:"department,omitempty"`
	Position   *string   `db:"position" json:"position,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CollaboratorFilter captures list filters for collaborators.
type CollaboratorFilter struct {
	Search     string
	Department string
	Active     *bool
	Page       int
	PageSize   int
}

// CreateCollaboratorRequest is the payload for registering a collaborator.
type CreateCollaboratorRequest struct {
	Name       string  `json:"name" validate:"required,min=2,max=160"`
	Email      string  `json:"email" validate:"required,email"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Position   *string `json:"position" validate:"omitempty,max=120"`
}

// UpdateCollaboratorRequest changes mutable collaborator fields.
type UpdateCollaboratorRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=160"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Position   *string `json:"position" validate:"omitempty,max=120"`
	Active     *bool   `json:"active"`
}
