// Package project stores named projects: a name plus the flat path -> content
// serialization of a virtual file system. The flat mapping is the only durable
// representation of project state; a live tree is reconstructed from it on
// demand and discarded at the end of a session.
package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProjectNotFound indicates the requested project does not exist
	ErrProjectNotFound = errors.New("project not found")
)

// Project is a named, persistable component project
type Project struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Files     map[string]string `json:"files"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// New creates a project with a fresh ID and the given initial files
func New(name string, files map[string]string) *Project {
	now := time.Now().UTC()
	if files == nil {
		files = map[string]string{}
	}
	return &Project{
		ID:        uuid.New().String(),
		Name:      name,
		Files:     files,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists projects. Implementations must be safe for concurrent use;
// each editing session works on its own in-memory tree and only exchanges the
// flat file mapping with the store
type Store interface {
	// Create inserts a new project
	Create(ctx context.Context, p *Project) error

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*Project, error)

	// List returns all projects, most recently updated first, without file contents
	List(ctx context.Context) ([]*Project, error)

	// SaveFiles replaces a project's file mapping
	SaveFiles(ctx context.Context, id string, files map[string]string) error

	// Delete removes a project
	Delete(ctx context.Context, id string) error
}
