package repository

import (
	"context"
	"errors"
	"math"

	"github.com/yukikurage/task-manager/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("repository: duplicate record")
)

// TaskRepository defines the interface for task data access.
// Tasks returned by FindByID and List have Assignee populated when the
// referenced user exists.
type TaskRepository interface {
	// Create stores a new task and sets its ID
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List retrieves one page of tasks in insertion order along with the total count
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update replaces the stored task with the given one
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task permanently
	Delete(ctx context.Context, id string) error
}

// TaskFilter holds pagination options for listing tasks
type TaskFilter struct {
	Page     int
	PageSize int
}

// Offset returns the number of records to skip for the filter's page.
// Pages whose offset would overflow saturate at math.MaxInt.
func (f TaskFilter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PageSize {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PageSize
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns every user in insertion order
	List(ctx context.Context) ([]models.User, error)
}
