package ports

import (
	"context"
	"errors"
	"time"

	"github.com/taskboardx/core/internal/domain/entities"
)

// ErrKeyNotFound is returned by a KeyValueStore when the key has never been written.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the persistence backend behind every collection. Each key
// holds exactly one serialized blob and writes overwrite unconditionally.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	List(ctx context.Context) ([]entities.Project, error)
	Get(ctx context.Context, id string) (*entities.Project, error)
	Create(ctx context.Context, project entities.Project) error
	Update(ctx context.Context, id string, patch entities.ProjectPatch) (*entities.Project, error)
	Delete(ctx context.Context, id string) error
	SaveAll(ctx context.Context, projects []entities.Project) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	List(ctx context.Context) ([]entities.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]entities.Task, error)
	Get(ctx context.Context, id string) (*entities.Task, error)
	Create(ctx context.Context, task entities.Task) error
	Update(ctx context.Context, id string, patch entities.TaskPatch) (*entities.Task, error)
	Delete(ctx context.Context, id string) error
	SaveAll(ctx context.Context, tasks []entities.Task) error
}

// ProfileRepository defines the interface for the singleton profile
type ProfileRepository interface {
	Load(ctx context.Context) (entities.Profile, error)
	Update(ctx context.Context, patch entities.ProfilePatch) (entities.Profile, error)
}

// Filter types for repository queries
type TaskFilter struct {
	ProjectID string
	Status    *entities.TaskStatus
	Search    string
	Overdue   bool
	SortBy    string
	Page      int
	PageSize  int
}

// Clock supplies the current time to repositories and services
type Clock func() time.Time

// SystemClock returns UTC wall time at the millisecond precision JSON round-trips
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
