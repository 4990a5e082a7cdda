package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/ports"
)

// Repositories bundles the three collections over one backend
type Repositories struct {
	Projects *ProjectRepositoryImpl
	Tasks    *TaskRepositoryImpl
	Profile  *ProfileRepositoryImpl

	kv     ports.KeyValueStore
	logger *logger.Logger
}

// NewRepositories wires every repository to kv with its storage key and defaults
func NewRepositories(kv ports.KeyValueStore, log *logger.Logger, m *metrics.Metrics, clock ports.Clock) *Repositories {
	log = log.WithComponent("repository")

	projects := NewCollection(kv, ProjectsKey,
		func() []entities.Project {
			return []entities.Project{entities.SampleProject(entities.NewProjectID(), clock())}
		},
		func() []entities.Project { return []entities.Project{} },
		log, m,
	)
	tasks := NewCollection(kv, TasksKey,
		func() []entities.Task { return []entities.Task{} },
		func() []entities.Task { return []entities.Task{} },
		log, m,
	)
	profile := NewCollection(kv, ProfileKey,
		entities.DefaultProfile,
		entities.DefaultProfile,
		log, m,
	)

	return &Repositories{
		Projects: NewProjectRepository(projects, clock),
		Tasks:    NewTaskRepository(tasks, clock),
		Profile:  NewProfileRepository(profile),
		kv:       kv,
		logger:   log,
	}
}

// CollectionKeys lists the storage keys the repositories own
func CollectionKeys() []string {
	return []string{ProjectsKey, TasksKey, ProfileKey}
}

// Keys lists every key currently present in the backend, sorted
func (r *Repositories) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset deletes the given collections so the next load writes their seed
// again. Keys outside CollectionKeys are rejected before anything is deleted.
func (r *Repositories) Reset(ctx context.Context, keys ...string) error {
	collections := CollectionKeys()
	known := make(map[string]struct{}, len(collections))
	for _, k := range collections {
		known[k] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := known[k]; !ok {
			return fmt.Errorf("%w: unknown collection key %q", entities.ErrValidation, k)
		}
	}

	for _, k := range keys {
		if err := r.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("failed to reset %s: %w", k, err)
		}
		r.logger.Infow("Collection reset", "key", k)
	}
	return nil
}
