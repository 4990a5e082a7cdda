package repository

import (
	"context"
	"fmt"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/ports"
)

// ProjectRepositoryImpl implements ports.ProjectRepository over the projects collection
type ProjectRepositoryImpl struct {
	col   *Collection[[]entities.Project]
	clock ports.Clock
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(col *Collection[[]entities.Project], clock ports.Clock) *ProjectRepositoryImpl {
	return &ProjectRepositoryImpl{col: col, clock: clock}
}

func (r *ProjectRepositoryImpl) List(ctx context.Context) ([]entities.Project, error) {
	projects, err := r.col.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if projects == nil {
		projects = []entities.Project{}
	}
	return projects, nil
}

func (r *ProjectRepositoryImpl) Get(ctx context.Context, id string) (*entities.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfProject(projects, id)
	if i < 0 {
		return nil, entities.ErrProjectNotFound
	}
	return &projects[i], nil
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project entities.Project) error {
	projects, err := r.List(ctx)
	if err != nil {
		return err
	}
	if indexOfProject(projects, project.ID) >= 0 {
		return fmt.Errorf("%w: project %s already exists", entities.ErrValidation, project.ID)
	}
	if project.Members == nil {
		project.Members = []entities.Member{}
	}
	if project.Tasks == nil {
		project.Tasks = []string{}
	}

	if err := r.col.Save(ctx, append(projects, project)); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update merges patch into the stored project and stamps UpdatedAt
func (r *ProjectRepositoryImpl) Update(ctx context.Context, id string, patch entities.ProjectPatch) (*entities.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfProject(projects, id)
	if i < 0 {
		return nil, entities.ErrProjectNotFound
	}

	projects[i].Apply(patch, r.clock())
	if err := r.col.Save(ctx, projects); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	updated := projects[i]
	return &updated, nil
}

// Delete removes the project record only. Tasks are left to the caller.
func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id string) error {
	projects, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOfProject(projects, id)
	if i < 0 {
		return entities.ErrProjectNotFound
	}

	remaining := append(projects[:i:i], projects[i+1:]...)
	if err := r.col.Save(ctx, remaining); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (r *ProjectRepositoryImpl) SaveAll(ctx context.Context, projects []entities.Project) error {
	if projects == nil {
		projects = []entities.Project{}
	}
	if err := r.col.Save(ctx, projects); err != nil {
		return fmt.Errorf("save projects: %w", err)
	}
	return nil
}

func indexOfProject(projects []entities.Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}
