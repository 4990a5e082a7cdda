package repository

import (
	"context"
	"fmt"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/ports"
)

// TaskRepositoryImpl implements ports.TaskRepository over the tasks collection
type TaskRepositoryImpl struct {
	col   *Collection[[]entities.Task]
	clock ports.Clock
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(col *Collection[[]entities.Task], clock ports.Clock) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{col: col, clock: clock}
}

func (r *TaskRepositoryImpl) List(ctx context.Context) ([]entities.Task, error) {
	tasks, err := r.col.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []entities.Task{}
	}
	return tasks, nil
}

// ListByProject keeps collection order
func (r *TaskRepositoryImpl) ListByProject(ctx context.Context, projectID string) ([]entities.Task, error) {
	tasks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entities.Task, 0)
	for _, t := range tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TaskRepositoryImpl) Get(ctx context.Context, id string) (*entities.Task, error) {
	tasks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfTask(tasks, id)
	if i < 0 {
		return nil, entities.ErrTaskNotFound
	}
	return &tasks[i], nil
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task entities.Task) error {
	tasks, err := r.List(ctx)
	if err != nil {
		return err
	}
	if indexOfTask(tasks, task.ID) >= 0 {
		return fmt.Errorf("%w: task %s already exists", entities.ErrValidation, task.ID)
	}
	if task.Assignees == nil {
		task.Assignees = []entities.Member{}
	}

	if err := r.col.Save(ctx, append(tasks, task)); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update merges patch into the stored task and stamps UpdatedAt. Any status
// may follow any other.
func (r *TaskRepositoryImpl) Update(ctx context.Context, id string, patch entities.TaskPatch) (*entities.Task, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, fmt.Errorf("%w %q", entities.ErrInvalidStatus, *patch.Status)
	}

	tasks, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOfTask(tasks, id)
	if i < 0 {
		return nil, entities.ErrTaskNotFound
	}

	tasks[i].Apply(patch, r.clock())
	if err := r.col.Save(ctx, tasks); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	updated := tasks[i]
	return &updated, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) error {
	tasks, err := r.List(ctx)
	if err != nil {
		return err
	}
	i := indexOfTask(tasks, id)
	if i < 0 {
		return entities.ErrTaskNotFound
	}

	remaining := append(tasks[:i:i], tasks[i+1:]...)
	if err := r.col.Save(ctx, remaining); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) SaveAll(ctx context.Context, tasks []entities.Task) error {
	if tasks == nil {
		tasks = []entities.Task{}
	}
	if err := r.col.Save(ctx, tasks); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func indexOfTask(tasks []entities.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
