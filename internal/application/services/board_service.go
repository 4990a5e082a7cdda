package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// BoardService implements the kanban drop rule and lane grouping
type BoardService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	integrity   *IntegrityCoordinator
	logger      *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(taskRepo ports.TaskRepository, projectRepo ports.ProjectRepository, integrity *IntegrityCoordinator, logger *logger.Logger) *BoardService {
	return &BoardService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		integrity:   integrity,
		logger:      logger.WithComponent("board_service"),
	}
}

// Move handles a task dropped on target. A status name moves the task to that
// lane; a task id of the same project moves it to that task's lane. Anything
// else, or a drop on the current lane, changes nothing.
func (s *BoardService) Move(ctx context.Context, taskID, target string) (*ports.MoveResult, error) {
	var result ports.MoveResult
	err := s.integrity.Atomically(func() error {
		task, err := s.taskRepo.Get(ctx, taskID)
		if err != nil {
			return err
		}
		result.Task = *task

		status, ok, err := s.resolveTarget(ctx, task, target)
		if err != nil || !ok || status == task.Status {
			return err
		}

		updated, err := s.taskRepo.Update(ctx, taskID, entities.TaskPatch{Status: &status})
		if err != nil {
			return err
		}
		result.Task = *updated
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	if result.Changed {
		s.logger.Infow("Task moved", "task_id", taskID, "status", result.Task.Status)
	} else {
		s.logger.Debugw("Drop ignored", "task_id", taskID, "target", target)
	}

	return &result, nil
}

func (s *BoardService) resolveTarget(ctx context.Context, task *entities.Task, target string) (entities.TaskStatus, bool, error) {
	if status := entities.TaskStatus(target); status.IsValid() {
		return status, true, nil
	}

	other, err := s.taskRepo.Get(ctx, target)
	if errors.Is(err, entities.ErrTaskNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if other.ProjectID != task.ProjectID {
		return "", false, nil
	}
	return other.Status, true, nil
}

// Lanes groups the project's tasks by status in collection order. Every lane
// is present even when empty.
func (s *BoardService) Lanes(ctx context.Context, projectID string) (*ports.Board, error) {
	var tasks []entities.Task
	err := s.integrity.Atomically(func() error {
		if _, err := s.projectRepo.Get(ctx, projectID); err != nil {
			return err
		}
		var err error
		tasks, err = s.taskRepo.ListByProject(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build board: %w", err)
	}

	for _, t := range tasks {
		if !t.Status.IsValid() {
			s.logger.Warnw("Task has an unknown status, showing it in the TODO lane",
				"task_id", t.ID, "project_id", projectID, "status", t.Status)
		}
	}

	return &ports.Board{ProjectID: projectID, Lanes: GroupByStatus(tasks)}, nil
}

// GroupByStatus buckets tasks into the three lanes. A task whose stored
// status is unknown lands in the TODO lane so it can be dragged back into
// a valid one.
func GroupByStatus(tasks []entities.Task) map[entities.TaskStatus][]entities.Task {
	lanes := make(map[entities.TaskStatus][]entities.Task, len(entities.TaskStatuses))
	for _, status := range entities.TaskStatuses {
		lanes[status] = []entities.Task{}
	}
	for _, t := range tasks {
		status := t.Status
		if !status.IsValid() {
			status = entities.TaskStatusTodo
		}
		lanes[status] = append(lanes[status], t)
	}
	return lanes
}
