package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// Task list defaults
const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// Task list sort keys
const (
	SortCreated = "created"
	SortDue     = "due"
	SortTitle   = "title"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	integrity   *IntegrityCoordinator
	clock       ports.Clock
	logger      *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, projectRepo ports.ProjectRepository, integrity *IntegrityCoordinator, clock ports.Clock, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		integrity:   integrity,
		clock:       clock,
		logger:      logger.WithComponent("task_service"),
	}
}

// CreateTask validates the form and attaches the task to its project
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	now := s.clock()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, entities.ErrTitleRequired
	}
	status := entities.TaskStatusTodo
	if req.Status != "" {
		var err error
		if status, err = entities.ParseTaskStatus(req.Status); err != nil {
			return nil, err
		}
	}

	task := entities.Task{
		ID:          entities.NewTaskID(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		CreatedAt:   now,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		Assignees:   []entities.Member{},
	}

	err := s.integrity.Atomically(func() error {
		project, err := s.projectRepo.Get(ctx, req.ProjectID)
		if err != nil {
			return err
		}
		if err := entities.ValidateDueDate(req.DueDate, project.Deadline, now); err != nil {
			return err
		}
		if req.AssigneeID != "" {
			member, ok := project.Member(req.AssigneeID)
			if !ok {
				return entities.ErrMemberNotFound
			}
			task.Assignees = append(task.Assignees, member)
		}
		return s.integrity.AttachTask(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created successfully", "task_id", task.ID, "title", task.Title, "project_id", task.ProjectID)

	return &task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	var task *entities.Task
	err := s.integrity.Atomically(func() error {
		var err error
		task, err = s.taskRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Debugw("Task lookup failed", "task_id", id, "error", err)
		return nil, err
	}
	return task, nil
}

// UpdateTask applies the edit form. A new projectId re-parents the task; the
// chosen assignee is added when not already assigned; an omitted status is kept.
func (s *TaskService) UpdateTask(ctx context.Context, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	now := s.clock()

	patch := entities.TaskPatch{
		Description:  req.Description,
		ClearDueDate: req.ClearDueDate,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, entities.ErrTitleRequired
		}
		patch.Title = &title
	}
	if req.Status != nil {
		status, err := entities.ParseTaskStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &status
	}

	var updated *entities.Task
	err := s.integrity.Atomically(func() error {
		existing, err := s.taskRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		projectID := existing.ProjectID
		if req.ProjectID != nil && *req.ProjectID != "" {
			projectID = *req.ProjectID
		}
		project, err := s.projectRepo.Get(ctx, projectID)
		if err != nil {
			return err
		}

		if !req.ClearDueDate && req.DueDate != nil {
			if err := entities.ValidateDueDate(req.DueDate, project.Deadline, now); err != nil {
				return err
			}
			patch.DueDate = req.DueDate
		} else if !req.ClearDueDate && projectID != existing.ProjectID {
			// the kept due date must also fit the new project's deadline
			if existing.DueDate != nil && project.Deadline != nil && existing.DueDate.After(*project.Deadline) {
				return entities.ErrDueDateAfterDeadline
			}
		}

		var assignee *entities.Member
		if req.AssigneeID != "" {
			member, ok := project.Member(req.AssigneeID)
			if !ok {
				return entities.ErrMemberNotFound
			}
			assignee = &member
		}

		if projectID != existing.ProjectID {
			if existing, err = s.integrity.ReparentTask(ctx, id, projectID); err != nil {
				return err
			}
		}

		if assignee != nil && !existing.HasAssignee(assignee.ID) {
			assignees := append(append([]entities.Member{}, existing.Assignees...), *assignee)
			patch.Assignees = &assignees
		}

		updated, err = s.taskRepo.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated successfully", "task_id", updated.ID, "title", updated.Title)

	return updated, nil
}

// DeleteTask deletes a task and removes it from its project's index
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	err := s.integrity.Atomically(func() error {
		return s.integrity.DetachTask(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted successfully", "task_id", id)

	return nil
}

// RemoveAssignee unassigns one member from one task
func (s *TaskService) RemoveAssignee(ctx context.Context, taskID, memberID string) (*entities.Task, error) {
	var updated *entities.Task
	err := s.integrity.Atomically(func() error {
		task, err := s.taskRepo.Get(ctx, taskID)
		if err != nil {
			return err
		}
		assignees, changed := task.WithoutAssignees(memberID)
		if !changed {
			return entities.ErrMemberNotFound
		}
		updated, err = s.taskRepo.Update(ctx, taskID, entities.TaskPatch{Assignees: &assignees})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove assignee: %w", err)
	}
	return updated, nil
}

// ListProjectTasks returns the tasks of one project in collection order
func (s *TaskService) ListProjectTasks(ctx context.Context, projectID string) ([]entities.Task, error) {
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
		return nil, fmt.Errorf("failed to list project tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks filters, sorts and paginates the task collection
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) (*ports.PaginatedResponse[entities.Task], error) {
	var tasks []entities.Task
	err := s.integrity.Atomically(func() error {
		var err error
		tasks, err = s.taskRepo.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	filtered := filterTasks(tasks, filter, s.clock())
	if err := sortTasks(filtered, filter.SortBy); err != nil {
		return nil, err
	}
	return paginate(filtered, filter.Page, filter.PageSize), nil
}

func filterTasks(tasks []entities.Task, filter ports.TaskFilter, now time.Time) []entities.Task {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Overdue && !t.IsOverdue(now) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// sortTasks orders by title, by due date with undated tasks first, or by
// creation time newest first.
func sortTasks(tasks []entities.Task, by string) error {
	switch by {
	case "", SortCreated:
		sort.SliceStable(tasks, func(i, j int) bool {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		})
	case SortDue:
		sort.SliceStable(tasks, func(i, j int) bool {
			a, b := tasks[i].DueDate, tasks[j].DueDate
			if a == nil || b == nil {
				return a == nil && b != nil
			}
			return a.Before(*b)
		})
	case SortTitle:
		sort.SliceStable(tasks, func(i, j int) bool {
			return strings.ToLower(tasks[i].Title) < strings.ToLower(tasks[j].Title)
		})
	default:
		return fmt.Errorf("%w: unknown sort %q", entities.ErrValidation, by)
	}
	return nil
}

// paginate clamps page into [1, totalPages]
func paginate(tasks []entities.Task, page, pageSize int) *ports.PaginatedResponse[entities.Task] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	totalPages := (len(tasks) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(tasks) {
		end = len(tasks)
	}

	return &ports.PaginatedResponse[entities.Task]{
		Data:     tasks[start:end],
		Total:    len(tasks),
		Page:     page,
		PageSize: pageSize,
	}
}
