package ports

import (
	"time"

	"github.com/taskboardx/core/internal/domain/entities"
)

// Request/Response Types

// Project related types
type CreateProjectRequest struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time        `json:"deadline"`
	Members     []entities.Member `json:"members" validate:"omitempty,dive"`
}

// UpdateProjectRequest is the edit dialog submit. A non-nil Members replaces
// the whole member set and triggers assignee reconciliation.
type UpdateProjectRequest struct {
	Name          *string            `json:"name" validate:"omitempty,max=200"`
	Description   *string            `json:"description" validate:"omitempty,max=1000"`
	Deadline      *time.Time         `json:"deadline"`
	ClearDeadline bool               `json:"clearDeadline"`
	Members       *[]entities.Member `json:"members"`
}

type InviteMemberRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=500"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Status      string     `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	ProjectID   string     `json:"projectId" validate:"required"`
	AssigneeID  string     `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title" validate:"omitempty,max=500"`
	Description  *string    `json:"description" validate:"omitempty,max=2000"`
	Status       *string    `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS DONE"`
	ProjectID    *string    `json:"projectId"`
	AssigneeID   string     `json:"assigneeId"`
	DueDate      *time.Time `json:"dueDate"`
	ClearDueDate bool       `json:"clearDueDate"`
}

// MoveTaskRequest is a drop event: Target names a lane (status) or another task.
type MoveTaskRequest struct {
	Target string `json:"target" validate:"required"`
}

type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	DOB           *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Position      *string `json:"position" validate:"omitempty,max=100"`
	AvatarURL     *string `json:"avatarUrl"`
	CoverPhotoURL *string `json:"coverPhotoUrl"`
}

// Board groups a project's tasks into lanes keyed by status
type Board struct {
	ProjectID string                                `json:"projectId"`
	Lanes     map[entities.TaskStatus][]entities.Task `json:"lanes"`
}

// MoveResult reports the outcome of a drop
type MoveResult struct {
	Task    entities.Task `json:"task"`
	Changed bool          `json:"changed"`
}

type Summary struct {
	Projects int `json:"projects"`
	Tasks    int `json:"tasks"`
	Members  int `json:"members"`
	// Projects past their deadline and unfinished tasks past their due date
	OverdueProjects int `json:"overdueProjects"`
	OverdueTasks    int `json:"overdueTasks"`
}

type RepairReport struct {
	IndexesRebuilt int      `json:"indexesRebuilt"`
	OrphansDeleted []string `json:"orphansDeleted"`
}

type DeleteProjectResponse struct {
	ProjectID    string `json:"projectId"`
	TasksDeleted int    `json:"tasksDeleted"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
