package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrMemberNotFound  = errors.New("member not found")

	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrNameRequired         = fmt.Errorf("%w: project name is required", ErrValidation)
	ErrTitleRequired        = fmt.Errorf("%w: task title is required", ErrValidation)
	ErrMemberNameRequired   = fmt.Errorf("%w: member name is required", ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrDeadlineInPast       = fmt.Errorf("%w: deadline cannot be in the past", ErrValidation)
	ErrDueDateInPast        = fmt.Errorf("%w: due date cannot be in the past", ErrValidation)
	ErrDueDateAfterDeadline = fmt.Errorf("%w: task due date cannot be after project deadline", ErrValidation)
	ErrDuplicateMember      = fmt.Errorf("%w: member already invited", ErrValidation)
)

// DefaultProfileID is the identity of the single local profile. Every project
// created through the core is managed by it.
const DefaultProfileID = "leader-1"

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// TaskStatuses lists the kanban lanes in board order.
var TaskStatuses = []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// ParseTaskStatus accepts only the exact wire names.
func ParseTaskStatus(s string) (TaskStatus, error) {
	ts := TaskStatus(s)
	if !ts.IsValid() {
		return "", fmt.Errorf("%w %q", ErrInvalidStatus, s)
	}
	return ts, nil
}

// Member is a lightweight person reference, used both for project members
// and task assignees.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project represents a project and its denormalized task index
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ManagerID   string     `json:"managerId"`
	Members     []Member   `json:"members"`
	Tasks       []string   `json:"tasks"`
}

// Task represents a kanban card
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ProjectID   string     `json:"projectId"`
	Assignees   []Member   `json:"assignees"`
}

// Profile is the acting user's singleton record
type Profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DOB           string `json:"dob"`
	Position      string `json:"position"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	CoverPhotoURL string `json:"coverPhotoUrl,omitempty"`
}

// ProjectPatch carries a partial project update. Nil fields are left alone.
type ProjectPatch struct {
	Name          *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	ManagerID     *string
	Members       *[]Member
	Tasks         *[]string
}

// TaskPatch carries a partial task update. Nil fields are left alone.
type TaskPatch struct {
	Title        *string
	Description  *string
	Status       *TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
	ProjectID    *string
	Assignees    *[]Member
}

// ProfilePatch carries a partial profile update
type ProfilePatch struct {
	Name          *string `json:"name"`
	DOB           *string `json:"dob"`
	Position      *string `json:"position"`
	AvatarURL     *string `json:"avatarUrl"`
	CoverPhotoURL *string `json:"coverPhotoUrl"`
}

// Business logic methods for Project
func (p *Project) Apply(patch ProjectPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ClearDeadline {
		p.Deadline = nil
	} else if patch.Deadline != nil {
		d := *patch.Deadline
		p.Deadline = &d
	}
	if patch.ManagerID != nil {
		p.ManagerID = *patch.ManagerID
	}
	if patch.Members != nil {
		p.Members = append([]Member{}, (*patch.Members)...)
	}
	if patch.Tasks != nil {
		p.Tasks = append([]string{}, (*patch.Tasks)...)
	}
	p.UpdatedAt = &now
}

func (p *Project) HasMember(memberID string) bool {
	return indexOfMember(p.Members, memberID) >= 0
}

func (p *Project) Member(memberID string) (Member, bool) {
	if i := indexOfMember(p.Members, memberID); i >= 0 {
		return p.Members[i], true
	}
	return Member{}, false
}

// HasMemberNamed compares names case-insensitively, as invites do.
func (p *Project) HasMemberNamed(name string) bool {
	for _, m := range p.Members {
		if strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

// WithoutMember returns the member list minus memberID and whether it changed.
func (p *Project) WithoutMember(memberID string) ([]Member, bool) {
	return withoutMembers(p.Members, map[string]struct{}{memberID: {}})
}

func (p *Project) HasTask(taskID string) bool {
	for _, id := range p.Tasks {
		if id == taskID {
			return true
		}
	}
	return false
}

func (p *Project) IsOverdue(now time.Time) bool {
	return p.Deadline != nil && now.After(*p.Deadline)
}

// Business logic methods for Task
func (t *Task) Apply(patch TaskPatch, now time.Time) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		d := *patch.DueDate
		t.DueDate = &d
	}
	if patch.ProjectID != nil {
		t.ProjectID = *patch.ProjectID
	}
	if patch.Assignees != nil {
		t.Assignees = append([]Member{}, (*patch.Assignees)...)
	}
	t.UpdatedAt = &now
}

func (t *Task) HasAssignee(memberID string) bool {
	return indexOfMember(t.Assignees, memberID) >= 0
}

// WithoutAssignees returns the assignee list minus the given ids and whether
// anything was removed.
func (t *Task) WithoutAssignees(memberIDs ...string) ([]Member, bool) {
	set := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		set[id] = struct{}{}
	}
	return withoutMembers(t.Assignees, set)
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && now.After(*t.DueDate) && t.Status != TaskStatusDone
}

// Business logic methods for Profile
func (p *Profile) Apply(patch ProfilePatch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.DOB != nil {
		p.DOB = *patch.DOB
	}
	if patch.Position != nil {
		p.Position = *patch.Position
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	if patch.CoverPhotoURL != nil {
		p.CoverPhotoURL = *patch.CoverPhotoURL
	}
}

// DefaultProfile is the identity seeded on first access.
func DefaultProfile() Profile {
	return Profile{ID: DefaultProfileID}
}

// Utility methods

// NewProjectID returns a time-ordered project id
func NewProjectID() string {
	return "proj-" + newV7()
}

// NewTaskID returns a time-ordered task id
func NewTaskID() string {
	return "task-" + newV7()
}

// NewMemberID returns a random member id
func NewMemberID() string {
	return uuid.NewString()
}

func newV7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SampleProject is the example project seeded into an empty store.
func SampleProject(id string, now time.Time) Project {
	deadline := now.Add(7 * 24 * time.Hour)
	return Project{
		ID:          id,
		Name:        "Sample Project",
		Description: "A sample project for testing",
		CreatedAt:   now,
		Deadline:    &deadline,
		ManagerID:   DefaultProfileID,
		Members: []Member{
			{ID: DefaultProfileID, Name: "Leader"},
			{ID: "member-2", Name: "Member"},
		},
		Tasks: []string{},
	}
}

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateDeadline rejects project deadlines before the start of today.
func ValidateDeadline(deadline *time.Time, now time.Time) error {
	if deadline != nil && deadline.Before(StartOfDay(now)) {
		return ErrDeadlineInPast
	}
	return nil
}

// ValidateDueDate rejects due dates before now or after the project deadline.
// Equality with either bound is accepted.
func ValidateDueDate(due, projectDeadline *time.Time, now time.Time) error {
	if due == nil {
		return nil
	}
	if due.Before(now) {
		return ErrDueDateInPast
	}
	if projectDeadline != nil && due.After(*projectDeadline) {
		return ErrDueDateAfterDeadline
	}
	return nil
}

func indexOfMember(members []Member, id string) int {
	for i, m := range members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func withoutMembers(members []Member, drop map[string]struct{}) ([]Member, bool) {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if _, ok := drop[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out, len(out) != len(members)
}
