package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/ports"
)

// Cascade rule names, used as log and metric labels
const (
	RuleRemoveMember     = "remove_member"
	RuleDeleteProject    = "delete_project"
	RuleAttachTask       = "attach_task"
	RuleDetachTask       = "detach_task"
	RuleReconcileMembers = "reconcile_members"
	RuleReparentTask     = "reparent_task"
	RuleRepair           = "repair"
)

// IntegrityCoordinator keeps projects and tasks consistent across the two
// collections. Cascade methods assume the caller holds the lock taken by
// Atomically.
type IntegrityCoordinator struct {
	mu       sync.Mutex
	projects ports.ProjectRepository
	tasks    ports.TaskRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewIntegrityCoordinator creates a new coordinator
func NewIntegrityCoordinator(projects ports.ProjectRepository, tasks ports.TaskRepository, log *logger.Logger, m *metrics.Metrics) *IntegrityCoordinator {
	return &IntegrityCoordinator{
		projects: projects,
		tasks:    tasks,
		logger:   log.WithComponent("integrity"),
		metrics:  m,
	}
}

// Atomically runs fn with every other read-modify-write cycle excluded
func (c *IntegrityCoordinator) Atomically(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn()
}

// RemoveMember drops memberID from the project and from the assignees of every
// task in it. Returns the number of tasks changed.
func (c *IntegrityCoordinator) RemoveMember(ctx context.Context, projectID, memberID string) (int, error) {
	project, err := c.projects.Get(ctx, projectID)
	if err != nil {
		return 0, err
	}
	members, changed := project.WithoutMember(memberID)
	if !changed {
		return 0, entities.ErrMemberNotFound
	}

	if _, err := c.projects.Update(ctx, projectID, entities.ProjectPatch{Members: &members}); err != nil {
		return 0, fmt.Errorf("remove member: %w", err)
	}

	n, err := c.stripAssignees(ctx, projectID, memberID)
	if err != nil {
		return n, fmt.Errorf("remove member: %w", err)
	}

	c.applied(RuleRemoveMember, map[string]interface{}{
		"project_id":    projectID,
		"member_id":     memberID,
		"tasks_changed": n,
	})
	return n, nil
}

// DeleteProject deletes every task of the project, then the project.
// Returns the number of tasks deleted.
func (c *IntegrityCoordinator) DeleteProject(ctx context.Context, projectID string) (int, error) {
	if _, err := c.projects.Get(ctx, projectID); err != nil {
		return 0, err
	}

	tasks, err := c.tasks.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete project: %w", err)
	}
	kept := make([]entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ProjectID != projectID {
			kept = append(kept, t)
		}
	}
	deleted := len(tasks) - len(kept)

	if deleted > 0 {
		if err := c.tasks.SaveAll(ctx, kept); err != nil {
			return 0, fmt.Errorf("delete project tasks: %w", err)
		}
	}
	if err := c.projects.Delete(ctx, projectID); err != nil {
		return deleted, fmt.Errorf("delete project: %w", err)
	}

	c.applied(RuleDeleteProject, map[string]interface{}{
		"project_id":    projectID,
		"tasks_deleted": deleted,
	})
	return deleted, nil
}

// AttachTask stores task and appends its id to the owning project's index
// exactly once. A missing project is rejected before anything is written.
func (c *IntegrityCoordinator) AttachTask(ctx context.Context, task entities.Task) error {
	project, err := c.projects.Get(ctx, task.ProjectID)
	if err != nil {
		return err
	}

	if err := c.tasks.Create(ctx, task); err != nil {
		return err
	}

	if !project.HasTask(task.ID) {
		index := append(slices.Clone(project.Tasks), task.ID)
		if _, err := c.projects.Update(ctx, project.ID, entities.ProjectPatch{Tasks: &index}); err != nil {
			return fmt.Errorf("attach task: %w", err)
		}
	}

	c.applied(RuleAttachTask, map[string]interface{}{
		"project_id": project.ID,
		"task_id":    task.ID,
	})
	return nil
}

// DetachTask deletes the task and removes its id from whichever project
// index holds it.
func (c *IntegrityCoordinator) DetachTask(ctx context.Context, taskID string) error {
	if err := c.tasks.Delete(ctx, taskID); err != nil {
		return err
	}

	if err := c.unindex(ctx, taskID); err != nil {
		return fmt.Errorf("detach task: %w", err)
	}

	c.applied(RuleDetachTask, map[string]interface{}{"task_id": taskID})
	return nil
}

// ReconcileMembers strips members present in before but absent from after
// from the project's task assignees. Returns the number of tasks changed.
func (c *IntegrityCoordinator) ReconcileMembers(ctx context.Context, projectID string, before, after []entities.Member) (int, error) {
	keep := make(map[string]struct{}, len(after))
	for _, m := range after {
		keep[m.ID] = struct{}{}
	}
	var removed []string
	for _, m := range before {
		if _, ok := keep[m.ID]; !ok {
			removed = append(removed, m.ID)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}

	n, err := c.stripAssignees(ctx, projectID, removed...)
	if err != nil {
		return n, fmt.Errorf("reconcile members: %w", err)
	}

	c.applied(RuleReconcileMembers, map[string]interface{}{
		"project_id":    projectID,
		"removed":       removed,
		"tasks_changed": n,
	})
	return n, nil
}

// ReparentTask moves a task to another project. The index entry moves with it
// and assignees who are not members of the new project are dropped.
func (c *IntegrityCoordinator) ReparentTask(ctx context.Context, taskID, newProjectID string) (*entities.Task, error) {
	task, err := c.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID == newProjectID {
		return task, nil
	}
	target, err := c.projects.Get(ctx, newProjectID)
	if err != nil {
		return nil, err
	}

	assignees := make([]entities.Member, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		if target.HasMember(a.ID) {
			assignees = append(assignees, a)
		}
	}

	updated, err := c.tasks.Update(ctx, taskID, entities.TaskPatch{
		ProjectID: &newProjectID,
		Assignees: &assignees,
	})
	if err != nil {
		return nil, fmt.Errorf("reparent task: %w", err)
	}

	if err := c.unindex(ctx, taskID); err != nil {
		return nil, fmt.Errorf("reparent task: %w", err)
	}
	target, err = c.projects.Get(ctx, newProjectID)
	if err != nil {
		return nil, err
	}
	if !target.HasTask(taskID) {
		index := append(slices.Clone(target.Tasks), taskID)
		if _, err := c.projects.Update(ctx, newProjectID, entities.ProjectPatch{Tasks: &index}); err != nil {
			return nil, fmt.Errorf("reparent task: %w", err)
		}
	}

	c.applied(RuleReparentTask, map[string]interface{}{
		"task_id":     taskID,
		"from":        task.ProjectID,
		"to":          newProjectID,
		"dropped_ids": len(task.Assignees) - len(assignees),
	})
	return updated, nil
}

// Repair rebuilds every project's task index from the task collection and
// deletes tasks whose project no longer exists.
func (c *IntegrityCoordinator) Repair(ctx context.Context) (ports.RepairReport, error) {
	report := ports.RepairReport{OrphansDeleted: []string{}}

	projects, err := c.projects.List(ctx)
	if err != nil {
		return report, fmt.Errorf("repair: %w", err)
	}
	tasks, err := c.tasks.List(ctx)
	if err != nil {
		return report, fmt.Errorf("repair: %w", err)
	}

	index := make(map[string][]string, len(projects))
	for _, p := range projects {
		index[p.ID] = []string{}
	}

	kept := make([]entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := index[t.ProjectID]; !ok {
			report.OrphansDeleted = append(report.OrphansDeleted, t.ID)
			continue
		}
		index[t.ProjectID] = append(index[t.ProjectID], t.ID)
		kept = append(kept, t)
	}

	if len(report.OrphansDeleted) > 0 {
		if err := c.tasks.SaveAll(ctx, kept); err != nil {
			return report, fmt.Errorf("repair: %w", err)
		}
	}

	for i := range projects {
		if slices.Equal(projects[i].Tasks, index[projects[i].ID]) {
			continue
		}
		projects[i].Tasks = index[projects[i].ID]
		report.IndexesRebuilt++
	}
	if report.IndexesRebuilt > 0 {
		if err := c.projects.SaveAll(ctx, projects); err != nil {
			return report, fmt.Errorf("repair: %w", err)
		}
	}

	c.applied(RuleRepair, map[string]interface{}{
		"indexes_rebuilt": report.IndexesRebuilt,
		"orphans_deleted": len(report.OrphansDeleted),
	})
	return report, nil
}

// stripAssignees removes ids from the assignees of the project's tasks,
// writing only the tasks that changed.
func (c *IntegrityCoordinator) stripAssignees(ctx context.Context, projectID string, ids ...string) (int, error) {
	tasks, err := c.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, t := range tasks {
		assignees, ok := t.WithoutAssignees(ids...)
		if !ok {
			continue
		}
		if _, err := c.tasks.Update(ctx, t.ID, entities.TaskPatch{Assignees: &assignees}); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// unindex filters taskID out of every project index that lists it
func (c *IntegrityCoordinator) unindex(ctx context.Context, taskID string) error {
	projects, err := c.projects.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if !p.HasTask(taskID) {
			continue
		}
		index := slices.DeleteFunc(slices.Clone(p.Tasks), func(id string) bool { return id == taskID })
		if _, err := c.projects.Update(ctx, p.ID, entities.ProjectPatch{Tasks: &index}); err != nil {
			return err
		}
	}
	return nil
}

func (c *IntegrityCoordinator) applied(rule string, metadata map[string]interface{}) {
	c.metrics.Cascade(rule)
	c.logger.LogCascade(rule, metadata)
}
