package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/ports"
)

// ProjectService handles project-related operations
type ProjectService struct {
	projectRepo ports.ProjectRepository
	profileRepo ports.ProfileRepository
	integrity   *IntegrityCoordinator
	clock       ports.Clock
	logger      *logger.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, profileRepo ports.ProfileRepository, integrity *IntegrityCoordinator, clock ports.Clock, logger *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		integrity:   integrity,
		clock:       clock,
		logger:      logger.WithComponent("project_service"),
	}
}

// ListProjects returns every project in collection order
func (s *ProjectService) ListProjects(ctx context.Context) ([]entities.Project, error) {
	var projects []entities.Project
	err := s.integrity.Atomically(func() error {
		var err error
		projects, err = s.projectRepo.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id string) (*entities.Project, error) {
	var project *entities.Project
	err := s.integrity.Atomically(func() error {
		var err error
		project, err = s.projectRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Debugw("Project lookup failed", "project_id", id, "error", err)
		return nil, err
	}
	return project, nil
}

// CreateProject creates a project managed by the local profile
func (s *ProjectService) CreateProject(ctx context.Context, req ports.CreateProjectRequest) (*entities.Project, error) {
	now := s.clock()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, entities.ErrNameRequired
	}
	if err := entities.ValidateDeadline(req.Deadline, now); err != nil {
		return nil, err
	}
	members, err := normalizeMembers(req.Members)
	if err != nil {
		return nil, err
	}

	project := entities.Project{
		ID:          entities.NewProjectID(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		Deadline:    req.Deadline,
		Members:     members,
		Tasks:       []string{},
	}

	err = s.integrity.Atomically(func() error {
		profile, err := s.profileRepo.Load(ctx)
		if err != nil {
			return err
		}
		project.ManagerID = profile.ID
		return s.projectRepo.Create(ctx, project)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logger.Infow("Project created successfully", "project_id", project.ID, "name", project.Name)

	return &project, nil
}

// UpdateProject applies the edit dialog. Members dropped from the member set
// are stripped from the project's task assignees.
func (s *ProjectService) UpdateProject(ctx context.Context, id string, req ports.UpdateProjectRequest) (*entities.Project, error) {
	patch := entities.ProjectPatch{
		Description:   req.Description,
		ClearDeadline: req.ClearDeadline,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, entities.ErrNameRequired
		}
		patch.Name = &name
	}
	if !req.ClearDeadline && req.Deadline != nil {
		if err := entities.ValidateDeadline(req.Deadline, s.clock()); err != nil {
			return nil, err
		}
		patch.Deadline = req.Deadline
	}
	if req.Members != nil {
		members, err := normalizeMembers(*req.Members)
		if err != nil {
			return nil, err
		}
		patch.Members = &members
	}

	var updated *entities.Project
	err := s.integrity.Atomically(func() error {
		existing, err := s.projectRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		updated, err = s.projectRepo.Update(ctx, id, patch)
		if err != nil {
			return err
		}

		if patch.Members != nil {
			if _, err := s.integrity.ReconcileMembers(ctx, id, existing.Members, *patch.Members); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logger.Infow("Project updated successfully", "project_id", updated.ID, "name", updated.Name)

	return updated, nil
}

// DeleteProject deletes a project and all of its tasks
func (s *ProjectService) DeleteProject(ctx context.Context, id string) (*ports.DeleteProjectResponse, error) {
	var deleted int
	err := s.integrity.Atomically(func() error {
		var err error
		deleted, err = s.integrity.DeleteProject(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Infow("Project deleted successfully", "project_id", id, "tasks_deleted", deleted)

	return &ports.DeleteProjectResponse{ProjectID: id, TasksDeleted: deleted}, nil
}

// InviteMember adds a member by name. Names are unique per project ignoring case.
func (s *ProjectService) InviteMember(ctx context.Context, projectID string, req ports.InviteMemberRequest) (*entities.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, entities.ErrMemberNameRequired
	}

	var updated *entities.Project
	err := s.integrity.Atomically(func() error {
		project, err := s.projectRepo.Get(ctx, projectID)
		if err != nil {
			return err
		}
		if project.HasMemberNamed(name) {
			return entities.ErrDuplicateMember
		}

		members := append(append([]entities.Member{}, project.Members...), entities.Member{
			ID:   entities.NewMemberID(),
			Name: name,
		})
		updated, err = s.projectRepo.Update(ctx, projectID, entities.ProjectPatch{Members: &members})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invite member: %w", err)
	}

	s.logger.Infow("Member invited", "project_id", projectID, "name", name)

	return updated, nil
}

// RemoveMember removes a member and unassigns them from the project's tasks
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, memberID string) (int, error) {
	var changed int
	err := s.integrity.Atomically(func() error {
		var err error
		changed, err = s.integrity.RemoveMember(ctx, projectID, memberID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to remove member: %w", err)
	}
	return changed, nil
}

// ManagedProjects lists projects whose manager is the local profile
func (s *ProjectService) ManagedProjects(ctx context.Context) ([]entities.Project, error) {
	managed := []entities.Project{}
	err := s.integrity.Atomically(func() error {
		profile, err := s.profileRepo.Load(ctx)
		if err != nil {
			return err
		}
		projects, err := s.projectRepo.List(ctx)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if p.ManagerID == profile.ID {
				managed = append(managed, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list managed projects: %w", err)
	}
	return managed, nil
}

// ListUsers flattens project members, first occurrence of each id wins
func (s *ProjectService) ListUsers(ctx context.Context) ([]entities.Member, error) {
	projects, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	users := []entities.Member{}
	for _, p := range projects {
		for _, m := range p.Members {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
			users = append(users, m)
		}
	}
	return users, nil
}

// Summary counts projects, indexed tasks and members across all projects,
// along with whatever is past its deadline or due date.
func (s *ProjectService) Summary(ctx context.Context) (ports.Summary, error) {
	var projects []entities.Project
	var tasks []entities.Task
	err := s.integrity.Atomically(func() error {
		var err error
		if projects, err = s.projectRepo.List(ctx); err != nil {
			return err
		}
		tasks, err = s.integrity.tasks.List(ctx)
		return err
	})
	if err != nil {
		return ports.Summary{}, fmt.Errorf("failed to summarize: %w", err)
	}

	now := s.clock()
	summary := ports.Summary{Projects: len(projects)}
	for _, p := range projects {
		summary.Tasks += len(p.Tasks)
		summary.Members += len(p.Members)
		if p.IsOverdue(now) {
			summary.OverdueProjects++
		}
	}
	for _, t := range tasks {
		if t.IsOverdue(now) {
			summary.OverdueTasks++
		}
	}
	return summary, nil
}

// Repair rebuilds task indexes and deletes orphaned tasks
func (s *ProjectService) Repair(ctx context.Context) (ports.RepairReport, error) {
	var report ports.RepairReport
	err := s.integrity.Atomically(func() error {
		var err error
		report, err = s.integrity.Repair(ctx)
		return err
	})
	if err != nil {
		return report, fmt.Errorf("failed to repair: %w", err)
	}

	s.logger.Infow("Repair finished", "indexes_rebuilt", report.IndexesRebuilt, "orphans_deleted", len(report.OrphansDeleted))

	return report, nil
}

// normalizeMembers trims names, assigns missing ids and drops repeated ids
func normalizeMembers(in []entities.Member) ([]entities.Member, error) {
	out := make([]entities.Member, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, m := range in {
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			return nil, entities.ErrMemberNameRequired
		}
		if m.ID == "" {
			m.ID = entities.NewMemberID()
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
