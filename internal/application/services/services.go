package services

import (
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/ports"
)

// Services is the application layer handed to the HTTP server and the CLI
type Services struct {
	Projects  *ProjectService
	Tasks     *TaskService
	Board     *BoardService
	Profile   *ProfileService
	Integrity *IntegrityCoordinator
}

// New wires every service around a single integrity coordinator
func New(projects ports.ProjectRepository, tasks ports.TaskRepository, profile ports.ProfileRepository, clock ports.Clock, log *logger.Logger, m *metrics.Metrics) *Services {
	integrity := NewIntegrityCoordinator(projects, tasks, log, m)

	return &Services{
		Projects:  NewProjectService(projects, profile, integrity, clock, log),
		Tasks:     NewTaskService(tasks, projects, integrity, clock, log),
		Board:     NewBoardService(tasks, projects, integrity, log),
		Profile:   NewProfileService(profile, integrity, log),
		Integrity: integrity,
	}
}
