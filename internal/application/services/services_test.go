package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/taskboardx/core/internal/adapters/repository"
	"github.com/taskboardx/core/internal/domain/entities"
	"github.com/taskboardx/core/internal/infrastructure/logger"
	"github.com/taskboardx/core/internal/infrastructure/metrics"
	"github.com/taskboardx/core/internal/infrastructure/storage"
	"github.com/taskboardx/core/internal/ports"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	ctx   context.Context
	svc   *Services
	repos *repository.Repositories
	clock *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	kv := storage.NewMemoryStore()
	log := logger.NewNop()
	repos := repository.NewRepositories(kv, log, nil, clock.Now)

	ctx := context.Background()
	// start from an empty project collection instead of the sample
	require.NoError(t, repos.Projects.SaveAll(ctx, []entities.Project{}))

	return &fixture{
		ctx:   ctx,
		svc:   New(repos.Projects, repos.Tasks, repos.Profile, clock.Now, log, metrics.New()),
		repos: repos,
		clock: clock,
	}
}

func (f *fixture) createAlpha(t *testing.T) *entities.Project {
	t.Helper()
	deadline := f.clock.now.Add(7 * 24 * time.Hour)
	project, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:     "Alpha",
		Deadline: &deadline,
		Members:  []entities.Member{{ID: "m1", Name: "Ann"}, {ID: "m2", Name: "Bob"}},
	})
	require.NoError(t, err)
	return project
}

func (f *fixture) createTask(t *testing.T, projectID, title, assigneeID string) *entities.Task {
	t.Helper()
	task, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:      title,
		ProjectID:  projectID,
		AssigneeID: assigneeID,
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) project(t *testing.T, id string) *entities.Project {
	t.Helper()
	p, err := f.repos.Projects.Get(f.ctx, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) task(t *testing.T, id string) *entities.Task {
	t.Helper()
	task, err := f.repos.Tasks.Get(f.ctx, id)
	require.NoError(t, err)
	return task
}

func TestCreateProjectAndTask(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	assert.Equal(t, entities.DefaultProfileID, alpha.ManagerID)
	assert.Empty(t, alpha.Tasks)

	task := f.createTask(t, alpha.ID, "Write spec", "m1")

	assert.Equal(t, []string{task.ID}, f.project(t, alpha.ID).Tasks)
	assert.Equal(t, []entities.Member{{ID: "m1", Name: "Ann"}}, task.Assignees)
	assert.Equal(t, entities.TaskStatusTodo, task.Status)
	assert.Equal(t, f.clock.now, task.CreatedAt)
}

func TestCreateTaskIndexesOnce(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		ids = append(ids, f.createTask(t, alpha.ID, title, "").ID)
	}

	index := f.project(t, alpha.ID).Tasks
	assert.Equal(t, ids, index)
	for _, id := range ids {
		count := 0
		for _, indexed := range index {
			if indexed == id {
				count++
			}
		}
		assert.Equal(t, 1, count, id)
	}
}

func TestCreateTaskRejections(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	now := f.clock.now

	tests := []struct {
		name string
		req  ports.CreateTaskRequest
		want error
	}{
		{"blank title", ports.CreateTaskRequest{Title: "  ", ProjectID: alpha.ID}, entities.ErrTitleRequired},
		{"unknown project", ports.CreateTaskRequest{Title: "x", ProjectID: "missing"}, entities.ErrProjectNotFound},
		{"bad status", ports.CreateTaskRequest{Title: "x", ProjectID: alpha.ID, Status: "BLOCKED"}, entities.ErrInvalidStatus},
		{"non-member assignee", ports.CreateTaskRequest{Title: "x", ProjectID: alpha.ID, AssigneeID: "zed"}, entities.ErrMemberNotFound},
		{"due one millisecond ago", ports.CreateTaskRequest{Title: "x", ProjectID: alpha.ID, DueDate: ptr(now.Add(-time.Millisecond))}, entities.ErrDueDateInPast},
		{"due after deadline", ports.CreateTaskRequest{Title: "x", ProjectID: alpha.ID, DueDate: ptr(alpha.Deadline.Add(time.Millisecond))}, entities.ErrDueDateAfterDeadline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Tasks.CreateTask(f.ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	tasks, err := f.repos.Tasks.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks, "rejected tasks are never stored")
	assert.Empty(t, f.project(t, alpha.ID).Tasks)
}

func TestCreateTaskDueOnDeadline(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	task, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:     "On the line",
		ProjectID: alpha.ID,
		DueDate:   alpha.Deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, *alpha.Deadline, *task.DueDate)

	task, err = f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:     "Right now",
		ProjectID: alpha.ID,
		DueDate:   ptr(f.clock.now),
	})
	require.NoError(t, err)
	assert.Equal(t, f.clock.now, *task.DueDate)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: " "})
	assert.ErrorIs(t, err, entities.ErrNameRequired)

	yesterday := f.clock.now.Add(-24 * time.Hour)
	_, err = f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Late", Deadline: &yesterday})
	assert.ErrorIs(t, err, entities.ErrDeadlineInPast)

	_, err = f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:    "Nameless member",
		Members: []entities.Member{{ID: "m1"}},
	})
	assert.ErrorIs(t, err, entities.ErrMemberNameRequired)

	project, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:    "Dedupe",
		Members: []entities.Member{{ID: "m1", Name: "Ann"}, {ID: "m1", Name: "Ann again"}, {Name: "New"}},
	})
	require.NoError(t, err)
	require.Len(t, project.Members, 2)
	assert.Equal(t, "Ann", project.Members[0].Name)
	assert.NotEmpty(t, project.Members[1].ID)
}

func TestRemoveMemberStripsAssignees(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	first := f.createTask(t, alpha.ID, "Write spec", "m1")
	second := f.createTask(t, alpha.ID, "Review", "m2")

	changed, err := f.svc.Projects.RemoveMember(f.ctx, alpha.ID, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	assert.Empty(t, f.task(t, first.ID).Assignees)
	assert.Equal(t, []entities.Member{{ID: "m2", Name: "Bob"}}, f.task(t, second.ID).Assignees)
	assert.False(t, f.project(t, alpha.ID).HasMember("m1"))

	_, err = f.svc.Projects.RemoveMember(f.ctx, alpha.ID, "m1")
	assert.ErrorIs(t, err, entities.ErrMemberNotFound)
}

func TestRemoveMemberLeavesOtherProjects(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:    "Beta",
		Members: []entities.Member{{ID: "m1", Name: "Ann"}},
	})
	require.NoError(t, err)

	f.createTask(t, alpha.ID, "Alpha task", "m1")
	betaTask := f.createTask(t, beta.ID, "Beta task", "m1")

	_, err = f.svc.Projects.RemoveMember(f.ctx, alpha.ID, "m1")
	require.NoError(t, err)

	assert.Equal(t, []entities.Member{{ID: "m1", Name: "Ann"}}, f.task(t, betaTask.ID).Assignees)
}

func TestUpdateProjectReconcilesMembers(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	task := f.createTask(t, alpha.ID, "Write spec", "m1")

	members := []entities.Member{{ID: "m2", Name: "Bob"}}
	updated, err := f.svc.Projects.UpdateProject(f.ctx, alpha.ID, ports.UpdateProjectRequest{Members: &members})
	require.NoError(t, err)

	assert.Equal(t, members, updated.Members)
	assert.Empty(t, f.task(t, task.ID).Assignees)
	assert.Equal(t, []string{task.ID}, updated.Tasks, "index untouched")
}

func TestUpdateProjectFields(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	f.clock.Advance(time.Hour)

	name := "Alpha Prime"
	updated, err := f.svc.Projects.UpdateProject(f.ctx, alpha.ID, ports.UpdateProjectRequest{
		Name:          &name,
		ClearDeadline: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Prime", updated.Name)
	assert.Nil(t, updated.Deadline)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, f.clock.now, *updated.UpdatedAt)
	assert.Equal(t, alpha.Members, updated.Members)

	_, err = f.svc.Projects.UpdateProject(f.ctx, "missing", ports.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Beta"})
	require.NoError(t, err)

	doomed := f.createTask(t, alpha.ID, "Write spec", "m1")
	f.createTask(t, alpha.ID, "Review", "")
	survivor := f.createTask(t, beta.ID, "Keep me", "")

	resp, err := f.svc.Projects.DeleteProject(f.ctx, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TasksDeleted)

	tasks, err := f.repos.Tasks.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, survivor.ID, tasks[0].ID)
	for _, task := range tasks {
		assert.NotEqual(t, alpha.ID, task.ProjectID)
		assert.NotEqual(t, doomed.ID, task.ID)
	}

	_, err = f.svc.Projects.GetProject(f.ctx, alpha.ID)
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
}

func TestDeleteProjectTwice(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	f.createTask(t, alpha.ID, "Write spec", "")

	_, err := f.svc.Projects.DeleteProject(f.ctx, alpha.ID)
	require.NoError(t, err)
	projects, err := f.repos.Projects.List(f.ctx)
	require.NoError(t, err)
	tasks, err := f.repos.Tasks.List(f.ctx)
	require.NoError(t, err)

	_, err = f.svc.Projects.DeleteProject(f.ctx, alpha.ID)
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)

	projectsAgain, err := f.repos.Projects.List(f.ctx)
	require.NoError(t, err)
	tasksAgain, err := f.repos.Tasks.List(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, projects, projectsAgain)
	assert.Equal(t, tasks, tasksAgain)
}

func TestDeleteTaskUnindexes(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	first := f.createTask(t, alpha.ID, "One", "")
	second := f.createTask(t, alpha.ID, "Two", "")

	require.NoError(t, f.svc.Tasks.DeleteTask(f.ctx, first.ID))
	assert.Equal(t, []string{second.ID}, f.project(t, alpha.ID).Tasks)

	assert.ErrorIs(t, f.svc.Tasks.DeleteTask(f.ctx, first.ID), entities.ErrTaskNotFound)
	assert.Equal(t, []string{second.ID}, f.project(t, alpha.ID).Tasks)
}

func TestUpdateTask(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	task := f.createTask(t, alpha.ID, "Write spec", "m1")

	title := "Write spec v2"
	updated, err := f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{
		Title:      &title,
		AssigneeID: "m2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Write spec v2", updated.Title)
	assert.Equal(t, entities.TaskStatusTodo, updated.Status, "omitted status is kept")
	assert.Equal(t, []entities.Member{{ID: "m1", Name: "Ann"}, {ID: "m2", Name: "Bob"}}, updated.Assignees)

	updated, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{AssigneeID: "m2"})
	require.NoError(t, err)
	assert.Len(t, updated.Assignees, 2, "existing assignee is not added twice")

	status := "DONE"
	updated, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusDone, updated.Status)

	_, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{AssigneeID: "zed"})
	assert.ErrorIs(t, err, entities.ErrMemberNotFound)

	late := alpha.Deadline.Add(time.Hour)
	_, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{DueDate: &late})
	assert.ErrorIs(t, err, entities.ErrDueDateAfterDeadline)

	_, err = f.svc.Tasks.UpdateTask(f.ctx, "missing", ports.UpdateTaskRequest{Title: &title})
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestUpdateTaskReparents(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:    "Beta",
		Members: []entities.Member{{ID: "m2", Name: "Bob"}},
	})
	require.NoError(t, err)

	task := f.createTask(t, alpha.ID, "Move me", "m1")
	_, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{AssigneeID: "m2"})
	require.NoError(t, err)

	updated, err := f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &beta.ID})
	require.NoError(t, err)

	assert.Equal(t, beta.ID, updated.ProjectID)
	assert.Equal(t, []entities.Member{{ID: "m2", Name: "Bob"}}, updated.Assignees, "non-members are dropped")
	assert.Empty(t, f.project(t, alpha.ID).Tasks)
	assert.Equal(t, []string{task.ID}, f.project(t, beta.ID).Tasks)

	missing := "missing"
	_, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &missing})
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
	assert.Equal(t, beta.ID, f.task(t, task.ID).ProjectID)
}

func TestUpdateTaskReparentKeepsDueDateWithinDeadline(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	tight := f.clock.now.Add(24 * time.Hour)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Beta", Deadline: &tight})
	require.NoError(t, err)

	due := f.clock.now.Add(5 * 24 * time.Hour)
	task, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:     "Due in five days",
		ProjectID: alpha.ID,
		DueDate:   &due,
	})
	require.NoError(t, err)
	before := f.task(t, task.ID)

	_, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &beta.ID})
	assert.ErrorIs(t, err, entities.ErrDueDateAfterDeadline)

	assert.Equal(t, before, f.task(t, task.ID), "task untouched")
	assert.Equal(t, []string{task.ID}, f.project(t, alpha.ID).Tasks)
	assert.Empty(t, f.project(t, beta.ID).Tasks)

	updated, err := f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &beta.ID, ClearDueDate: true})
	require.NoError(t, err)
	assert.Equal(t, beta.ID, updated.ProjectID)
	assert.Nil(t, updated.DueDate)

	updated, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &alpha.ID, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, updated.ProjectID)
	assert.Equal(t, due, *updated.DueDate)

	// an overdue task can still move to a project whose deadline covers it
	f.clock.Advance(6 * 24 * time.Hour)
	roomy := f.clock.now.Add(24 * time.Hour)
	gamma, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Gamma", Deadline: &roomy})
	require.NoError(t, err)
	updated, err = f.svc.Tasks.UpdateTask(f.ctx, task.ID, ports.UpdateTaskRequest{ProjectID: &gamma.ID})
	require.NoError(t, err)
	assert.Equal(t, gamma.ID, updated.ProjectID)
	assert.Equal(t, due, *updated.DueDate)
}

func TestRemoveAssignee(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	task := f.createTask(t, alpha.ID, "Write spec", "m1")

	updated, err := f.svc.Tasks.RemoveAssignee(f.ctx, task.ID, "m1")
	require.NoError(t, err)
	assert.Empty(t, updated.Assignees)
	assert.True(t, f.project(t, alpha.ID).HasMember("m1"), "membership untouched")

	_, err = f.svc.Tasks.RemoveAssignee(f.ctx, task.ID, "m1")
	assert.ErrorIs(t, err, entities.ErrMemberNotFound)
}

func TestMoveToLane(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	task := f.createTask(t, alpha.ID, "Write spec", "m1")
	before := f.task(t, task.ID)

	f.clock.Advance(time.Minute)
	result, err := f.svc.Board.Move(f.ctx, task.ID, string(entities.TaskStatusDone))
	require.NoError(t, err)
	assert.True(t, result.Changed)

	after := f.task(t, task.ID)
	assert.Equal(t, entities.TaskStatusDone, after.Status)

	expected := *before
	expected.Status = entities.TaskStatusDone
	expected.UpdatedAt = after.UpdatedAt
	assert.Equal(t, expected, *after, "only the status changes")
	assert.Equal(t, f.clock.now, *after.UpdatedAt)
}

func TestMoveOntoTask(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Beta"})
	require.NoError(t, err)

	moving := f.createTask(t, alpha.ID, "Moving", "")
	landing, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:     "Landing",
		ProjectID: alpha.ID,
		Status:    string(entities.TaskStatusInProgress),
	})
	require.NoError(t, err)
	foreign, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{
		Title:     "Foreign",
		ProjectID: beta.ID,
		Status:    string(entities.TaskStatusDone),
	})
	require.NoError(t, err)

	result, err := f.svc.Board.Move(f.ctx, moving.ID, landing.ID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, entities.TaskStatusInProgress, result.Task.Status)

	result, err = f.svc.Board.Move(f.ctx, moving.ID, foreign.ID)
	require.NoError(t, err)
	assert.False(t, result.Changed, "tasks of another project are not drop targets")
	assert.Equal(t, entities.TaskStatusInProgress, f.task(t, moving.ID).Status)
}

func TestMoveIgnoredDrops(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	task := f.createTask(t, alpha.ID, "Write spec", "")
	before := f.task(t, task.ID)

	for _, target := range []string{"", "nowhere", "done", string(entities.TaskStatusTodo)} {
		result, err := f.svc.Board.Move(f.ctx, task.ID, target)
		require.NoError(t, err, target)
		assert.False(t, result.Changed, target)
	}
	assert.Equal(t, before, f.task(t, task.ID), "nothing written")

	_, err := f.svc.Board.Move(f.ctx, "missing", string(entities.TaskStatusDone))
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestBoardLanes(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	first := f.createTask(t, alpha.ID, "One", "")
	second := f.createTask(t, alpha.ID, "Two", "")
	_, err := f.svc.Board.Move(f.ctx, second.ID, string(entities.TaskStatusDone))
	require.NoError(t, err)

	board, err := f.svc.Board.Lanes(f.ctx, alpha.ID)
	require.NoError(t, err)

	require.Len(t, board.Lanes, 3)
	require.Len(t, board.Lanes[entities.TaskStatusTodo], 1)
	assert.Equal(t, first.ID, board.Lanes[entities.TaskStatusTodo][0].ID)
	assert.Empty(t, board.Lanes[entities.TaskStatusInProgress])
	assert.NotNil(t, board.Lanes[entities.TaskStatusInProgress])
	assert.Equal(t, second.ID, board.Lanes[entities.TaskStatusDone][0].ID)

	_, err = f.svc.Board.Lanes(f.ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
}

func TestBoardLanesUnknownStatus(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	core, logs := observer.New(zapcore.WarnLevel)
	board := NewBoardService(f.repos.Tasks, f.repos.Projects, f.svc.Integrity, &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	require.NoError(t, f.repos.Tasks.Create(f.ctx, entities.Task{
		ID:        "edited",
		Title:     "Hand edited",
		Status:    entities.TaskStatus("BLOCKED"),
		ProjectID: alpha.ID,
	}))

	lanes, err := board.Lanes(f.ctx, alpha.ID)
	require.NoError(t, err)
	require.Len(t, lanes.Lanes[entities.TaskStatusTodo], 1)
	assert.Equal(t, "edited", lanes.Lanes[entities.TaskStatusTodo][0].ID)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "edited", logs.All()[0].ContextMap()["task_id"])

	result, err := board.Move(f.ctx, "edited", string(entities.TaskStatusTodo))
	require.NoError(t, err)
	assert.True(t, result.Changed, "dropping on TODO repairs the status")
	assert.Equal(t, entities.TaskStatusTodo, f.task(t, "edited").Status)
}

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	beta, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{Name: "Beta"})
	require.NoError(t, err)

	titles := []string{"delta", "Alpha", "charlie", "Bravo", "echo", "foxtrot", "golf"}
	for _, title := range titles {
		f.createTask(t, alpha.ID, title, "")
		f.clock.Advance(time.Minute)
	}
	f.createTask(t, beta.ID, "Alpha in beta", "")

	t.Run("default page is newest first", func(t *testing.T) {
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{ProjectID: alpha.ID})
		require.NoError(t, err)
		assert.Equal(t, 7, page.Total)
		assert.Equal(t, DefaultPageSize, page.PageSize)
		require.Len(t, page.Data, DefaultPageSize)
		assert.Equal(t, "golf", page.Data[0].Title)
	})

	t.Run("out of range page clamps", func(t *testing.T) {
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{ProjectID: alpha.ID, Page: 9})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Page)
		require.Len(t, page.Data, 2)
		assert.Equal(t, "delta", page.Data[1].Title)
	})

	t.Run("title sort ignores case", func(t *testing.T) {
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{ProjectID: alpha.ID, SortBy: SortTitle, PageSize: 3})
		require.NoError(t, err)
		require.Len(t, page.Data, 3)
		assert.Equal(t, []string{"Alpha", "Bravo", "charlie"},
			[]string{page.Data[0].Title, page.Data[1].Title, page.Data[2].Title})
	})

	t.Run("search spans projects", func(t *testing.T) {
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{Search: "alpha"})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("status filter", func(t *testing.T) {
		done := entities.TaskStatusDone
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{Status: &done})
		require.NoError(t, err)
		assert.Zero(t, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.NotNil(t, page.Data)
	})

	t.Run("page size is capped", func(t *testing.T) {
		page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{PageSize: 1000})
		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, page.PageSize)
		assert.Len(t, page.Data, 8)
	})

	t.Run("unknown sort", func(t *testing.T) {
		_, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{SortBy: "priority"})
		assert.ErrorIs(t, err, entities.ErrValidation)
	})
}

func TestSortByDueDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tasks := []entities.Task{
		{ID: "late", DueDate: ptr(now.Add(48 * time.Hour))},
		{ID: "undated"},
		{ID: "soon", DueDate: ptr(now.Add(time.Hour))},
	}

	require.NoError(t, sortTasks(tasks, SortDue))
	assert.Equal(t, []string{"undated", "soon", "late"}, []string{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func TestInviteMember(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	updated, err := f.svc.Projects.InviteMember(f.ctx, alpha.ID, ports.InviteMemberRequest{Name: "Cleo"})
	require.NoError(t, err)
	require.Len(t, updated.Members, 3)
	assert.Equal(t, "Cleo", updated.Members[2].Name)
	assert.NotEmpty(t, updated.Members[2].ID)

	_, err = f.svc.Projects.InviteMember(f.ctx, alpha.ID, ports.InviteMemberRequest{Name: "ann"})
	assert.ErrorIs(t, err, entities.ErrDuplicateMember)

	_, err = f.svc.Projects.InviteMember(f.ctx, alpha.ID, ports.InviteMemberRequest{Name: ""})
	assert.ErrorIs(t, err, entities.ErrMemberNameRequired)

	_, err = f.svc.Projects.InviteMember(f.ctx, "missing", ports.InviteMemberRequest{Name: "Dan"})
	assert.ErrorIs(t, err, entities.ErrProjectNotFound)
}

func TestUsersSummaryAndManaged(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	_, err := f.svc.Projects.CreateProject(f.ctx, ports.CreateProjectRequest{
		Name:    "Beta",
		Members: []entities.Member{{ID: "m1", Name: "Ann"}, {ID: "m3", Name: "Cleo"}},
	})
	require.NoError(t, err)
	f.createTask(t, alpha.ID, "One", "")

	users, err := f.svc.Projects.ListUsers(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Member{
		{ID: "m1", Name: "Ann"},
		{ID: "m2", Name: "Bob"},
		{ID: "m3", Name: "Cleo"},
	}, users)

	summary, err := f.svc.Projects.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.Summary{Projects: 2, Tasks: 1, Members: 4}, summary)

	require.NoError(t, f.repos.Projects.Create(f.ctx, entities.Project{ID: "foreign", Name: "Foreign", ManagerID: "someone-else"}))
	managed, err := f.svc.Projects.ManagedProjects(f.ctx)
	require.NoError(t, err)
	assert.Len(t, managed, 2)
}

func TestOverdueSummaryAndFilter(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)

	due := f.clock.now.Add(24 * time.Hour)
	late, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{Title: "Late", ProjectID: alpha.ID, DueDate: &due})
	require.NoError(t, err)
	finished, err := f.svc.Tasks.CreateTask(f.ctx, ports.CreateTaskRequest{Title: "Finished", ProjectID: alpha.ID, DueDate: &due})
	require.NoError(t, err)
	_, err = f.svc.Tasks.UpdateTask(f.ctx, finished.ID, ports.UpdateTaskRequest{Status: ptr("DONE")})
	require.NoError(t, err)
	f.createTask(t, alpha.ID, "Undated", "")

	summary, err := f.svc.Projects.Summary(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.OverdueProjects)
	assert.Zero(t, summary.OverdueTasks)

	f.clock.Advance(8 * 24 * time.Hour)

	summary, err = f.svc.Projects.Summary(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, ports.Summary{Projects: 1, Tasks: 3, Members: 2, OverdueProjects: 1, OverdueTasks: 1}, summary)

	page, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{Overdue: true})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, late.ID, page.Data[0].ID)

	all, err := f.svc.Tasks.ListTasks(f.ctx, ports.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)
}

func TestRepair(t *testing.T) {
	f := newFixture(t)
	alpha := f.createAlpha(t)
	kept := f.createTask(t, alpha.ID, "Kept", "")

	// corrupt both sides of the index by hand
	require.NoError(t, f.repos.Tasks.Create(f.ctx, entities.Task{ID: "orphan", Title: "Orphan", ProjectID: "gone", Status: entities.TaskStatusTodo}))
	stale := []string{"ghost", kept.ID, kept.ID}
	_, err := f.repos.Projects.Update(f.ctx, alpha.ID, entities.ProjectPatch{Tasks: &stale})
	require.NoError(t, err)

	report, err := f.svc.Projects.Repair(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.IndexesRebuilt)
	assert.Equal(t, []string{"orphan"}, report.OrphansDeleted)

	assert.Equal(t, []string{kept.ID}, f.project(t, alpha.ID).Tasks)
	_, err = f.repos.Tasks.Get(f.ctx, "orphan")
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	report, err = f.svc.Projects.Repair(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.IndexesRebuilt)
	assert.Empty(t, report.OrphansDeleted)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)

	profile, err := f.svc.Profile.GetProfile(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultProfileID, profile.ID)

	name, dob := "Linh", "1990-04-01"
	profile, err = f.svc.Profile.UpdateProfile(f.ctx, ports.UpdateProfileRequest{Name: &name, DOB: &dob})
	require.NoError(t, err)
	assert.Equal(t, "Linh", profile.Name)
	assert.Equal(t, "1990-04-01", profile.DOB)
	assert.Equal(t, entities.DefaultProfileID, profile.ID)
}

func TestSeededSampleProject(t *testing.T) {
	clock := &testClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	repos := repository.NewRepositories(storage.NewMemoryStore(), logger.NewNop(), nil, clock.Now)
	svc := New(repos.Projects, repos.Tasks, repos.Profile, clock.Now, logger.NewNop(), nil)

	projects, err := svc.Projects.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Sample Project", projects[0].Name)

	managed, err := svc.Projects.ManagedProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, managed, 1)
}

func ptr[T any](v T) *T { return &v }
