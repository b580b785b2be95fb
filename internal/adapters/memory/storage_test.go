package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/core/internal/adapters/memory"
	"github.com/taskhub/core/internal/domain/entities"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("02.01.2006", value)
	require.NoError(t, err)
	return d
}

func buildTask(t *testing.T, name string, day *time.Time) *entities.Task {
	t.Helper()
	b := entities.NewTaskBuilder(name)
	if day != nil {
		b.Date(*day)
	}
	task, err := b.Build()
	require.NoError(t, err)
	return task
}

func newStoreWithUser(t *testing.T, users ...string) *memory.Store {
	t.Helper()
	s := memory.New()
	for _, u := range users {
		require.NoError(t, s.AddUser(u, "secret"))
	}
	return s
}

func TestAddUserRejectsDuplicate(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.AddUser("alice", "secret"))

	err := s.AddUser("alice", "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrUserExists)
	assert.EqualError(t, err, `User with username "alice" already exists.`)
}

func TestAddUserRejectsBlankCredentials(t *testing.T) {
	s := memory.New()
	assert.ErrorIs(t, s.AddUser("  ", "secret"), entities.ErrInvalidArgument)
	assert.ErrorIs(t, s.AddUser("alice", ""), entities.ErrInvalidArgument)
}

func TestCheckPasswordDistinguishesUnknownUserFromWrongPassword(t *testing.T) {
	s := newStoreWithUser(t, "alice")

	require.NoError(t, s.CheckPassword("alice", "secret"))

	err := s.CheckPassword("bob", "secret")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	err = s.CheckPassword("alice", "wrong")
	assert.ErrorIs(t, err, entities.ErrWrongPassword)
	assert.EqualError(t, err, "Wrong password.")
}

func TestAddTaskInboxAndCalendarAreSeparateNamespaces(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	day := date(t, "15.03.2025")

	require.NoError(t, s.AddTask("alice", buildTask(t, "report", nil)))
	require.NoError(t, s.AddTask("alice", buildTask(t, "report", &day)))

	err := s.AddTask("alice", buildTask(t, "report", nil))
	assert.ErrorIs(t, err, entities.ErrTaskExists)
	assert.EqualError(t, err, `Task with name "report" already exists in inbox folder.`)

	err = s.AddTask("alice", buildTask(t, "report", &day))
	assert.ErrorIs(t, err, entities.ErrTaskExists)
	assert.EqualError(t, err, `Task with name "report" and execution date 2025-03-15 already exists.`)
}

func TestAddTaskSameNameOnDistinctDates(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	first := date(t, "15.03.2025")
	second := date(t, "16.03.2025")

	require.NoError(t, s.AddTask("alice", buildTask(t, "standup", &first)))
	require.NoError(t, s.AddTask("alice", buildTask(t, "standup", &second)))

	tasks, err := s.ListTasks("alice")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestUpdateTaskReplacesExistingOnly(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	require.NoError(t, s.AddTask("alice", buildTask(t, "report", nil)))

	updated, err := entities.NewTaskBuilder("report").Description("quarterly figures").Build()
	require.NoError(t, err)
	require.NoError(t, s.UpdateTask("alice", updated))

	got, err := s.GetTask("alice", "report", nil)
	require.NoError(t, err)
	assert.Same(t, updated, got)

	missing, err := entities.NewTaskBuilder("absent").Build()
	require.NoError(t, err)
	err = s.UpdateTask("alice", missing)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestDeleteTaskReturnsStoredTask(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	task := buildTask(t, "report", nil)
	require.NoError(t, s.AddTask("alice", task))

	got, err := s.DeleteTask("alice", "report", nil)
	require.NoError(t, err)
	assert.Same(t, task, got)

	_, err = s.GetTask("alice", "report", nil)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestListTasksOnFailsForAbsentDate(t *testing.T) {
	s := newStoreWithUser(t, "alice")

	_, err := s.ListTasksOn("alice", date(t, "15.03.2025"))
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.EqualError(t, err, "Tasks with execution date 2025-03-15 not found for the logged user.")
}

func TestFinishTaskMovesInboxTaskToCompleted(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	require.NoError(t, s.AddTask("alice", buildTask(t, "report", nil)))

	require.NoError(t, s.FinishTask("alice", "report"))

	_, err := s.GetTask("alice", "report", nil)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	completed, err := s.ListCompletedTasks("alice")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "report", completed[0].Name())
}

func TestFinishTaskIgnoresDatedTasks(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	day := date(t, "15.03.2025")
	require.NoError(t, s.AddTask("alice", buildTask(t, "standup", &day)))

	err := s.FinishTask("alice", "standup")
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestCollaborationVisibleToOwnerAndMembers(t *testing.T) {
	s := newStoreWithUser(t, "alice", "bob")
	require.NoError(t, s.AddCollaboration("alice", "launch"))
	require.NoError(t, s.AddUserToCollaboration("alice", "launch", "bob"))

	owned, err := s.Collaborations("alice")
	require.NoError(t, err)
	require.Len(t, owned, 1)

	assigned, err := s.Collaborations("bob")
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Same(t, owned[0], assigned[0])

	users, err := s.ListCollaborationUsers("bob", "launch")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, users)
}

func TestAddCollaborationRejectsDuplicatePerOwner(t *testing.T) {
	s := newStoreWithUser(t, "alice", "bob")
	require.NoError(t, s.AddCollaboration("alice", "launch"))

	err := s.AddCollaboration("alice", "launch")
	assert.ErrorIs(t, err, entities.ErrCollaborationExists)

	// a different owner may reuse the name
	require.NoError(t, s.AddCollaboration("bob", "launch"))
}

func TestAssignTaskSharesOwnerPointer(t *testing.T) {
	s := newStoreWithUser(t, "alice", "bob")
	task := buildTask(t, "report", nil)
	require.NoError(t, s.AddTask("alice", task))
	require.NoError(t, s.AddCollaboration("alice", "launch"))
	require.NoError(t, s.AddUserToCollaboration("alice", "launch", "bob"))

	require.NoError(t, s.AssignTask("alice", "launch", "bob", "report", nil))

	tasks, err := s.ListCollaborationTasks("bob", "launch")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Same(t, task, tasks[0])
}

func TestAssignTaskErrorCases(t *testing.T) {
	s := newStoreWithUser(t, "alice", "bob")
	require.NoError(t, s.AddCollaboration("alice", "launch"))
	require.NoError(t, s.AddUserToCollaboration("alice", "launch", "bob"))

	err := s.AssignTask("alice", "missing", "bob", "report", nil)
	assert.ErrorIs(t, err, entities.ErrCollaborationNotFound)

	err = s.AssignTask("alice", "launch", "carol", "report", nil)
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	err = s.AssignTask("alice", "launch", "bob", "report", nil)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	assert.EqualError(t, err, `Task "report" not found in inbox folder.`)
}

func TestDeleteCollaborationCascades(t *testing.T) {
	s := newStoreWithUser(t, "alice", "bob")
	day := date(t, "15.03.2025")
	require.NoError(t, s.AddTask("alice", buildTask(t, "report", nil)))
	require.NoError(t, s.AddTask("alice", buildTask(t, "standup", &day)))
	require.NoError(t, s.AddCollaboration("alice", "launch"))
	require.NoError(t, s.AddUserToCollaboration("alice", "launch", "bob"))
	require.NoError(t, s.AssignTask("alice", "launch", "bob", "report", nil))
	require.NoError(t, s.AssignTask("alice", "launch", "bob", "standup", &day))

	require.NoError(t, s.DeleteCollaboration("alice", "launch"))

	// member view is gone
	assigned, err := s.Collaborations("bob")
	require.NoError(t, err)
	assert.Empty(t, assigned)

	// assigned tasks cascade out of the owner's active indexes
	_, err = s.GetTask("alice", "report", nil)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	_, err = s.GetTask("alice", "standup", &day)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestDeleteCollaborationKeepsUnassignedTasks(t *testing.T) {
	s := newStoreWithUser(t, "alice")
	require.NoError(t, s.AddTask("alice", buildTask(t, "report", nil)))
	require.NoError(t, s.AddCollaboration("alice", "launch"))

	require.NoError(t, s.DeleteCollaboration("alice", "launch"))

	_, err := s.GetTask("alice", "report", nil)
	assert.NoError(t, err)
}

func TestOperationsRequireExistingUser(t *testing.T) {
	s := memory.New()

	err := s.AddTask("ghost", buildTask(t, "report", nil))
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	assert.EqualError(t, err, `User "ghost" does not exist.`)

	_, err = s.ListTasks("ghost")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
