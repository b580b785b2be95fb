package executor_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/core/internal/adapters/memory"
	"github.com/taskhub/core/internal/application/executor"
	"github.com/taskhub/core/internal/infrastructure/logger"
	"github.com/taskhub/core/internal/protocol"
)

func newExecutor(t *testing.T, opts ...executor.Option) *executor.Executor {
	t.Helper()
	return executor.New(memory.New(), logger.NewNop(), opts...)
}

func run(t *testing.T, e *executor.Executor, sessionID int64, line string) string {
	t.Helper()
	cmd, err := protocol.Parse(line)
	require.NoError(t, err)
	return e.Execute(sessionID, cmd)
}

func login(t *testing.T, e *executor.Executor, sessionID int64, username string) {
	t.Helper()
	require.Equal(t, fmt.Sprintf("User %q added successfully!", username),
		run(t, e, sessionID, "register --username="+username+" --password=secret"))
	require.Equal(t, fmt.Sprintf("User %q logged successfully!", username),
		run(t, e, sessionID, "login --username="+username+" --password=secret"))
}

func TestUnknownCommand(t *testing.T) {
	e := newExecutor(t)
	assert.Equal(t, "Unknown command. Please enter valid command!",
		run(t, e, 1, "frobnicate --key=value"))
}

func TestArgumentCountValidation(t *testing.T) {
	e := newExecutor(t)

	tests := []struct {
		line string
		want string
	}{
		{"register --username=alice", `Invalid count of arguments: command "register" expects 2 arguments.`},
		{"login --username=alice", `Invalid count of arguments: command "login" expects 2 arguments.`},
		{"add-task", `Invalid count of arguments: command "add-task" expects at least 1 arguments.`},
		{"update-task", `Invalid count of arguments: command "update-task" expects at least 1 arguments.`},
		{"delete-task", `Invalid count of arguments: command "delete-task" expects at least 1 arguments.`},
		{"get-task", `Invalid count of arguments: command "get-task" expects at least 1 arguments.`},
		{"finish-task", `Invalid count of arguments: command "finish-task" expects 1 arguments.`},
		{"add-collaboration", `Invalid count of arguments: command "add-collaboration" expects 1 arguments.`},
		{"delete-collaboration", `Invalid count of arguments: command "delete-collaboration" expects 1 arguments.`},
		{"add-user --collaboration=launch", `Invalid count of arguments: command "add-user" expects 2 arguments.`},
		{"assign-task --collaboration=launch --user=bob", `Invalid count of arguments: command "assign-task" expects at least 3 arguments.`},
		{"list-users", `Invalid count of arguments: command "list-users" expects 1 arguments.`},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, run(t, e, 1, tc.line), "line %q", tc.line)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newExecutor(t)

	assert.Equal(t, "Invalid command format. Command expected in \"key=value\" format",
		run(t, e, 1, "register --username= --password=secret"))
	assert.Equal(t, `User "alice" added successfully!`,
		run(t, e, 1, "register --username=alice --password=secret"))
	assert.Equal(t, `User cannot be added. User with username "alice" already exists.`,
		run(t, e, 1, "register --username=alice --password=other"))

	assert.Equal(t, `Cannot log in. User with username "bob" does not exist.`,
		run(t, e, 1, "login --username=bob --password=secret"))
	assert.Equal(t, "Cannot log in. Wrong password.",
		run(t, e, 1, "login --username=alice --password=wrong"))
	assert.Equal(t, `User "alice" logged successfully!`,
		run(t, e, 1, "login --username=alice --password=secret"))
}

func TestLoginTwiceOnSameSession(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "There is already another logged user. Please log out first.",
		run(t, e, 1, "login --username=alice --password=secret"))
}

func TestLogoutLifecycle(t *testing.T) {
	e := newExecutor(t)

	assert.Equal(t, "User cannot be logged out. There is no logged user.",
		run(t, e, 1, "logout"))

	login(t, e, 1, "alice")
	assert.Equal(t, `User "alice" successfully logged out.`, run(t, e, 1, "logout"))
	assert.Equal(t, "User cannot be logged out. There is no logged user.",
		run(t, e, 1, "logout"))
}

func TestSessionsAreIndependent(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "Task cannot be added. There is no logged user.",
		run(t, e, 2, "add-task --name=report"))
}

func TestDropSessionForgetsLogin(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	e.DropSession(1)

	assert.Equal(t, "Task cannot be added. There is no logged user.",
		run(t, e, 1, "add-task --name=report"))
}

func TestDisconnectAlwaysAcknowledges(t *testing.T) {
	e := newExecutor(t)

	assert.Equal(t, "Disconnected from server.", run(t, e, 1, "disconnect"))

	login(t, e, 1, "alice")
	assert.Equal(t, "Disconnected from server.", run(t, e, 1, "disconnect"))
	// the disconnect logged the session out
	assert.Equal(t, "User cannot be logged out. There is no logged user.",
		run(t, e, 1, "logout"))
}

func TestAddTaskRequiresLogin(t *testing.T) {
	e := newExecutor(t)
	assert.Equal(t, "Task cannot be added. There is no logged user.",
		run(t, e, 1, "add-task --name=report"))
}

func TestAddTaskValidation(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "Invalid command format. \"name\" parameter not found.",
		run(t, e, 1, "add-task --description=no name here"))
	assert.Equal(t, "Invalid command format. Command expected in \"key=value\" format",
		run(t, e, 1, "add-task --name"))
	assert.Equal(t, "Invalid command format. Command expected in \"key=value\" format",
		run(t, e, 1, "add-task --name="))
	assert.Equal(t, "Invalid command format. Unknown date format for the date provided.",
		run(t, e, 1, "add-task --name=report --date=2025-03-15"))
	assert.Equal(t, "Invalid command format. The date cannot be after the due date.",
		run(t, e, 1, "add-task --name=report --date=16.03.2025 --due-date=15.03.2025"))
}

func TestTaskLifecycle(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, `Task "report" successfully added!`,
		run(t, e, 1, "add-task --name=report --description=quarterly figures"))
	assert.Equal(t, `Task cannot be added. Task with name "report" already exists in inbox folder.`,
		run(t, e, 1, "add-task --name=report"))

	want := "# report\n" +
		"    date: null\n" +
		"    due-date: null\n" +
		"    description: quarterly figures\n"
	assert.Equal(t, want, run(t, e, 1, "get-task --name=report"))

	assert.Equal(t, `Task "report" successfully updated!`,
		run(t, e, 1, "update-task --name=report --due-date=20.03.2025"))
	want = "# report\n" +
		"    date: null\n" +
		"    due-date: 2025-03-20\n" +
		"    description: null\n"
	assert.Equal(t, want, run(t, e, 1, "get-task --name=report"))

	assert.Equal(t, `Task "report" deleted successfully!`,
		run(t, e, 1, "delete-task --name=report"))
	assert.Equal(t, `Task cannot be shown. Task with name "report" does not exist.`,
		run(t, e, 1, "get-task --name=report"))
}

func TestDatedTaskSelector(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	require.Equal(t, `Task "standup" successfully added!`,
		run(t, e, 1, "add-task --name=standup --date=15.03.2025"))

	// the undated lookup does not see the dated task
	assert.Equal(t, `Task cannot be shown. Task with name "standup" does not exist.`,
		run(t, e, 1, "get-task --name=standup"))

	want := "# standup\n" +
		"    date: 2025-03-15\n" +
		"    due-date: null\n" +
		"    description: null\n"
	assert.Equal(t, want, run(t, e, 1, "get-task --name=standup --date=15.03.2025"))
}

func TestListTasksFiltersAreMutuallyExclusive(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "Invalid command format. There are more than one set properties.",
		run(t, e, 1, "list-tasks --completed=true --date=15.03.2025"))
	assert.Equal(t, "Invalid command format. There are more than one set properties.",
		run(t, e, 1, "list-tasks --date=15.03.2025 --collaboration=launch"))
}

func TestListTasksVariants(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "No tasks found!", run(t, e, 1, "list-tasks"))

	require.Equal(t, `Task "report" successfully added!`,
		run(t, e, 1, "add-task --name=report"))

	separator := "##################################################\n"
	want := separator +
		"# report\n" +
		"    date: null\n" +
		"    due-date: null\n" +
		"    description: null\n" +
		separator
	assert.Equal(t, want, run(t, e, 1, "list-tasks"))

	assert.Equal(t, "No tasks found!", run(t, e, 1, "list-tasks --completed=true"))

	require.Equal(t, `Task "report" finished successfully!`,
		run(t, e, 1, "finish-task --name=report"))
	assert.Equal(t, want, run(t, e, 1, "list-tasks --completed=true"))
	assert.Equal(t, "No tasks found!", run(t, e, 1, "list-tasks"))
}

func TestFinishTaskMissingName(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, "Invalid command format. \"name\" argument not found",
		run(t, e, 1, "finish-task --date=15.03.2025"))
}

func TestListTasksOnDate(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	require.Equal(t, `Task "standup" successfully added!`,
		run(t, e, 1, "add-task --name=standup --date=15.03.2025"))

	assert.Equal(t, "Tasks cannot be listed. Tasks with execution date 2025-03-16 not found for the logged user.",
		run(t, e, 1, "list-tasks --date=16.03.2025"))

	got := run(t, e, 1, "list-tasks --date=15.03.2025")
	assert.Contains(t, got, "# standup\n")
}

func TestListDashboardUsesClock(t *testing.T) {
	today := time.Date(2025, time.March, 15, 10, 30, 0, 0, time.Local)
	e := newExecutor(t, executor.WithClock(func() time.Time { return today }))
	login(t, e, 1, "alice")

	require.Equal(t, `Task "standup" successfully added!`,
		run(t, e, 1, "add-task --name=standup --date=15.03.2025"))

	got := run(t, e, 1, "list-dashboard")
	assert.Contains(t, got, "# standup\n")
}

func TestCollaborationFlow(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")
	login(t, e, 2, "bob")

	assert.Equal(t, "No collaborations found!", run(t, e, 1, "list-collaborations"))

	assert.Equal(t, `Collaboration "launch" added successfully`,
		run(t, e, 1, "add-collaboration --name=launch"))
	assert.Equal(t, `Collaboration cannot be created. Collaboration "launch" already exists for the logged user.`,
		run(t, e, 1, "add-collaboration --name=launch"))

	assert.Equal(t, `User "bob" successfully added in collaboration "launch".`,
		run(t, e, 1, "add-user --collaboration=launch --user=bob"))
	assert.Equal(t, "Cannot add user to collaboration. User bob already added in this collaboration.",
		run(t, e, 1, "add-user --collaboration=launch --user=bob"))

	require.Equal(t, `Task "report" successfully added!`,
		run(t, e, 1, "add-task --name=report"))
	assert.Equal(t, `Task "report" successfully assigned with user "bob".`,
		run(t, e, 1, "assign-task --collaboration=launch --user=bob --task=report"))

	// the member sees the shared task
	got := run(t, e, 2, "list-tasks --collaboration=launch")
	assert.Contains(t, got, "# report\n")

	separator := "##################################################\n"
	assert.Equal(t, separator+"launch\n"+separator, run(t, e, 2, "list-collaborations"))
	assert.Equal(t, separator+"bob\n"+separator, run(t, e, 2, "list-users --collaboration=launch"))

	assert.Equal(t, `Collaboration "launch" deleted successfully`,
		run(t, e, 1, "delete-collaboration --collaboration=launch"))

	// cascade: the assigned task left the owner's inbox, the member lost the group
	assert.Equal(t, `Task cannot be shown. Task with name "report" does not exist.`,
		run(t, e, 1, "get-task --name=report"))
	assert.Equal(t, "No collaborations found!", run(t, e, 2, "list-collaborations"))
}

func TestAssignTaskErrors(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")
	login(t, e, 2, "bob")
	require.Equal(t, `User "carol" added successfully!`,
		run(t, e, 1, "register --username=carol --password=secret"))

	require.Equal(t, `Collaboration "launch" added successfully`,
		run(t, e, 1, "add-collaboration --name=launch"))
	require.Equal(t, `User "bob" successfully added in collaboration "launch".`,
		run(t, e, 1, "add-user --collaboration=launch --user=bob"))

	assert.Equal(t, `Cannot assign task. Collaboration "missing" was not found for the logged user.`,
		run(t, e, 1, "assign-task --collaboration=missing --user=bob --task=report"))
	assert.Equal(t, `Cannot assign task. User "dave" not found.`,
		run(t, e, 1, "assign-task --collaboration=launch --user=dave --task=report"))

	// the owner's inbox is consulted before membership
	assert.Equal(t, `Cannot assign task. Task "report" not found in inbox folder.`,
		run(t, e, 1, "assign-task --collaboration=launch --user=carol --task=report"))

	require.Equal(t, `Task "report" successfully added!`,
		run(t, e, 1, "add-task --name=report"))
	assert.Equal(t, `Cannot assign task. User "carol" does not exist in this collaboration.`,
		run(t, e, 1, "assign-task --collaboration=launch --user=carol --task=report"))
}

func TestLastOccurrenceOfKeyWins(t *testing.T) {
	e := newExecutor(t)
	login(t, e, 1, "alice")

	assert.Equal(t, `Task "second" successfully added!`,
		run(t, e, 1, "add-task --name=first --name=second"))
}

func TestHelp(t *testing.T) {
	e := newExecutor(t)
	got := run(t, e, 1, "help")
	assert.Contains(t, got, "Possible commands:")
	assert.Contains(t, got, "*date format: dd.MM.yyyy")
}
