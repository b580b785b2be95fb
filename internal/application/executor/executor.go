// Package executor turns parsed protocol commands into storage calls and
// reply text. It owns the per-session login state: every failure becomes a
// textual reply, never a dropped connection or a panic.
package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskhub/core/internal/domain/entities"
	"github.com/taskhub/core/internal/infrastructure/logger"
	"github.com/taskhub/core/internal/ports"
	"github.com/taskhub/core/internal/protocol"
)

const (
	registerArgsCount   = 2
	loginArgsCount      = 2
	addUserArgsCount    = 2
	assignTaskArgsCount = 3
	minArgsCount        = 1

	invalidArgsCountFormat = "Invalid count of arguments: command %q expects %s arguments."
	invalidFormatMessage   = "Invalid command format. "
	unknownCommandMessage  = "Unknown command. Please enter valid command!"
	disconnectMessage      = "Disconnected from server."
	sectionSeparator       = "##################################################"
)

const helpMessage = `Possible commands:
    << register --username=<username> --password=<password>
    << login --username=<username> --password=<password>
    << logout
    << add-task --name=<task name> --date=<date*> --due-date=<due-date*> --description=<description>
    << update-task --name=<task name> --date=<date*> --due-date=<due-date*> --description=<description>
    << delete-task --name=<task name>
    << delete-task --name=<task name> --date=<date*>
    << get-task --name=<task name>
    << get-task --name=<task name> --date=<date*>
    << list-tasks
    << list-tasks --completed=true
    << list-tasks --date=<date*>
    << list-tasks --collaboration=<collaboration name>
    << list-dashboard
    << finish-task --name=<name>
    << add-collaboration --name=<collaboration name>
    << delete-collaboration --collaboration=<collaboration name>
    << list-collaborations
    << add-user --collaboration=<collaboration name> --user=<username>
    << assign-task --collaboration=<collaboration name> --user=<username> --task=<name>
    << assign-task --collaboration=<collaboration name> --user=<username> --task=<name> --date=<date*>
    << list-users --collaboration=<collaboration name>
    *date format: dd.MM.yyyy
`

// Executor validates command arguments, tracks which username is logged in on
// each session, and dispatches to the storage engine. It is driven from a
// single goroutine and holds no locks.
type Executor struct {
	storage  ports.Storage
	log      *logger.Logger
	sessions map[int64]string
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the dashboard clock.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor over the given storage.
func New(storage ports.Storage, log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		storage:  storage,
		log:      log,
		sessions: make(map[int64]string),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one command for the given session and returns the reply text.
func (e *Executor) Execute(sessionID int64, cmd protocol.Command) string {
	e.log.Debugw("executing command", "session_id", sessionID, "command", cmd.Type)

	switch cmd.Type {
	case protocol.TypeRegister:
		return e.register(cmd.Args)
	case protocol.TypeLogin:
		return e.login(sessionID, cmd.Args)
	case protocol.TypeLogout:
		return e.logout(sessionID)
	case protocol.TypeAddTask:
		return e.addTask(sessionID, cmd.Args)
	case protocol.TypeUpdateTask:
		return e.updateTask(sessionID, cmd.Args)
	case protocol.TypeDeleteTask:
		return e.deleteTask(sessionID, cmd.Args)
	case protocol.TypeGetTask:
		return e.getTask(sessionID, cmd.Args)
	case protocol.TypeListTasks:
		return e.listTasks(sessionID, cmd.Args)
	case protocol.TypeListDashboard:
		return e.listDashboard(sessionID)
	case protocol.TypeFinishTask:
		return e.finishTask(sessionID, cmd.Args)
	case protocol.TypeAddCollaboration:
		return e.addCollaboration(sessionID, cmd.Args)
	case protocol.TypeDeleteCollaboration:
		return e.deleteCollaboration(sessionID, cmd.Args)
	case protocol.TypeListCollaborations:
		return e.listCollaborations(sessionID)
	case protocol.TypeAddUser:
		return e.addUserToCollaboration(sessionID, cmd.Args)
	case protocol.TypeAssignTask:
		return e.assignTask(sessionID, cmd.Args)
	case protocol.TypeListUsers:
		return e.listUsers(sessionID, cmd.Args)
	case protocol.TypeDisconnect:
		return e.disconnect(sessionID)
	case protocol.TypeHelp:
		return helpMessage
	default:
		return unknownCommandMessage
	}
}

// DropSession discards the login state of a closed connection.
func (e *Executor) DropSession(sessionID int64) {
	delete(e.sessions, sessionID)
}

func (e *Executor) register(args []string) string {
	if len(args) != registerArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "register", "2")
	}

	username, err := argValue(protocol.KeyUsername, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	password, err := argValue(protocol.KeyPassword, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if username == "" || password == "" {
		return invalidFormatMessage
	}

	if err := e.storage.AddUser(username, password); err != nil {
		return "User cannot be added. " + err.Error()
	}
	return fmt.Sprintf("User %q added successfully!", username)
}

func (e *Executor) login(sessionID int64, args []string) string {
	if len(args) != loginArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "login", "2")
	}

	username, err := argValue(protocol.KeyUsername, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	password, err := argValue(protocol.KeyPassword, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if username == "" || password == "" {
		return invalidFormatMessage
	}

	if _, logged := e.sessions[sessionID]; logged {
		return "There is already another logged user. Please log out first."
	}
	if err := e.storage.CheckPassword(username, password); err != nil {
		return "Cannot log in. " + err.Error()
	}

	e.sessions[sessionID] = username
	e.log.Infow("user logged in", "session_id", sessionID, "username", username)
	return fmt.Sprintf("User %q logged successfully!", username)
}

func (e *Executor) logout(sessionID int64) string {
	username, err := e.currentUser(sessionID)
	if err != nil {
		return "User cannot be logged out. " + err.Error()
	}

	delete(e.sessions, sessionID)
	e.log.Infow("user logged out", "session_id", sessionID, "username", username)
	return fmt.Sprintf("User %q successfully logged out.", username)
}

func (e *Executor) addTask(sessionID int64, args []string) string {
	if len(args) < minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "add-task", "at least 1")
	}

	task, err := parseTask(args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Task cannot be added. " + err.Error()
	}
	if err := e.storage.AddTask(username, task); err != nil {
		return "Task cannot be added. " + err.Error()
	}
	return fmt.Sprintf("Task %q successfully added!", task.Name())
}

func (e *Executor) updateTask(sessionID int64, args []string) string {
	if len(args) < minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "update-task", "at least 1")
	}

	task, err := parseTask(args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Task cannot be updated. " + err.Error()
	}
	if err := e.storage.UpdateTask(username, task); err != nil {
		return "Task cannot be updated. " + err.Error()
	}
	return fmt.Sprintf("Task %q successfully updated!", task.Name())
}

func (e *Executor) deleteTask(sessionID int64, args []string) string {
	if len(args) < minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "delete-task", "at least 1")
	}

	name, date, errReply := taskSelector(args)
	if errReply != "" {
		return errReply
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Task cannot be deleted. " + err.Error()
	}
	if _, err := e.storage.DeleteTask(username, name, date); err != nil {
		return "Task cannot be deleted. " + err.Error()
	}
	return fmt.Sprintf("Task %q deleted successfully!", name)
}

func (e *Executor) getTask(sessionID int64, args []string) string {
	if len(args) < minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "get-task", "at least 1")
	}

	name, date, errReply := taskSelector(args)
	if errReply != "" {
		return errReply
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Task cannot be shown. " + err.Error()
	}
	task, err := e.storage.GetTask(username, name, date)
	if err != nil {
		return "Task cannot be shown. " + err.Error()
	}
	return task.String()
}

func (e *Executor) listTasks(sessionID int64, args []string) string {
	completedRaw, err := argValue(protocol.KeyCompleted, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	date, err := argDate(protocol.KeyDate, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	collaboration, err := argValue(protocol.KeyCollaboration, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}

	completed := strings.EqualFold(completedRaw, "true")
	dateIsSet := date != nil
	collaborationIsSet := strings.TrimSpace(collaboration) != ""

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Tasks cannot be listed. " + err.Error()
	}

	var tasks []*entities.Task
	switch {
	case !completed && !dateIsSet && !collaborationIsSet:
		tasks, err = e.storage.ListTasks(username)
	case completed && !dateIsSet && !collaborationIsSet:
		tasks, err = e.storage.ListCompletedTasks(username)
	case !completed && dateIsSet && !collaborationIsSet:
		tasks, err = e.storage.ListTasksOn(username, *date)
	case !completed && !dateIsSet && collaborationIsSet:
		tasks, err = e.storage.ListCollaborationTasks(username, collaboration)
	default:
		return invalidFormatMessage + "There are more than one set properties."
	}
	if err != nil {
		return "Tasks cannot be listed. " + err.Error()
	}

	if len(tasks) == 0 {
		return "No tasks found!"
	}
	return renderTasks(tasks)
}

func (e *Executor) listDashboard(sessionID int64) string {
	username, err := e.currentUser(sessionID)
	if err != nil {
		return "No tasks found. " + err.Error()
	}

	tasks, err := e.storage.ListDashboard(username, e.now())
	if err != nil {
		return "No tasks found. " + err.Error()
	}
	return renderTasks(tasks)
}

func (e *Executor) finishTask(sessionID int64, args []string) string {
	if len(args) != minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "finish-task", "1")
	}

	name, err := argValue(protocol.KeyName, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if name == "" {
		return invalidFormatMessage + "\"name\" argument not found"
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Task cannot be finished. " + err.Error()
	}
	if err := e.storage.FinishTask(username, name); err != nil {
		return "Task cannot be finished. " + err.Error()
	}
	return fmt.Sprintf("Task %q finished successfully!", name)
}

func (e *Executor) addCollaboration(sessionID int64, args []string) string {
	if len(args) != minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "add-collaboration", "1")
	}

	name, err := argValue(protocol.KeyName, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if name == "" {
		return invalidFormatMessage + "Collaboration name parameter is missing."
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Collaboration cannot be created. " + err.Error()
	}
	if err := e.storage.AddCollaboration(username, name); err != nil {
		return "Collaboration cannot be created. " + err.Error()
	}
	return fmt.Sprintf("Collaboration %q added successfully", name)
}

func (e *Executor) deleteCollaboration(sessionID int64, args []string) string {
	if len(args) != minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "delete-collaboration", "1")
	}

	name, err := argValue(protocol.KeyCollaboration, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if name == "" {
		return invalidFormatMessage + "Collaboration name parameter is missing."
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Collaboration cannot be deleted. " + err.Error()
	}
	if err := e.storage.DeleteCollaboration(username, name); err != nil {
		return "Collaboration cannot be deleted. " + err.Error()
	}
	return fmt.Sprintf("Collaboration %q deleted successfully", name)
}

func (e *Executor) listCollaborations(sessionID int64) string {
	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Cannot list collaborations. " + err.Error()
	}

	collaborations, err := e.storage.Collaborations(username)
	if err != nil {
		return "Cannot list collaborations. " + err.Error()
	}
	if len(collaborations) == 0 {
		return "No collaborations found!"
	}

	var b strings.Builder
	b.WriteString(sectionSeparator + "\n")
	for _, c := range collaborations {
		b.WriteString(c.Name() + "\n")
	}
	b.WriteString(sectionSeparator + "\n")
	return b.String()
}

func (e *Executor) addUserToCollaboration(sessionID int64, args []string) string {
	if len(args) != addUserArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "add-user", "2")
	}

	collaboration, err := argValue(protocol.KeyCollaboration, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	user, err := argValue(protocol.KeyUser, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if collaboration == "" {
		return invalidFormatMessage + "Collaboration parameter not found."
	}
	if user == "" {
		return invalidFormatMessage + "Username parameter not found."
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Cannot add user to collaboration. " + err.Error()
	}
	if err := e.storage.AddUserToCollaboration(username, collaboration, user); err != nil {
		return "Cannot add user to collaboration. " + err.Error()
	}
	return fmt.Sprintf("User %q successfully added in collaboration %q.", user, collaboration)
}

func (e *Executor) assignTask(sessionID int64, args []string) string {
	if len(args) < assignTaskArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "assign-task", "at least 3")
	}

	collaboration, err := argValue(protocol.KeyCollaboration, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	user, err := argValue(protocol.KeyUser, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	task, err := argValue(protocol.KeyTask, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	date, err := argDate(protocol.KeyDate, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if collaboration == "" {
		return invalidFormatMessage + "Collaboration parameter not found."
	}
	if user == "" {
		return invalidFormatMessage + "User parameter not found."
	}
	if task == "" {
		return invalidFormatMessage + "Task parameter not found."
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Cannot assign task. " + err.Error()
	}
	if err := e.storage.AssignTask(username, collaboration, user, task, date); err != nil {
		return "Cannot assign task. " + err.Error()
	}
	return fmt.Sprintf("Task %q successfully assigned with user %q.", task, user)
}

func (e *Executor) listUsers(sessionID int64, args []string) string {
	if len(args) != minArgsCount {
		return fmt.Sprintf(invalidArgsCountFormat, "list-users", "1")
	}

	collaboration, err := argValue(protocol.KeyCollaboration, args)
	if err != nil {
		return invalidFormatMessage + err.Error()
	}
	if collaboration == "" {
		return invalidFormatMessage + "Collaboration name parameter is missing."
	}

	username, err := e.currentUser(sessionID)
	if err != nil {
		return "Cannot list users in this collaboration. " + err.Error()
	}
	users, err := e.storage.ListCollaborationUsers(username, collaboration)
	if err != nil {
		return "Cannot list users in this collaboration. " + err.Error()
	}
	if len(users) == 0 {
		return "No users found in this collaboration."
	}

	var b strings.Builder
	b.WriteString(sectionSeparator + "\n")
	for _, u := range users {
		b.WriteString(u + "\n")
	}
	b.WriteString(sectionSeparator + "\n")
	return b.String()
}

// disconnect logs the session out, ignoring whether anyone was logged in, and
// always acknowledges.
func (e *Executor) disconnect(sessionID int64) string {
	e.logout(sessionID)
	return disconnectMessage
}

func (e *Executor) currentUser(sessionID int64) (string, error) {
	username, ok := e.sessions[sessionID]
	if !ok {
		return "", entities.Errorf(entities.ErrNotLoggedIn, "There is no logged user.")
	}
	return username, nil
}

// parseTask builds a task from add-task/update-task arguments.
func parseTask(args []string) (*entities.Task, error) {
	name, err := argValue(protocol.KeyName, args)
	if err != nil {
		return nil, err
	}
	date, err := argDate(protocol.KeyDate, args)
	if err != nil {
		return nil, err
	}
	dueDate, err := argDate(protocol.KeyDueDate, args)
	if err != nil {
		return nil, err
	}
	description, err := argValue(protocol.KeyDescription, args)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return nil, entities.Errorf(entities.ErrInvalidArgument, "\"name\" parameter not found.")
	}

	b := entities.NewTaskBuilder(name)
	if date != nil {
		b.Date(*date)
	}
	if dueDate != nil {
		b.DueDate(*dueDate)
	}
	if strings.TrimSpace(description) != "" {
		b.Description(description)
	}
	return b.Build()
}

// taskSelector extracts the (name, optional date) pair used by delete-task
// and get-task. The third return value is a ready error reply, empty on
// success.
func taskSelector(args []string) (string, *time.Time, string) {
	name, err := argValue(protocol.KeyName, args)
	if err != nil {
		return "", nil, invalidFormatMessage + err.Error()
	}
	date, err := argDate(protocol.KeyDate, args)
	if err != nil {
		return "", nil, invalidFormatMessage + err.Error()
	}
	if name == "" {
		return "", nil, invalidFormatMessage + "\"name\" parameter not found."
	}
	return name, date, ""
}

// argValue scans the raw "key=value" tokens for a key, case-insensitively.
// The last occurrence wins; a missing key yields the empty string. Trailing
// empty tokens do not count, so "key=" is malformed rather than an empty
// value.
func argValue(key string, args []string) (string, error) {
	var value string
	for _, arg := range args {
		parts := strings.Split(strings.TrimSpace(arg), "=")
		for len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		if len(parts) != 2 {
			return "", entities.Errorf(entities.ErrInvalidArgument,
				"Command expected in \"key=value\" format")
		}
		if strings.EqualFold(parts[0], key) {
			value = parts[1]
		}
	}
	return value, nil
}

// argDate resolves a date-bearing key. Absent keys yield nil; present keys
// must match the protocol date layout.
func argDate(key string, args []string) (*time.Time, error) {
	raw, err := argValue(key, args)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	day, err := time.ParseInLocation(protocol.DateLayout, raw, time.UTC)
	if err != nil {
		return nil, entities.Errorf(entities.ErrInvalidArgument,
			"Unknown date format for the date provided.")
	}
	day = entities.Day(day)
	return &day, nil
}

func renderTasks(tasks []*entities.Task) string {
	var b strings.Builder
	b.WriteString(sectionSeparator + "\n")
	for _, t := range tasks {
		b.WriteString(t.String())
	}
	b.WriteString(sectionSeparator + "\n")
	return b.String()
}
