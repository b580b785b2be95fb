package ports

import (
	"time"

	"github.com/taskhub/core/internal/domain/entities"
)

// Storage defines the operations the command executor needs from the task
// store. All methods are synchronous and are only ever called from the single
// dispatch goroutine; implementations do not need to be safe for concurrent
// use.
//
// Identifier arguments must be non-blank; implementations report blank input
// as entities.ErrInvalidArgument, distinct from any not-found condition.
type Storage interface {
	// AddUser registers a new user. Fails with ErrUserExists if the
	// username is taken.
	AddUser(username, password string) error

	// CheckPassword verifies credentials. Fails with ErrUserNotFound or,
	// distinctly, ErrWrongPassword.
	CheckPassword(username, password string) error

	// AddTask inserts a task into the user's inbox (no date) or calendar
	// slot (dated). Fails with ErrTaskExists if the identity is taken in
	// that scope.
	AddTask(user string, task *entities.Task) error

	// UpdateTask replaces the stored task with the same identity. Fails
	// with ErrTaskNotFound if the identity is absent.
	UpdateTask(user string, task *entities.Task) error

	// DeleteTask removes and returns the task. A nil date targets the
	// inbox, otherwise the calendar slot for that day.
	DeleteTask(user, name string, date *time.Time) (*entities.Task, error)

	// GetTask returns the stored task without mutating anything.
	GetTask(user, name string, date *time.Time) (*entities.Task, error)

	// ListTasks returns every active (inbox plus calendar) task, in
	// unspecified order.
	ListTasks(user string) ([]*entities.Task, error)

	// ListTasksOn returns the calendar tasks for a day. Fails with
	// ErrTaskNotFound when the day has no calendar entry at all.
	ListTasksOn(user string, date time.Time) ([]*entities.Task, error)

	// ListCollaborationTasks returns the union of tasks assigned to every
	// member of the named collaboration, looked up first among the user's
	// created collaborations, then among the ones the user was added to.
	ListCollaborationTasks(user, collaboration string) ([]*entities.Task, error)

	// ListCompletedTasks returns the user's completed set.
	ListCompletedTasks(user string) ([]*entities.Task, error)

	// ListDashboard returns the calendar tasks for the given day. The
	// caller owns the clock.
	ListDashboard(user string, today time.Time) ([]*entities.Task, error)

	// FinishTask moves a task from the inbox into the completed set. Only
	// the undated inbox is consulted; a dated task cannot be finished
	// through this path.
	FinishTask(user, name string) error

	// AddCollaboration creates a collaboration owned by the user. Fails
	// with ErrCollaborationExists if the user already created one with
	// that name.
	AddCollaboration(user, name string) error

	// DeleteCollaboration destroys a collaboration the user created. It
	// removes the group from every member's assigned view and deletes
	// every task assigned through it from the owner's inbox or calendar.
	DeleteCollaboration(user, name string) error

	// Collaborations returns the union of collaborations the user created
	// and was added to.
	Collaborations(user string) ([]*entities.Collaboration, error)

	// AddUserToCollaboration adds a registered user to a collaboration
	// the owner created and records it in the new member's assigned view.
	AddUserToCollaboration(owner, collaboration, username string) error

	// AssignTask stores the owner's task (by reference) under a member of
	// the collaboration. A nil date resolves the task in the owner's
	// inbox, otherwise in the calendar slot for that day.
	AssignTask(owner, collaboration, username, taskName string, date *time.Time) error

	// ListCollaborationUsers returns the member set, using the same dual
	// created-then-assigned lookup as ListCollaborationTasks.
	ListCollaborationUsers(user, collaboration string) ([]string, error)
}
