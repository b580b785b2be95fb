package entities

import (
	"sort"
	"strings"
)

// Collaboration is a named group owned by one user. It tracks its member set
// and, per member, the tasks assigned to them. Assigned tasks are the same
// *Task values held in the owner's inbox or calendar; the collaboration never
// copies them. Two collaborations are the same iff their names match.
type Collaboration struct {
	name  string
	users map[string]struct{}
	tasks map[string]map[TaskKey]*Task
}

// NewCollaboration creates an empty collaboration.
func NewCollaboration(name string) (*Collaboration, error) {
	if strings.TrimSpace(name) == "" {
		return nil, Errorf(ErrInvalidArgument, "Collaboration name cannot be empty or blank.")
	}
	return &Collaboration{
		name:  name,
		users: make(map[string]struct{}),
		tasks: make(map[string]map[TaskKey]*Task),
	}, nil
}

func (c *Collaboration) Name() string { return c.name }

// Users returns the member usernames, sorted for stable listings.
func (c *Collaboration) Users() []string {
	users := make([]string, 0, len(c.users))
	for u := range c.users {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Tasks returns every task assigned to any member, in unspecified order.
func (c *Collaboration) Tasks() []*Task {
	var tasks []*Task
	for _, byKey := range c.tasks {
		for _, t := range byKey {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// AssignedTo returns the tasks assigned to one member.
func (c *Collaboration) AssignedTo(username string) []*Task {
	byKey := c.tasks[username]
	tasks := make([]*Task, 0, len(byKey))
	for _, t := range byKey {
		tasks = append(tasks, t)
	}
	return tasks
}

// HasUser reports whether username is a member.
func (c *Collaboration) HasUser(username string) bool {
	_, ok := c.users[username]
	return ok
}

// AddUser adds a member. Fails if the username is already in the group.
func (c *Collaboration) AddUser(username string) error {
	if strings.TrimSpace(username) == "" {
		return Errorf(ErrInvalidArgument, "Username cannot be empty or blank.")
	}
	if _, ok := c.users[username]; ok {
		return Errorf(ErrAlreadyMember, "User %s already added in this collaboration.", username)
	}
	c.users[username] = struct{}{}
	return nil
}

// AssignTask stores the task under a member. The task must belong to a member
// of the group and must not already be assigned to them under the same
// identity.
func (c *Collaboration) AssignTask(username string, task *Task) error {
	if strings.TrimSpace(username) == "" {
		return Errorf(ErrInvalidArgument, "Username cannot be empty or blank.")
	}
	if task == nil {
		return Errorf(ErrInvalidArgument, "Task cannot be nil.")
	}
	if _, ok := c.users[username]; !ok {
		return Errorf(ErrUserNotFound, "User %q does not exist in this collaboration.", username)
	}
	if c.tasks[username] == nil {
		c.tasks[username] = make(map[TaskKey]*Task)
	}
	if _, ok := c.tasks[username][task.Key()]; ok {
		return Errorf(ErrTaskAlreadyAssigned, "Task %q already is assigned with user %q.", task.Name(), username)
	}
	c.tasks[username][task.Key()] = task
	return nil
}
