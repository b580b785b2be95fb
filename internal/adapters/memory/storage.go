// Package memory holds the in-memory storage engine. One Store owns every
// user, task and collaboration in the process. It is not safe for concurrent
// use: the connection server funnels all calls through a single dispatch
// goroutine, which is the only locking discipline this design needs.
package memory

import (
	"strings"
	"time"

	"github.com/taskhub/core/internal/domain/entities"
	"github.com/taskhub/core/internal/ports"
)

// Store implements ports.Storage.
//
// Undated tasks live in the per-user inbox, keyed by name. Dated tasks live
// in the per-user calendar, keyed by day then name. The split keeps "tasks on
// date X" and the dashboard proportional to the slot size instead of a full
// scan, at the price of every task operation branching on the date.
//
// A collaboration stores the same *entities.Task pointers held in the owner's
// inbox or calendar. Deleting the collaboration therefore cascades into
// deleting those tasks from the owner's active indexes.
type Store struct {
	users                  map[string]string
	inbox                  map[string]map[string]*entities.Task
	calendar               map[string]map[time.Time]map[string]*entities.Task
	completed              map[string]map[entities.TaskKey]*entities.Task
	createdCollaborations  map[string]map[string]*entities.Collaboration
	assignedCollaborations map[string]map[string]*entities.Collaboration
}

var _ ports.Storage = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:                  make(map[string]string),
		inbox:                  make(map[string]map[string]*entities.Task),
		calendar:               make(map[string]map[time.Time]map[string]*entities.Task),
		completed:              make(map[string]map[entities.TaskKey]*entities.Task),
		createdCollaborations:  make(map[string]map[string]*entities.Collaboration),
		assignedCollaborations: make(map[string]map[string]*entities.Collaboration),
	}
}

func (s *Store) AddUser(username, password string) error {
	if err := validateString(username, "username"); err != nil {
		return err
	}
	if err := validateString(password, "password"); err != nil {
		return err
	}

	if _, ok := s.users[username]; ok {
		return entities.Errorf(entities.ErrUserExists,
			"User with username %q already exists.", username)
	}

	s.users[username] = password
	s.inbox[username] = make(map[string]*entities.Task)
	s.calendar[username] = make(map[time.Time]map[string]*entities.Task)
	s.completed[username] = make(map[entities.TaskKey]*entities.Task)
	s.createdCollaborations[username] = make(map[string]*entities.Collaboration)
	s.assignedCollaborations[username] = make(map[string]*entities.Collaboration)
	return nil
}

func (s *Store) CheckPassword(username, password string) error {
	if err := validateString(username, "username"); err != nil {
		return err
	}
	if err := validateString(password, "password"); err != nil {
		return err
	}

	stored, ok := s.users[username]
	if !ok {
		return entities.Errorf(entities.ErrUserNotFound,
			"User with username %q does not exist.", username)
	}
	if stored != password {
		return entities.Errorf(entities.ErrWrongPassword, "Wrong password.")
	}
	return nil
}

func (s *Store) AddTask(user string, task *entities.Task) error {
	if task == nil {
		return entities.Errorf(entities.ErrInvalidArgument, "Parameter %q cannot be nil.", "task")
	}
	if err := s.checkUserExists(user); err != nil {
		return err
	}

	if task.Date() == nil {
		if _, ok := s.inbox[user][task.Name()]; ok {
			return entities.Errorf(entities.ErrTaskExists,
				"Task with name %q already exists in inbox folder.", task.Name())
		}
		s.inbox[user][task.Name()] = task
		return nil
	}

	day := *task.Date()
	if s.calendar[user][day] == nil {
		s.calendar[user][day] = make(map[string]*entities.Task)
	}
	if _, ok := s.calendar[user][day][task.Name()]; ok {
		return entities.Errorf(entities.ErrTaskExists,
			"Task with name %q and execution date %s already exists.",
			task.Name(), day.Format("2006-01-02"))
	}
	s.calendar[user][day][task.Name()] = task
	return nil
}

func (s *Store) UpdateTask(user string, task *entities.Task) error {
	if task == nil {
		return entities.Errorf(entities.ErrInvalidArgument, "Parameter %q cannot be nil.", "task")
	}
	if err := s.checkUserExists(user); err != nil {
		return err
	}

	if task.Date() == nil {
		if _, ok := s.inbox[user][task.Name()]; !ok {
			return entities.Errorf(entities.ErrTaskNotFound,
				"Task with name %q does not exist in inbox folder.", task.Name())
		}
		s.inbox[user][task.Name()] = task
		return nil
	}

	day := *task.Date()
	if _, ok := s.calendar[user][day][task.Name()]; !ok {
		return entities.Errorf(entities.ErrTaskNotFound,
			"Task with name %q and execution date %s does not exist.",
			task.Name(), day.Format("2006-01-02"))
	}
	s.calendar[user][day][task.Name()] = task
	return nil
}

func (s *Store) DeleteTask(user, name string, date *time.Time) (*entities.Task, error) {
	if err := validateString(name, "taskName"); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	if date == nil {
		task, ok := s.inbox[user][name]
		if !ok {
			return nil, entities.Errorf(entities.ErrTaskNotFound,
				"Task with name %q does not exist.", name)
		}
		delete(s.inbox[user], name)
		return task, nil
	}

	day := entities.Day(*date)
	task, ok := s.calendar[user][day][name]
	if !ok {
		return nil, entities.Errorf(entities.ErrTaskNotFound,
			"Task with name %q and execution date %s does not exist.",
			name, day.Format("2006-01-02"))
	}
	delete(s.calendar[user][day], name)
	return task, nil
}

func (s *Store) GetTask(user, name string, date *time.Time) (*entities.Task, error) {
	if err := validateString(name, "taskName"); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	if date == nil {
		task, ok := s.inbox[user][name]
		if !ok {
			return nil, entities.Errorf(entities.ErrTaskNotFound,
				"Task with name %q does not exist.", name)
		}
		return task, nil
	}

	day := entities.Day(*date)
	task, ok := s.calendar[user][day][name]
	if !ok {
		return nil, entities.Errorf(entities.ErrTaskNotFound,
			"Task with name %q and execution date %s does not exist.",
			name, day.Format("2006-01-02"))
	}
	return task, nil
}

func (s *Store) ListTasks(user string) ([]*entities.Task, error) {
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	var tasks []*entities.Task
	for _, slot := range s.calendar[user] {
		for _, t := range slot {
			tasks = append(tasks, t)
		}
	}
	for _, t := range s.inbox[user] {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) ListTasksOn(user string, date time.Time) ([]*entities.Task, error) {
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	day := entities.Day(date)
	slot, ok := s.calendar[user][day]
	if !ok {
		return nil, entities.Errorf(entities.ErrTaskNotFound,
			"Tasks with execution date %s not found for the logged user.",
			day.Format("2006-01-02"))
	}

	tasks := make([]*entities.Task, 0, len(slot))
	for _, t := range slot {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) ListCollaborationTasks(user, collaboration string) ([]*entities.Task, error) {
	if err := validateString(collaboration, "collaborationName"); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	if c, ok := s.createdCollaborations[user][collaboration]; ok {
		return c.Tasks(), nil
	}
	if c, ok := s.assignedCollaborations[user][collaboration]; ok {
		return c.Tasks(), nil
	}
	return nil, entities.Errorf(entities.ErrCollaborationNotFound,
		"Collaboration with name %q not found for the logged user.", collaboration)
}

func (s *Store) ListCompletedTasks(user string) ([]*entities.Task, error) {
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	tasks := make([]*entities.Task, 0, len(s.completed[user]))
	for _, t := range s.completed[user] {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) ListDashboard(user string, today time.Time) ([]*entities.Task, error) {
	return s.ListTasksOn(user, today)
}

// FinishTask consults only the undated inbox: a dated task cannot be finished
// through this path.
func (s *Store) FinishTask(user, name string) error {
	if err := validateString(name, "taskName"); err != nil {
		return err
	}
	if err := s.checkUserExists(user); err != nil {
		return err
	}

	task, err := s.DeleteTask(user, name, nil)
	if err != nil {
		return err
	}
	s.completed[user][task.Key()] = task
	return nil
}

func (s *Store) AddCollaboration(user, name string) error {
	if err := validateString(name, "collaborationName"); err != nil {
		return err
	}
	if err := s.checkUserExists(user); err != nil {
		return err
	}

	if _, ok := s.createdCollaborations[user][name]; ok {
		return entities.Errorf(entities.ErrCollaborationExists,
			"Collaboration %q already exists for the logged user.", name)
	}

	c, err := entities.NewCollaboration(name)
	if err != nil {
		return err
	}
	s.createdCollaborations[user][name] = c
	return nil
}

// DeleteCollaboration severs every member's view of the group and, because
// the group holds the same task pointers as the owner's indexes, deletes
// every task assigned through it from the owner's inbox or calendar.
func (s *Store) DeleteCollaboration(user, name string) error {
	if err := validateString(name, "collaborationName"); err != nil {
		return err
	}
	if err := s.checkUserExists(user); err != nil {
		return err
	}

	c, ok := s.createdCollaborations[user][name]
	if !ok {
		return entities.Errorf(entities.ErrCollaborationNotFound,
			"Collaboration %q not found for the logged user.", name)
	}

	for _, member := range c.Users() {
		delete(s.assignedCollaborations[member], name)
	}
	for _, task := range c.Tasks() {
		if task.Date() == nil {
			delete(s.inbox[user], task.Name())
		} else {
			delete(s.calendar[user][*task.Date()], task.Name())
		}
	}

	delete(s.createdCollaborations[user], name)
	return nil
}

func (s *Store) Collaborations(user string) ([]*entities.Collaboration, error) {
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	var collaborations []*entities.Collaboration
	for _, c := range s.createdCollaborations[user] {
		collaborations = append(collaborations, c)
	}
	for _, c := range s.assignedCollaborations[user] {
		collaborations = append(collaborations, c)
	}
	return collaborations, nil
}

func (s *Store) AddUserToCollaboration(owner, collaboration, username string) error {
	if err := validateString(collaboration, "collaborationName"); err != nil {
		return err
	}
	if err := validateString(username, "username"); err != nil {
		return err
	}
	if err := s.checkUserExists(owner); err != nil {
		return err
	}

	c, ok := s.createdCollaborations[owner][collaboration]
	if !ok {
		return entities.Errorf(entities.ErrCollaborationNotFound,
			"Collaboration %q was not found for the logged user.", collaboration)
	}
	if _, ok := s.users[username]; !ok {
		return entities.Errorf(entities.ErrUserNotFound, "User %q not found.", username)
	}

	if err := c.AddUser(username); err != nil {
		return err
	}
	s.assignedCollaborations[username][collaboration] = c
	return nil
}

// AssignTask stores the owner's task pointer inside the collaboration; the
// task is shared, not copied.
func (s *Store) AssignTask(owner, collaboration, username, taskName string, date *time.Time) error {
	if err := validateString(collaboration, "collaborationName"); err != nil {
		return err
	}
	if err := validateString(username, "username"); err != nil {
		return err
	}
	if err := validateString(taskName, "task"); err != nil {
		return err
	}
	if err := s.checkUserExists(owner); err != nil {
		return err
	}

	c, ok := s.createdCollaborations[owner][collaboration]
	if !ok {
		return entities.Errorf(entities.ErrCollaborationNotFound,
			"Collaboration %q was not found for the logged user.", collaboration)
	}
	if _, ok := s.users[username]; !ok {
		return entities.Errorf(entities.ErrUserNotFound, "User %q not found.", username)
	}

	var task *entities.Task
	if date == nil {
		if task, ok = s.inbox[owner][taskName]; !ok {
			return entities.Errorf(entities.ErrTaskNotFound,
				"Task %q not found in inbox folder.", taskName)
		}
	} else {
		day := entities.Day(*date)
		if task, ok = s.calendar[owner][day][taskName]; !ok {
			return entities.Errorf(entities.ErrTaskNotFound,
				"Task %q not found for %s.", taskName, day.Format("2006-01-02"))
		}
	}

	return c.AssignTask(username, task)
}

func (s *Store) ListCollaborationUsers(user, collaboration string) ([]string, error) {
	if err := validateString(collaboration, "collaborationName"); err != nil {
		return nil, err
	}
	if err := s.checkUserExists(user); err != nil {
		return nil, err
	}

	if c, ok := s.createdCollaborations[user][collaboration]; ok {
		return c.Users(), nil
	}
	if c, ok := s.assignedCollaborations[user][collaboration]; ok {
		return c.Users(), nil
	}
	return nil, entities.Errorf(entities.ErrCollaborationNotFound,
		"Collaboration with name %q not found for the logged user.", collaboration)
}

func (s *Store) checkUserExists(username string) error {
	if err := validateString(username, "username"); err != nil {
		return err
	}
	if _, ok := s.users[username]; !ok {
		return entities.Errorf(entities.ErrUserNotFound, "User %q does not exist.", username)
	}
	return nil
}

func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return entities.Errorf(entities.ErrInvalidArgument,
			"Parameter %q cannot be empty or blank.", name)
	}
	return nil
}
