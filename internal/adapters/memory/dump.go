package memory

import (
	"fmt"
	"time"

	"github.com/taskhub/core/internal/domain/entities"
)

// dumpDateLayout matches the protocol's date layout so snapshot files stay
// readable next to command transcripts.
const dumpDateLayout = "02.01.2006"

// TaskDump is one serialized task.
type TaskDump struct {
	Name        string `json:"name"`
	Date        string `json:"date,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// CollaborationDump is one serialized collaboration. Assigned holds the full
// task values per member: on restore they are resolved against the owner's
// indexes first so the shared-pointer model survives, and rebuilt from the
// dump only when the owner deleted the task after assigning it.
type CollaborationDump struct {
	Name     string                `json:"name"`
	Owner    string                `json:"owner"`
	Members  []string              `json:"members,omitempty"`
	Assigned map[string][]TaskDump `json:"assigned,omitempty"`
}

// Dump is a whole-store snapshot value.
type Dump struct {
	Users          map[string]string     `json:"users"`
	Active         map[string][]TaskDump `json:"active_tasks"`
	Completed      map[string][]TaskDump `json:"completed_tasks"`
	Collaborations []CollaborationDump   `json:"collaborations"`
}

// Dump captures the full store state as a serializable value.
func (s *Store) Dump() *Dump {
	d := &Dump{
		Users:     make(map[string]string, len(s.users)),
		Active:    make(map[string][]TaskDump),
		Completed: make(map[string][]TaskDump),
	}

	for username, password := range s.users {
		d.Users[username] = password

		var active []TaskDump
		for _, t := range s.inbox[username] {
			active = append(active, dumpTask(t))
		}
		for _, slot := range s.calendar[username] {
			for _, t := range slot {
				active = append(active, dumpTask(t))
			}
		}
		if active != nil {
			d.Active[username] = active
		}

		var completed []TaskDump
		for _, t := range s.completed[username] {
			completed = append(completed, dumpTask(t))
		}
		if completed != nil {
			d.Completed[username] = completed
		}

		for _, c := range s.createdCollaborations[username] {
			cd := CollaborationDump{
				Name:    c.Name(),
				Owner:   username,
				Members: c.Users(),
			}
			for _, member := range c.Users() {
				for _, t := range c.AssignedTo(member) {
					if cd.Assigned == nil {
						cd.Assigned = make(map[string][]TaskDump)
					}
					cd.Assigned[member] = append(cd.Assigned[member], dumpTask(t))
				}
			}
			d.Collaborations = append(d.Collaborations, cd)
		}
	}

	return d
}

// FromDump rebuilds a store from a snapshot value. A nil dump yields an empty
// store.
func FromDump(d *Dump) (*Store, error) {
	s := New()
	if d == nil {
		return s, nil
	}

	for username, password := range d.Users {
		if err := s.AddUser(username, password); err != nil {
			return nil, fmt.Errorf("restoring user %q: %w", username, err)
		}
	}

	for username, tasks := range d.Active {
		for _, td := range tasks {
			task, err := buildTask(td)
			if err != nil {
				return nil, fmt.Errorf("restoring task %q of %q: %w", td.Name, username, err)
			}
			if err := s.AddTask(username, task); err != nil {
				return nil, fmt.Errorf("restoring task %q of %q: %w", td.Name, username, err)
			}
		}
	}

	for username, tasks := range d.Completed {
		if err := s.checkUserExists(username); err != nil {
			return nil, fmt.Errorf("restoring completed tasks of %q: %w", username, err)
		}
		for _, td := range tasks {
			task, err := buildTask(td)
			if err != nil {
				return nil, fmt.Errorf("restoring completed task %q of %q: %w", td.Name, username, err)
			}
			s.completed[username][task.Key()] = task
		}
	}

	for _, cd := range d.Collaborations {
		if err := s.AddCollaboration(cd.Owner, cd.Name); err != nil {
			return nil, fmt.Errorf("restoring collaboration %q: %w", cd.Name, err)
		}
		for _, member := range cd.Members {
			if err := s.AddUserToCollaboration(cd.Owner, cd.Name, member); err != nil {
				return nil, fmt.Errorf("restoring collaboration %q member %q: %w", cd.Name, member, err)
			}
		}
		c := s.createdCollaborations[cd.Owner][cd.Name]
		for member, tasks := range cd.Assigned {
			for _, td := range tasks {
				task, err := s.resolveOrBuild(cd.Owner, td)
				if err != nil {
					return nil, fmt.Errorf("restoring assignment %q of %q: %w", td.Name, member, err)
				}
				if err := c.AssignTask(member, task); err != nil {
					return nil, fmt.Errorf("restoring assignment %q of %q: %w", td.Name, member, err)
				}
			}
		}
	}

	return s, nil
}

// resolveOrBuild prefers the task already sitting in the owner's inbox or
// calendar, falling back to rebuilding it from the dump when the owner no
// longer holds it.
func (s *Store) resolveOrBuild(owner string, td TaskDump) (*entities.Task, error) {
	if td.Date == "" {
		if t, ok := s.inbox[owner][td.Name]; ok {
			return t, nil
		}
	} else {
		day, err := time.ParseInLocation(dumpDateLayout, td.Date, time.UTC)
		if err == nil {
			if t, ok := s.calendar[owner][entities.Day(day)][td.Name]; ok {
				return t, nil
			}
		}
	}
	return buildTask(td)
}

func dumpTask(t *entities.Task) TaskDump {
	td := TaskDump{Name: t.Name(), Description: t.Description()}
	if t.Date() != nil {
		td.Date = t.Date().Format(dumpDateLayout)
	}
	if t.DueDate() != nil {
		td.DueDate = t.DueDate().Format(dumpDateLayout)
	}
	return td
}

func buildTask(td TaskDump) (*entities.Task, error) {
	b := entities.NewTaskBuilder(td.Name)
	if td.Date != "" {
		day, err := time.ParseInLocation(dumpDateLayout, td.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing date %q: %w", td.Date, err)
		}
		b.Date(day)
	}
	if td.DueDate != "" {
		day, err := time.ParseInLocation(dumpDateLayout, td.DueDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing due date %q: %w", td.DueDate, err)
		}
		b.DueDate(day)
	}
	if td.Description != "" {
		b.Description(td.Description)
	}
	return b.Build()
}
