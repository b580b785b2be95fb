package entities

import (
	"fmt"
	"strings"
	"time"
)

// Task is an immutable unit of work. A task without a date lives in the
// owner's inbox; a dated task lives in the calendar slot for that day.
// Identity is (name, date): the same name may exist undated and on any number
// of distinct dates at the same time.
type Task struct {
	name        string
	date        *time.Time
	dueDate     *time.Time
	description string
}

// TaskKey is the comparable identity of a task. A zero Date means undated.
type TaskKey struct {
	Name string
	Date time.Time
}

// Day truncates a timestamp to a calendar day in UTC so dates compare and key
// maps consistently no matter how they were produced.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (t *Task) Name() string        { return t.name }
func (t *Task) Date() *time.Time    { return t.date }
func (t *Task) DueDate() *time.Time { return t.dueDate }
func (t *Task) Description() string { return t.description }

// Key returns the task's identity.
func (t *Task) Key() TaskKey {
	k := TaskKey{Name: t.name}
	if t.date != nil {
		k.Date = *t.date
	}
	return k
}

// String renders the fixed reply block for the task. Absent optional fields
// render as "null"; dates render in ISO form.
func (t *Task) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.name)
	fmt.Fprintf(&b, "    date: %s\n", formatDate(t.date))
	fmt.Fprintf(&b, "    due-date: %s\n", formatDate(t.dueDate))
	fmt.Fprintf(&b, "    description: %s\n", formatText(t.description))
	return b.String()
}

func formatDate(d *time.Time) string {
	if d == nil {
		return "null"
	}
	return d.Format("2006-01-02")
}

func formatText(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

// TaskBuilder assembles a Task. Build fails if the name is blank or the date
// falls after the due-date, whichever order the two were set in.
type TaskBuilder struct {
	task Task
}

// NewTaskBuilder starts a builder for a task with the given name.
func NewTaskBuilder(name string) *TaskBuilder {
	return &TaskBuilder{task: Task{name: name}}
}

// Date sets the execution date. The day portion is kept, the time of day is
// discarded.
func (b *TaskBuilder) Date(d time.Time) *TaskBuilder {
	day := Day(d)
	b.task.date = &day
	return b
}

// DueDate sets the due date, day precision.
func (b *TaskBuilder) DueDate(d time.Time) *TaskBuilder {
	day := Day(d)
	b.task.dueDate = &day
	return b
}

func (b *TaskBuilder) Description(s string) *TaskBuilder {
	b.task.description = s
	return b
}

// Build validates and returns the finished task.
func (b *TaskBuilder) Build() (*Task, error) {
	if strings.TrimSpace(b.task.name) == "" {
		return nil, Errorf(ErrInvalidArgument, "Task name cannot be empty or blank.")
	}
	if b.task.date != nil && b.task.dueDate != nil && b.task.dueDate.Before(*b.task.date) {
		return nil, Errorf(ErrInvalidTimeInterval, "The date cannot be after the due date.")
	}
	t := b.task
	return &t, nil
}
