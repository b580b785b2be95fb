// Package protocol defines the line-oriented text command protocol: one line
// in, one reply out. A line is a verb followed by "key=value" arguments, with
// the literal sequence " --" separating the verb from the first argument and
// each argument from the next. Values may therefore contain spaces, but not
// the delimiter sequence itself.
package protocol

import (
	"strings"

	"github.com/taskhub/core/internal/domain/entities"
)

// Delimiter separates the verb and every argument token.
const Delimiter = " --"

// DateLayout is the only accepted layout for date-bearing argument values.
const DateLayout = "02.01.2006"

// Type identifies a command verb.
type Type string

const (
	TypeRegister            Type = "register"
	TypeLogin               Type = "login"
	TypeLogout              Type = "logout"
	TypeAddTask             Type = "add-task"
	TypeUpdateTask          Type = "update-task"
	TypeDeleteTask          Type = "delete-task"
	TypeGetTask             Type = "get-task"
	TypeListTasks           Type = "list-tasks"
	TypeListDashboard       Type = "list-dashboard"
	TypeFinishTask          Type = "finish-task"
	TypeAddCollaboration    Type = "add-collaboration"
	TypeDeleteCollaboration Type = "delete-collaboration"
	TypeListCollaborations  Type = "list-collaborations"
	TypeAddUser             Type = "add-user"
	TypeAssignTask          Type = "assign-task"
	TypeListUsers           Type = "list-users"
	TypeHelp                Type = "help"
	TypeDisconnect          Type = "disconnect"
	TypeUnknown             Type = "unknown"
)

var knownTypes = []Type{
	TypeRegister, TypeLogin, TypeLogout,
	TypeAddTask, TypeUpdateTask, TypeDeleteTask, TypeGetTask,
	TypeListTasks, TypeListDashboard, TypeFinishTask,
	TypeAddCollaboration, TypeDeleteCollaboration, TypeListCollaborations,
	TypeAddUser, TypeAssignTask, TypeListUsers,
	TypeHelp, TypeDisconnect,
}

// Recognized argument keys. Matching is case-insensitive.
const (
	KeyUsername      = "username"
	KeyPassword      = "password"
	KeyName          = "name"
	KeyDate          = "date"
	KeyDueDate       = "due-date"
	KeyDescription   = "description"
	KeyCompleted     = "completed"
	KeyCollaboration = "collaboration"
	KeyUser          = "user"
	KeyTask          = "task"
)

// Command is one parsed protocol line. Args holds the raw "key=value" tokens
// in input order; callers look values up by key and must not rely on position.
type Command struct {
	Type Type
	Args []string
}

// Parse turns a raw line into a Command. Unrecognized verbs map to
// TypeUnknown with no arguments. Blank input is the caller's problem and is
// rejected here only as a safety net.
func Parse(input string) (Command, error) {
	if strings.TrimSpace(input) == "" {
		return Command{}, entities.Errorf(entities.ErrInvalidArgument,
			"The command string cannot be empty or blank.")
	}

	tokens := strings.Split(strings.TrimSpace(input), Delimiter)
	verb := typeByName(strings.TrimSpace(tokens[0]))
	if verb == TypeUnknown {
		return Command{Type: TypeUnknown}, nil
	}

	return Command{Type: verb, Args: tokens[1:]}, nil
}

func typeByName(name string) Type {
	for _, t := range knownTypes {
		if strings.EqualFold(name, string(t)) {
			return t
		}
	}
	return TypeUnknown
}
