package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/flow/internal/model"
)

type Type string

const (
	TypeAdd        Type = "add"
	TypeMove       Type = "move"
	TypeToggle     Type = "toggle"
	TypeReschedule Type = "reschedule"
	TypeTag        Type = "tag"
	TypeNote       Type = "note"
	TypeDelete     Type = "delete"
	TypeDecompose  Type = "decompose"
	TypeBrainstorm Type = "brainstorm"
	TypeUnstuck    Type = "unstuck"
	TypeView       Type = "view"
	TypeFocus      Type = "focus"
)

// Types lists every command in help order.
var Types = []Type{
	TypeAdd, TypeMove, TypeToggle, TypeReschedule, TypeTag, TypeNote, TypeDelete,
	TypeDecompose, TypeBrainstorm, TypeUnstuck, TypeView, TypeFocus,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

type AddArgs struct {
	Title string
}

type MoveArgs struct {
	Status model.Status
}

type RescheduleArgs struct {
	When   string
	For    time.Duration
	AllDay bool
}

type TagArgs struct {
	Tag    string
	Remove bool
}

type NoteArgs struct {
	Text   string
	Append bool
}

type ViewArgs struct {
	Name string
	Mode string
}

type Command struct {
	Type       Type
	Raw        string
	Add        *AddArgs
	Move       *MoveArgs
	Reschedule *RescheduleArgs
	Tag        *TagArgs
	Note       *NoteArgs
	View       *ViewArgs
}

// Usage is the one-line syntax shown in help.
func Usage(t Type) string {
	switch t {
	case TypeAdd:
		return "/add <title>"
	case TypeMove:
		return "/move todo|doing|done"
	case TypeToggle:
		return "/toggle"
	case TypeReschedule:
		return "/reschedule <today|tomorrow|mon..sun|YYYY-MM-DD> [HH:MM] [for 90m] [allday]"
	case TypeTag:
		return "/tag [+|-]<name>"
	case TypeNote:
		return "/note [+]<text>"
	case TypeDelete:
		return "/delete"
	case TypeDecompose:
		return "/decompose"
	case TypeBrainstorm:
		return "/brainstorm"
	case TypeUnstuck:
		return "/unstuck"
	case TypeView:
		return "/view list|board|calendar [week|day]"
	case TypeFocus:
		return "/focus"
	default:
		return "/" + string(t)
	}
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(raw[len(parts[0]):])

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeMove:
		return parseMove(input, args)
	case TypeReschedule:
		return parseReschedule(input, args)
	case TypeTag:
		return parseTag(input, args)
	case TypeNote:
		return parseNote(input, rest)
	case TypeView:
		return parseView(input, args)
	case TypeToggle, TypeDelete, TypeDecompose, TypeBrainstorm, TypeUnstuck, TypeFocus:
		return Command{Type: Type(head), Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw, rest string) (Command, error) {
	if rest == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: rest}}, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("move requires a status")
	}
	status, err := model.ParseStatus(strings.Join(args, " "))
	if err != nil {
		return Command{}, invalid("%v", err)
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Status: status}}, nil
}

func parseReschedule(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("reschedule requires a day")
	}
	out := RescheduleArgs{}
	when := make([]string, 0, 2)
	for i := 0; i < len(args); i++ {
		switch strings.ToLower(args[i]) {
		case "allday", "all-day":
			out.AllDay = true
		case "for":
			if i+1 >= len(args) {
				return Command{}, invalid("for requires a duration")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil || d <= 0 {
				return Command{}, invalid("invalid duration %q", args[i+1])
			}
			out.For = d
			i++
		default:
			when = append(when, args[i])
		}
	}
	if len(when) == 0 {
		return Command{}, invalid("reschedule requires a day")
	}
	out.When = strings.Join(when, " ")
	return Command{Type: TypeReschedule, Raw: raw, Reschedule: &out}, nil
}

func parseTag(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("tag requires exactly one name")
	}
	name := args[0]
	remove := false
	switch {
	case strings.HasPrefix(name, "-"):
		remove = true
		name = name[1:]
	case strings.HasPrefix(name, "+"):
		name = name[1:]
	}
	if name == "" {
		return Command{}, invalid("tag requires a name")
	}
	return Command{Type: TypeTag, Raw: raw, Tag: &TagArgs{Tag: name, Remove: remove}}, nil
}

func parseNote(raw, rest string) (Command, error) {
	out := NoteArgs{Text: rest}
	if strings.HasPrefix(rest, "+") {
		out.Append = true
		out.Text = strings.TrimSpace(rest[1:])
	}
	if out.Append && out.Text == "" {
		return Command{}, invalid("note + requires text")
	}
	return Command{Type: TypeNote, Raw: raw, Note: &out}, nil
}

func parseView(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("view requires list, board or calendar")
	}
	out := ViewArgs{Name: strings.ToLower(args[0])}
	switch out.Name {
	case "list", "board", "calendar":
	default:
		return Command{}, invalid("unknown view %q", args[0])
	}
	if len(args) == 2 {
		if out.Name != "calendar" {
			return Command{}, invalid("only the calendar view takes a mode")
		}
		out.Mode = strings.ToLower(args[1])
		if out.Mode != "week" && out.Mode != "day" {
			return Command{}, invalid("unknown calendar mode %q", args[1])
		}
	}
	return Command{Type: TypeView, Raw: raw, View: &out}, nil
}
