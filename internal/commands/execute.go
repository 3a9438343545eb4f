package commands

import "fmt"

type Result struct {
	Message string
}

// Handlers binds each command to the app. Commands other than add and view
// act on the current selection, so their handlers take no target.
type Handlers struct {
	Add        func(AddArgs) (Result, error)
	Move       func(MoveArgs) (Result, error)
	Toggle     func() (Result, error)
	Reschedule func(RescheduleArgs) (Result, error)
	Tag        func(TagArgs) (Result, error)
	Note       func(NoteArgs) (Result, error)
	Delete     func() (Result, error)
	Decompose  func() (Result, error)
	Brainstorm func() (Result, error)
	Unstuck    func() (Result, error)
	View       func(ViewArgs) (Result, error)
	Focus      func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return withArgs(cmd.Type, handlers.Add, cmd.Add)
	case TypeMove:
		return withArgs(cmd.Type, handlers.Move, cmd.Move)
	case TypeReschedule:
		return withArgs(cmd.Type, handlers.Reschedule, cmd.Reschedule)
	case TypeTag:
		return withArgs(cmd.Type, handlers.Tag, cmd.Tag)
	case TypeNote:
		return withArgs(cmd.Type, handlers.Note, cmd.Note)
	case TypeView:
		return withArgs(cmd.Type, handlers.View, cmd.View)
	case TypeToggle:
		return noArgs(cmd.Type, handlers.Toggle)
	case TypeDelete:
		return noArgs(cmd.Type, handlers.Delete)
	case TypeDecompose:
		return noArgs(cmd.Type, handlers.Decompose)
	case TypeBrainstorm:
		return noArgs(cmd.Type, handlers.Brainstorm)
	case TypeUnstuck:
		return noArgs(cmd.Type, handlers.Unstuck)
	case TypeFocus:
		return noArgs(cmd.Type, handlers.Focus)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func withArgs[A any](t Type, fn func(A) (Result, error), args *A) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	if args == nil {
		return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s: missing arguments", t)}
	}
	return fn(*args)
}

func noArgs(t Type, fn func() (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(t)
	}
	return fn()
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
