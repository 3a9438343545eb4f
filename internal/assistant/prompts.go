package assistant

import "fmt"

type Kind string

const (
	KindDecompose  Kind = "decompose"
	KindBrainstorm Kind = "brainstorm"
	KindUnstuck    Kind = "unstuck"
)

// StepCount is how many subtasks a decomposition asks for.
const StepCount = 3

// NoteHeader is the section title used when a coaching result is appended
// to existing notes.
func (k Kind) NoteHeader() string {
	switch k {
	case KindBrainstorm:
		return "✨ AI suggestion"
	case KindUnstuck:
		return "🆘 Unstuck"
	default:
		return ""
	}
}

func (k Kind) Label() string {
	switch k {
	case KindDecompose:
		return "decomposing"
	case KindBrainstorm:
		return "brainstorming"
	case KindUnstuck:
		return "getting unstuck"
	default:
		return string(k)
	}
}

func DecomposePrompt(title string) string {
	return fmt.Sprintf(
		`Split the task %q into %d short sub-steps. Reply ONLY with a JSON array of strings: ["step1", "step2", "step3"]`,
		title, StepCount,
	)
}

func BrainstormPrompt(title string) string {
	return fmt.Sprintf(`Act as an expert. For the task %q, write:
1. A brief description of the goal.
2. A list of key technical or strategic points not to forget.
3. One piece of advice to avoid common mistakes.
Write it all as plain text (no complex markdown).`, title)
}

func UnstuckPrompt(title string) string {
	return fmt.Sprintf(`Act as a CBT (cognitive behavioural therapy) coach and productivity expert.
The user is stuck on the task: %q.
1. Identify why it feels hard (fear? boredom? complexity?).
2. Suggest a ridiculously small micro-step to start right now (the two-minute rule).
3. Give one short motivating sentence.`, title)
}

// CoachPrompt returns the prompt for a coaching kind.
func CoachPrompt(kind Kind, title string) (string, error) {
	switch kind {
	case KindBrainstorm:
		return BrainstormPrompt(title), nil
	case KindUnstuck:
		return UnstuckPrompt(title), nil
	default:
		return "", fmt.Errorf("assistant: %q is not a coaching kind", kind)
	}
}
