package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/rsepme/rsemodule/internal/module"
)

var (
	ErrUnknownAction = errors.New("unknown wizard action")
	ErrCompleted     = errors.New("module already completed")
)

type ActionType string

const (
	ActionAnswerQuiz        ActionType = "answer_quiz"
	ActionSelectGesture     ActionType = "select_gesture"
	ActionSetField          ActionType = "set_field"
	ActionToggleStakeholder ActionType = "toggle_stakeholder"
	ActionReactTestimonial  ActionType = "react_testimonial"
	ActionNext              ActionType = "next"
	ActionPrevious          ActionType = "previous"
	ActionReset             ActionType = "reset"
)

// Action is one participant interaction. ID names the question, gesture,
// field or testimonial; Value carries the answer, option, text, label or
// reaction.
type Action struct {
	Type  ActionType `json:"type"`
	ID    string     `json:"id,omitempty"`
	Value string     `json:"value,omitempty"`
}

// Progress is a participant's position and answers in one session.
type Progress struct {
	State     State     `json:"state"`
	Responses Responses `json:"responses"`
	StartedAt time.Time `json:"startedAt"`
	Completed bool      `json:"completed"`
}

func NewProgress(doc *module.Document, now time.Time) Progress {
	return Progress{
		State:     Start(doc),
		Responses: NewResponses(),
		StartedAt: now,
	}
}

// Apply runs a on p. Only ActionNext can return Completed; a blocked next
// returns Blocked with a nil error.
func (p *Progress) Apply(doc *module.Document, a Action) (Outcome, error) {
	if p.Completed {
		return Blocked, ErrCompleted
	}
	if p.State.Section < 0 || p.State.Section > doc.LastIndex() {
		return Blocked, fmt.Errorf("cursor %d out of range", p.State.Section)
	}

	var (
		r   Responses
		err error
	)
	switch a.Type {
	case ActionAnswerQuiz:
		r, err = AnswerQuiz(doc, p.State, p.Responses, a.ID, a.Value)
	case ActionSelectGesture:
		r, err = SelectGesture(doc, p.State, p.Responses, a.ID, a.Value)
	case ActionSetField:
		r, err = SetField(doc, p.State, p.Responses, a.ID, a.Value)
	case ActionToggleStakeholder:
		r, err = ToggleStakeholder(doc, p.State, p.Responses, a.Value)
	case ActionReactTestimonial:
		r, err = ReactTestimonial(doc, p.State, p.Responses, a.ID, a.Value)
	case ActionNext:
		next, out := Advance(doc, p.State, p.Responses)
		p.State = next
		if out == Completed {
			p.Completed = true
		}
		return out, nil
	case ActionPrevious:
		p.State = Back(doc, p.State)
		return Moved, nil
	case ActionReset:
		p.State = Start(doc)
		p.Responses = NewResponses()
		return Moved, nil
	default:
		return Blocked, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	if err != nil {
		return Blocked, err
	}
	p.Responses = r
	return Moved, nil
}
