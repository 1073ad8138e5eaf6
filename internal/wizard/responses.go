package wizard

import (
	"errors"
	"slices"
	"strings"

	"github.com/rsepme/rsemodule/internal/module"
)

var (
	ErrWrongSection    = errors.New("action does not apply to the current screen")
	ErrInvalidResponse = errors.New("invalid response")
	ErrSelectionFull   = errors.New("two stakeholders are already selected")
)

// Responses is everything a participant entered during a session. The JSON
// shape is what gets stored with a completed session.
type Responses struct {
	Quiz         map[string]string `json:"quiz_answers"`
	Gestures     map[string]string `json:"gesture_selections"`
	Form         map[string]string `json:"first_action"`
	Stakeholders []string          `json:"stakeholder_selection"`
	Testimonials map[string]string `json:"testimonial_interactions"`
}

func NewResponses() Responses {
	return Responses{
		Quiz:         map[string]string{},
		Gestures:     map[string]string{},
		Form:         map[string]string{},
		Stakeholders: []string{},
		Testimonials: map[string]string{},
	}
}

// Clone returns a deep copy.
func (r Responses) Clone() Responses {
	return Responses{
		Quiz:         cloneMap(r.Quiz),
		Gestures:     cloneMap(r.Gestures),
		Form:         cloneMap(r.Form),
		Stakeholders: append([]string{}, r.Stakeholders...),
		Testimonials: cloneMap(r.Testimonials),
	}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func current[T module.Section](doc *module.Document, st State) (T, error) {
	s, ok := doc.Sections[st.Section].(T)
	if !ok {
		return s, ErrWrongSection
	}
	return s, nil
}

// AnswerQuiz records value for question id on the current quiz screen.
func AnswerQuiz(doc *module.Document, st State, r Responses, id, value string) (Responses, error) {
	q, err := current[*module.Quiz](doc, st)
	if err != nil {
		return r, err
	}
	question, ok := q.Question(id)
	if !ok {
		return r, ErrInvalidResponse
	}
	if !slices.ContainsFunc(question.Options, func(o module.Option) bool { return o.Value == value }) {
		return r, ErrInvalidResponse
	}
	r = r.Clone()
	r.Quiz[id] = value
	return r, nil
}

// SelectGesture records the option chosen for gesture id.
func SelectGesture(doc *module.Document, st State, r Responses, id, option string) (Responses, error) {
	g, err := current[*module.Gestures](doc, st)
	if err != nil {
		return r, err
	}
	if !g.HasGesture(id) || !slices.Contains(g.Options, option) {
		return r, ErrInvalidResponse
	}
	r = r.Clone()
	r.Gestures[id] = option
	return r, nil
}

// SetField stores the text of form field id.
func SetField(doc *module.Document, st State, r Responses, id, value string) (Responses, error) {
	f, err := current[*module.Form](doc, st)
	if err != nil {
		return r, err
	}
	if _, ok := f.Field(id); !ok {
		return r, ErrInvalidResponse
	}
	r = r.Clone()
	r.Form[id] = value
	return r, nil
}

// ReactTestimonial tags testimonial id with a reaction. Choosing the
// reaction already set clears it.
func ReactTestimonial(doc *module.Document, st State, r Responses, id, reaction string) (Responses, error) {
	t, err := current[*module.Testimonials](doc, st)
	if err != nil {
		return r, err
	}
	if !t.HasTestimonial(id) || !slices.Contains(t.InteractionOptions, reaction) {
		return r, ErrInvalidResponse
	}
	r = r.Clone()
	if r.Testimonials[id] == reaction {
		r.Testimonials[id] = ""
	} else {
		r.Testimonials[id] = reaction
	}
	return r, nil
}

// ToggleStakeholder selects or deselects label on the selection screen.
// Selecting a third label fails with ErrSelectionFull and leaves r as is.
func ToggleStakeholder(doc *module.Document, st State, r Responses, label string) (Responses, error) {
	if _, err := current[*module.Concepts](doc, st); err != nil {
		return r, err
	}
	if st.Sub.Phase != PhaseStakeholder || st.Sub.Step != module.StakeholderSelectStep {
		return r, ErrWrongSection
	}
	label = strings.TrimSpace(label)
	if !module.IsStakeholderLabel(label) {
		return r, ErrInvalidResponse
	}

	if i := slices.Index(r.Stakeholders, label); i >= 0 {
		r = r.Clone()
		r.Stakeholders = slices.Delete(r.Stakeholders, i, i+1)
		return r, nil
	}
	if len(r.Stakeholders) >= module.StakeholderPicks {
		return r, ErrSelectionFull
	}
	r = r.Clone()
	r.Stakeholders = append(r.Stakeholders, label)
	return r, nil
}
