// Package wizard is the state machine that walks a participant through a
// module document. All functions are pure: they take a state and return a
// new one.
package wizard

import (
	"strings"

	"github.com/rsepme/rsemodule/internal/module"
)

const (
	LabelNext   = "Suivant →"
	LabelFinish = "Terminer le module"
	LabelPrev   = "Précédent"
)

// Phase tells where inside a concepts section the cursor is.
type Phase string

const (
	PhaseNone        Phase = ""
	PhaseConcept     Phase = "concept"
	PhaseStakeholder Phase = "stakeholder"
	PhaseBenefits    Phase = "benefits"
)

// SubState is the position inside a section. Only concepts sections have
// one. Concept indexes the section's concept list; for PhaseBenefits it is
// the number of regular concepts.
type SubState struct {
	Phase   Phase `json:"phase,omitempty"`
	Concept int   `json:"concept"`
	Step    int   `json:"step"`
}

// State is the wizard cursor.
type State struct {
	Section int      `json:"section"`
	Sub     SubState `json:"sub"`
}

// Cursor is the flat (section, concept, stakeholder step) view of a State.
type Cursor struct {
	SectionIndex    int `json:"sectionIndex"`
	ConceptIndex    int `json:"conceptIndex"`
	StakeholderStep int `json:"stakeholderStep"`
}

func (s State) Cursor() Cursor {
	return Cursor{
		SectionIndex:    s.Section,
		ConceptIndex:    s.Sub.Concept,
		StakeholderStep: s.Sub.Step,
	}
}

// Outcome is the result of a "next" request.
type Outcome int

const (
	// Blocked means the current screen is not complete; state is unchanged.
	Blocked Outcome = iota
	Moved
	// Completed means "next" was accepted on the final screen.
	Completed
)

func (o Outcome) String() string {
	switch o {
	case Moved:
		return "moved"
	case Completed:
		return "completed"
	default:
		return "blocked"
	}
}

// Start is the initial state for doc.
func Start(doc *module.Document) State {
	return enter(doc, 0)
}

// enter positions the cursor at the first screen of section i.
func enter(doc *module.Document, i int) State {
	st := State{Section: i}
	c, ok := doc.Sections[i].(*module.Concepts)
	if !ok {
		return st
	}
	switch {
	case len(c.Regular()) > 0:
		st.Sub = SubState{Phase: PhaseConcept}
	case c.StakeholderIndex() >= 0:
		st.Sub = SubState{Phase: PhaseStakeholder, Concept: c.StakeholderIndex()}
	case c.HasBenefits():
		st.Sub = SubState{Phase: PhaseBenefits}
	}
	return st
}

// CanProceed reports whether the current screen's completion predicate holds.
func CanProceed(doc *module.Document, st State, r Responses) bool {
	switch s := doc.Sections[st.Section].(type) {
	case *module.Quiz:
		for _, q := range s.Questions {
			if _, ok := r.Quiz[q.ID]; !ok {
				return false
			}
		}
		return true
	case *module.Gestures:
		for _, g := range s.Gestures {
			if _, ok := r.Gestures[g.ID]; !ok {
				return false
			}
		}
		return true
	case *module.Testimonials:
		for _, t := range s.Testimonials {
			if r.Testimonials[t.ID] == "" {
				return false
			}
		}
		return true
	case *module.Form:
		for _, f := range s.Fields {
			if f.Required && strings.TrimSpace(r.Form[f.ID]) == "" {
				return false
			}
		}
		return true
	case *module.Concepts:
		if st.Sub.Phase == PhaseStakeholder && st.Sub.Step == module.StakeholderSelectStep {
			return len(r.Stakeholders) == module.StakeholderPicks
		}
		return true
	default:
		return true
	}
}

// nextSub returns the next screen inside the current section, if any.
func nextSub(doc *module.Document, st State) (State, bool) {
	c, ok := doc.Sections[st.Section].(*module.Concepts)
	if !ok {
		return st, false
	}

	switch st.Sub.Phase {
	case PhaseConcept:
		regular := len(c.Regular())
		if st.Sub.Concept < regular-1 {
			st.Sub.Concept++
			return st, true
		}
		if idx := c.StakeholderIndex(); idx >= 0 {
			st.Sub = SubState{Phase: PhaseStakeholder, Concept: idx}
			return st, true
		}
		if c.HasBenefits() {
			st.Sub = SubState{Phase: PhaseBenefits, Concept: regular}
			return st, true
		}
	case PhaseStakeholder:
		if st.Sub.Step < module.StakeholderSelectStep {
			st.Sub.Step++
			return st, true
		}
		if st.Sub.Step == module.StakeholderSelectStep && c.HasBenefits() {
			st.Sub.Step = module.StakeholderBenefitsStep
			return st, true
		}
	}
	return st, false
}

// Advance handles "next". A blocked request returns st unchanged.
func Advance(doc *module.Document, st State, r Responses) (State, Outcome) {
	if !CanProceed(doc, st, r) {
		return st, Blocked
	}
	if next, ok := nextSub(doc, st); ok {
		return next, Moved
	}
	if st.Section >= doc.LastIndex() {
		return st, Completed
	}
	return enter(doc, st.Section+1), Moved
}

// Back moves to the start of the previous section. The position inside the
// current section is discarded and not restored on the previous one.
func Back(doc *module.Document, st State) State {
	if st.Section == 0 {
		return st
	}
	return enter(doc, st.Section-1)
}

// NextLabel is the caption of the "next" button.
func NextLabel(doc *module.Document, st State, r Responses) string {
	if st.Section != doc.LastIndex() || !CanProceed(doc, st, r) {
		return LabelNext
	}
	if _, more := nextSub(doc, st); more {
		return LabelNext
	}
	return LabelFinish
}
