package wizard

import (
	"github.com/rsepme/rsemodule/internal/module"
	"github.com/rsepme/rsemodule/internal/scoring"
)

// View is the read model of the current screen sent to clients.
type View struct {
	Cursor       Cursor             `json:"cursor"`
	Phase        Phase              `json:"phase,omitempty"`
	SectionCount int                `json:"sectionCount"`
	Section      module.Section     `json:"section"`
	Concept      *module.Concept    `json:"concept,omitempty"`
	ConceptCount int                `json:"conceptCount,omitempty"`
	Stakeholder  *StakeholderView   `json:"stakeholder,omitempty"`
	Benefits     *module.Benefits   `json:"benefits,omitempty"`
	Question     *module.Question   `json:"question,omitempty"`
	QuizResult   *module.QuizResult `json:"quizResult,omitempty"`
	Responses    Responses          `json:"responses"`
	CanProceed   bool               `json:"canProceed"`
	CanGoBack    bool               `json:"canGoBack"`
	NextLabel    string             `json:"nextLabel"`
	PrevLabel    string             `json:"prevLabel"`
	Completed    bool               `json:"completed"`
	Result       *scoring.Result    `json:"result,omitempty"`
}

// StakeholderView describes a screen of the stakeholder mini-flow.
type StakeholderView struct {
	Step     int                      `json:"step"`
	Steps    int                      `json:"steps"`
	Screen   module.StakeholderScreen `json:"screen"`
	Labels   []string                 `json:"labels,omitempty"`
	Selected []string                 `json:"selected"`
}

// BuildView renders p against doc.
func BuildView(doc *module.Document, p Progress) View {
	st := p.State
	v := View{
		Cursor:       st.Cursor(),
		Phase:        st.Sub.Phase,
		SectionCount: len(doc.Sections),
		Section:      doc.Sections[st.Section],
		Responses:    p.Responses,
		CanProceed:   CanProceed(doc, st, p.Responses),
		CanGoBack:    st.Section > 0,
		NextLabel:    NextLabel(doc, st, p.Responses),
		PrevLabel:    LabelPrev,
		Completed:    p.Completed,
	}

	switch s := v.Section.(type) {
	case *module.Quiz:
		for i := range s.Questions {
			if _, ok := p.Responses.Quiz[s.Questions[i].ID]; !ok {
				v.Question = &s.Questions[i]
				break
			}
		}
		if v.Question == nil {
			yes := scoring.YesCount(p.Responses.Quiz)
			if r, ok := s.ResultFor(yes); ok {
				v.QuizResult = &r
			}
		}
	case *module.Concepts:
		v.ConceptCount = len(s.Regular())
		switch st.Sub.Phase {
		case PhaseConcept:
			c := s.Regular()[st.Sub.Concept]
			v.Concept = &c
		case PhaseStakeholder:
			if st.Sub.Step == module.StakeholderBenefitsStep {
				v.Benefits = s.Benefits
				break
			}
			sv := &StakeholderView{
				Step:     st.Sub.Step,
				Steps:    len(module.StakeholderScreens),
				Screen:   module.StakeholderScreens[st.Sub.Step],
				Selected: p.Responses.Stakeholders,
			}
			if st.Sub.Step == module.StakeholderSelectStep {
				sv.Labels = module.StakeholderLabels
			}
			v.Stakeholder = sv
		case PhaseBenefits:
			v.Benefits = s.Benefits
		}
	}

	if p.Completed {
		res := scoring.Compute(p.Responses.Quiz, doc.TotalQuestions())
		v.Result = &res
	}
	return v
}
