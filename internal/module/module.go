// Package module defines the content document of a training module: an
// ordered list of typed sections that the wizard walks through.
package module

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the discriminant of a section.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindInfo         Kind = "info"
	KindQuiz         Kind = "quiz"
	KindConcepts     Kind = "concepts"
	KindGestures     Kind = "gestures"
	KindTestimonials Kind = "testimonials"
	KindForm         Kind = "form"
	KindSummary      Kind = "summary"
)

// Section is one screen of a module. The set of implementations is closed.
type Section interface {
	Kind() Kind
	section()
}

// Document is the full content of one module.
type Document struct {
	Number           int       `json:"number"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	EstimatedMinutes int       `json:"estimatedDurationMinutes,omitempty"`
	Sections         []Section `json:"sections"`
}

type Welcome struct {
	Title   string         `json:"title" yaml:"title"`
	Content WelcomeContent `json:"content" yaml:"content"`
}

type WelcomeContent struct {
	MainMessage string   `json:"mainMessage" yaml:"mainMessage"`
	Objectives  []string `json:"objectives,omitempty" yaml:"objectives"`
}

type Info struct {
	Title   string      `json:"title" yaml:"title"`
	Content InfoContent `json:"content" yaml:"content"`
}

type InfoContent struct {
	Points  []string `json:"points,omitempty" yaml:"points"`
	Message string   `json:"message,omitempty" yaml:"message"`
}

type Quiz struct {
	Title             string       `json:"title" yaml:"title"`
	Intro             string       `json:"intro,omitempty" yaml:"intro"`
	Questions         []Question   `json:"questions" yaml:"questions"`
	Results           []QuizResult `json:"results,omitempty" yaml:"results"`
	Contextualization string       `json:"contextualization,omitempty" yaml:"contextualization"`
}

type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

type Option struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// QuizResult is a message shown for a range of yes answers, e.g. "0–1".
type QuizResult struct {
	Range   string `json:"range" yaml:"range"`
	Label   string `json:"label" yaml:"label"`
	Message string `json:"message" yaml:"message"`
}

type Concepts struct {
	Title    string    `json:"title,omitempty" yaml:"title"`
	Concepts []Concept `json:"concepts" yaml:"concepts"`
	Benefits *Benefits `json:"benefits,omitempty" yaml:"benefits"`
}

type Concept struct {
	Term        string   `json:"term" yaml:"term"`
	Definition  string   `json:"definition" yaml:"definition"`
	Example     string   `json:"example,omitempty" yaml:"example"`
	Examples    []string `json:"examples,omitempty" yaml:"examples"`
	Explanation string   `json:"explanation,omitempty" yaml:"explanation"`
}

type Benefits struct {
	Title  string         `json:"title" yaml:"title"`
	Points []BenefitPoint `json:"points" yaml:"points"`
}

type BenefitPoint struct {
	Title  string `json:"title" yaml:"title"`
	Detail string `json:"detail" yaml:"detail"`
}

type Gestures struct {
	Title    string    `json:"title" yaml:"title"`
	Intro    string    `json:"intro,omitempty" yaml:"intro"`
	Gestures []Gesture `json:"gestures" yaml:"gestures"`
	Options  []string  `json:"options" yaml:"options"`
}

type Gesture struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Impact string `json:"impact,omitempty" yaml:"impact"`
	Tip    string `json:"tip,omitempty" yaml:"tip"`
}

type Testimonials struct {
	Title              string        `json:"title" yaml:"title"`
	Testimonials       []Testimonial `json:"testimonials" yaml:"testimonials"`
	InteractionOptions []string      `json:"interactionOptions" yaml:"interactionOptions"`
}

type Testimonial struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
	Author  string `json:"author,omitempty" yaml:"author"`
}

type Form struct {
	Title   string  `json:"title" yaml:"title"`
	Fields  []Field `json:"fields" yaml:"fields"`
	Message string  `json:"message,omitempty" yaml:"message"`
}

type Field struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Type        string `json:"type" yaml:"type"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder"`
	Required    bool   `json:"required" yaml:"required"`
}

type Summary struct {
	Title        string    `json:"title" yaml:"title"`
	FinalMessage string    `json:"finalMessage" yaml:"finalMessage"`
	NextStep     *NextStep `json:"nextStep,omitempty" yaml:"nextStep"`
}

type NextStep struct {
	Title       string `json:"title" yaml:"title"`
	Module      string `json:"module" yaml:"module"`
	Description string `json:"description" yaml:"description"`
}

func (Welcome) Kind() Kind      { return KindWelcome }
func (Info) Kind() Kind         { return KindInfo }
func (Quiz) Kind() Kind         { return KindQuiz }
func (Concepts) Kind() Kind     { return KindConcepts }
func (Gestures) Kind() Kind     { return KindGestures }
func (Testimonials) Kind() Kind { return KindTestimonials }
func (Form) Kind() Kind         { return KindForm }
func (Summary) Kind() Kind      { return KindSummary }

func (Welcome) section()      {}
func (Info) section()         {}
func (Quiz) section()         {}
func (Concepts) section()     {}
func (Gestures) section()     {}
func (Testimonials) section() {}
func (Form) section()         {}
func (Summary) section()      {}

// Quiz returns the document's quiz section.
func (d *Document) Quiz() (*Quiz, bool) {
	for _, s := range d.Sections {
		if q, ok := s.(*Quiz); ok {
			return q, true
		}
	}
	return nil, false
}

// TotalQuestions is the score divisor: the question count of the quiz.
func (d *Document) TotalQuestions() int {
	q, ok := d.Quiz()
	if !ok {
		return 0
	}
	return len(q.Questions)
}

// LastIndex is the index of the final section.
func (d *Document) LastIndex() int { return len(d.Sections) - 1 }

// Question returns the question with the given id.
func (q *Quiz) Question(id string) (Question, bool) {
	for _, qq := range q.Questions {
		if qq.ID == id {
			return qq, true
		}
	}
	return Question{}, false
}

// ResultFor returns the result message whose range contains yes, falling
// back to the first result.
func (q *Quiz) ResultFor(yes int) (QuizResult, bool) {
	if len(q.Results) == 0 {
		return QuizResult{}, false
	}
	for _, r := range q.Results {
		if r.Matches(yes) {
			return r, true
		}
	}
	return q.Results[0], true
}

// Matches reports whether yes falls in the result's range. Ranges are a
// single number or two numbers joined by a hyphen or an en dash.
func (r QuizResult) Matches(yes int) bool {
	lo, hi, err := parseRange(r.Range)
	if err != nil {
		return false
	}
	return yes >= lo && yes <= hi
}

func parseRange(s string) (int, int, error) {
	s = strings.ReplaceAll(s, "–", "-")
	lo, hi, found := strings.Cut(s, "-")
	a, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing range %q: %w", s, err)
	}
	if !found {
		return a, a, nil
	}
	b, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing range %q: %w", s, err)
	}
	return a, b, nil
}

// Regular returns the concepts shown as simple cards, i.e. all but the
// stakeholder concept.
func (c *Concepts) Regular() []Concept {
	out := make([]Concept, 0, len(c.Concepts))
	for _, cc := range c.Concepts {
		if cc.Term != StakeholderTerm {
			out = append(out, cc)
		}
	}
	return out
}

// StakeholderIndex is the position of the stakeholder concept, or -1.
func (c *Concepts) StakeholderIndex() int {
	for i, cc := range c.Concepts {
		if cc.Term == StakeholderTerm {
			return i
		}
	}
	return -1
}

func (c *Concepts) HasBenefits() bool { return c.Benefits != nil }

func (g *Gestures) HasGesture(id string) bool {
	for _, gg := range g.Gestures {
		if gg.ID == id {
			return true
		}
	}
	return false
}

func (t *Testimonials) HasTestimonial(id string) bool {
	for _, tt := range t.Testimonials {
		if tt.ID == id {
			return true
		}
	}
	return false
}

func (f *Form) Field(id string) (Field, bool) {
	for _, ff := range f.Fields {
		if ff.ID == id {
			return ff, true
		}
	}
	return Field{}, false
}
