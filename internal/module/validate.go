package module

import (
	"errors"
	"fmt"
)

var ErrInvalidDocument = errors.New("invalid module document")

// Validate checks the structural invariants the wizard relies on.
func (d *Document) Validate() error {
	if d.Number <= 0 {
		return invalid("module number must be positive")
	}
	if len(d.Sections) == 0 {
		return invalid("module has no sections")
	}

	quizzes := 0
	for i, s := range d.Sections {
		var err error
		switch s := s.(type) {
		case *Quiz:
			quizzes++
			err = validateQuiz(s)
		case *Concepts:
			err = validateConcepts(s)
		case *Gestures:
			err = validateGestures(s)
		case *Testimonials:
			err = validateTestimonials(s)
		case *Form:
			err = uniqueIDs(len(s.Fields), func(i int) string { return s.Fields[i].ID })
		case *Welcome, *Info, *Summary:
		default:
			err = fmt.Errorf("unsupported section %T", s)
		}
		if err != nil {
			return invalid(fmt.Sprintf("section %d (%s): %v", i, s.Kind(), err))
		}
	}
	if quizzes != 1 {
		return invalid(fmt.Sprintf("module must have exactly one quiz, has %d", quizzes))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, msg)
}

func validateQuiz(q *Quiz) error {
	if len(q.Questions) == 0 {
		return errors.New("quiz has no questions")
	}
	for _, r := range q.Results {
		if _, _, err := parseRange(r.Range); err != nil {
			return err
		}
	}
	return uniqueIDs(len(q.Questions), func(i int) string { return q.Questions[i].ID })
}

func validateConcepts(c *Concepts) error {
	if len(c.Concepts) == 0 {
		return errors.New("concepts section is empty")
	}
	return nil
}

func validateGestures(g *Gestures) error {
	if len(g.Options) == 0 {
		return errors.New("gestures section has no options")
	}
	return uniqueIDs(len(g.Gestures), func(i int) string { return g.Gestures[i].ID })
}

func validateTestimonials(t *Testimonials) error {
	if len(t.InteractionOptions) == 0 {
		return errors.New("testimonials section has no interaction options")
	}
	return uniqueIDs(len(t.Testimonials), func(i int) string { return t.Testimonials[i].ID })
}

func uniqueIDs(n int, id func(int) string) error {
	seen := make(map[string]struct{}, n)
	for i := range n {
		v := id(i)
		if v == "" {
			return fmt.Errorf("item %d has an empty id", i)
		}
		if _, dup := seen[v]; dup {
			return fmt.Errorf("duplicate id %q", v)
		}
		seen[v] = struct{}{}
	}
	return nil
}
