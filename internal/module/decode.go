package module

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func newSection(k Kind) (Section, error) {
	switch k {
	case KindWelcome:
		return &Welcome{}, nil
	case KindInfo:
		return &Info{}, nil
	case KindQuiz:
		return &Quiz{}, nil
	case KindConcepts:
		return &Concepts{}, nil
	case KindGestures:
		return &Gestures{}, nil
	case KindTestimonials:
		return &Testimonials{}, nil
	case KindForm:
		return &Form{}, nil
	case KindSummary:
		return &Summary{}, nil
	}
	return nil, fmt.Errorf("unknown section type %q", k)
}

type documentHeader struct {
	Number           int    `json:"number" yaml:"number"`
	Title            string `json:"title" yaml:"title"`
	Description      string `json:"description" yaml:"description"`
	EstimatedMinutes int    `json:"estimatedDurationMinutes" yaml:"estimatedDurationMinutes"`
}

func (d *Document) setHeader(h documentHeader) {
	d.Number = h.Number
	d.Title = h.Title
	d.Description = h.Description
	d.EstimatedMinutes = h.EstimatedMinutes
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		documentHeader
		Sections []json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.setHeader(raw.documentHeader)
	d.Sections = make([]Section, 0, len(raw.Sections))
	for i, rs := range raw.Sections {
		var tag struct {
			Type Kind `json:"type"`
		}
		if err := json.Unmarshal(rs, &tag); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		s, err := newSection(tag.Type)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		if err := json.Unmarshal(rs, s); err != nil {
			return fmt.Errorf("section %d (%s): %w", i, tag.Type, err)
		}
		d.Sections = append(d.Sections, s)
	}
	return nil
}

func (d *Document) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		documentHeader `yaml:",inline"`
		Sections       []yaml.Node `yaml:"sections"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	d.setHeader(raw.documentHeader)
	d.Sections = make([]Section, 0, len(raw.Sections))
	for i := range raw.Sections {
		n := &raw.Sections[i]
		var tag struct {
			Type Kind `yaml:"type"`
		}
		if err := n.Decode(&tag); err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		s, err := newSection(tag.Type)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		if err := n.Decode(s); err != nil {
			return fmt.Errorf("section %d (%s): %w", i, tag.Type, err)
		}
		d.Sections = append(d.Sections, s)
	}
	return nil
}

// withType marshals v and prepends the "type" discriminant. v must be a
// struct without its own MarshalJSON to avoid recursion.
func withType(k Kind, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(b) < 2 || b[0] != '{' {
		return nil, fmt.Errorf("section %s did not encode as an object", k)
	}
	out := fmt.Appendf(nil, `{"type":%q`, k)
	if len(b) > 2 {
		out = append(out, ',')
	}
	return append(out, b[1:]...), nil
}

func (s Welcome) MarshalJSON() ([]byte, error) {
	type plain Welcome
	return withType(KindWelcome, plain(s))
}

func (s Info) MarshalJSON() ([]byte, error) {
	type plain Info
	return withType(KindInfo, plain(s))
}

func (s Quiz) MarshalJSON() ([]byte, error) {
	type plain Quiz
	return withType(KindQuiz, plain(s))
}

func (s Concepts) MarshalJSON() ([]byte, error) {
	type plain Concepts
	return withType(KindConcepts, plain(s))
}

func (s Gestures) MarshalJSON() ([]byte, error) {
	type plain Gestures
	return withType(KindGestures, plain(s))
}

func (s Testimonials) MarshalJSON() ([]byte, error) {
	type plain Testimonials
	return withType(KindTestimonials, plain(s))
}

func (s Form) MarshalJSON() ([]byte, error) {
	type plain Form
	return withType(KindForm, plain(s))
}

func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return withType(KindSummary, plain(s))
}
