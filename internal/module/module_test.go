package module

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func builtinDoc(t *testing.T) *Document {
	t.Helper()
	l := NewLoader()
	if err := l.LoadBuiltin(); err != nil {
		t.Fatalf("loading builtin: %v", err)
	}
	doc, err := l.Get(1)
	if err != nil {
		t.Fatalf("get module 1: %v", err)
	}
	return doc
}

func TestBuiltinModule(t *testing.T) {
	doc := builtinDoc(t)

	wantKinds := []Kind{KindWelcome, KindInfo, KindQuiz, KindConcepts, KindGestures, KindTestimonials, KindForm, KindSummary}
	if len(doc.Sections) != len(wantKinds) {
		t.Fatalf("sections = %d, want %d", len(doc.Sections), len(wantKinds))
	}
	for i, k := range wantKinds {
		if got := doc.Sections[i].Kind(); got != k {
			t.Errorf("section %d kind = %q, want %q", i, got, k)
		}
	}
	if got := doc.TotalQuestions(); got != 5 {
		t.Errorf("total questions = %d, want 5", got)
	}

	c := doc.Sections[3].(*Concepts)
	if got := len(c.Regular()); got != 3 {
		t.Errorf("regular concepts = %d, want 3", got)
	}
	if got := c.StakeholderIndex(); got != 3 {
		t.Errorf("stakeholder index = %d, want 3", got)
	}
	if !c.HasBenefits() {
		t.Error("expected benefits")
	}
}

func TestGetUnknownModule(t *testing.T) {
	l := NewLoader()
	if _, err := l.Get(9); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("err = %v, want ErrUnknownModule", err)
	}
}

func TestJSONRoundTripKeepsDiscriminant(t *testing.T) {
	doc := builtinDoc(t)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Sections) != len(doc.Sections) {
		t.Fatalf("sections = %d, want %d", len(back.Sections), len(doc.Sections))
	}
	q, ok := back.Quiz()
	if !ok || len(q.Questions) != 5 {
		t.Fatalf("quiz lost in round trip: %+v", q)
	}
}

const yamlDoc = `
number: 2
title: Plan d'action
sections:
  - type: welcome
    title: Bonjour
    content:
      mainMessage: Salut
  - type: quiz
    title: Quiz
    questions:
      - id: a
        text: Question A
        options:
          - {label: Oui, value: "yes"}
          - {label: Non, value: "no"}
    results:
      - {range: "0", label: Bas, message: m0}
      - {range: "1", label: Haut, message: m1}
  - type: summary
    title: Fin
    finalMessage: Merci
`

func TestLoadFromDirYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "module2.yaml"), []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader()
	if err := l.LoadFromDir(slog.Default(), dir); err != nil {
		t.Fatalf("load: %v", err)
	}
	doc, err := l.Get(2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	w := doc.Sections[0].(*Welcome)
	if w.Content.MainMessage != "Salut" {
		t.Errorf("mainMessage = %q, want Salut", w.Content.MainMessage)
	}
	if got := doc.TotalQuestions(); got != 1 {
		t.Errorf("questions = %d, want 1", got)
	}
}

func TestValidate(t *testing.T) {
	quiz := &Quiz{Questions: []Question{{ID: "q1"}}}

	tests := []struct {
		name    string
		doc     Document
		wantErr bool
	}{
		{"ok", Document{Number: 1, Sections: []Section{&Welcome{}, quiz}}, false},
		{"no sections", Document{Number: 1}, true},
		{"no quiz", Document{Number: 1, Sections: []Section{&Welcome{}}}, true},
		{"two quizzes", Document{Number: 1, Sections: []Section{quiz, quiz}}, true},
		{"empty quiz", Document{Number: 1, Sections: []Section{&Quiz{}}}, true},
		{"duplicate question", Document{Number: 1, Sections: []Section{
			&Quiz{Questions: []Question{{ID: "q1"}, {ID: "q1"}}},
		}}, true},
		{"stakeholder first", Document{Number: 1, Sections: []Section{quiz, &Concepts{
			Concepts: []Concept{{Term: StakeholderTerm}, {Term: "RSE"}},
		}}}, false},
		{"empty concepts", Document{Number: 1, Sections: []Section{quiz, &Concepts{}}}, true},
		{"bad range", Document{Number: 1, Sections: []Section{
			&Quiz{Questions: []Question{{ID: "q1"}}, Results: []QuizResult{{Range: "abc"}}},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDocument) {
				t.Errorf("err = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestQuizResultFor(t *testing.T) {
	q := builtinDoc(t).Sections[2].(*Quiz)

	tests := []struct {
		yes  int
		want string
	}{
		{0, "Curieux"},
		{1, "Curieux"},
		{2, "Engagé débutant"},
		{3, "Engagé débutant"},
		{4, "RSE sans le savoir"},
		{5, "RSE sans le savoir"},
	}
	for _, tt := range tests {
		r, ok := q.ResultFor(tt.yes)
		if !ok || r.Label != tt.want {
			t.Errorf("ResultFor(%d) = %q, want %q", tt.yes, r.Label, tt.want)
		}
	}
}
