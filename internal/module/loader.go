package module

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.json
var builtin embed.FS

var ErrUnknownModule = errors.New("unknown module")

// Loader holds validated module documents keyed by module number.
type Loader struct {
	mu   sync.RWMutex
	docs map[int]*Document
}

func NewLoader() *Loader {
	return &Loader{docs: make(map[int]*Document)}
}

// LoadBuiltin loads the documents shipped with the binary.
func (l *Loader) LoadBuiltin() error {
	entries, err := fs.ReadDir(builtin, "content")
	if err != nil {
		return fmt.Errorf("reading builtin content: %w", err)
	}
	for _, e := range entries {
		data, err := builtin.ReadFile("content/" + e.Name())
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		if err := l.add(e.Name(), data); err != nil {
			return err
		}
	}
	return nil
}

// LoadFromDir loads every *.json, *.yaml and *.yml file in dir. A document
// for a number that is already loaded replaces it.
func (l *Loader) LoadFromDir(logger *slog.Logger, dir string) error {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("globbing %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", f, err)
		}
		if err := l.add(f, data); err != nil {
			return err
		}
	}
	logger.Info("module content loaded", "dir", dir, "files", len(files))
	return nil
}

func (l *Loader) add(name string, data []byte) error {
	doc, err := Parse(name, data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.docs[doc.Number] = doc
	l.mu.Unlock()
	return nil
}

// Parse decodes and validates a document, choosing the format from the
// file extension.
func Parse(name string, data []byte) (*Document, error) {
	var doc Document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &doc, nil
}

func (l *Loader) Get(number int) (*Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.docs[number]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownModule, number)
	}
	return doc, nil
}

// All returns the loaded documents ordered by number.
func (l *Loader) All() []*Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Document, 0, len(l.docs))
	for _, d := range l.docs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *Document) int { return a.Number - b.Number })
	return out
}
