package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Exporter serialises a rendered document into one output format.
type Exporter interface {
	Name() string
	ContentType() string
	// Extension is the file suffix written for this format, including the dot.
	Extension() string
	Export(doc model.RenderedDocument) ([]byte, error)
}

// Registry resolves exporters by format name or by output file extension. It
// is fixed at construction and safe for concurrent use.
type Registry struct {
	byName map[string]Exporter
	byExt  map[string]Exporter
	names  []string
}

// NewRegistry indexes exporters. Names and extensions must be unique.
func NewRegistry(exporters ...Exporter) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]Exporter, len(exporters)),
		byExt:  make(map[string]Exporter, len(exporters)),
	}
	for _, exporter := range exporters {
		if exporter == nil {
			return nil, errors.New("export: exporter is required")
		}
		name := exporter.Name()
		if name == "" {
			return nil, errors.New("export: exporter name is required")
		}
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("export: exporter %q already registered", name)
		}
		ext := strings.ToLower(exporter.Extension())
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return nil, fmt.Errorf("export: exporter %q has invalid extension %q", name, exporter.Extension())
		}
		if other, exists := r.byExt[ext]; exists {
			return nil, fmt.Errorf("export: extension %q claimed by %q and %q", ext, other.Name(), name)
		}
		r.byName[name] = exporter
		r.byExt[ext] = exporter
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// DefaultRegistry holds the markdown, json and text exporters. Options
// configure the text envelope.
func DefaultRegistry(opts ...TextOption) (*Registry, error) {
	text, err := NewText(opts...)
	if err != nil {
		return nil, err
	}
	return NewRegistry(Markdown{}, JSON{Indent: true}, text)
}

// Get retrieves an exporter by name.
func (r *Registry) Get(name string) (Exporter, error) {
	exporter, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("export: format %q not found", name)
	}
	return exporter, nil
}

// ForPath picks the exporter whose extension matches path, case-insensitively.
func (r *Registry) ForPath(path string) (Exporter, bool) {
	exporter, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return exporter, ok
}

// List returns the registered format names, sorted.
func (r *Registry) List() []string {
	return append([]string(nil), r.names...)
}
