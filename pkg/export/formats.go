package export

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gotemplate "github.com/goliatone/go-template"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Markdown emits the document content verbatim.
type Markdown struct{}

func (Markdown) Name() string        { return "markdown" }
func (Markdown) ContentType() string { return "text/markdown; charset=utf-8" }
func (Markdown) Extension() string   { return ".md" }

func (Markdown) Export(doc model.RenderedDocument) ([]byte, error) {
	return []byte(doc.Content), nil
}

// JSON emits the whole RenderedDocument.
type JSON struct {
	Indent bool
}

func (JSON) Name() string        { return "json" }
func (JSON) ContentType() string { return "application/json" }
func (JSON) Extension() string   { return ".json" }

func (j JSON) Export(doc model.RenderedDocument) ([]byte, error) {
	if j.Indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// DefaultEnvelope names the built-in text envelope.
const DefaultEnvelope = "text"

const envelopeExt = ".tpl"

//go:embed envelopes/*.tpl
var embeddedEnvelopes embed.FS

// TextOption configures the text exporter.
type TextOption func(*textConfig)

type textConfig struct {
	name    string
	sources []fs.FS
}

// WithEnvelope selects the envelope template by name (without extension).
func WithEnvelope(name string) TextOption {
	return func(cfg *textConfig) {
		if trimmed := strings.TrimSuffix(strings.TrimSpace(name), envelopeExt); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithEnvelopeDir adds a directory of .tpl envelopes. Its files shadow the
// built-in ones of the same name.
func WithEnvelopeDir(dir string) TextOption {
	return func(cfg *textConfig) {
		if dir = strings.TrimSpace(dir); dir != "" {
			cfg.sources = append(cfg.sources, os.DirFS(dir))
		}
	}
}

// WithEnvelopeFS adds envelopes from fsys, shadowing the built-in ones.
func WithEnvelopeFS(fsys fs.FS) TextOption {
	return func(cfg *textConfig) {
		if fsys != nil {
			cfg.sources = append(cfg.sources, fsys)
		}
	}
}

type envelopeRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// Text renders the document through a go-template envelope that wraps the
// content with a metadata header.
type Text struct {
	renderer envelopeRenderer
	name     string
}

// NewText builds the text exporter. The envelope must exist in one of the
// configured sources or among the built-in envelopes.
func NewText(opts ...TextOption) (*Text, error) {
	cfg := &textConfig{name: DefaultEnvelope}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	builtin, err := fs.Sub(embeddedEnvelopes, "envelopes")
	if err != nil {
		return nil, fmt.Errorf("export: built-in envelopes: %w", err)
	}
	sources := layeredFS(append(cfg.sources, builtin))
	if _, err := fs.Stat(sources, cfg.name+envelopeExt); err != nil {
		return nil, fmt.Errorf("export: envelope %q: %w", cfg.name, err)
	}

	renderer, err := gotemplate.NewRenderer(
		gotemplate.WithFS(sources),
		gotemplate.WithExtension(envelopeExt),
	)
	if err != nil {
		return nil, fmt.Errorf("export: text renderer: %w", err)
	}
	return &Text{renderer: renderer, name: cfg.name}, nil
}

func (*Text) Name() string        { return "text" }
func (*Text) ContentType() string { return "text/plain; charset=utf-8" }
func (*Text) Extension() string   { return ".txt" }

// Envelope reports the envelope template in use.
func (t *Text) Envelope() string { return t.name }

func (t *Text) Export(doc model.RenderedDocument) ([]byte, error) {
	out, err := t.renderer.RenderTemplate(t.name, map[string]any{
		"id":            doc.ID,
		"title":         doc.Title,
		"contract_type": doc.ContractType,
		"generated_at":  doc.GeneratedAt.Format(time.RFC3339),
		"digest":        doc.Digest,
		"content":       doc.Content,
		"rule":          strings.Repeat("=", 60),
	})
	if err != nil {
		return nil, fmt.Errorf("export: render envelope %q: %w", t.name, err)
	}
	return []byte(out), nil
}

// layeredFS resolves each name against its layers in order.
type layeredFS []fs.FS

func (l layeredFS) Open(name string) (fs.File, error) {
	for _, layer := range l {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
