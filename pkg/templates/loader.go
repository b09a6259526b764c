package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// Format names a definition encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions
// return an empty Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}

// ParseFormat normalises a stored format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("templates: unknown format %q", name)
	}
}

// IssueHandler receives definitions skipped by a lenient load.
type IssueHandler func(source string, err error)

// LoadOption configures LoadFS and Build.
type LoadOption func(*loadConfig)

type loadConfig struct {
	strict  bool
	onIssue IssueHandler
}

// WithStrict makes the first malformed definition fail the whole load instead
// of being skipped.
func WithStrict() LoadOption {
	return func(cfg *loadConfig) {
		cfg.strict = true
	}
}

// WithIssueHandler receives every skipped definition during a lenient load.
func WithIssueHandler(fn IssueHandler) LoadOption {
	return func(cfg *loadConfig) {
		cfg.onIssue = fn
	}
}

// Document is a raw template definition waiting to be parsed.
type Document struct {
	Source string
	Format Format
	Data   []byte
	// ExpectedID, when set, must match the id declared in Data.
	ExpectedID string
}

// LoadFS walks fsys and loads every .json/.yaml/.yml definition. When fsys is
// nil or holds no definitions the returned store is empty.
//
// Loads are lenient by default: a definition that fails to parse or check is
// reported to the issue handler and left out, so requests for it resolve to
// ErrTemplateNotFound. Use WithStrict to fail instead.
func LoadFS(fsys fs.FS, opts ...LoadOption) (*Store, error) {
	if fsys == nil {
		return NewStore()
	}

	var docs []Document
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		format := FormatFromPath(path)
		if format == "" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("templates: read %s: %w", path, err)
		}
		docs = append(docs, Document{Source: path, Format: format, Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return Build(docs, opts...)
}

// Build parses docs in parallel and indexes the results. Documents are added
// in input order, so on duplicate ids the first one wins in lenient mode.
func Build(docs []Document, opts ...LoadOption) (*Store, error) {
	cfg := loadConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	parsed := make([]model.ContractTemplate, len(docs))
	failures := make([]error, len(docs))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for idx := range docs {
		g.Go(func() error {
			tpl, err := parseDocument(docs[idx])
			if err != nil {
				failures[idx] = err
				return nil
			}
			parsed[idx] = tpl
			return nil
		})
	}
	_ = g.Wait()

	store := &Store{templates: make(map[string]model.ContractTemplate, len(docs))}
	for idx, doc := range docs {
		err := failures[idx]
		if err == nil {
			err = store.add(parsed[idx])
			if err != nil {
				err = fmt.Errorf("%w (file %s)", err, doc.Source)
			}
		}
		if err == nil {
			continue
		}
		if cfg.strict {
			return nil, err
		}
		if cfg.onIssue != nil {
			cfg.onIssue(doc.Source, err)
		}
	}
	store.seal()
	return store, nil
}

func parseDocument(doc Document) (model.ContractTemplate, error) {
	tpl, err := Parse(doc.Data, doc.Format, doc.Source)
	if err != nil {
		return model.ContractTemplate{}, err
	}
	if doc.ExpectedID != "" && tpl.ID != doc.ExpectedID {
		return model.ContractTemplate{}, fmt.Errorf("templates: %s declares id %q, expected %q", doc.Source, tpl.ID, doc.ExpectedID)
	}
	if err := Check(tpl); err != nil {
		return model.ContractTemplate{}, fmt.Errorf("%w (file %s)", err, doc.Source)
	}
	return tpl, nil
}

type templateFile struct {
	ID          string             `json:"id" yaml:"id"`
	Title       string             `json:"title" yaml:"title"`
	Description string             `json:"description" yaml:"description"`
	Fields      []fieldFile        `json:"fields" yaml:"fields"`
	Template    model.TemplateBody `json:"template" yaml:"template"`
}

type fieldFile struct {
	ID          string           `json:"id" yaml:"id"`
	Label       string           `json:"label" yaml:"label"`
	Type        string           `json:"type" yaml:"type"`
	Required    *bool            `json:"required" yaml:"required"`
	Options     []model.Option   `json:"options" yaml:"options"`
	Validation  model.Rules      `json:"validation" yaml:"validation"`
	Conditional *conditionalFile `json:"conditional" yaml:"conditional"`
	VisibleWhen string           `json:"visibleWhen" yaml:"visibleWhen"`
	Help        string           `json:"help" yaml:"help"`
	Placeholder string           `json:"placeholder" yaml:"placeholder"`
}

// conditionalFile accepts both the {field, value} shape and the
// {dependsOn, requiredValue} spelling.
type conditionalFile struct {
	Field         string       `json:"field" yaml:"field"`
	Value         model.Value  `json:"value" yaml:"value"`
	DependsOn     string       `json:"dependsOn" yaml:"dependsOn"`
	RequiredValue *model.Value `json:"requiredValue" yaml:"requiredValue"`
}

// Parse decodes a single template definition.
func Parse(data []byte, format Format, source string) (model.ContractTemplate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return model.ContractTemplate{}, fmt.Errorf("templates: file %s is empty", source)
	}

	var raw templateFile
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return model.ContractTemplate{}, fmt.Errorf("templates: parse %s: %w", source, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return model.ContractTemplate{}, fmt.Errorf("templates: parse %s: %w", source, err)
		}
	default:
		return model.ContractTemplate{}, fmt.Errorf("templates: parse %s: unsupported format %q", source, format)
	}

	return normaliseTemplate(raw), nil
}

func normaliseTemplate(raw templateFile) model.ContractTemplate {
	tpl := model.ContractTemplate{
		ID:          strings.TrimSpace(raw.ID),
		Title:       raw.Title,
		Description: raw.Description,
		Fields:      make([]model.FieldSchema, 0, len(raw.Fields)),
		Body:        raw.Template,
	}
	for _, f := range raw.Fields {
		tpl.Fields = append(tpl.Fields, normaliseField(f))
	}
	return tpl
}

func normaliseField(raw fieldFile) model.FieldSchema {
	field := model.FieldSchema{
		ID:          strings.TrimSpace(raw.ID),
		Label:       raw.Label,
		Type:        model.FieldType(strings.ToLower(strings.TrimSpace(raw.Type))),
		Required:    true,
		Options:     append([]model.Option(nil), raw.Options...),
		Validation:  raw.Validation,
		VisibleWhen: strings.TrimSpace(raw.VisibleWhen),
		Help:        raw.Help,
		Placeholder: raw.Placeholder,
	}
	if raw.Required != nil {
		field.Required = *raw.Required
	}
	if c := raw.Conditional; c != nil {
		cond := &model.Conditional{Field: strings.TrimSpace(c.Field), Value: c.Value}
		if cond.Field == "" {
			cond.Field = strings.TrimSpace(c.DependsOn)
		}
		if c.RequiredValue != nil {
			cond.Value = *c.RequiredValue
		}
		field.Conditional = cond
	}
	return field
}

// Encode serialises a template in the given format, in the same shape Parse
// reads.
func Encode(tpl model.ContractTemplate, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(tpl)
	case FormatJSON, "":
		return json.MarshalIndent(tpl, "", "  ")
	default:
		return nil, fmt.Errorf("templates: unsupported format %q", format)
	}
}
