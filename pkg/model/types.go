package model

import "time"

// FieldType tags the kind of input a field collects. Unknown tags are kept as
// is; the validator treats them as pass-through.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeMoney    FieldType = "money"
	FieldTypeDate     FieldType = "date"
	FieldTypePhone    FieldType = "phone"
	FieldTypeEmail    FieldType = "email"
	FieldTypeSelect   FieldType = "select"
	FieldTypeBoolean  FieldType = "boolean"
)

// Option is a selectable value/label pair for enumeration fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Rules holds the validation constraints declared for a field. Nil pointers and
// empty strings mean the rule is not declared.
type Rules struct {
	MinLength  *int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength  *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern    string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min        *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max        *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	FutureDate bool     `json:"future_date,omitempty" yaml:"future_date,omitempty"`
}

// Conditional gates a field on another field's current value. Field names the
// controlling field id and Value is the value it must hold.
type Conditional struct {
	Field string `json:"field" yaml:"field"`
	Value Value  `json:"value" yaml:"value"`
}

// FieldSchema describes one form input.
type FieldSchema struct {
	ID          string       `json:"id" yaml:"id"`
	Label       string       `json:"label" yaml:"label"`
	Type        FieldType    `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	Options     []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	Validation  Rules        `json:"validation,omitempty" yaml:"validation,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`
	VisibleWhen string       `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
	Help        string       `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string       `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
}

// DisplayLabel returns the label, falling back to the id.
func (f FieldSchema) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// OptionLabel returns the label for an option value, or the value itself when
// no option matches.
func (f FieldSchema) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			return opt.Value
		}
	}
	return value
}

// Section is one titled block of template content.
type Section struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Signature is a signatory entry rendered as "party: signature line".
type Signature struct {
	Party         string `json:"party" yaml:"party"`
	SignatureLine string `json:"signature_line" yaml:"signature_line"`
}

// TemplateBody is the directive-bearing text a document is rendered from.
type TemplateBody struct {
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Sections   []Section   `json:"sections" yaml:"sections"`
	Signatures []Signature `json:"signatures,omitempty" yaml:"signatures,omitempty"`
	Footer     string      `json:"footer,omitempty" yaml:"footer,omitempty"`
}

// ContractTemplate is an immutable contract definition keyed by ID.
type ContractTemplate struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Fields      []FieldSchema `json:"fields" yaml:"fields"`
	Body        TemplateBody  `json:"template" yaml:"template"`
}

// Field returns the schema for the supplied id.
func (t ContractTemplate) Field(id string) (FieldSchema, bool) {
	for _, field := range t.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return FieldSchema{}, false
}

// DocumentTitle returns the body title, falling back to the template title.
func (t ContractTemplate) DocumentTitle() string {
	if t.Body.Title != "" {
		return t.Body.Title
	}
	return t.Title
}

// FormSubmission pairs a contract type with the submitted values.
type FormSubmission struct {
	ContractType string   `json:"contract_type" yaml:"contract_type"`
	FormData     FormData `json:"form_data" yaml:"form_data"`
}

// RenderedDocument is the assembled contract text returned to callers.
type RenderedDocument struct {
	ID           string    `json:"id"`
	ContractType string    `json:"contract_type"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Digest       string    `json:"digest"`
	GeneratedAt  time.Time `json:"generated_at"`
}
