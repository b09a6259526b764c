package directive

import (
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
)

// DefaultValueMappings holds the display text used for well-known enumeration
// keys. Values missing from a table render as their plain text.
var DefaultValueMappings = map[string]map[string]string{
	"payment_schedule": {
		"full":      "одноразово в повному обсязі до закінчення терміну",
		"monthly":   "щомісячно рівними частинами",
		"quarterly": "щоквартально рівними частинами",
	},
	"payment_method": {
		"cash":          "готівка",
		"bank_transfer": "банківський переказ",
		"card":          "картка",
	},
}

// BoolLabels is the text pair booleans render as.
type BoolLabels struct {
	True  string
	False string
}

// DefaultBoolLabels renders booleans in Ukrainian.
var DefaultBoolLabels = BoolLabels{True: "так", False: "ні"}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBoolLabels overrides the yes/no text used for booleans.
func WithBoolLabels(labels BoolLabels) Option {
	return func(r *Renderer) {
		r.boolLabels = labels
	}
}

// WithValueMapping registers (or replaces) the display table for key.
func WithValueMapping(key string, table map[string]string) Option {
	return func(r *Renderer) {
		key = strings.TrimSpace(key)
		if key == "" {
			return
		}
		cloned := make(map[string]string, len(table))
		for value, label := range table {
			cloned[value] = label
		}
		r.mappings[key] = cloned
	}
}

// WithoutValueMappings drops every mapping table, including the defaults.
func WithoutValueMappings() Option {
	return func(r *Renderer) {
		r.mappings = make(map[string]map[string]string)
	}
}

// Renderer substitutes form data into template text. It is immutable after
// construction and safe for concurrent use.
type Renderer struct {
	boolLabels BoolLabels
	mappings   map[string]map[string]string
}

// New constructs a Renderer with the default labels and mappings.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		boolLabels: DefaultBoolLabels,
		mappings:   make(map[string]map[string]string, len(DefaultValueMappings)),
	}
	for key, table := range DefaultValueMappings {
		WithValueMapping(key, table)(r)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var defaultRenderer = New()

// Render processes text with the default Renderer.
func Render(text string, data model.FormData) string {
	return defaultRenderer.Render(text, data)
}

// Render resolves directives in three fixed steps, each over the output of the
// previous one:
//
//  1. `{{key}}` placeholders for keys present in data are replaced. Unknown
//     placeholders are left untouched and substituted text is not rescanned.
//  2. `{{#if name}}yes{{else}}no{{/if}}` keeps the trimmed branch selected by
//     the truthiness of data[name]. A block ends at the first `{{/if}}`, so
//     if-blocks do not nest.
//  3. `{{#eq field 'value'}}body{{/eq}}` keeps body verbatim when the text
//     form of data[field] equals value.
func (r *Renderer) Render(text string, data model.FormData) string {
	text = r.substitute(text, data)
	text = renderIfBlocks(lex(text), data)
	return renderEqBlocks(lex(text), data)
}

// Display returns the text a value is substituted as for key.
func (r *Renderer) Display(key string, value model.Value) string {
	if b, ok := value.Boolean(); ok {
		if b {
			return r.boolLabels.True
		}
		return r.boolLabels.False
	}
	text := value.String()
	if table, ok := r.mappings[key]; ok {
		if label, ok := table[text]; ok {
			return label
		}
	}
	return text
}

func (r *Renderer) substitute(text string, data model.FormData) string {
	if len(data) == 0 || !strings.Contains(text, "{{") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for i < len(text) {
		idx := strings.Index(text[i:], "{{")
		if idx < 0 {
			break
		}
		b.WriteString(text[i : i+idx])
		i += idx

		end := strings.Index(text[i+2:], "}}")
		if end >= 0 {
			name := text[i+2 : i+2+end]
			if value, ok := data[name]; ok {
				b.WriteString(r.Display(name, value))
				i += 2 + end + 2
				continue
			}
		}
		b.WriteByte(text[i])
		i++
	}
	b.WriteString(text[i:])
	return b.String()
}

func renderIfBlocks(tokens []token, data model.FormData) string {
	var b strings.Builder
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenIfOpen {
			b.WriteString(tok.raw)
			continue
		}
		end := indexOf(tokens, i+1, tokenIfClose)
		if end < 0 {
			b.WriteString(tok.raw)
			continue
		}

		body := joinRaw(tokens[i+1 : end])
		yes, no, _ := strings.Cut(body, "{{else}}")
		cond, _ := data.Get(tok.name)
		if cond.Truthy() {
			b.WriteString(strings.TrimSpace(yes))
		} else {
			b.WriteString(strings.TrimSpace(no))
		}
		i = end
	}
	return b.String()
}

func renderEqBlocks(tokens []token, data model.FormData) string {
	var b strings.Builder
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.kind != tokenEqOpen {
			b.WriteString(tok.raw)
			continue
		}
		end := indexOf(tokens, i+1, tokenEqClose)
		if end < 0 {
			b.WriteString(tok.raw)
			continue
		}

		actual, _ := data.Get(tok.name)
		if actual.String() == tok.value {
			b.WriteString(joinRaw(tokens[i+1 : end]))
		}
		i = end
	}
	return b.String()
}

func indexOf(tokens []token, from int, kind tokenKind) int {
	for j := from; j < len(tokens); j++ {
		if tokens[j].kind == kind {
			return j
		}
	}
	return -1
}
