package templates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
	"github.com/goliatone/go-contractgen/pkg/visibility/expr"
)

var errTemplateIDMissing = errors.New("templates: template id is required")

// Check rejects templates the engine cannot serve: a missing id, empty or
// duplicate field ids, patterns that do not compile and visibleWhen rules that
// do not parse.
func Check(tpl model.ContractTemplate) error {
	if strings.TrimSpace(tpl.ID) == "" {
		return errTemplateIDMissing
	}

	seen := make(map[string]struct{}, len(tpl.Fields))
	for idx, field := range tpl.Fields {
		if strings.TrimSpace(field.ID) == "" {
			return fmt.Errorf("templates: template %q field %d has an empty id", tpl.ID, idx)
		}
		if _, exists := seen[field.ID]; exists {
			return fmt.Errorf("templates: template %q defines duplicate field id %q", tpl.ID, field.ID)
		}
		seen[field.ID] = struct{}{}

		if field.Validation.Pattern != "" {
			if _, err := validation.CompilePattern(field.Validation.Pattern); err != nil {
				return fmt.Errorf("templates: template %q field %q: %w", tpl.ID, field.ID, err)
			}
		}
		if err := expr.Check(field.VisibleWhen); err != nil {
			return fmt.Errorf("templates: template %q field %q: %w", tpl.ID, field.ID, err)
		}
	}
	return nil
}

// Lint reports suspicious but loadable definitions. Conditionals pointing at
// unknown fields are allowed (the field then stays applicable) but usually
// mean a typo.
func Lint(tpl model.ContractTemplate) []string {
	var warnings []string
	ids := make(map[string]struct{}, len(tpl.Fields))
	for _, field := range tpl.Fields {
		ids[field.ID] = struct{}{}
	}

	for _, field := range tpl.Fields {
		if cond := field.Conditional; cond != nil {
			switch {
			case cond.Field == "":
				warnings = append(warnings, fmt.Sprintf("field %q: conditional has no controlling field", field.ID))
			case cond.Field == field.ID:
				warnings = append(warnings, fmt.Sprintf("field %q: conditional depends on itself", field.ID))
			default:
				if _, ok := ids[cond.Field]; !ok {
					warnings = append(warnings, fmt.Sprintf("field %q: conditional references unknown field %q", field.ID, cond.Field))
				}
			}
		}
		if field.Type == model.FieldTypeSelect && len(field.Options) == 0 {
			warnings = append(warnings, fmt.Sprintf("field %q: select field has no options", field.ID))
		}
		if field.Validation.FutureDate && field.Type != model.FieldTypeDate {
			warnings = append(warnings, fmt.Sprintf("field %q: future_date only applies to date fields", field.ID))
		}
	}

	if len(tpl.Body.Sections) == 0 {
		warnings = append(warnings, "template body has no sections")
	}
	return warnings
}
