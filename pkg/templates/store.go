package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-contractgen/pkg/model"
	"github.com/goliatone/go-contractgen/pkg/validation"
)

// ErrTemplateNotFound matches lookups for unknown contract types.
var ErrTemplateNotFound = errors.New("templates: template not found")

// NotFoundError names the contract type that could not be resolved.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("templates: contract template %q not found", e.ID)
}

// Kind classifies the failure for callers using validation.KindOf.
func (e *NotFoundError) Kind() validation.Kind {
	return validation.KindTemplateNotFound
}

// Is lets errors.Is(err, ErrTemplateNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// Summary is the listing entry for a template.
type Summary struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Store is the template table keyed by contract type. It is built once and
// never modified afterwards, so concurrent readers need no locking. Returned
// templates share memory with the store and must be treated as read-only.
type Store struct {
	templates map[string]model.ContractTemplate
	ids       []string
}

// NewStore checks every template and indexes it by id. Duplicate ids and
// templates failing Check are rejected.
func NewStore(tpls ...model.ContractTemplate) (*Store, error) {
	store := &Store{templates: make(map[string]model.ContractTemplate, len(tpls))}
	for _, tpl := range tpls {
		if err := store.add(tpl); err != nil {
			return nil, err
		}
	}
	store.seal()
	return store, nil
}

// MustNewStore panics when NewStore fails. Useful for init-time wiring and
// tests.
func MustNewStore(tpls ...model.ContractTemplate) *Store {
	store, err := NewStore(tpls...)
	if err != nil {
		panic(err)
	}
	return store
}

func (s *Store) add(tpl model.ContractTemplate) error {
	if err := Check(tpl); err != nil {
		return err
	}
	if _, exists := s.templates[tpl.ID]; exists {
		return fmt.Errorf("templates: duplicate template id %q", tpl.ID)
	}
	s.templates[tpl.ID] = tpl
	return nil
}

func (s *Store) seal() {
	s.ids = make([]string, 0, len(s.templates))
	for id := range s.templates {
		s.ids = append(s.ids, id)
	}
	sort.Strings(s.ids)
}

// Lookup returns the template registered under id.
func (s *Store) Lookup(id string) (model.ContractTemplate, bool) {
	if s == nil {
		return model.ContractTemplate{}, false
	}
	tpl, ok := s.templates[strings.TrimSpace(id)]
	return tpl, ok
}

// Get is Lookup returning a *NotFoundError for unknown ids.
func (s *Store) Get(id string) (model.ContractTemplate, error) {
	tpl, ok := s.Lookup(id)
	if !ok {
		return model.ContractTemplate{}, &NotFoundError{ID: id}
	}
	return tpl, nil
}

// IDs returns the registered ids in sorted order.
func (s *Store) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.ids...)
}

// All returns every template sorted by id.
func (s *Store) All() []model.ContractTemplate {
	if s == nil {
		return nil
	}
	out := make([]model.ContractTemplate, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.templates[id])
	}
	return out
}

// Summaries lists id, title and description for every template.
func (s *Store) Summaries() []Summary {
	tpls := s.All()
	out := make([]Summary, 0, len(tpls))
	for _, tpl := range tpls {
		out = append(out, Summary{ID: tpl.ID, Title: tpl.Title, Description: tpl.Description})
	}
	return out
}

// Len returns the number of templates.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.templates)
}

// Empty reports whether the store holds no templates.
func (s *Store) Empty() bool {
	return s.Len() == 0
}
