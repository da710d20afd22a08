package report

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

var (
	ErrUnknownReport = errors.New("report: unknown report type")
	ErrInvalidParams = errors.New("report: invalid params")
)

// Params is the parameter bag of a job, as submitted by a user or a schedule.
type Params map[string]string

// ReferenceDateParam carries the date a scheduled run is computed for.
const ReferenceDateParam = "reference_date"

// Field describes one form field a report type accepts.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"` // string, int, date
	Required bool   `json:"required"`
}

// Type is a registered report type: a key, a display name, its form fields
// and a factory building a runnable Report from params.
type Type struct {
	Key    string
	Name   string
	Fields []Field
	New    func(Params) (*Report, error)
}

// Validate checks params against the type's fields.
func (t Type) Validate(params Params) error {
	for _, f := range t.Fields {
		v, ok := params[f.Name]
		if !ok || v == "" {
			if f.Required {
				return fmt.Errorf("%w: %s is required", ErrInvalidParams, f.Name)
			}
			continue
		}
		switch f.Type {
		case "int":
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidParams, f.Name, v)
			}
		case "date":
			if !IsDateExpr(v) {
				return fmt.Errorf("%w: %s: %q is not a date", ErrInvalidParams, f.Name, v)
			}
		}
	}
	return nil
}

// Registry maps report keys to their types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{types: map[string]Type{}}
}

func (r *Registry) Register(t Type) error {
	if t.Key == "" || t.New == nil {
		return fmt.Errorf("report: type needs a key and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[t.Key]; exists {
		return fmt.Errorf("report: %s already registered", t.Key)
	}
	if t.Name == "" {
		t.Name = t.Key
	}
	r.types[t.Key] = t
	return nil
}

// MustRegister is Register for init-time registration.
func (r *Registry) MustRegister(t Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(key string) (Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[key]
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrUnknownReport, key)
	}
	return t, nil
}

// Build resolves key and constructs the report for params.
func (r *Registry) Build(key string, params Params) (*Report, error) {
	t, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(params); err != nil {
		return nil, err
	}
	return t.New(params)
}

// Available lists the registered types sorted by key.
func (r *Registry) Available() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
