package rest

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the comparison domain of a declared field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Field declares one filterable and sortable field of T.
type Field[T any] struct {
	// Name is the field name used in query parameters and JSON.
	Name string
	// Column is the storage column.
	Column string
	Kind   Kind
	// Get returns the field value as int, float64, string or time.Time.
	Get func(*T) any
	// Unique marks a field no two rows may share. The identifier is always
	// unique and does not need the flag.
	Unique bool
}

// Resource describes an entity type exposed through the generic engine.
// One implementation exists per entity type.
type Resource[T any] interface {
	// Name is the Go-style type name, e.g. "InventoryItem".
	Name() string
	// Fields lists the declared fields. The first one is the identifier.
	Fields() []Field[T]
	// DefaultOrderBy is used when a list request has no orderBy parameter.
	DefaultOrderBy() string
	// Filters builds the predicates of a list request.
	Filters(p *Params) ([]Predicate, error)
	// Validate is the pre-persist hook run by Create.
	Validate(entity *T) error
	ID(entity *T) string
	SetID(entity *T, id string)
}

// fieldSet indexes the declared fields of a resource by name.
type fieldSet[T any] map[string]Field[T]

func newFieldSet[T any](res Resource[T]) (fieldSet[T], error) {
	fields := res.Fields()
	if len(fields) == 0 {
		return nil, &ConfigurationError{Resource: res.Name(), Message: "no fields declared"}
	}
	set := make(fieldSet[T], len(fields))
	for _, f := range fields {
		if f.Name == "" || f.Column == "" || f.Get == nil {
			return nil, &ConfigurationError{Resource: res.Name(), Message: fmt.Sprintf("incomplete declaration of field %q", f.Name)}
		}
		if _, dup := set[f.Name]; dup {
			return nil, &ConfigurationError{Resource: res.Name(), Message: fmt.Sprintf("field %q declared twice", f.Name)}
		}
		set[f.Name] = f
	}
	return set, nil
}

func (s fieldSet[T]) checkOrder(resource string, order []OrderParam) error {
	for _, o := range order {
		if _, ok := s[o.Field]; !ok {
			return &ConfigurationError{Resource: resource, Message: fmt.Sprintf("unknown sort field %q", o.Field)}
		}
	}
	return nil
}

func (s fieldSet[T]) checkPredicates(resource string, preds []Predicate) error {
	for _, p := range preds {
		if _, ok := s[p.Field]; !ok {
			return &ConfigurationError{Resource: resource, Message: fmt.Sprintf("filter on unknown field %q", p.Field)}
		}
	}
	return nil
}

// Humanize turns a type name into space separated words with only the
// first word capitalised: "InventoryItem" becomes "Inventory item".
func Humanize(typeName string) string {
	runes := []rune(typeName)
	var words []string
	start := 0
	for i := 1; i < len(runes); i++ {
		lowerToUpper := unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i])
		acronymEnd := unicode.IsUpper(runes[i-1]) && unicode.IsUpper(runes[i]) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1])
		if lowerToUpper || acronymEnd {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	for i := 1; i < len(words); i++ {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, " ")
}
