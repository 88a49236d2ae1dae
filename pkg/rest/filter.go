package rest

import (
	"slices"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	OpEq   Op = "eq"
	OpGt   Op = "gt"
	OpGe   Op = "ge"
	OpLt   Op = "lt"
	OpLe   Op = "le"
	OpLike Op = "like"
	// OpFrom and OpTo are the strict bounds of a date range.
	OpFrom Op = "from"
	OpTo   Op = "to"
)

// Query parameter prefixes understood by FilterBuilder, e.g. ?ge.quantity=10
const (
	PrefixEq   = "eq."
	PrefixGt   = "gt."
	PrefixGe   = "ge."
	PrefixLt   = "lt."
	PrefixLe   = "le."
	PrefixFrom = "from."
	PrefixTo   = "to."
	PrefixLike = "like."
	PrefixObj  = "obj."
)

// Predicate is a single condition over one declared field. A request's
// predicates are combined with AND.
type Predicate struct {
	Field string
	Op    Op
	// Value is an int, float64, string or time.Time depending on the field kind.
	Value any
	// Fold marks a case-insensitive LIKE; Value is already lower-cased.
	Fold bool
}

// FilterBuilder collects predicates from request parameters. The first
// coercion error is kept and every later call becomes a no-op, so a
// resource can declare its filters without checking errors in between.
type FilterBuilder struct {
	params *Params
	preds  []Predicate
	err    error
}

// NewFilterBuilder returns a builder reading from p.
func NewFilterBuilder(p *Params) *FilterBuilder {
	return &FilterBuilder{params: p}
}

func (b *FilterBuilder) add(field string, op Op, value any) {
	b.preds = append(b.preds, Predicate{Field: field, Op: op, Value: value})
}

// numeric handles the eq/gt/ge/lt/le family for one field.
func numeric[V int | float64](b *FilterBuilder, field string, parse func(string) (V, error)) *FilterBuilder {
	if b.err != nil {
		return b
	}
	for _, pf := range []struct {
		prefix string
		op     Op
	}{
		{PrefixEq, OpEq},
		{PrefixGt, OpGt},
		{PrefixGe, OpGe},
		{PrefixLt, OpLt},
		{PrefixLe, OpLe},
	} {
		key := pf.prefix + field
		if !b.params.Present(key) {
			continue
		}
		v, err := parse(key)
		if err != nil {
			b.err = err
			return b
		}
		b.add(field, pf.op, v)
	}
	return b
}

// Int adds eq/gt/ge/lt/le predicates for an integer field.
func (b *FilterBuilder) Int(field string) *FilterBuilder {
	return numeric(b, field, b.params.Int)
}

// Float adds eq/gt/ge/lt/le predicates for a floating point field.
func (b *FilterBuilder) Float(field string) *FilterBuilder {
	return numeric(b, field, b.params.Float)
}

// Date adds from/to/eq predicates for a date field. from and to are
// exclusive: a record dated exactly on the bound does not match.
func (b *FilterBuilder) Date(field string) *FilterBuilder {
	if b.err != nil {
		return b
	}
	for _, pf := range []struct {
		prefix string
		op     Op
	}{
		{PrefixFrom, OpFrom},
		{PrefixTo, OpTo},
		{PrefixEq, OpEq},
	} {
		key := pf.prefix + field
		if !b.params.Present(key) {
			continue
		}
		d, err := b.params.Date(key)
		if err != nil {
			b.err = err
			return b
		}
		b.add(field, pf.op, d)
	}
	return b
}

func (b *FilterBuilder) like(field string, pattern func(string) string, fold bool) *FilterBuilder {
	key := PrefixLike + field
	if b.err != nil || !b.params.Present(key) {
		return b
	}
	b.preds = append(b.preds, Predicate{Field: field, Op: OpLike, Value: pattern(key), Fold: fold})
	return b
}

// Like adds a substring match on like.<field>.
func (b *FilterBuilder) Like(field string) *FilterBuilder {
	return b.like(field, b.params.Like, false)
}

// LikeLeft adds a suffix match on like.<field>.
func (b *FilterBuilder) LikeLeft(field string) *FilterBuilder {
	return b.like(field, b.params.LikeLeft, false)
}

// LikeRight adds a prefix match on like.<field>.
func (b *FilterBuilder) LikeRight(field string) *FilterBuilder {
	return b.like(field, b.params.LikeRight, false)
}

// ILike adds a case-insensitive substring match on like.<field>.
func (b *FilterBuilder) ILike(field string) *FilterBuilder {
	return b.like(field, b.params.LikeFold, true)
}

// Equal adds an exact string match on obj.<field>, used for identifiers.
func (b *FilterBuilder) Equal(field string) *FilterBuilder {
	key := PrefixObj + field
	if b.err != nil || !b.params.Present(key) {
		return b
	}
	v, _ := b.params.Get(key)
	b.add(field, OpEq, strings.TrimSpace(v))
	return b
}

// Enum adds an exact match on obj.<field> after checking the value is one
// of allowed. A value outside allowed is the caller's mistake and fails
// with a *MalformedParameterError (400), not a ConfigurationError.
func (b *FilterBuilder) Enum(field string, allowed ...string) *FilterBuilder {
	key := PrefixObj + field
	if b.err != nil || !b.params.Present(key) {
		return b
	}
	v, _ := b.params.Get(key)
	v = strings.TrimSpace(v)
	if !slices.Contains(allowed, v) {
		b.err = &MalformedParameterError{Key: key, Value: v, Kind: "enum"}
		return b
	}
	b.add(field, OpEq, v)
	return b
}

// Predicates returns the collected predicates, or the first error met.
func (b *FilterBuilder) Predicates() ([]Predicate, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.preds, nil
}
