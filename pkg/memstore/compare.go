package memstore

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Kelvi11/smart-warehouse/pkg/rest"
)

// compile turns one predicate over field f into a row test. A row whose
// field has no value (a zero date) never matches, like NULL in SQL.
func compile[T any](f rest.Field[T], p rest.Predicate) (func(*T) bool, error) {
	if p.Op == rest.OpLike {
		pattern, ok := p.Value.(string)
		if !ok {
			return nil, fmt.Errorf("memstore: like on %q needs a string, got %T", p.Field, p.Value)
		}
		re, err := likeRegexp(pattern)
		if err != nil {
			return nil, err
		}
		return func(row *T) bool {
			s := fmt.Sprint(f.Get(row))
			if p.Fold {
				s = strings.ToLower(s)
			}
			return re.MatchString(s)
		}, nil
	}

	var accept func(c int) bool
	switch p.Op {
	case rest.OpEq:
		accept = func(c int) bool { return c == 0 }
	case rest.OpGt, rest.OpFrom:
		accept = func(c int) bool { return c > 0 }
	case rest.OpGe:
		accept = func(c int) bool { return c >= 0 }
	case rest.OpLt, rest.OpTo:
		accept = func(c int) bool { return c < 0 }
	case rest.OpLe:
		accept = func(c int) bool { return c <= 0 }
	default:
		return nil, fmt.Errorf("memstore: unsupported operator %q", p.Op)
	}

	return func(row *T) bool {
		v := f.Get(row)
		if isNull(f.Kind, v) {
			return false
		}
		return accept(compareValues(f.Kind, v, p.Value))
	}, nil
}

// likeRegexp translates a SQL LIKE pattern into an anchored regexp.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func isNull(kind rest.Kind, v any) bool {
	if v == nil {
		return true
	}
	if kind == rest.KindDate {
		t, ok := asTime(v)
		return !ok || t.IsZero()
	}
	return false
}

// compareValues orders a and b by the field kind. Missing dates sort after
// every present one, as NULLs do in an ascending SQL sort.
func compareValues(kind rest.Kind, a, b any) int {
	switch kind {
	case rest.KindInt, rest.KindFloat:
		return cmp.Compare(asFloat(a), asFloat(b))
	case rest.KindDate:
		ta, _ := asTime(a)
		tb, _ := asTime(b)
		switch {
		case ta.IsZero() && tb.IsZero():
			return 0
		case ta.IsZero():
			return 1
		case tb.IsZero():
			return -1
		}
		return ta.Compare(tb)
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case rest.Date:
		return t.Time, true
	default:
		return time.Time{}, false
	}
}
