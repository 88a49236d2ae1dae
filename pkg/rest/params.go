package rest

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of date query parameters and date fields.
const DateLayout = "2006-01-02"

// Params is a read-only view over the query parameters of one request.
// It is built per request and passed explicitly to filter and sort builders.
type Params struct {
	values url.Values
}

// NewParams wraps the given query values. A nil map is treated as empty.
func NewParams(values url.Values) *Params {
	if values == nil {
		values = url.Values{}
	}
	return &Params{values: values}
}

// Get returns the first value of key and whether the key was sent at all.
func (p *Params) Get(key string) (string, bool) {
	vs, ok := p.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Present reports whether key exists and carries a non-blank value.
func (p *Params) Present(key string) bool {
	v, ok := p.Get(key)
	return ok && strings.TrimSpace(v) != ""
}

// Int parses the value of key as a base-10 int.
func (p *Params) Int(key string) (int, error) {
	v, _ := p.Get(key)
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &MalformedParameterError{Key: key, Value: v, Kind: "integer", Err: err}
	}
	return n, nil
}

// Int64 parses the value of key as a base-10 int64.
func (p *Params) Int64(key string) (int64, error) {
	v, _ := p.Get(key)
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, &MalformedParameterError{Key: key, Value: v, Kind: "long", Err: err}
	}
	return n, nil
}

// Float parses the value of key as a float64.
func (p *Params) Float(key string) (float64, error) {
	v, _ := p.Get(key)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, &MalformedParameterError{Key: key, Value: v, Kind: "double", Err: err}
	}
	return f, nil
}

// Bool parses the value of key with strconv.ParseBool.
func (p *Params) Bool(key string) (bool, error) {
	v, _ := p.Get(key)
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, &MalformedParameterError{Key: key, Value: v, Kind: "boolean", Err: err}
	}
	return b, nil
}

// Date parses the value of key as a calendar date (YYYY-MM-DD, UTC midnight).
func (p *Params) Date(key string) (time.Time, error) {
	v, _ := p.Get(key)
	t, err := time.Parse(DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, &MalformedParameterError{Key: key, Value: v, Kind: "date", Err: err}
	}
	return t, nil
}

// Lower returns the value of key lower-cased.
func (p *Params) Lower(key string) string {
	v, _ := p.Get(key)
	return strings.ToLower(v)
}

// Like wraps the value of key for substring matching: %value%.
func (p *Params) Like(key string) string {
	v, _ := p.Get(key)
	return "%" + v + "%"
}

// LikeLeft wraps the value of key for suffix matching: %value.
func (p *Params) LikeLeft(key string) string {
	v, _ := p.Get(key)
	return "%" + v
}

// LikeRight wraps the value of key for prefix matching: value%.
func (p *Params) LikeRight(key string) string {
	v, _ := p.Get(key)
	return v + "%"
}

// LikeFold is Like over the lower-cased value.
func (p *Params) LikeFold(key string) string {
	return "%" + p.Lower(key) + "%"
}

// List splits the value of key on commas, keeping empty elements.
func (p *Params) List(key string) []string {
	v, _ := p.Get(key)
	return strings.Split(v, ",")
}
