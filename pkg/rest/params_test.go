package rest

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsOf(t *testing.T, query string) *Params {
	t.Helper()
	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	return NewParams(values)
}

func TestParamsPresence(t *testing.T) {
	p := paramsOf(t, "name=eggs&blank=%20%20&empty=")

	v, ok := p.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "eggs", v)
	assert.True(t, p.Present("name"))

	_, ok = p.Get("blank")
	assert.True(t, ok, "blank values are sent")
	assert.False(t, p.Present("blank"))
	assert.False(t, p.Present("empty"))
	assert.False(t, p.Present("missing"))

	assert.False(t, NewParams(nil).Present("anything"))
}

func TestParamsCoercion(t *testing.T) {
	p := paramsOf(t, "n=%2042%20&big=9000000000&f=2.5&b=true&d=2024-02-29&bad=x")

	n, err := p.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	big, err := p.Int64("big")
	require.NoError(t, err)
	assert.Equal(t, int64(9000000000), big)

	f, err := p.Float("f")
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	b, err := p.Bool("b")
	require.NoError(t, err)
	assert.True(t, b)

	d, err := p.Date("d")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	for name, parse := range map[string]func(string) error{
		"integer": func(k string) error { _, err := p.Int(k); return err },
		"long":    func(k string) error { _, err := p.Int64(k); return err },
		"double":  func(k string) error { _, err := p.Float(k); return err },
		"boolean": func(k string) error { _, err := p.Bool(k); return err },
		"date":    func(k string) error { _, err := p.Date(k); return err },
	} {
		var malformed *MalformedParameterError
		require.ErrorAs(t, parse("bad"), &malformed, name)
		assert.Equal(t, "bad", malformed.Key)
		assert.Equal(t, "x", malformed.Value)
		assert.Equal(t, name, malformed.Kind)
	}
}

func TestParamsLike(t *testing.T) {
	p := paramsOf(t, "q=Egg&list=a,,b")

	assert.Equal(t, "%Egg%", p.Like("q"))
	assert.Equal(t, "%Egg", p.LikeLeft("q"))
	assert.Equal(t, "Egg%", p.LikeRight("q"))
	assert.Equal(t, "%egg%", p.LikeFold("q"))
	assert.Equal(t, "egg", p.Lower("q"))
	assert.Equal(t, []string{"a", "", "b"}, p.List("list"))
}
