package rest

import (
	"net/http"
	"strconv"
	"strings"
)

// Response headers of list requests. They are written in this exact
// casing, bypassing http.Header canonicalization, so lookups on a
// recorded response must index the map rather than call Get.
const (
	HeaderStartRow = "startRow"
	HeaderPageSize = "pageSize"
	HeaderListSize = "listSize"
)

// Prefer holds preferences from the Prefer header (RFC 7240).
type Prefer struct {
	Return string // "minimal", "representation", "headers-only"
}

// parsePrefer parses the Prefer header. It returns nil if the header is not
// present. Without an explicit return preference mutations respond with
// the representation.
func parsePrefer(r *http.Request) *Prefer {
	header := r.Header.Get("Prefer")
	if header == "" {
		return nil
	}

	p := &Prefer{Return: "representation"}
	parseKeyValPairs(header, func(key, value string) {
		if key == "return" && isValidReturn(value) {
			p.Return = strings.ToLower(value)
		}
	})
	return p
}

// parseKeyValPairs parses comma-separated preference directives.
// For each key=value pair found, it calls fn with the key and value.
func parseKeyValPairs(header string, fn func(key, value string)) {
	for pref := range strings.SplitSeq(header, ",") {
		pref = strings.TrimSpace(pref)
		if key, value, found := strings.Cut(pref, "="); found {
			key = strings.TrimSpace(strings.ToLower(key))
			value = strings.Trim(strings.TrimSpace(value), `"`)
			fn(key, value)
		}
	}
}

func isValidReturn(s string) bool {
	switch strings.ToLower(s) {
	case "minimal", "representation", "headers-only":
		return true
	}
	return false
}

// WantsBody reports whether a mutation response should carry the entity.
func (p *Prefer) WantsBody() bool {
	return p == nil || p.Return == "representation"
}

// setPageHeaders echoes the resolved window and total count of a page.
func setPageHeaders[T any](w http.ResponseWriter, page *Page[T]) {
	h := w.Header()
	h[HeaderStartRow] = []string{strconv.Itoa(page.StartRow)}
	h[HeaderPageSize] = []string{strconv.Itoa(page.PageSize)}
	h[HeaderListSize] = []string{strconv.FormatInt(page.ListSize, 10)}
}
