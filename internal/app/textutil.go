package app

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// foldKey normalizes a caption for matching: NFKC, collapsed whitespace,
// lower case. Width variants and stray spacing in caption keys should not
// defeat the search box.
func foldKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// filterCaptions keeps the captions whose folded form contains the folded
// query. An empty query returns the input unchanged.
func filterCaptions(captions []string, query string) []string {
	q := foldKey(query)
	if q == "" {
		return captions
	}
	out := make([]string, 0, len(captions))
	for _, caption := range captions {
		if strings.Contains(foldKey(caption), q) {
			out = append(out, caption)
		}
	}
	return out
}
