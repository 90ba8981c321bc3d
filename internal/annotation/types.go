package annotation

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Label is the operator-assigned verdict for a single image.
type Label string

const (
	// LabelTrue marks the image as matching its caption.
	LabelTrue Label = "True"
	// LabelFalse marks the image as not matching its caption.
	LabelFalse Label = "False"
	// LabelAmbiguous marks the image as undecidable.
	LabelAmbiguous Label = "Ambiguous"
)

// LabelOptions returns the selectable labels in presentation order.
func LabelOptions() []string {
	return []string{string(LabelTrue), string(LabelFalse), string(LabelAmbiguous)}
}

// Valid reports whether the label is one of the known options.
func (l Label) Valid() bool {
	switch l {
	case LabelTrue, LabelFalse, LabelAmbiguous:
		return true
	}
	return false
}

// ImageRecord is one candidate image under a caption. ImgPath acts as the
// record's identity within the caption's list; uniqueness is not enforced
// by the format (see Validate). Score is kept as the raw JSON value so a
// malformed score survives load/save untouched and only fails at sort time.
type ImageRecord struct {
	ImgPath    string          `json:"img_path"`
	Votes      []string        `json:"votes,omitempty"`
	Score      json.RawMessage `json:"score,omitempty"`
	Annotation *Label          `json:"human_annotation"`
}

// VoteCount returns the number of recorded voter names.
func (r *ImageRecord) VoteCount() int {
	return len(r.Votes)
}

// ScoreValue parses the record's score, defaulting to 0 when absent.
func (r *ImageRecord) ScoreValue() (float64, error) {
	raw := strings.TrimSpace(string(r.Score))
	if raw == "" || raw == "null" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &SortValueError{ImgPath: r.ImgPath, Raw: raw}
	}
	return v, nil
}

// Document maps a caption to its ordered list of candidate images.
// Records are held by pointer so edits reach the canonical document.
type Document map[string][]*ImageRecord

// Captions returns the caption keys in sorted order.
func (d Document) Captions() []string {
	out := make([]string, 0, len(d))
	for caption := range d {
		out = append(out, caption)
	}
	sort.Strings(out)
	return out
}

// Voters returns the sorted unique voter names across the whole document.
func Voters(doc Document) []string {
	seen := make(map[string]struct{})
	for _, records := range doc {
		for _, rec := range records {
			for _, v := range rec.Votes {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// VoteCounts returns the sorted unique vote counts over records that carry
// at least one vote. Records without votes do not contribute a zero option.
func VoteCounts(records []*ImageRecord) []int {
	seen := make(map[int]struct{})
	for _, rec := range records {
		if n := rec.VoteCount(); n > 0 {
			seen[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
