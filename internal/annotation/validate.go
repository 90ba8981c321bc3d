package annotation

import "fmt"

// Issue is a single data-quality finding in a document.
type Issue struct {
	Caption string
	ImgPath string
	Detail  string
}

func (i Issue) String() string {
	if i.ImgPath == "" {
		return fmt.Sprintf("[%s] %s", i.Caption, i.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Caption, i.ImgPath, i.Detail)
}

// DuplicatePaths returns the img_path values that occur more than once in
// the list. Duplicates make the path-keyed merge ambiguous (only the first
// occurrence is ever updated), so they are surfaced rather than resolved.
func DuplicatePaths(records []*ImageRecord) []string {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.ImgPath == "" {
			continue
		}
		if counts[rec.ImgPath] == 0 {
			order = append(order, rec.ImgPath)
		}
		counts[rec.ImgPath]++
	}
	var out []string
	for _, path := range order {
		if counts[path] > 1 {
			out = append(out, path)
		}
	}
	return out
}

// Validate walks the document and reports every data-quality problem that
// would make review or merging unreliable: missing identity paths,
// duplicate paths within a caption, non-numeric scores and unknown
// annotation values.
func Validate(doc Document) []Issue {
	var issues []Issue
	for _, caption := range doc.Captions() {
		records := doc[caption]
		for _, path := range DuplicatePaths(records) {
			issues = append(issues, Issue{Caption: caption, ImgPath: path, Detail: "duplicate img_path; only the first occurrence receives edits"})
		}
		for i, rec := range records {
			if rec.ImgPath == "" {
				issues = append(issues, Issue{Caption: caption, Detail: fmt.Sprintf("record %d has no img_path and cannot receive edits", i)})
			}
			if _, err := rec.ScoreValue(); err != nil {
				issues = append(issues, Issue{Caption: caption, ImgPath: rec.ImgPath, Detail: "non-numeric score; score sorting will fall back to file order"})
			}
			if rec.Annotation != nil && !rec.Annotation.Valid() {
				issues = append(issues, Issue{Caption: caption, ImgPath: rec.ImgPath, Detail: fmt.Sprintf("unknown human_annotation %q", *rec.Annotation)})
			}
		}
	}
	return issues
}
