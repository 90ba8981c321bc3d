package annotation

import (
	"errors"
	"sort"
)

// ApplyEdits merges operator label choices, keyed by img_path, into the
// canonical list for caption. Each path is located by linear scan and the
// first match wins; a record is counted as changed only when its stored
// annotation actually differs. Paths that cannot be located produce
// ConsistencyError values, joined into the returned error while the
// remaining edits still merge. Empty-path keys are skipped.
func ApplyEdits(doc Document, caption string, edits map[string]Label) (int, error) {
	if len(edits) == 0 {
		return 0, nil
	}
	records := doc[caption]

	paths := make([]string, 0, len(edits))
	for path := range edits {
		if path == "" {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	changed := 0
	var errs []error
	for _, path := range paths {
		label := edits[path]
		found := false
		for _, rec := range records {
			if rec.ImgPath != path {
				continue
			}
			found = true
			if rec.Annotation == nil || *rec.Annotation != label {
				l := label
				rec.Annotation = &l
				changed++
			}
			break
		}
		if !found {
			errs = append(errs, &ConsistencyError{Caption: caption, ImgPath: path})
		}
	}
	return changed, errors.Join(errs...)
}
