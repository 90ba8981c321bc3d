package annotation

import "sort"

// SortOrder selects the optional score sort applied after filtering.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterByVoters keeps records whose vote list intersects the selected
// voter names (OR semantics). An empty selection is the identity.
func FilterByVoters(records []*ImageRecord, voters []string) []*ImageRecord {
	if len(voters) == 0 {
		return records
	}
	selected := make(map[string]struct{}, len(voters))
	for _, v := range voters {
		selected[v] = struct{}{}
	}
	out := make([]*ImageRecord, 0, len(records))
	for _, rec := range records {
		for _, v := range rec.Votes {
			if _, ok := selected[v]; ok {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// FilterByVoteCount keeps records whose vote count is a member of the
// selected counts. An empty selection is the identity.
func FilterByVoteCount(records []*ImageRecord, counts []int) []*ImageRecord {
	if len(counts) == 0 {
		return records
	}
	selected := make(map[int]struct{}, len(counts))
	for _, n := range counts {
		selected[n] = struct{}{}
	}
	out := make([]*ImageRecord, 0, len(records))
	for _, rec := range records {
		if _, ok := selected[rec.VoteCount()]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// SortByScore stable-sorts a copy of records by numeric score. A record with
// a non-numeric score aborts the sort: the input order is returned together
// with the SortValueError so callers can report it without losing the page.
func SortByScore(records []*ImageRecord, order SortOrder) ([]*ImageRecord, error) {
	if order == SortNone || len(records) < 2 {
		return records, nil
	}
	scores := make([]float64, len(records))
	for i, rec := range records {
		v, err := rec.ScoreValue()
		if err != nil {
			return records, err
		}
		scores[i] = v
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		if order == SortDesc {
			return scores[idx[i]] > scores[idx[j]]
		}
		return scores[idx[i]] < scores[idx[j]]
	})
	out := make([]*ImageRecord, len(records))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out, nil
}

// ApplyPipeline runs the fixed composition voter filter, vote-count filter,
// score sort. The returned error is the non-fatal sort failure, if any.
func ApplyPipeline(records []*ImageRecord, voters []string, counts []int, order SortOrder) ([]*ImageRecord, error) {
	filtered := FilterByVoters(records, voters)
	filtered = FilterByVoteCount(filtered, counts)
	return SortByScore(filtered, order)
}
