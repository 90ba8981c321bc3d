package app

import "yashubustudio/annotator/internal/annotation"

// ViewState is the immutable per-session selection: file, caption, filters,
// sort order and current page. Every operator action produces a new value
// through one of the With* transitions; nothing here is shared or mutated
// in place.
type ViewState struct {
	File    string
	Caption string
	Voters  []string
	Counts  []int
	Sort    annotation.SortOrder
	Page    int
}

// NewViewState returns the initial state: no file selected, page one.
func NewViewState() ViewState {
	return ViewState{Page: 1}
}

// WithFile selects an annotation file and resets caption, filters and page.
func (s ViewState) WithFile(path string) ViewState {
	return ViewState{File: path, Page: 1}
}

// WithCaption selects a caption, keeping the voter filter but resetting the
// vote-count filter and the page.
func (s ViewState) WithCaption(caption string) ViewState {
	next := s
	next.Caption = caption
	next.Counts = nil
	next.Page = 1
	return next
}

// WithVoters replaces the voter filter and resets the page.
func (s ViewState) WithVoters(voters []string) ViewState {
	next := s
	next.Voters = append([]string(nil), voters...)
	next.Page = 1
	return next
}

// WithCounts replaces the vote-count filter and resets the page.
func (s ViewState) WithCounts(counts []int) ViewState {
	next := s
	next.Counts = append([]int(nil), counts...)
	next.Page = 1
	return next
}

// WithSort replaces the sort order and resets the page.
func (s ViewState) WithSort(order annotation.SortOrder) ViewState {
	next := s
	next.Sort = order
	next.Page = 1
	return next
}

// NextPage advances one page, clamped to totalPages. No wraparound.
func (s ViewState) NextPage(totalPages int) ViewState {
	next := s
	if next.Page < totalPages {
		next.Page++
	}
	return next
}

// PrevPage steps back one page, clamped to page one.
func (s ViewState) PrevPage() ViewState {
	next := s
	if next.Page > 1 {
		next.Page--
	}
	return next
}

// PageView is the computed result of one filter/sort/paginate evaluation.
type PageView struct {
	Records       []*annotation.ImageRecord
	Page          int
	TotalPages    int
	TotalFiltered int
	StartIndex    int
	SortErr       error
}

// Empty reports the terminal "no results" state: the active filters matched
// nothing, so no pagination controls or cards are shown.
func (v PageView) Empty() bool {
	return v.TotalFiltered == 0
}

// BuildPage runs the fixed pipeline over the caption's records and slices
// out the state's page. A sort failure is carried in SortErr and leaves the
// records in their pre-sort order.
func BuildPage(records []*annotation.ImageRecord, state ViewState, pageSize int) PageView {
	filtered, sortErr := annotation.ApplyPipeline(records, state.Voters, state.Counts, state.Sort)
	view := PageView{
		TotalFiltered: len(filtered),
		TotalPages:    annotation.TotalPages(len(filtered), pageSize),
		SortErr:       sortErr,
	}
	page := state.Page
	if page < 1 {
		page = 1
	}
	if page > view.TotalPages {
		page = view.TotalPages
	}
	view.Page = page
	view.StartIndex = (page - 1) * pageSize
	view.Records = annotation.Paginate(filtered, pageSize, page)
	return view
}
