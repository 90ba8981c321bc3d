package app

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"yashubustudio/annotator/internal/annotation"
	"yashubustudio/annotator/internal/imageio"
)

// Service holds the single review session: the loaded document, the current
// view state and the label choices pending on the displayed page. One
// operator, one mutator; the RWMutex only guards against UI callbacks and
// the directory watcher arriving on different goroutines.
type Service struct {
	mu      sync.RWMutex
	cfg     Config
	store   *annotation.Store
	loader  *imageio.Loader
	log     *zap.SugaredLogger
	state   ViewState
	doc     annotation.Document
	pending map[string]annotation.Label
}

func NewService(cfg Config, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg = sanitizeConfig(cfg)
	return &Service{
		cfg:     cfg,
		store:   annotation.NewStore(logger),
		loader:  imageio.NewLoader(time.Duration(cfg.CacheTTLSec) * time.Second),
		log:     logger,
		state:   NewViewState(),
		pending: make(map[string]annotation.Label),
	}
}

func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Loader exposes the image collaborator to the presentation layer.
func (s *Service) Loader() *imageio.Loader { return s.loader }

func (s *Service) State() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// HasDocument reports whether a file is loaded; without one the annotation
// area stays blocked.
func (s *Service) HasDocument() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// AvailableFiles lists the selectable annotation files. A missing
// annotations directory is a warning, not an error.
func (s *Service) AvailableFiles() []string {
	s.mu.RLock()
	dir, ext := s.cfg.AnnotationsDir, s.cfg.FileExt
	s.mu.RUnlock()
	files, err := annotation.ListFiles(dir, ext)
	if err != nil {
		s.log.Warnw("list annotation files", "dir", dir, "error", err)
		return nil
	}
	if files == nil {
		if _, statErr := os.Stat(dir); statErr != nil {
			s.log.Warnw("annotations directory not found", "dir", dir)
		}
	}
	return files
}

// SelectFile loads the given annotation file and resets the session state.
// An empty path clears the session. Pending page choices are discarded
// either way; they only become durable through Save.
func (s *Service) SelectFile(path string) error {
	if path == "" {
		s.mu.Lock()
		s.doc = nil
		s.state = NewViewState()
		s.pending = make(map[string]annotation.Label)
		s.mu.Unlock()
		return nil
	}
	doc, err := s.store.Load(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.state = NewViewState().WithFile(path)
	s.pending = make(map[string]annotation.Label)
	s.mu.Unlock()
	return nil
}

// Captions returns the document's captions, narrowed by the search query.
func (s *Service) Captions(query string) []string {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	if doc == nil {
		return nil
	}
	return filterCaptions(doc.Captions(), query)
}

// SelectCaption switches the active caption. Duplicate img_path values in
// the caption's list make edits ambiguous, so they are logged loudly here.
func (s *Service) SelectCaption(caption string) {
	s.mu.Lock()
	s.state = s.state.WithCaption(caption)
	s.pending = make(map[string]annotation.Label)
	records := s.doc[caption]
	s.mu.Unlock()
	if dups := annotation.DuplicatePaths(records); len(dups) > 0 {
		s.log.Warnw("caption has duplicate img_path values; only the first occurrence receives edits",
			"caption", caption, "paths", dups)
	}
}

// Voters returns every voter name present in the document.
func (s *Service) Voters() []string {
	s.mu.RLock()
	doc := s.doc
	s.mu.RUnlock()
	return annotation.Voters(doc)
}

// VoteCountOptions returns the selectable vote counts for the active
// caption's unfiltered records.
func (s *Service) VoteCountOptions() []int {
	s.mu.RLock()
	records := s.doc[s.state.Caption]
	s.mu.RUnlock()
	return annotation.VoteCounts(records)
}

func (s *Service) SetVoterFilter(voters []string) {
	s.transition(func(st ViewState) ViewState { return st.WithVoters(voters) })
}

func (s *Service) SetVoteCountFilter(counts []int) {
	s.transition(func(st ViewState) ViewState { return st.WithCounts(counts) })
}

func (s *Service) SetSortOrder(order annotation.SortOrder) {
	s.transition(func(st ViewState) ViewState { return st.WithSort(order) })
}

func (s *Service) NextPage() {
	total := s.CurrentPage().TotalPages
	s.transition(func(st ViewState) ViewState { return st.NextPage(total) })
}

func (s *Service) PrevPage() {
	s.transition(func(st ViewState) ViewState { return st.PrevPage() })
}

// transition applies a pure state transition and discards pending choices:
// per-page selections are ephemeral presentation state until saved.
func (s *Service) transition(fn func(ViewState) ViewState) {
	s.mu.Lock()
	s.state = fn(s.state)
	s.pending = make(map[string]annotation.Label)
	s.mu.Unlock()
}

// CurrentPage evaluates the filter/sort/paginate pipeline for the active
// caption and returns the displayed page.
func (s *Service) CurrentPage() PageView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil || s.state.Caption == "" {
		return PageView{TotalPages: 1, Page: 1}
	}
	view := BuildPage(s.doc[s.state.Caption], s.state, s.cfg.PageSize)
	if view.SortErr != nil {
		s.log.Warnw("score sort failed; keeping file order", "error", view.SortErr)
	}
	return view
}

// DisplayLabel is the label shown for a record: the pending page choice if
// the operator touched it, otherwise the stored annotation, otherwise the
// vote-count default.
func (s *Service) DisplayLabel(rec *annotation.ImageRecord) annotation.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if label, ok := s.pending[rec.ImgPath]; ok {
		return label
	}
	return rec.EffectiveLabel()
}

// SetChoice records the operator's label choice for one displayed record.
func (s *Service) SetChoice(imgPath string, label annotation.Label) {
	if imgPath == "" || !label.Valid() {
		return
	}
	s.mu.Lock()
	s.pending[imgPath] = label
	s.mu.Unlock()
}

// Save captures the displayed page's choices into the canonical document
// and persists the file when anything actually changed. Zero changes means
// "nothing to save" and the file is left untouched. The returned error can
// join per-record consistency failures with a save failure; already-merged
// edits are never rolled back.
func (s *Service) Save() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.state.Caption == "" {
		return 0, nil
	}
	view := BuildPage(s.doc[s.state.Caption], s.state, s.cfg.PageSize)
	edits := make(map[string]annotation.Label, len(view.Records))
	for _, rec := range view.Records {
		if rec.ImgPath == "" {
			s.log.Warnw("skipping record without img_path on save", "caption", s.state.Caption)
			continue
		}
		if label, ok := s.pending[rec.ImgPath]; ok {
			edits[rec.ImgPath] = label
		} else {
			edits[rec.ImgPath] = rec.EffectiveLabel()
		}
	}
	changed, mergeErr := annotation.ApplyEdits(s.doc, s.state.Caption, edits)
	if mergeErr != nil {
		s.log.Errorw("page and document diverged during save", "caption", s.state.Caption, "error", mergeErr)
	}
	if changed == 0 {
		return 0, mergeErr
	}
	if err := s.store.Save(s.state.File, s.doc); err != nil {
		return changed, errors.Join(mergeErr, err)
	}
	s.pending = make(map[string]annotation.Label)
	s.log.Infow("annotations saved", "file", s.state.File, "caption", s.state.Caption, "changed", changed)
	return changed, mergeErr
}

// RawCaptionJSON renders the active caption's canonical records, for the
// raw-data inspector in the sidebar.
func (s *Service) RawCaptionJSON() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.doc[s.state.Caption]
	if records == nil {
		return "no caption selected"
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}
