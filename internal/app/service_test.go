package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yashubustudio/annotator/internal/annotation"
)

func newTestService(t *testing.T, files map[string]string) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg := defaultConfig()
	cfg.AnnotationsDir = dir
	cfg.PageSize = 2
	return NewService(cfg, zap.NewNop().Sugar()), dir
}

const sampleDoc = `{
  "cap1": [
    {"img_path": "a.jpg", "votes": ["m1", "m2"], "score": 0.9},
    {"img_path": "b.jpg", "votes": ["m1", "m2", "m3"], "score": 0.5},
    {"img_path": "c.jpg", "votes": ["m3"], "score": 0.1}
  ],
  "cap2": [
    {"img_path": "d.jpg", "votes": ["m2"], "score": 0.7}
  ]
}`

func TestServiceFileAndCaptionSelection(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{"ann.json": sampleDoc, "skip.txt": ""})

	files := svc.AvailableFiles()
	require.Equal(t, []string{filepath.Join(dir, "ann.json")}, files)
	assert.False(t, svc.HasDocument())

	require.NoError(t, svc.SelectFile(files[0]))
	assert.True(t, svc.HasDocument())
	assert.Equal(t, []string{"cap1", "cap2"}, svc.Captions(""))
	assert.Equal(t, []string{"cap1"}, svc.Captions("Cap1"))
	assert.Equal(t, []string{"m1", "m2", "m3"}, svc.Voters())

	svc.SelectCaption("cap1")
	assert.Equal(t, []int{1, 2, 3}, svc.VoteCountOptions())

	t.Run("missing file surfaces the load error", func(t *testing.T) {
		err := svc.SelectFile(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, annotation.ErrNotFound)
	})

	t.Run("empty path clears the session", func(t *testing.T) {
		require.NoError(t, svc.SelectFile(""))
		assert.False(t, svc.HasDocument())
		assert.Nil(t, svc.Captions(""))
	})
}

func TestServicePaging(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{"ann.json": sampleDoc})
	require.NoError(t, svc.SelectFile(filepath.Join(dir, "ann.json")))
	svc.SelectCaption("cap1")

	view := svc.CurrentPage()
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 2, view.TotalPages)
	assert.Equal(t, 3, view.TotalFiltered)
	require.Len(t, view.Records, 2)

	svc.NextPage()
	view = svc.CurrentPage()
	assert.Equal(t, 2, view.Page)
	require.Len(t, view.Records, 1)
	assert.Equal(t, "c.jpg", view.Records[0].ImgPath)

	svc.NextPage() // clamped
	assert.Equal(t, 2, svc.CurrentPage().Page)

	t.Run("filters narrow the page", func(t *testing.T) {
		svc.SetVoterFilter([]string{"m3"})
		view := svc.CurrentPage()
		assert.Equal(t, 1, view.Page)
		assert.Equal(t, 2, view.TotalFiltered)
	})

	t.Run("impossible filter yields the no-results view", func(t *testing.T) {
		svc.SetVoteCountFilter([]int{9})
		assert.True(t, svc.CurrentPage().Empty())
		svc.SetVoteCountFilter(nil)
	})

	t.Run("sort order applies within the filter", func(t *testing.T) {
		svc.SetVoterFilter(nil)
		svc.SetSortOrder(annotation.SortAsc)
		view := svc.CurrentPage()
		assert.Equal(t, "c.jpg", view.Records[0].ImgPath)
	})
}

// A voter-filter change must not disturb the vote-count filter; the two
// compose independently and only a caption or file change clears counts.
func TestServiceVoterChangeKeepsCountFilter(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{"ann.json": sampleDoc})
	require.NoError(t, svc.SelectFile(filepath.Join(dir, "ann.json")))
	svc.SelectCaption("cap1")

	svc.SetVoteCountFilter([]int{2})
	require.Equal(t, 1, svc.CurrentPage().TotalFiltered) // a.jpg only

	svc.SetVoterFilter([]string{"m1"})
	assert.Equal(t, []int{2}, svc.State().Counts)
	view := svc.CurrentPage()
	assert.Equal(t, 1, view.TotalFiltered)
	assert.Equal(t, "a.jpg", view.Records[0].ImgPath)

	t.Run("clearing the voter filter keeps counts too", func(t *testing.T) {
		svc.SetVoterFilter(nil)
		assert.Equal(t, []int{2}, svc.State().Counts)
	})

	t.Run("caption change still drops counts", func(t *testing.T) {
		svc.SelectCaption("cap2")
		assert.Nil(t, svc.State().Counts)
	})
}

func TestServiceDisplayLabelAndPendingChoices(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{"ann.json": sampleDoc})
	require.NoError(t, svc.SelectFile(filepath.Join(dir, "ann.json")))
	svc.SelectCaption("cap1")

	view := svc.CurrentPage()
	a, b := view.Records[0], view.Records[1]
	assert.Equal(t, annotation.LabelAmbiguous, svc.DisplayLabel(a)) // 2 votes
	assert.Equal(t, annotation.LabelTrue, svc.DisplayLabel(b))      // 3 votes

	svc.SetChoice(a.ImgPath, annotation.LabelFalse)
	assert.Equal(t, annotation.LabelFalse, svc.DisplayLabel(a))

	t.Run("invalid choices are ignored", func(t *testing.T) {
		svc.SetChoice("", annotation.LabelTrue)
		svc.SetChoice(a.ImgPath, annotation.Label("Maybe"))
		assert.Equal(t, annotation.LabelFalse, svc.DisplayLabel(a))
	})

	t.Run("any state transition discards pending choices", func(t *testing.T) {
		svc.SetSortOrder(annotation.SortDesc)
		assert.Equal(t, annotation.LabelAmbiguous, svc.DisplayLabel(a))
	})
}

func TestServiceSave(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{
		"ann.json": `{"cap1": [{"img_path": "a.jpg", "votes": ["m1", "m2"], "score": 0.9}]}`,
	})
	path := filepath.Join(dir, "ann.json")
	require.NoError(t, svc.SelectFile(path))
	svc.SelectCaption("cap1")

	rec := svc.CurrentPage().Records[0]
	assert.Equal(t, annotation.LabelAmbiguous, svc.DisplayLabel(rec))

	svc.SetChoice("a.jpg", annotation.LabelTrue)
	changed, err := svc.Save()
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"human_annotation": "True"`)

	t.Run("second save is a no-op", func(t *testing.T) {
		changed, err := svc.Save()
		require.NoError(t, err)
		assert.Equal(t, 0, changed)
		again, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, data, again)
	})
}

// Saving without touching anything persists the displayed defaults for the
// visible page: reviewing a page and hitting save accepts the heuristic.
func TestServiceSaveAcceptsDisplayedDefaults(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{
		"ann.json": `{"cap1": [
  {"img_path": "a.jpg", "votes": ["m1", "m2", "m3"]},
  {"img_path": "b.jpg", "votes": ["m1"]}
]}`,
	})
	path := filepath.Join(dir, "ann.json")
	require.NoError(t, svc.SelectFile(path))
	svc.SelectCaption("cap1")

	changed, err := svc.Save()
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	doc, err := annotation.LoadDocument(path)
	require.NoError(t, err)
	require.NotNil(t, doc["cap1"][0].Annotation)
	assert.Equal(t, annotation.LabelTrue, *doc["cap1"][0].Annotation)
	require.NotNil(t, doc["cap1"][1].Annotation)
	assert.Equal(t, annotation.LabelFalse, *doc["cap1"][1].Annotation)
}

func TestServiceSaveWithoutSelection(t *testing.T) {
	svc, _ := newTestService(t, nil)
	changed, err := svc.Save()
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
}

func TestServiceRawCaptionJSON(t *testing.T) {
	svc, dir := newTestService(t, map[string]string{"ann.json": sampleDoc})
	assert.Equal(t, "no caption selected", svc.RawCaptionJSON())

	require.NoError(t, svc.SelectFile(filepath.Join(dir, "ann.json")))
	svc.SelectCaption("cap2")
	raw := svc.RawCaptionJSON()
	assert.Contains(t, raw, `"img_path": "d.jpg"`)
	assert.Contains(t, raw, `"human_annotation": null`)
}
