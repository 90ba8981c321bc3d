package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/annotator/internal/annotation"
)

const logDebounceInterval = 150 * time.Millisecond

const filePlaceholder = "-- Select a file --"

var sortChoices = []struct {
	Label string
	Value annotation.SortOrder
}{
	{Label: "File order", Value: annotation.SortNone},
	{Label: "Score ascending", Value: annotation.SortAsc},
	{Label: "Score descending", Value: annotation.SortDesc},
}

type uiState struct {
	service *Service
	cfg     Config

	w fyne.Window

	fileSelect    *widget.Select
	captionSearch *widget.Entry
	captionSelect *widget.Select
	voterChecks   *widget.CheckGroup
	countChecks   *widget.CheckGroup
	sortRadio     *widget.RadioGroup
	saveBtn       *widget.Button

	captionHeader *widget.Label
	matchInfo     *widget.Label
	prevBtn       *widget.Button
	nextBtn       *widget.Button
	pageLabel     *widget.Label
	pagination    *fyne.Container
	grid          *fyne.Container
	noResults     *widget.Label

	rawCheck *widget.Check
	rawView  *widget.Entry

	status     *widget.Label
	log        *widget.Entry
	statusBind binding.String
	logBind    binding.String

	logLines    []string
	logMu       sync.Mutex
	logUpdateCh chan struct{}

	// updating suppresses OnChanged callbacks while widget options or
	// selections are set programmatically.
	updating bool

	// pageGen invalidates in-flight thumbnail loads when the page changes.
	pageGen   int
	pageGenMu sync.Mutex
}

func buildUI(a fyne.App, svc *Service) *uiState {
	u := &uiState{service: svc}
	u.cfg = svc.Config()
	u.w = a.NewWindow("MLLM Annotation Verification Tool")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Select an annotation file to begin")
	u.logBind = binding.NewString()
	u.startLogUpdater()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.status.Wrapping = fyne.TextWrapWord
	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Session log")
	u.log.Disable()

	u.fileSelect = widget.NewSelect([]string{filePlaceholder}, func(value string) {
		if u.updating {
			return
		}
		u.onFileSelected(value)
	})
	u.fileSelect.PlaceHolder = filePlaceholder

	refreshBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() { u.refreshFiles() })

	u.captionSearch = widget.NewEntry()
	u.captionSearch.SetPlaceHolder("Search captions")
	u.captionSearch.OnChanged = func(string) { u.refreshCaptions() }

	u.captionSelect = widget.NewSelect(nil, func(value string) {
		if u.updating || value == "" {
			return
		}
		u.onCaptionSelected(value)
	})
	u.captionSelect.PlaceHolder = "Choose a caption"

	// The vote-count options come from the caption's unfiltered records, so
	// a voter-filter change leaves the count filter exactly as it is.
	u.voterChecks = widget.NewCheckGroup(nil, func(selected []string) {
		if u.updating {
			return
		}
		u.service.SetVoterFilter(selected)
		u.refreshPage()
	})

	u.countChecks = widget.NewCheckGroup(nil, func(selected []string) {
		if u.updating {
			return
		}
		counts := make([]int, 0, len(selected))
		for _, s := range selected {
			if n, err := strconv.Atoi(s); err == nil {
				counts = append(counts, n)
			}
		}
		u.service.SetVoteCountFilter(counts)
		u.refreshPage()
	})

	sortLabels := make([]string, len(sortChoices))
	for i, c := range sortChoices {
		sortLabels[i] = c.Label
	}
	u.sortRadio = widget.NewRadioGroup(sortLabels, func(value string) {
		if u.updating {
			return
		}
		for _, c := range sortChoices {
			if c.Label == value {
				u.service.SetSortOrder(c.Value)
				break
			}
		}
		u.refreshPage()
	})
	u.sortRadio.SetSelected(sortChoices[0].Label)

	u.saveBtn = widget.NewButtonWithIcon("Update & Save Annotations", theme.DocumentSaveIcon(), func() { u.onSave() })
	u.saveBtn.Disable()

	u.rawView = widget.NewMultiLineEntry()
	u.rawView.Wrapping = fyne.TextWrapWord
	u.rawView.Disable()
	u.rawView.Hide()
	u.rawCheck = widget.NewCheck("Show raw annotation data", func(checked bool) {
		if checked {
			u.rawView.SetText(u.service.RawCaptionJSON())
			u.rawView.Show()
		} else {
			u.rawView.Hide()
		}
	})

	sidebar := container.NewVBox(
		widget.NewLabelWithStyle("0. Annotation file", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewBorder(nil, nil, nil, refreshBtn, u.fileSelect),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("1. Caption", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.captionSearch,
		u.captionSelect,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("2. Filter by MLLM votes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.voterChecks,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("3. Filter by number of votes", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.countChecks,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("4. Sort", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.sortRadio,
		widget.NewSeparator(),
		u.saveBtn,
		widget.NewSeparator(),
		u.rawCheck,
		u.rawView,
		widget.NewSeparator(),
		u.status,
		u.log,
	)

	u.captionHeader = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	u.captionHeader.Wrapping = fyne.TextWrapWord
	u.matchInfo = widget.NewLabel("")
	u.prevBtn = widget.NewButtonWithIcon("Previous", theme.NavigateBackIcon(), func() {
		u.service.PrevPage()
		u.refreshPage()
	})
	u.nextBtn = widget.NewButtonWithIcon("Next", theme.NavigateNextIcon(), func() {
		u.service.NextPage()
		u.refreshPage()
	})
	u.pageLabel = widget.NewLabel("")
	u.prevBtn.Disable()
	u.nextBtn.Disable()

	u.grid = container.NewGridWithColumns(u.cfg.ImagesPerRow)
	u.noResults = widget.NewLabel("No images match the current filters. Try adjusting the filters in the sidebar.")
	u.noResults.Wrapping = fyne.TextWrapWord
	u.noResults.Hide()

	u.pagination = container.NewBorder(nil, nil, u.prevBtn, u.nextBtn, container.NewCenter(u.pageLabel))
	u.pagination.Hide()
	main := container.NewBorder(
		container.NewVBox(u.captionHeader, u.matchInfo, u.pagination, widget.NewSeparator()),
		nil, nil, nil,
		container.NewVScroll(container.NewVBox(u.noResults, u.grid)),
	)

	split := container.NewHSplit(container.NewVScroll(sidebar), main)
	split.Offset = 0.28

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1280, 800))
	u.refreshFiles()
	return u
}

// refreshFiles repopulates the file selector from the annotations directory,
// keeping the current selection when the file still exists.
func (u *uiState) refreshFiles() {
	files := u.service.AvailableFiles()
	options := append([]string{filePlaceholder}, files...)
	current := u.service.State().File

	u.updating = true
	u.fileSelect.Options = options
	keep := false
	for _, f := range files {
		if f == current {
			keep = true
			break
		}
	}
	if keep {
		u.fileSelect.SetSelected(current)
	} else if current != "" {
		u.fileSelect.ClearSelected()
	}
	u.fileSelect.Refresh()
	u.updating = false

	if len(files) == 0 {
		u.appendLog(fmt.Sprintf("no annotation files found in %q", u.cfg.AnnotationsDir))
	}
}

func (u *uiState) onFileSelected(value string) {
	if value == filePlaceholder {
		_ = u.service.SelectFile("")
		u.setStatus("Select an annotation file to begin")
		u.resetAnnotationArea()
		return
	}
	if err := u.service.SelectFile(value); err != nil {
		dialog.ShowError(err, u.w)
		u.appendLog(fmt.Sprintf("load failed: %v", err))
		u.setStatus("Load failed; choose another file")
		u.resetAnnotationArea()
		return
	}
	u.appendLog(fmt.Sprintf("loaded %s", filepath.Base(value)))
	u.setStatus(fmt.Sprintf("Loaded %s", filepath.Base(value)))
	u.resetAnnotationArea()
	u.refreshCaptions()
	u.refreshVoters()
}

func (u *uiState) resetAnnotationArea() {
	u.updating = true
	u.captionSelect.Options = nil
	u.captionSelect.ClearSelected()
	u.voterChecks.Options = nil
	u.voterChecks.SetSelected(nil)
	u.countChecks.Options = nil
	u.countChecks.SetSelected(nil)
	u.sortRadio.SetSelected(sortChoices[0].Label)
	u.updating = false
	u.captionSelect.Refresh()
	u.voterChecks.Refresh()
	u.countChecks.Refresh()
	u.captionHeader.SetText("")
	u.matchInfo.SetText("")
	u.pageLabel.SetText("")
	u.prevBtn.Disable()
	u.nextBtn.Disable()
	u.pagination.Hide()
	u.saveBtn.Disable()
	u.noResults.Hide()
	u.grid.Objects = nil
	u.grid.Refresh()
	u.rawView.SetText("")
}

func (u *uiState) refreshCaptions() {
	captions := u.service.Captions(u.captionSearch.Text)
	current := u.service.State().Caption

	u.updating = true
	u.captionSelect.Options = captions
	keep := false
	for _, c := range captions {
		if c == current {
			keep = true
			break
		}
	}
	if keep {
		u.captionSelect.SetSelected(current)
	} else {
		u.captionSelect.ClearSelected()
	}
	u.updating = false
	u.captionSelect.Refresh()
}

func (u *uiState) refreshVoters() {
	voters := u.service.Voters()
	u.updating = true
	u.voterChecks.Options = voters
	u.voterChecks.SetSelected(nil)
	u.updating = false
	u.voterChecks.Refresh()
}

func (u *uiState) onCaptionSelected(caption string) {
	u.service.SelectCaption(caption)
	u.captionHeader.SetText(fmt.Sprintf("Annotating for caption: %s", caption))
	u.appendLog(fmt.Sprintf("caption selected: %s", caption))
	u.refreshCountOptions()
	u.refreshPage()
	if u.rawCheck.Checked {
		u.rawView.SetText(u.service.RawCaptionJSON())
	}
}

// refreshCountOptions rebuilds the vote-count filter from the active
// caption's unfiltered records; the selection resets along with it.
func (u *uiState) refreshCountOptions() {
	counts := u.service.VoteCountOptions()
	options := make([]string, len(counts))
	for i, n := range counts {
		options[i] = strconv.Itoa(n)
	}
	u.updating = true
	u.countChecks.Options = options
	u.countChecks.SetSelected(nil)
	u.updating = false
	u.countChecks.Refresh()
}

// refreshPage re-evaluates the pipeline and rebuilds the image grid.
func (u *uiState) refreshPage() {
	if !u.service.HasDocument() || u.service.State().Caption == "" {
		return
	}
	view := u.service.CurrentPage()

	if view.SortErr != nil {
		u.appendLog(fmt.Sprintf("sort failed: %v (showing file order)", view.SortErr))
	}

	if view.Empty() {
		u.matchInfo.SetText("0 images match the current filters")
		u.pageLabel.SetText("")
		u.prevBtn.Disable()
		u.nextBtn.Disable()
		u.pagination.Hide()
		u.saveBtn.Disable()
		u.noResults.Show()
		u.grid.Objects = nil
		u.grid.Refresh()
		return
	}

	u.noResults.Hide()
	u.pagination.Show()
	u.matchInfo.SetText(fmt.Sprintf("Displaying %d images matching filter", view.TotalFiltered))
	u.pageLabel.SetText(fmt.Sprintf("Page %d of %d", view.Page, view.TotalPages))
	if view.Page <= 1 {
		u.prevBtn.Disable()
	} else {
		u.prevBtn.Enable()
	}
	if view.Page >= view.TotalPages {
		u.nextBtn.Disable()
	} else {
		u.nextBtn.Enable()
	}
	u.saveBtn.Enable()

	gen := u.nextPageGen()
	cards := make([]fyne.CanvasObject, 0, len(view.Records))
	for i, rec := range view.Records {
		cards = append(cards, u.makeCard(rec, view.StartIndex+i, gen))
	}
	u.grid.Objects = cards
	u.grid.Refresh()
}

func (u *uiState) nextPageGen() int {
	u.pageGenMu.Lock()
	defer u.pageGenMu.Unlock()
	u.pageGen++
	return u.pageGen
}

func (u *uiState) currentPageGen() int {
	u.pageGenMu.Lock()
	defer u.pageGenMu.Unlock()
	return u.pageGen
}

// makeCard builds one image card: thumbnail (loaded in the background),
// filename, votes and the label radio group.
func (u *uiState) makeCard(rec *annotation.ImageRecord, index, gen int) fyne.CanvasObject {
	thumbSize := fyne.NewSize(float32(u.cfg.ThumbWidth), float32(u.cfg.ThumbWidth)*3/4)

	imgHolder := container.NewStack()
	loading := widget.NewLabel("Loading image…")
	loading.Alignment = fyne.TextAlignCenter
	imgHolder.Add(loading)

	imgPath := rec.ImgPath
	go func() {
		thumb, err := u.service.Loader().Thumbnail(imgPath, u.cfg.ThumbWidth)
		if u.currentPageGen() != gen {
			return
		}
		fyne.Do(func() {
			imgHolder.Objects = nil
			if err != nil {
				warn := widget.NewLabel(fmt.Sprintf("Could not load image: %v", err))
				warn.Wrapping = fyne.TextWrapWord
				imgHolder.Add(warn)
			} else {
				ci := canvas.NewImageFromImage(thumb)
				ci.FillMode = canvas.ImageFillContain
				ci.SetMinSize(thumbSize)
				imgHolder.Add(ci)
			}
			imgHolder.Refresh()
		})
	}()

	pathLabel := widget.NewLabelWithStyle(filepath.Base(imgPath), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	pathLabel.Wrapping = fyne.TextWrapWord

	votesText := "Votes: none"
	if len(rec.Votes) > 0 {
		votesText = "Votes: " + strings.Join(rec.Votes, ", ")
	}
	votesLabel := widget.NewLabel(votesText)
	votesLabel.Wrapping = fyne.TextWrapWord

	indexLabel := widget.NewLabel(fmt.Sprintf("Index: %d", index))

	radio := widget.NewRadioGroup(annotation.LabelOptions(), func(value string) {
		if value == "" {
			return
		}
		u.service.SetChoice(imgPath, annotation.Label(value))
	})
	radio.Horizontal = true
	radio.SetSelected(string(u.service.DisplayLabel(rec)))

	return container.NewVBox(imgHolder, indexLabel, pathLabel, votesLabel, radio, widget.NewSeparator())
}

func (u *uiState) onSave() {
	changed, err := u.service.Save()
	if err != nil {
		dialog.ShowError(err, u.w)
		u.appendLog(fmt.Sprintf("save: %v", err))
	}
	if changed == 0 {
		if err == nil {
			u.setStatus("No changes to save")
			u.appendLog("save requested; nothing to save")
		}
		return
	}
	u.setStatus(fmt.Sprintf("Saved %d annotation(s)", changed))
	u.appendLog(fmt.Sprintf("updated %d annotation(s)", changed))
	u.refreshPage()
	if u.rawCheck.Checked {
		u.rawView.SetText(u.service.RawCaptionJSON())
	}
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) appendLog(msg string) {
	now := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", now, msg)

	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > 200 {
		u.logLines = u.logLines[len(u.logLines)-200:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}
