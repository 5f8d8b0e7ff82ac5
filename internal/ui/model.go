package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sift/internal/config"
	"github.com/nconklindev/sift/internal/converter"
	"github.com/nconklindev/sift/internal/merge"
	"github.com/nconklindev/sift/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type state int

const (
	stateFilePicker state = iota
	stateColumnSelection
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	state         state
	cfg           *config.Config
	logger        *slog.Logger
	filepicker    filepicker.Model
	selectedFiles []string
	headers       []string
	detectedCols  map[int]bool
	selectedCols  map[int]bool
	includeEmpty  bool
	cursor        int
	result        *types.MergeResult
	err           error
	width         int
	height        int
	progress      progress.Model
	progressChan  chan float64
	resultChan    chan mergeResultMsg
}

type mergeResultMsg struct {
	result *types.MergeResult
	err    error
}

type headersLoadedMsg struct {
	headers  []string
	detected []string
	err      error
}

type mergeCompleteMsg struct {
	result *types.MergeResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

// InitialModel builds the interactive model. Merge defaults (columns,
// include-empty, output path) come from cfg.
func InitialModel(cfg *config.Config, logger *slog.Logger) Model {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx", ".xlsm"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHighlight))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color(colorHighlight))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color(colorText))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))

	prog := progress.New(progress.WithGradient(colorAccent, colorHighlight))

	return Model{
		state:        stateFilePicker,
		cfg:          cfg,
		logger:       logger,
		filepicker:   fp,
		detectedCols: make(map[int]bool),
		selectedCols: make(map[int]bool),
		includeEmpty: cfg.Merge.IncludeEmptySheets,
		progress:     prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for the title, the selection list and the help line
		height := msg.Height - 16
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab":
				if len(m.selectedFiles) > 0 {
					return m, m.loadHeaders()
				}
				return m, nil
			}

		case stateColumnSelection:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.headers)-1 {
					m.cursor++
				}
			case " ":
				m.selectedCols[m.cursor] = !m.selectedCols[m.cursor]
			case "e":
				m.includeEmpty = !m.includeEmpty
			case "a":
				for idx := range m.detectedCols {
					m.selectedCols[idx] = true
				}
			case "enter":
				if len(m.checkedColumns()) > 0 {
					m.state = stateProcessing
					return m.startMerge()
				}
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case headersLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.headers = msg.headers
		m.applyColumnDefaults(msg.detected)
		m.state = stateColumnSelection
		return m, nil

	case mergeCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.toggleFile(path)
		}

		return m, cmd
	}

	return m, nil
}

// toggleFile adds path to the selection, or removes it when already chosen.
func (m *Model) toggleFile(path string) {
	for i, p := range m.selectedFiles {
		if p == path {
			m.selectedFiles = append(m.selectedFiles[:i], m.selectedFiles[i+1:]...)
			return
		}
	}
	m.selectedFiles = append(m.selectedFiles, path)
}

// applyColumnDefaults marks detected headers and pre-checks either the
// configured columns or, without any, the detected ones.
func (m *Model) applyColumnDefaults(detected []string) {
	hm := make(merge.HeaderMap, len(m.headers))
	for i, h := range m.headers {
		hm[merge.NormalizeHeader(h)] = i
	}

	for _, name := range detected {
		if idx, ok := hm.Index(name); ok {
			m.detectedCols[idx] = true
		}
	}

	preset := m.cfg.Merge.Columns
	if len(preset) == 0 {
		preset = detected
	}
	for _, name := range preset {
		if idx, ok := hm.Index(name); ok {
			m.selectedCols[idx] = true
		}
	}
}

func (m Model) checkedColumns() []string {
	var cols []string
	for i, header := range m.headers {
		if m.selectedCols[i] {
			cols = append(cols, header)
		}
	}
	return cols
}

func (m Model) csvOptions() converter.CSVOptions {
	return converter.CSVOptions{
		Separator: m.cfg.Separator(),
		Encoding:  m.cfg.CSV.Encoding,
	}
}

func (m Model) loadHeaders() tea.Cmd {
	files := append([]string(nil), m.selectedFiles...)
	csvOpts := m.csvOptions()

	return func() tea.Msg {
		samples, err := converter.ReadFilesData(files, csvOpts)
		if err != nil {
			return headersLoadedMsg{err: err}
		}

		var detected []string
		for _, data := range samples {
			for _, idx := range converter.AutoDetectColumns(data) {
				detected = append(detected, data.Headers[idx])
			}
		}
		return headersLoadedMsg{headers: converter.UnionHeaders(samples), detected: detected}
	}
}

func (m Model) startMerge() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan mergeResultMsg, 1)

	opts := converter.MergeOptions{
		Inputs:             append([]string(nil), m.selectedFiles...),
		Output:             m.cfg.OutputPath(),
		Columns:            m.checkedColumns(),
		IncludeEmptySheets: m.includeEmpty,
		CSV:                m.csvOptions(),
		Workers:            m.cfg.Merge.Workers,
		Logger:             m.logger,
	}

	// Capture channels for the goroutine
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				result, err := converter.Consolidate(context.Background(), opts, progressChan)

				resultChan <- mergeResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan mergeResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return mergeCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateColumnSelection:
		return m.viewColumnSelection()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("▤ Sift - Missing Data Consolidator")

	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/sift")
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select the CSV or XLSX files to merge"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")

	if len(m.selectedFiles) > 0 {
		s.WriteString(CheckedStyle.Render(fmt.Sprintf("%s selected:", pluralize(len(m.selectedFiles), "file"))))
		s.WriteString("\n")
		for _, path := range m.selectedFiles {
			s.WriteString(fmt.Sprintf("  ✓ %s\n", filepath.Base(path)))
		}
	}

	s.WriteString(HelpStyle.Render("enter: select/unselect • tab: continue • q: quit"))

	return s.String()
}

func (m Model) viewColumnSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ Select Columns to Check"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%s, %s", pluralize(len(m.selectedFiles), "file"), pluralize(len(m.headers), "column"))))
	s.WriteString("\n\n")

	if len(m.detectedCols) > 0 {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ Auto-detected %s with missing values", pluralize(len(m.detectedCols), "column"))))
		s.WriteString("\n\n")
	}

	for i, header := range m.headers {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		checked := " "
		if m.selectedCols[i] {
			checked = "✓"
		}

		line := fmt.Sprintf("%s [%s] %s", cursor, checked, header)

		if m.cursor == i {
			line = SelectedStyle.Render(line)
		} else if m.selectedCols[i] {
			line = CheckedStyle.Render(line)
		} else if m.detectedCols[i] {
			line = DetectedStyle.Render(line + " (detected)")
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")

	includeEmptyStatus := "[ ]"
	if m.includeEmpty {
		includeEmptyStatus = "[x]"
	}
	s.WriteString(fmt.Sprintf("Include Empty Sheets: %s\n", includeEmptyStatus))
	s.WriteString(fmt.Sprintf("Output: %s\n", m.cfg.OutputPath()))
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • space: toggle • e: include empty sheets • a: select all detected • enter: merge • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("▤ Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Merging rows with missing data from %s...", pluralize(len(m.selectedFiles), "file")))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Merge Complete!"))
	s.WriteString("\n\n")

	outputPath := truncatePath(m.result.OutputFile, m.width)

	s.WriteString(fmt.Sprintf("Inputs: %s\n", pluralize(len(m.result.InputFiles), "file")))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s (%s)\n", outputPath, humanize.Bytes(uint64(m.result.OutputSize)))))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Columns checked: %s\n", strings.Join(m.result.ColumnsChecked, ", ")))
	s.WriteString(fmt.Sprintf("Rows copied: %s\n", humanize.Comma(int64(m.result.RowsCopied))))
	s.WriteString(fmt.Sprintf("Sheets written: %s\n", strings.Join(m.result.Sheets, ", ")))
	if len(m.result.SheetsPruned) > 0 {
		s.WriteString("Sheets dropped: ")
		s.WriteString(PrunedStyle.Render(strings.Join(m.result.SheetsPruned, ", ")))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	if errors.Is(m.err, converter.ErrNothingToWrite) {
		s.WriteString(WarningStyle.Render("! Nothing to write"))
		s.WriteString("\n\n")
		s.WriteString("No selected file has rows with missing data in the checked columns.")
	} else {
		s.WriteString(ErrorStyle.Render("✗ Error"))
		s.WriteString("\n\n")
		s.WriteString(m.err.Error())
	}
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter to exit"))

	return BoxStyle.Render(s.String())
}

// truncatePath shortens long paths from the left to fit the terminal.
func truncatePath(path string, width int) string {
	maxLen := width - 20
	if maxLen < 30 {
		maxLen = 30
	}
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}
