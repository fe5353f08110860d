// Package ledger provides the processed-files and index status view for the TUI.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

const chromeHeight = 7

// View lists the ledger and lets the user reconcile the knowledge base.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	files  viewport.Model
	help   help.Model

	ingestion driving.IngestionService
	status    driving.StatusService
	ctx       context.Context

	width  int
	height int
	ready  bool

	loading     bool
	reconciling bool
	processed   []string
	index       *driving.IndexStatus
	report      *domain.IngestionReport
	err         error
}

// NewView creates a new ledger view. status may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	ingestion driving.IngestionService,
	status driving.StatusService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		files:     viewport.New(80, 24-chromeHeight),
		help:      help.New(),
		ingestion: ingestion,
		status:    status,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the ledger and index status.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

// Update handles messages for the ledger view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.LedgerLoaded:
		v.handleLoaded(msg)
		return v, nil

	case messages.ReconcileCompleted:
		v.reconciling = false
		v.report = msg.Report
		v.err = msg.Err
		if msg.Err != nil {
			logger.Warn("TUI reconcile failed: %v", msg.Err)
		}
		return v, v.Init()
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back, v.keymap.Switch):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewAsk}
		}

	case key.Matches(msg, v.keymap.Reconcile):
		if v.reconciling || v.ingestion == nil {
			return v, nil
		}
		v.reconciling = true
		v.err = nil
		return v, v.reconcile()

	case key.Matches(msg, v.keymap.Refresh):
		return v, v.Init()

	case key.Matches(msg, v.keymap.Up, v.keymap.Down, v.keymap.PageUp, v.keymap.PageDown):
		var cmd tea.Cmd
		v.files, cmd = v.files.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.ingestion == nil {
			return messages.LedgerLoaded{Err: ErrNoIngestionService}
		}
		files, err := v.ingestion.Processed(v.ctx)
		if err != nil {
			return messages.LedgerLoaded{Err: err}
		}
		var status *driving.IndexStatus
		if v.status != nil {
			if status, err = v.status.Status(v.ctx); err != nil {
				return messages.LedgerLoaded{Files: files, Err: err}
			}
		}
		return messages.LedgerLoaded{Files: files, Status: status}
	}
}

func (v *View) reconcile() tea.Cmd {
	return func() tea.Msg {
		report, err := v.ingestion.Reconcile(v.ctx)
		return messages.ReconcileCompleted{Report: report, Err: err}
	}
}

func (v *View) handleLoaded(msg messages.LedgerLoaded) {
	v.loading = false
	if msg.Err != nil {
		logger.Warn("TUI ledger load failed: %v", msg.Err)
		v.err = msg.Err
	}
	if msg.Files != nil || msg.Err == nil {
		v.processed = msg.Files
	}
	if msg.Status != nil {
		v.index = msg.Status
	}
	v.files.SetContent(v.renderFiles())
}

func (v *View) renderFiles() string {
	if len(v.processed) == 0 {
		return v.styles.Muted.Render("  No files processed yet")
	}
	lines := make([]string, len(v.processed))
	for i, name := range v.processed {
		// %q keeps leading and trailing spaces visible.
		lines[i] = fmt.Sprintf("  %q", name)
	}
	return strings.Join(lines, "\n")
}

// View renders the ledger view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 6)
	sections = append(sections,
		v.styles.Title.Render("Ledger"),
		v.statusLine(),
		v.reportLine(),
		v.styles.Subtitle.Render(fmt.Sprintf("Processed files (%d)", len(v.processed))),
		v.files.View(),
		v.help.ShortHelpView(v.keymap.LedgerHelp()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) statusLine() string {
	switch {
	case v.index == nil:
		return v.styles.Muted.Render("Index status unavailable")
	case v.index.Ready:
		return v.styles.Success.Render(fmt.Sprintf("Index ready: %d chunks from %d files",
			v.index.Chunks, v.index.ProcessedFiles))
	default:
		return v.styles.Warning.Render("Index not initialised. Press r to ingest the knowledge base.")
	}
}

func (v *View) reportLine() string {
	switch {
	case v.reconciling:
		return v.styles.Muted.Render("Reconciling...")
	case v.loading:
		return v.styles.Muted.Render("Loading...")
	case v.err != nil:
		return v.styles.Error.Render(messages.ErrorText(v.err))
	case v.report != nil:
		line := fmt.Sprintf("Last reconcile: %d ingested, %d skipped, %d failed, %d chunks",
			len(v.report.Succeeded), len(v.report.Skipped), len(v.report.Failed), v.report.Chunks)
		if len(v.report.Failed) > 0 {
			return v.styles.Warning.Render(line)
		}
		return v.styles.Success.Render(line)
	default:
		return ""
	}
}

// SetDimensions updates the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.help.Width = width
	v.files.Width = width
	v.files.Height = max(height-chromeHeight, 3)
}

// Files returns the processed files as last loaded.
func (v *View) Files() []string {
	return v.processed
}

// Status returns the index status as last loaded.
func (v *View) Status() *driving.IndexStatus {
	return v.index
}

// Report returns the last reconcile report.
func (v *View) Report() *domain.IngestionReport {
	return v.report
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reconciling reports whether a reconcile is running.
func (v *View) Reconciling() bool {
	return v.reconciling
}

// Ready reports whether the view has received its dimensions.
func (v *View) Ready() bool {
	return v.ready
}

// Width returns the view width.
func (v *View) Width() int {
	return v.width
}

// Height returns the view height.
func (v *View) Height() int {
	return v.height
}
