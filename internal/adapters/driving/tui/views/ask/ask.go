// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// chromeHeight is the number of rows used by everything except the answer.
const chromeHeight = 9

// View holds the question input, the answer viewport and a status line.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   textinput.Model
	answer  viewport.Model
	spinner spinner.Model
	help    help.Model

	query driving.QueryService
	ctx   context.Context

	width  int
	height int
	ready  bool

	asking   bool
	question string
	result   *domain.QueryResult
	content  string
	err      error
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents..."
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:  s,
		keymap:  km,
		input:   ti,
		answer:  viewport.New(80, 24-chromeHeight),
		spinner: sp,
		help:    help.New(),
		query:   query,
		ctx:     context.Background(),
		width:   80,
		height:  24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.asking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, v.keymap.Switch):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewLedger}
		}

	case key.Matches(msg, v.keymap.Ask):
		return v.submit()

	case key.Matches(msg, v.keymap.PageUp, v.keymap.PageDown):
		v.answer, cmd = v.answer.Update(msg)
		return v, cmd
	}

	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question unless one is already in flight.
func (v *View) submit() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.asking {
		return v, nil
	}

	v.asking = true
	v.question = question
	v.err = nil
	return v, tea.Batch(v.spinner.Tick, v.performAsk(question))
}

func (v *View) performAsk(question string) tea.Cmd {
	return func() tea.Msg {
		if v.query == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoQueryService}
		}
		result, err := v.query.Answer(v.ctx, question)
		return messages.AnswerReceived{Question: question, Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	// An answer to an earlier question arriving late is dropped.
	if !v.asking || msg.Question != v.question {
		return
	}
	v.asking = false

	if msg.Err != nil {
		logger.Warn("TUI question failed: %v", msg.Err)
		v.err = msg.Err
		v.result = nil
		v.setContent("")
		return
	}

	v.err = nil
	v.result = msg.Result
	v.input.SetValue("")
	v.setContent(v.render())
}

func (v *View) setContent(content string) {
	v.content = content
	v.answer.SetContent(content)
	v.answer.GotoTop()
}

// render formats the answer followed by its numbered citations.
func (v *View) render() string {
	if v.result == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(v.styles.Muted.Render("Q: " + v.question))
	b.WriteString("\n")
	b.WriteString(v.styles.Answer.Width(max(v.width-4, 20)).Render(chat.CleanAnswer(v.result.Answer)))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtitle.Render("Sources"))

	if len(v.result.Sources) == 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("  No sources"))
	}
	for i, c := range v.result.Sources {
		page := c.Page
		if page == "" {
			page = domain.UnknownPage
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Citation.Render(fmt.Sprintf("  [%d] %s (Page: %s)", i+1, c.Source, page)))
	}
	return b.String()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 6)
	sections = append(sections,
		v.styles.Title.Render("askdocs"),
		v.styles.Muted.Render("Ask questions about your knowledge base"),
		v.styles.InputField.Width(max(v.width-4, 20)).Render(v.input.View()),
		v.statusLine(),
		v.answer.View(),
		v.help.ShortHelpView(v.keymap.AskHelp()),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) statusLine() string {
	switch {
	case v.asking:
		return v.spinner.View() + " " + v.styles.Muted.Render("Thinking...")
	case v.err != nil:
		return v.styles.Error.Render(messages.ErrorText(v.err))
	case v.result != nil:
		return v.styles.Success.Render(fmt.Sprintf("%d source(s) cited", len(v.result.Sources)))
	default:
		return ""
	}
}

// SetDimensions updates the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.Width = max(width-8, 10)
	v.help.Width = width
	v.answer.Width = width
	v.answer.Height = max(height-chromeHeight, 3)
	if v.result != nil {
		v.setContent(v.render())
	}
}

// SetQuestion sets the input field value.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Value returns the text in the input field.
func (v *View) Value() string {
	return v.input.Value()
}

// Question returns the last submitted question.
func (v *View) Question() string {
	return v.question
}

// Result returns the last answer, nil after a failure.
func (v *View) Result() *domain.QueryResult {
	return v.result
}

// Content returns the rendered answer and citations.
func (v *View) Content() string {
	return v.content
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Asking reports whether a question is in flight.
func (v *View) Asking() bool {
	return v.asking
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
