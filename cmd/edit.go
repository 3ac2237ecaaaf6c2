package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"modpack-editor/curse"
	"modpack-editor/logger"
	"modpack-editor/modpack"
	"modpack-editor/roster"
	"modpack-editor/session"
	"modpack-editor/ui"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var editCmd = &cobra.Command{
	Use:   "edit <folder>",
	Short: "Edit the mod list of a modpack in the terminal",
	Long: `Loads the modpack in <folder>, resolves its mods and opens an
interactive list where mods can be moved between client and server or
removed. Press w to save.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}

const nameWidth = 40

// EditModel is the state of the terminal roster editor.
type EditModel struct {
	ctx      context.Context
	folder   string
	sess     *session.Session
	resolver session.Resolver
	names    modpack.FileNameResolver
	progress chan curse.Progress

	spinner  spinner.Model
	loading  bool
	saving   bool
	done     int
	total    int
	rows     []roster.Row
	cursor   int
	message  string
	err      string
	title    string
	modified bool
}

// Message types
type packLoadedMsg struct {
	pack *modpack.Modpack
}

type loadProgressMsg curse.Progress

type packSavedMsg struct{}

type editErrorMsg struct {
	err error
}

type clearMessageMsg struct{}

func newEditModel(ctx context.Context, folder string, sess *session.Session, resolver session.Resolver, names modpack.FileNameResolver, progress chan curse.Progress) EditModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return EditModel{
		ctx:      ctx,
		folder:   folder,
		sess:     sess,
		resolver: resolver,
		names:    names,
		progress: progress,
		spinner:  s,
		loading:  true,
	}
}

func (m EditModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadPack(), m.waitForProgress())
}

func (m EditModel) loadPack() tea.Cmd {
	return func() tea.Msg {
		pack, err := m.sess.Load(m.ctx, m.folder, m.resolver)
		if m.progress != nil {
			// Resolve reports progress synchronously, so nothing is sent after it returns
			close(m.progress)
		}
		if err != nil {
			return editErrorMsg{err: err}
		}
		return packLoadedMsg{pack: pack}
	}
}

func (m EditModel) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-m.progress
		if !ok {
			return nil
		}
		return loadProgressMsg(p)
	}
}

func (m EditModel) savePack() tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.Save(m.ctx, m.names); err != nil {
			return editErrorMsg{err: err}
		}
		return packSavedMsg{}
	}
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}

func (m EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.loading && !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadProgressMsg:
		m.done = msg.Done
		m.total = msg.Total
		return m, m.waitForProgress()

	case packLoadedMsg:
		m.loading = false
		m.title = fmt.Sprintf("%s %s", msg.pack.CurseManifest.Name, msg.pack.CurseManifest.Version)
		m.rows = m.sess.Rows()
		m.cursor = 0

	case packSavedMsg:
		m.saving = false
		m.modified = false
		m.message = "Saved " + m.folder
		return m, clearMessageAfter(3 * time.Second)

	case editErrorMsg:
		logger.Named("edit").Errorw("Editor operation failed", zap.String("folder", m.folder), zap.Error(msg.err))
		if m.loading {
			m.err = msg.err.Error()
		} else {
			m.message = "Error: " + msg.err.Error()
		}
		m.loading = false
		m.saving = false

	case clearMessageMsg:
		m.message = ""
	}
	return m, nil
}

func (m EditModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}
	if m.loading || m.saving || m.err != "" {
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "c":
		m.apply(session.ToggleClient)
	case "s":
		m.apply(session.ToggleServer)
	case "d":
		m.apply(session.RequestDelete)
	case "y":
		m.apply(session.ConfirmDelete)
	case "n", "esc":
		m.apply(session.CancelDelete)
	case "w":
		m.saving = true
		m.message = ""
		return m, tea.Batch(m.spinner.Tick, m.savePack())
	}
	return m, nil
}

// apply runs a roster action on the row under the cursor.
func (m *EditModel) apply(action session.Action) {
	var key roster.Key
	if m.cursor < len(m.rows) {
		key = m.rows[m.cursor].Key
	}
	rerender, rows, err := m.sess.Apply(action, key)
	if err != nil {
		m.message = "Error: " + err.Error()
		return
	}
	if !rerender {
		return
	}
	if action != session.RequestDelete && action != session.CancelDelete {
		m.modified = true
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m EditModel) View() string {
	if m.err != "" {
		return fmt.Sprintf("Error: %s\n", m.err)
	}
	if m.loading {
		var progressText string
		if m.total > 0 {
			progressText = fmt.Sprintf(" %d/%d mods", m.done, m.total)
		}
		return fmt.Sprintf("\n %s Loading %s%s...\n", m.spinner.View(), m.folder, progressText)
	}

	var b strings.Builder
	title := m.title
	if m.modified {
		title += " (modified)"
	}
	b.WriteString(ui.Header.Render(title))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString("  No mods in this pack.\n")
	}
	for i, row := range m.rows {
		b.WriteString(ui.Row(row, i == m.cursor, nameWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.Footer.Render("↑/k: up  ↓/j: down  c: client  s: server  d: delete  y/n: confirm  w: save  q: quit"))
	b.WriteString("\n")

	if m.saving {
		b.WriteString(fmt.Sprintf("%s Saving...\n", m.spinner.View()))
	} else if m.message != "" {
		style := ui.Success
		if strings.HasPrefix(m.message, "Error") {
			style = ui.Failure
		}
		b.WriteString(style.Render(m.message) + "\n")
	}
	return b.String()
}

func runEdit(ctx context.Context, folder string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := bootstrap(".")

	progress := make(chan curse.Progress, 100)
	svc.resolver.Progress = func(p curse.Progress) {
		select {
		case progress <- p:
		default:
		}
	}

	m := newEditModel(ctx, folder, session.New(), svc.resolver, svc.client, progress)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		logger.Log.Errorw("Failed to run editor", zap.Error(err))
		return err
	}
	return nil
}
