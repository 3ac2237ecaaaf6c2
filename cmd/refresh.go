package cmd

import (
	"context"
	"fmt"
	"sort"

	"modpack-editor/curse"
	"modpack-editor/logger"
	"modpack-editor/modpack"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh <folder>",
	Short: "Resolve and cache the metadata of every mod in a modpack",
	Long: `Looks up every mod of the modpack in <folder> on CurseForge, storing the
responses in the metadata cache so later loads are fast. The pack itself is
not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		return runRefresh(cmd.Context(), args[0], plain)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().Bool("plain", false, "Print progress lines instead of the interactive view")
}

// RefreshModel shows the progress of a refresh.
type RefreshModel struct {
	spinner      spinner.Model
	progressChan chan curse.Progress
	run          func(chan<- curse.Progress) map[int]modpack.ModInfo

	status   string
	resolved []string
	errors   []string
	done     bool
	finished int
	total    int
	summary  string
}

type refreshDoneMsg struct {
	mods map[int]modpack.ModInfo
}

func initialRefreshModel(folder string, run func(chan<- curse.Progress) map[int]modpack.ModInfo) RefreshModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return RefreshModel{
		spinner:      s,
		progressChan: make(chan curse.Progress, 100),
		run:          run,
		status:       fmt.Sprintf("Resolving mods of %s...", folder),
	}
}

func (m RefreshModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startRefresh(),
		m.waitForActivity(),
	)
}

func (m RefreshModel) startRefresh() tea.Cmd {
	return func() tea.Msg {
		defer close(m.progressChan)
		return refreshDoneMsg{mods: m.run(m.progressChan)}
	}
}

func (m RefreshModel) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.progressChan
		if !ok {
			return nil
		}
		return msg
	}
}

func (m RefreshModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" || m.done {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case curse.Progress:
		m.finished = msg.Done
		m.total = msg.Total
		if msg.Err != nil {
			m.errors = append(m.errors, fmt.Sprintf("%d: %s", msg.AddonID, msg.Err))
		} else {
			m.resolved = append(m.resolved, msg.Name)
		}
		m.status = fmt.Sprintf("Resolved %d/%d mods", m.finished, m.total)
		return m, m.waitForActivity()

	case refreshDoneMsg:
		m.done = true
		m.status = "Finished"
		m.summary = refreshSummary(msg.mods)
		return m, tea.Quit
	}

	return m, nil
}

func (m RefreshModel) View() string {
	var symbol string
	if m.done {
		symbol = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✓")
	} else {
		symbol = m.spinner.View()
	}

	s := fmt.Sprintf("\n %s %s\n\n", symbol, m.status)

	if len(m.errors) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("Errors:") + "\n"
		for _, e := range m.errors {
			s += fmt.Sprintf("  • %s\n", e)
		}
		s += "\n"
	}

	// Only the latest few while running to keep the view steady
	if len(m.resolved) > 0 {
		s += lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("Resolved:") + "\n"
		start := 0
		if len(m.resolved) > 5 && !m.done {
			start = len(m.resolved) - 5
		}
		for i := start; i < len(m.resolved); i++ {
			s += fmt.Sprintf("  • %s\n", m.resolved[i])
		}
		s += "\n"
	}

	if m.done {
		s += lipgloss.NewStyle().Bold(true).Render(m.summary) + "\n"
	}
	return s
}

// refreshSummary counts resolved and failed mods and lists the failures by ID.
func refreshSummary(mods map[int]modpack.ModInfo) string {
	var failed []int
	for id, mod := range mods {
		if mod.Errored() {
			failed = append(failed, id)
		}
	}
	sort.Ints(failed)
	s := fmt.Sprintf("%d mods resolved, %d failed", len(mods)-len(failed), len(failed))
	if len(failed) > 0 {
		s += fmt.Sprintf(" %v", failed)
	}
	return s
}

func runRefresh(ctx context.Context, folder string, plain bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := bootstrap(".")

	pack, err := modpack.Load(folder)
	if err != nil {
		logger.Log.Errorw("Failed to load modpack", zap.String("folder", folder), zap.Error(err))
		return err
	}

	run := func(progress chan<- curse.Progress) map[int]modpack.ModInfo {
		svc.resolver.Progress = func(p curse.Progress) {
			progress <- p
		}
		return svc.resolver.Resolve(ctx, pack)
	}

	if plain {
		progress := make(chan curse.Progress)
		result := make(chan map[int]modpack.ModInfo, 1)
		go func() {
			defer close(progress)
			result <- run(progress)
		}()
		for p := range progress {
			if p.Err != nil {
				fmt.Printf("[%d/%d] %d: %v\n", p.Done, p.Total, p.AddonID, p.Err)
			} else {
				fmt.Printf("[%d/%d] %s\n", p.Done, p.Total, p.Name)
			}
		}
		fmt.Println(refreshSummary(<-result))
		return nil
	}

	m := initialRefreshModel(folder, run)
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		logger.Log.Errorw("Failed to run refresh view", zap.Error(err))
		return err
	}
	if rm, ok := final.(RefreshModel); ok && rm.summary != "" {
		logger.Log.Infow("Refresh finished", zap.String("folder", pack.Folder), zap.String("summary", rm.summary))
	}
	return nil
}
