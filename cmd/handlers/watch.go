package handlers

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"seoforge/internal/config"
	"seoforge/internal/core"
	"seoforge/internal/workflow"
)

// stageOrder lists every stage name in run order, used to render the
// watch view before any timing has arrived for a stage.
var stageOrder = []string{"S0", "S1", "S2", "S3", "S4", "S5", "S6", "S7", "S8", "S9"}

// NewWatchCmd builds `seoforge watch`, a live single-screen view of one
// generate run. Unlike the multi-view digest browser this command is
// descended from, a single article run has exactly one thing to watch:
// the ten stages progressing in order, so the view is one screen with no
// navigation.
func NewWatchCmd() *cobra.Command {
	var (
		keyword    string
		companyURL string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Runs generate with a live stage-progress view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), keyword, companyURL)
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "target SEO/AEO keyword (required)")
	cmd.Flags().StringVar(&companyURL, "company-url", "", "company site URL")
	cmd.MarkFlagRequired("keyword")

	return cmd
}

type stageMsg workflow.StageTiming

type doneMsg struct {
	result *workflow.ExecutionResult
	err    error
}

type watchModel struct {
	timings map[string]workflow.StageTiming
	order   []string
	updates chan stageMsg
	done    chan doneMsg
	result  *workflow.ExecutionResult
	err     error
	quit    bool
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(waitForStage(m.updates), waitForDone(m.done))
}

func waitForStage(ch chan stageMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func waitForDone(ch chan doneMsg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quit = true
			return m, tea.Quit
		}
	case stageMsg:
		m.timings[msg.Stage] = workflow.StageTiming(msg)
		return m, waitForStage(m.updates)
	case doneMsg:
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("105")).Padding(0, 1)
	watchDoneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("71"))
	watchFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	watchWaitStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func (m watchModel) View() string {
	s := watchTitleStyle.Render("seoforge generate") + "\n\n"
	for _, name := range m.order {
		t, ok := m.timings[name]
		switch {
		case !ok:
			s += watchWaitStyle.Render(fmt.Sprintf("  %-3s waiting", name)) + "\n"
		case t.Err != nil:
			s += watchFailStyle.Render(fmt.Sprintf("  %-3s failed  (%s, %d attempts): %v", name, t.Duration.Round(time.Millisecond), t.Attempts, t.Err)) + "\n"
		default:
			s += watchDoneStyle.Render(fmt.Sprintf("  %-3s done    (%s, %d attempts)", name, t.Duration.Round(time.Millisecond), t.Attempts)) + "\n"
		}
	}
	if m.result != nil {
		s += "\n"
		switch m.result.Status {
		case workflow.StatusCancelled:
			s += watchFailStyle.Render("run cancelled") + "\n"
		case workflow.StatusFailed:
			s += watchFailStyle.Render(fmt.Sprintf("run failed: status=%s", m.result.Status)) + "\n"
		case workflow.StatusOKWithWarnings:
			s += watchDoneStyle.Render(fmt.Sprintf("run complete: status=%s", m.result.Status)) + "\n"
		default:
			s += watchDoneStyle.Render(fmt.Sprintf("run complete: status=%s", m.result.Status)) + "\n"
		}
	}
	s += "\n(press q to quit)\n"
	return s
}

func runWatch(ctx context.Context, keyword, companyURL string) error {
	cfg := config.Get()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	updates := make(chan stageMsg, len(stageOrder))
	done := make(chan doneMsg, 1)
	engine.OnStageComplete = func(t workflow.StageTiming) {
		updates <- stageMsg(t)
	}

	jobConfig := core.JobConfig{Keyword: keyword, Language: "en", Country: "US", Tone: "professional", WordCountMin: 2500, WordCountMax: 4000}
	var company *core.CompanyData
	if companyURL != "" {
		company = &core.CompanyData{URL: companyURL}
	}
	ec := core.NewExecutionContext(jobConfig, company)

	go func() {
		result := engine.Run(ctx, ec)
		done <- doneMsg{result: result}
	}()

	model := watchModel{
		timings: make(map[string]workflow.StageTiming),
		order:   stageOrder,
		updates: updates,
		done:    done,
	}

	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	final, ok := finalModel.(watchModel)
	if !ok || final.result == nil {
		return nil
	}
	switch final.result.Status {
	case workflow.StatusCancelled:
		return fmt.Errorf("run %s cancelled", ec.JobID)
	case workflow.StatusFailed:
		return fmt.Errorf("run %s failed", ec.JobID)
	}
	return nil
}
