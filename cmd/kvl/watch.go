package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	cl "kvartal/internal/cli"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	tableStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

func newWatchCmd(apiBase, playerID *string) *cobra.Command {
	var every time.Duration
	c := &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := requirePlayer(playerID)
			if err != nil {
				return err
			}
			m := newWatchModel(newClient(apiBase), id, every)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	c.Flags().DurationVar(&every, "every", 2*time.Second, "poll interval")
	return c
}

type watchSnapshot struct {
	snapshot map[string]any
	err      error
}

type watchTick struct{}

type watchModel struct {
	client   *cl.Client
	playerID string
	every    time.Duration

	portfolio table.Model
	snapshot  map[string]any
	lastErr   error
}

func newWatchModel(client *cl.Client, playerID string, every time.Duration) watchModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Объект", Width: 34},
			{Title: "Стратегия", Width: 10},
			{Title: "Стоимость", Width: 14},
			{Title: "Аренда", Width: 12},
			{Title: "Состояние", Width: 16},
		}),
		table.WithHeight(8),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(lipgloss.Color("51"))
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return watchModel{client: client, playerID: playerID, every: every, portfolio: t}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.schedule())
}

func (m watchModel) schedule() tea.Cmd {
	return tea.Tick(m.every, func(time.Time) tea.Msg { return watchTick{} })
}

func (m watchModel) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := m.client.Enter(ctx, m.playerID)
	return watchSnapshot{snapshot: out, err: err}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case watchTick:
		return m, tea.Batch(m.fetch, m.schedule())
	case watchSnapshot:
		m.lastErr = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.portfolio.SetRows(portfolioRows(msg.snapshot))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.portfolio, cmd = m.portfolio.Update(msg)
	return m, cmd
}

func portfolioRows(snapshot map[string]any) []table.Row {
	player := asMap(snapshot["player"])
	props := asSlice(player["properties"])
	rows := make([]table.Row, 0, len(props))
	for _, raw := range props {
		p := asMap(raw)
		condition := fmt.Sprintf("%v", p["condition"])
		if b, _ := p["isUnderRenovation"].(bool); b {
			condition = "🔨 ремонт"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%v", p["name"]),
			fmt.Sprintf("%v", p["strategy"]),
			money(p["currentValue"]),
			money(p["baseRent"]),
			condition,
		})
	}
	return rows
}

func (m watchModel) View() string {
	if m.snapshot == nil {
		if m.lastErr != nil {
			return errStyle.Render(fmt.Sprintf("connection failed: %v", m.lastErr)) + "\n"
		}
		return statStyle.Render("загрузка...") + "\n"
	}

	player := asMap(m.snapshot["player"])
	market := asMap(m.snapshot["market"])

	header := titleStyle.Render(fmt.Sprintf("Квартал — %v", player["name"]))
	stats := statStyle.Render(fmt.Sprintf(
		"Баланс %s   Капитал %s   Уровень %v   Фаза рынка: %v",
		money(player["cash"]), money(player["netWorth"]), player["level"], market["phase"]))

	view := header + "\n" + stats + "\n\n" + tableStyle.Render(m.portfolio.View()) + "\n"

	events := asSlice(m.snapshot["events"])
	if n := len(events); n > 0 {
		start := n - 5
		if start < 0 {
			start = 0
		}
		view += "\n"
		for _, raw := range events[start:] {
			e := asMap(raw)
			ts := time.UnixMilli(int64(asNumber(e["timestamp"]))).Format("15:04:05")
			view += eventStyle.Render(fmt.Sprintf("%s  %v", ts, e["message"])) + "\n"
		}
	}
	if m.lastErr != nil {
		view += "\n" + errStyle.Render(fmt.Sprintf("последний запрос: %v", m.lastErr)) + "\n"
	}
	view += statStyle.Render("\nq — выход")
	return view
}
