package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nueramator/ZeroGlaze-Streaming/internal/curve"
	"github.com/nueramator/ZeroGlaze-Streaming/internal/format"
)

const quoteAmount = 10_000_000

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	liveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	cfg    curve.Config
	steps  int
	isLive bool
	points []curve.ProgressionPoint
	table  table.Model
	spark  *sparkline
}

func newModel() model {
	m := model{
		cfg:   curve.DefaultConfig(),
		steps: 32,
		spark: newSparkline(64),
	}
	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Tokens Sold", Width: 14},
			{Title: "Price", Width: 18},
			{Title: "Market Cap", Width: 16},
			{Title: "Progress", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	m.recompute()
	return m
}

func (m *model) recompute() {
	m.points = m.cfg.SimulateProgression(m.steps)

	rows := make([]table.Row, len(m.points))
	prices := make([]float64, len(m.points))
	for i, p := range m.points {
		prices[i] = p.Price
		rows[i] = table.Row{
			format.TokenAmount(p.TokensSold),
			fmt.Sprintf("%.12f SOL", p.Price),
			fmt.Sprintf("%.2f SOL", p.MarketCap),
			fmt.Sprintf("%.1f%%", p.Progress),
		}
	}
	m.table.SetRows(rows)
	m.spark.setData(prices)
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l":
			m.isLive = !m.isLive
			return m, nil
		case "+", "=":
			m.steps += 8
			m.recompute()
			return m, nil
		case "-":
			if m.steps > 8 {
				m.steps -= 8
				m.recompute()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	title := titleStyle.Render("Bonding Curve Simulator")

	status := fmt.Sprintf("steps: %d    creator fee: %d bps", m.steps, m.cfg.CreatorFeeBps(m.isLive))
	if m.isLive {
		status = liveStyle.Render("● LIVE    ") + status
	} else {
		status = "○ offline  " + status
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.spark.view(),
		panelStyle.Render(m.table.View()),
		panelStyle.Render(m.quoteView()),
		hintStyle.Render("↑/↓ select point  +/- steps  l toggle live  q quit"),
	) + "\n"
}

// quoteView prices a fixed buy at the selected progression point.
func (m model) quoteView() string {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.points) {
		return ""
	}
	point := m.points[idx]

	vSol, vTok, ok := reservesAt(m.cfg, point.TokensSold)
	if !ok {
		return "curve exhausted"
	}

	q, err := m.cfg.CalculateBuyCost(vSol, vTok, quoteAmount, m.isLive)
	if err != nil {
		return fmt.Sprintf("quote unavailable: %v", err)
	}

	return fmt.Sprintf(
		"buy %s at %s sold\n cost %s   fees %s (platform %s, creator %s)\n impact %s",
		format.TokenAmount(quoteAmount),
		format.TokenAmount(point.TokensSold),
		format.Sol(q.TotalCost),
		format.Sol(q.PlatformFee+q.CreatorFee),
		format.Sol(q.PlatformFee),
		format.Sol(q.CreatorFee),
		format.Percent(q.PriceImpact),
	)
}

// reservesAt derives virtual reserves after tokensSold have been bought
// off a fresh curve.
func reservesAt(cfg curve.Config, tokensSold uint64) (vSol, vTok uint64, ok bool) {
	if tokensSold >= cfg.InitialVirtualTokenReserves {
		return 0, 0, false
	}
	vTok = cfg.InitialVirtualTokenReserves - tokensSold

	k := new(big.Int).Mul(
		new(big.Int).SetUint64(cfg.InitialVirtualSolReserves),
		new(big.Int).SetUint64(cfg.InitialVirtualTokenReserves))
	solBig := new(big.Int).Quo(k, new(big.Int).SetUint64(vTok))
	if !solBig.IsUint64() {
		return 0, 0, false
	}
	return solBig.Uint64(), vTok, true
}

func main() {
	if _, err := tea.NewProgram(newModel(), tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "curvesim: %v\n", err)
		os.Exit(1)
	}
}
