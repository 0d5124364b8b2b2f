package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/robot"
	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/teleop"
)

type RunCommand struct {
	Hz    int  `long:"hz" description:"Control loop frequency (default from config)"`
	Watch bool `long:"watch" description:"Reload tunables when the config file changes"`
}

const (
	headerHeight = 2 // title + blank line
	statusHeight = 2 // status row + blank
	footerHeight = 7 // log box height
	keysHeight   = 2 // key help + blank
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	jogStep      = 0.25
)

const potentSeries = "potent"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	offStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
)

type runModel struct {
	ctrl       *teleop.Controller
	sim        *robot.Sim
	chart      *streamlinechart.Model
	width      int      // terminal width
	height     int      // terminal height
	logs       []string // last N log messages
	quitting   bool
	state      teleop.State
	jog        float64
	light      bool
	lastPotent float64
	seen       bool
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
	if fileLog != nil {
		fileLog.Println(msg)
	}
}

// hasMovement checks if the arm moved since the last state
func (m *runModel) hasMovement(pot float64) bool {
	if !m.seen {
		return true
	}
	return pot != m.lastPotent
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - statusHeight - keysHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *runModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

// potRange returns the chart's y range for the configured backend.
func potRange(cfg *robot.Config) (lo, hi float64) {
	if cfg.Backend == robot.BackendSim {
		return cfg.Sim.PotMin, cfg.Sim.PotMax
	}
	cal := cfg.Pivot.Calibration
	return math.Min(cal.PotMin, cal.PotMax), math.Max(cal.PotMin, cal.PotMax)
}

func initialRunModel(ctrl *teleop.Controller, cfg *robot.Config, sim *robot.Sim) runModel {
	lo, hi := potRange(cfg)
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(lo, hi),
	)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	chart.SetDataSetStyles(potentSeries, runes.ThinLineStyle, style)

	return runModel{
		ctrl:  ctrl,
		sim:   sim,
		chart: &chart,
		light: true,
	}
}

func (m runModel) Init() tea.Cmd {
	// Start listening for state and log updates
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

// keyCommand maps a key to a controller command.
func (m *runModel) keyCommand(key string) (teleop.Command, bool) {
	switch key {
	case "i":
		return teleop.Intake(), true
	case "e":
		return teleop.Eject(), true
	case "x":
		return teleop.StopIntake(), true
	case "b":
		return teleop.SetArm(mechanism.ArmBottom), true
	case "t":
		return teleop.SetArm(mechanism.ArmTop), true
	case "m":
		return teleop.SetArm(mechanism.ArmMiddle), true
	case "c":
		return teleop.Cock(), true
	case "f":
		return teleop.Fire(0), true
	case "1":
		return teleop.Fire(teleop.ShotShort), true
	case "2":
		return teleop.Fire(teleop.ShotMedium), true
	case "3":
		return teleop.Fire(teleop.ShotLong), true
	case "4":
		return teleop.Fire(teleop.ShotEmptyTank), true
	case "up", "k":
		m.jog = math.Min(1, m.jog+jogStep)
		return teleop.Jog(m.jog), true
	case "down", "j":
		m.jog = math.Max(-1, m.jog-jogStep)
		return teleop.Jog(m.jog), true
	case "0":
		m.jog = 0
		return teleop.Jog(0), true
	case "l":
		m.light = !m.light
		return teleop.Light(m.light), true
	case "esc":
		m.jog = 0
		return teleop.Stop(), true
	}
	return teleop.Command{}, false
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		if cmd, ok := m.keyCommand(msg.String()); ok {
			m.ctrl.Send(cmd)
		}
		return m, nil

	case stateMsg:
		m.state = teleop.State(msg)
		pot := m.state.Status.Potent
		// Only update chart if there's movement (freeze when idle)
		if m.hasMovement(pot) {
			m.chart.PushDataSet(potentSeries, pot)
			m.chart.DrawAll()
			m.lastPotent, m.seen = pot, true
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func indicator(name string, on bool) string {
	if on {
		return onStyle.Render(name)
	}
	return offStyle.Render(name)
}

func (m runModel) renderStatus() string {
	s := m.state.Status
	items := []string{
		fmt.Sprintf("pot %7.1f", s.Potent),
		fmt.Sprintf("arm %-16s", s.SeekState),
		fmt.Sprintf("jog %+.2f", m.state.Jog),
		indicator("seeking", s.SettingArm),
		indicator("cocking", s.Shooting),
		indicator("firing", s.Firing),
		indicator("compressor", s.Compressing),
		indicator("light", s.Light == mechanism.RelayForward),
	}
	if m.sim != nil {
		items = append(items, fmt.Sprintf("tank %3.0f%%", m.sim.State().Pressure*100))
	}
	if s.ArmErr != nil && !errors.Is(s.ArmErr, context.Canceled) {
		items = append(items, lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(s.ArmErr.Error()))
	}
	return strings.Join(items, "  ")
}

func renderKeys() string {
	keys := []struct{ key, what string }{
		{"i/e/x", "intake/eject/stop"},
		{"b/t/m", "arm bottom/top/middle"},
		{"↑/↓/0", "jog"},
		{"c", "cock"},
		{"f 1-4", "fire"},
		{"l", "light"},
		{"esc", "stop"},
		{"q", "quit"},
	}
	var items []string
	for _, k := range keys {
		items = append(items, keyStyle.Render(k.key)+" "+k.what)
	}
	return strings.Join(items, "  ")
}

func (m runModel) View() string {
	if m.quitting {
		return "Shooter stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("T-Shirt Shooter"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.ctrl.Hz()))
	if m.sim != nil {
		sb.WriteString(statusStyle.Render("  (simulated)"))
	}
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(m.renderStatus())
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderKeys())
	sb.WriteString("\n\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

// loadConfig reads --config. A missing file falls back to the simulator.
func loadConfig() *robot.Config {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No configuration at %s, using the simulator. Run 'shooter setup' to configure a robot.\n", opts.Config)
		return robot.DefaultConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", opts.Config, err)
		os.Exit(1)
	}
	fmt.Printf("Loaded configuration from %s\n", opts.Config)
	return cfg
}

// startupCommands are queued before the first tick. The camera light is on
// whenever the robot is powered.
func startupCommands() []teleop.Command {
	return []teleop.Command{teleop.Light(true)}
}

// openShooter builds the backend, mechanism and controller for cfg. On error
// everything opened so far is closed again.
func openShooter(ctx context.Context, cfg *robot.Config, hz int, logs *teleop.Log) (*robot.Backend, *teleop.Controller, error) {
	backend, err := robot.Open(ctx, cfg, logs.Printf)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}

	mech, err := mechanism.New(backend.Hardware, mechanism.Options{
		Tunables: &cfg.Tunables,
		Logf:     logs.Printf,
	})
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("create mechanism: %w", err)
	}

	ctrl := teleop.NewController(mech, teleop.Config{Hz: hz, Log: logs})
	for _, cmd := range startupCommands() {
		ctrl.Send(cmd)
	}
	return backend, ctrl, nil
}

func (c *RunCommand) Execute(args []string) error {
	cfg := loadConfig()
	hz := c.Hz
	if hz <= 0 {
		hz = cfg.Hz
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logs := teleop.NewLog(32)
	backend, ctrl, err := openShooter(ctx, cfg, hz, logs)
	if err != nil {
		return err
	}
	defer backend.Close()

	// Start controller in background
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := ctrl.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Controller error: %v", err)
		}
	}()
	defer func() {
		cancel()
		<-loopDone
		ctrl.Close()
	}()

	if c.Watch {
		go func() {
			err := robot.WatchTunables(ctx, opts.Config, func(t mechanism.Tunables, err error) {
				if err != nil {
					logs.Printf("Reload %s: %v", opts.Config, err)
					return
				}
				ctrl.Send(teleop.SetTunables(t))
			})
			if err != nil {
				logs.Printf("Watch disabled: %v", err)
			}
		}()
	}

	// Run TUI
	p := tea.NewProgram(initialRunModel(ctrl, cfg, backend.Sim), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	return nil
}
