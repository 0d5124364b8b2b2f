package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Pivot servo IDs probed on each port.
const (
	scanFirstID = 1
	scanLastID  = 10
)

type SetupCommand struct {
	SkipPins bool `long:"skip-pins" description:"Keep the configured GPIO and Modbus wiring"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Shooter Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	config := robot.DefaultConfig()
	if existing, err := robot.LoadConfigFrom(opts.Config); err == nil {
		config = existing
		fmt.Printf("Updating %s (tunables are kept)\n\n", opts.Config)
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Ignoring unreadable %s: %v\n\n", opts.Config, err)
	}

	// Step 1: Find the pivot
	pivot, ok := scanForPivot()
	if !ok {
		var sim bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Write a simulator configuration instead?").
				Value(&sim),
		))
		if err := form.Run(); err != nil || !sim {
			os.Exit(1)
		}
		if config.Backend != robot.BackendSim {
			config.Tunables = robot.DefaultSimTunables()
		}
		config.Backend = robot.BackendSim
		saveConfig(config)
		return nil
	}
	// Simulator thresholds are in simulated potentiometer units.
	if config.Backend != robot.BackendHardware {
		config.Tunables = mechanism.DefaultTunables()
	}
	config.Backend = robot.BackendHardware
	config.Pivot.Port = pivot.port
	config.Pivot.ServoID = pivot.servo.ID

	// Step 2: Calibrate the pivot
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Arm Pivot ━━━"))
	fmt.Println()
	calibratePivot(&config.Pivot, pivot.servo)

	// Save after calibration
	saveConfig(config)

	// Step 3: Wiring
	if !c.SkipPins {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Outputs, Switches and Relays ━━━"))
		fmt.Println()
		configureWiring(config)
		saveConfig(config)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Println()
	fmt.Println("Drive the shooter with: " + headerStyle.Render("shooter run"))

	return nil
}

func saveConfig(config *robot.Config) {
	if err := config.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Configuration saved to %s\n", opts.Config)
}

type pivotInfo struct {
	port  string
	servo feetech.FoundServo
	bus   *feetech.Bus
}

func scanForPivot() (pivotInfo, bool) {
	fmt.Println("Scanning for the pivot servo...")
	fmt.Println()

	found := findPivots()
	if len(found) == 0 {
		fmt.Println("No feetech servo found.")
		fmt.Println("Make sure the pivot is connected and powered on.")
		return pivotInfo{}, false
	}

	fmt.Printf("Found %d servo(s). Let's identify the pivot...\n\n", len(found))

	var pivot pivotInfo
	ok := false
	for _, p := range found {
		if !ok && identifyPivotWithWiggle(p) {
			pivot, ok = p, true
		}
	}

	// Servos found on one port share a bus
	closed := make(map[*feetech.Bus]bool)
	for _, p := range found {
		if !closed[p.bus] {
			p.bus.Close()
			closed[p.bus] = true
		}
	}
	return pivot, ok
}

func findPivots() []pivotInfo {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []pivotInfo

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)

		bus, err := feetech.NewBus(feetech.BusConfig{
			Port:     port,
			BaudRate: 1_000_000,
			Protocol: feetech.ProtocolSTS,
			Timeout:  100 * time.Millisecond,
		})
		if err != nil {
			cancel()
			continue
		}

		servos, err := bus.Scan(ctx, scanFirstID, scanLastID)
		cancel()

		if err != nil || len(servos) == 0 {
			bus.Close()
			continue
		}

		for _, s := range servos {
			fmt.Printf("  Found servo %d on %s\n", s.ID, port)
			found = append(found, pivotInfo{port: port, servo: s, bus: bus})
		}
	}

	return found
}

func identifyPivotWithWiggle(p pivotInfo) bool {
	ctx := context.Background()
	servo := feetech.NewServo(p.bus, p.servo.ID, p.servo.Model)

	// Read current position
	originalPos, err := servo.Position(ctx)
	if err != nil {
		fmt.Printf("  Error reading position: %v\n", err)
		return false
	}

	// Enable torque for wiggle
	if err := servo.Enable(ctx); err != nil {
		fmt.Printf("  Error enabling servo: %v\n", err)
		return false
	}

	fmt.Printf("\n  Wiggling servo %d on %s...\n", p.servo.ID, p.port)

	// Wiggle: single gentle, slow movement
	wiggleAmount := 30
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos-wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	// Return to original position
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)

	// Disable torque
	servo.Disable(ctx)

	var isPivot bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Did the arm pivot move (servo %d on %s)?", p.servo.ID, p.port)).
				Affirmative("Yes, that's the pivot").
				Negative("No").
				Value(&isPivot),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return isPivot
}

func calibratePivot(pc *robot.PivotConfig, found feetech.FoundServo) {
	fmt.Printf("Calibrating servo %d on %s\n", pc.ServoID, pc.Port)
	fmt.Println()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     pc.Port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to pivot: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx := context.Background()
	servo := feetech.NewServo(bus, found.ID, found.Model)

	// Disable the servo so the user can swing the arm freely
	servo.Disable(ctx)

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Swing the arm all the way down AND all the way up.")
	fmt.Println()

	pos, err := servo.Position(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading pivot: %v\n", err)
		os.Exit(1)
	}

	// Run calibration TUI
	model := calibrationModel{servo: servo, cur: pos, min: pos, max: pos}
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}
	cm := finalModel.(calibrationModel)

	// The seek thresholds are written in potentiometer units. Keep the scale
	// that was configured and only let the user flip its direction.
	lo, hi := pc.Calibration.PotMin, pc.Calibration.PotMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		def := robot.DefaultPivotCalibration()
		lo, hi = def.PotMin, def.PotMax
	}
	inverted := pc.Calibration.PotMin > pc.Calibration.PotMax
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Does the reading fall as the arm rises?").
			Description("Matches the potentiometer wiring the arm tunables were written for").
			Value(&inverted),
	))
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	pc.Calibration = robot.PivotCalibration{
		RangeMin: cm.min,
		RangeMax: cm.max,
		PotMin:   lo,
		PotMax:   hi,
	}
	if inverted {
		pc.Calibration.PotMin, pc.Calibration.PotMax = hi, lo
	}

	fmt.Println()
	fmt.Printf("Pivot calibrated: raw %d..%d\n", cm.min, cm.max)
}

// Calibration TUI model
type calibrationModel struct {
	servo    *feetech.Servo
	cur      int
	min      int
	max      int
	quitting bool
}

type tickMsg time.Time

func (m calibrationModel) Init() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		if pos, err := m.servo.Position(context.Background()); err == nil {
			m.cur = pos
			m.min = min(m.min, pos)
			m.max = max(m.max, pos)
		}
		return m, tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
			return tickMsg(t)
		})
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	// Table styles
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rangeSize := m.max - m.min
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Current", "Min", "Max", "Range").
		Row(
			fmt.Sprintf("%d", m.cur),
			fmt.Sprintf("%d", m.min),
			fmt.Sprintf("%d", m.max),
			fmt.Sprintf("%d", rangeSize),
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableCurrentStyle
			case 3:
				if rangeSize > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}

// configureWiring asks for the GPIO pins and the optional Modbus module.
func configureWiring(config *robot.Config) {
	if config.Outputs == nil {
		config.Outputs = make(map[robot.OutputName]string)
	}
	defaults := map[robot.OutputName]string{
		robot.IntakeOne: "GPIO12",
		robot.IntakeTwo: "GPIO13",
		robot.Valve:     "GPIO18",
		robot.Cock:      "GPIO19",
	}

	outputs := make(map[robot.OutputName]*string)
	var fields []huh.Field
	for _, name := range robot.AllOutputs() {
		v := config.Outputs[name]
		if v == "" {
			v = defaults[name]
		}
		outputs[name] = &v
		fields = append(fields, huh.NewInput().
			Title(fmt.Sprintf("PWM pin for %s", name)).
			Value(&v))
	}

	limit := orDefault(config.Switches.Limit.Pin, "GPIO5")
	limitLow := config.Switches.Limit.ActiveLow
	light := orDefault(config.Relays.CameraLight.Forward, "GPIO20")
	useModbus := config.Modbus != nil

	fields = append(fields,
		huh.NewInput().Title("Limit switch pin").Value(&limit),
		huh.NewConfirm().Title("Does the limit switch pull the pin low when pressed?").Value(&limitLow),
		huh.NewInput().Title("Camera light relay pin").Value(&light),
		huh.NewConfirm().Title("Are the pressure switch and compressor on a Modbus I/O module?").Value(&useModbus),
	)
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	for name, v := range outputs {
		config.Outputs[name] = *v
	}
	config.Switches.Limit = robot.SwitchConfig{Pin: limit, ActiveLow: limitLow}
	config.Relays.CameraLight = robot.RelayConfig{Forward: light}

	if useModbus {
		configureModbus(config)
		return
	}

	pressure := orDefault(config.Switches.Pressure.Pin, "GPIO6")
	compressor := orDefault(config.Relays.Compressor.Forward, "GPIO21")
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Pressure switch pin").Value(&pressure),
		huh.NewInput().Title("Compressor relay pin").Value(&compressor),
	))
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	config.Modbus = nil
	config.Switches.Pressure = robot.SwitchConfig{Pin: pressure}
	config.Relays.Compressor = robot.RelayConfig{Forward: compressor}
}

func configureModbus(config *robot.Config) {
	mc := robot.ModbusConfig{Endpoint: "192.168.1.50:502", UnitID: 1, Timeout: time.Second}
	if config.Modbus != nil {
		mc = *config.Modbus
	}
	unit := strconv.Itoa(int(mc.UnitID))
	input := addrString(config.Switches.Pressure.ModbusInput)
	coil := addrString(config.Relays.Compressor.ModbusCoil)

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Modbus endpoint (host:port)").Value(&mc.Endpoint),
		huh.NewInput().Title("Unit ID").Value(&unit).Validate(validateUint(8)),
		huh.NewInput().Title("Pressure switch discrete input").Value(&input).Validate(validateUint(16)),
		huh.NewInput().Title("Compressor coil").Value(&coil).Validate(validateUint(16)),
	))
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	u, _ := strconv.ParseUint(unit, 10, 8)
	mc.UnitID = uint8(u)
	in, _ := strconv.ParseUint(input, 10, 16)
	co, _ := strconv.ParseUint(coil, 10, 16)
	inAddr, coilAddr := uint16(in), uint16(co)

	config.Modbus = &mc
	config.Switches.Pressure = robot.SwitchConfig{ModbusInput: &inAddr}
	config.Relays.Compressor = robot.RelayConfig{ModbusCoil: &coilAddr}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func addrString(addr *uint16) string {
	if addr == nil {
		return "0"
	}
	return strconv.Itoa(int(*addr))
}

func validateUint(bits int) func(string) error {
	return func(s string) error {
		if _, err := strconv.ParseUint(s, 10, bits); err != nil {
			return fmt.Errorf("must be a number that fits in %d bits", bits)
		}
		return nil
	}
}
