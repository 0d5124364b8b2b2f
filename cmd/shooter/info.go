package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/robot"
)

type InfoCommand struct {
	Probe bool `long:"probe" description:"Open the hardware and read every sensor once"`
}

var (
	infoKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	infoCellStyle = lipgloss.NewStyle().Padding(0, 1)
	infoHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return infoHeadStyle
			case col == 0:
				return infoKeyStyle
			default:
				return infoCellStyle
			}
		}).
		Render()
}

func switchString(s robot.SwitchConfig) string {
	if s.ModbusInput != nil {
		return fmt.Sprintf("modbus input %d", *s.ModbusInput)
	}
	if s.ActiveLow {
		return s.Pin + " (active low)"
	}
	return s.Pin
}

func relayString(r robot.RelayConfig) string {
	switch {
	case r.ModbusCoil != nil:
		return fmt.Sprintf("modbus coil %d", *r.ModbusCoil)
	case r.Reverse != "":
		return r.Forward + " / " + r.Reverse
	default:
		return r.Forward
	}
}

func configRows(cfg *robot.Config) [][]string {
	rows := [][]string{
		{"backend", cfg.Backend},
		{"hz", strconv.Itoa(cfg.Hz)},
	}
	if cfg.Backend == robot.BackendSim {
		return append(rows,
			[]string{"sim pivot rate", fmt.Sprintf("%.0f/s", cfg.Sim.PivotRate)},
			[]string{"sim cock time", cfg.Sim.CockTime.String()},
			[]string{"sim low pressure", fmt.Sprintf("%.0f%%", cfg.Sim.LowPressure*100)},
		)
	}

	cal := cfg.Pivot.Calibration
	rows = append(rows,
		[]string{"pivot", fmt.Sprintf("servo %d on %s", cfg.Pivot.ServoID, cfg.Pivot.Port)},
		[]string{"pivot range", fmt.Sprintf("%d..%d -> %.0f..%.0f", cal.RangeMin, cal.RangeMax, cal.PotMin, cal.PotMax)},
		[]string{"pivot step", fmt.Sprintf("%d ticks", cfg.Pivot.StepTicks)},
	)
	names := make([]string, 0, len(cfg.Outputs))
	for name := range cfg.Outputs {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []string{name, cfg.Outputs[robot.OutputName(name)]})
	}
	rows = append(rows,
		[]string{"limit switch", switchString(cfg.Switches.Limit)},
		[]string{"pressure switch", switchString(cfg.Switches.Pressure)},
		[]string{"camera light", relayString(cfg.Relays.CameraLight)},
		[]string{"compressor", relayString(cfg.Relays.Compressor)},
	)
	if cfg.Modbus != nil {
		rows = append(rows, []string{"modbus", fmt.Sprintf("%s unit %d", cfg.Modbus.Endpoint, cfg.Modbus.UnitID)})
	}
	return rows
}

func tunableRows(cfg *robot.Config) [][]string {
	t := cfg.Tunables
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	seek := "unbounded"
	if t.SeekTimeout > 0 {
		seek = t.SeekTimeout.String()
	}
	return [][]string{
		{"arm_minimum_extreme", f(t.ArmMinimumExtreme)},
		{"arm_maximum_extreme", f(t.ArmMaximumExtreme)},
		{"arm_up_speed", f(t.ArmUpSpeed)},
		{"arm_down_speed", f(t.ArmDownSpeed)},
		{"arm_middle_up_position", f(t.ArmMiddleUpPosition)},
		{"arm_middle_down_position", f(t.ArmMiddleDownPosition)},
		{"arm_middle_up_speed", f(t.ArmMiddleUpSpeed)},
		{"arm_middle_down_speed", f(t.ArmMiddleDownSpeed)},
		{"arm_shooting_delay", t.ShootingDelay.String()},
		{"seek_timeout", seek},
	}
}

func (c *InfoCommand) Execute(args []string) error {
	cfg := loadConfig()
	fmt.Println()

	fmt.Println(headerStyle.Render("Configuration"))
	fmt.Println(renderTable([]string{"Setting", "Value"}, configRows(cfg)))
	fmt.Println()
	fmt.Println(headerStyle.Render("Tunables"))
	fmt.Println(renderTable([]string{"Key", "Value"}, tunableRows(cfg)))

	if !c.Probe {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend, err := robot.Open(ctx, cfg, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s backend: %v\n", cfg.Backend, err)
		os.Exit(1)
	}
	defer backend.Close()

	hw := backend.Hardware
	rows := [][]string{
		{"potentiometer", fmt.Sprintf("%.1f", hw.Potent.Position())},
		{"limit switch", strconv.FormatBool(hw.Limit.Get())},
		{"pressure low", strconv.FormatBool(hw.Pressure.Get())},
	}
	fmt.Println()
	fmt.Println(headerStyle.Render("Sensors"))
	fmt.Println(renderTable([]string{"Sensor", "Reading"}, rows))
	return nil
}
