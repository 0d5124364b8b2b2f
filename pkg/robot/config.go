package robot

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

const DefaultConfigFile = "shooter.yaml"

// Backends.
const (
	BackendSim      = "sim"
	BackendHardware = "hardware"
)

// Config holds the robot configuration
type Config struct {
	Backend  string                `yaml:"backend"`
	Hz       int                   `yaml:"hz"`
	LogFile  string                `yaml:"log_file,omitempty"`
	Pivot    PivotConfig           `yaml:"pivot"`
	Outputs  map[OutputName]string `yaml:"outputs,omitempty"`
	Switches SwitchesConfig        `yaml:"switches"`
	Relays   RelaysConfig          `yaml:"relays"`
	Modbus   *ModbusConfig         `yaml:"modbus,omitempty"`
	Sim      SimConfig             `yaml:"sim"`
	Tunables mechanism.Tunables    `yaml:"tunables"`
}

// PivotConfig holds the feetech servo that swings the arm.
type PivotConfig struct {
	Port        string           `yaml:"port"`
	ServoID     int              `yaml:"servo_id"`
	StepTicks   int              `yaml:"step_ticks"`
	Timeout     time.Duration    `yaml:"timeout"`
	Calibration PivotCalibration `yaml:"calibration"`
}

// SwitchConfig is a digital input on a GPIO pin or a Modbus discrete input.
type SwitchConfig struct {
	Pin         string  `yaml:"pin,omitempty"`
	ActiveLow   bool    `yaml:"active_low,omitempty"`
	ModbusInput *uint16 `yaml:"modbus_input,omitempty"`
}

type SwitchesConfig struct {
	Limit    SwitchConfig `yaml:"limit"`
	Pressure SwitchConfig `yaml:"pressure"`
}

// RelayConfig is a spike relay on a GPIO pin pair or a Modbus coil.
type RelayConfig struct {
	Forward    string  `yaml:"forward,omitempty"`
	Reverse    string  `yaml:"reverse,omitempty"`
	ModbusCoil *uint16 `yaml:"modbus_coil,omitempty"`
}

type RelaysConfig struct {
	CameraLight RelayConfig `yaml:"camera_light"`
	Compressor  RelayConfig `yaml:"compressor"`
}

// ModbusConfig is the TCP I/O module endpoint.
type ModbusConfig struct {
	Endpoint string        `yaml:"endpoint"`
	UnitID   uint8         `yaml:"unit_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a simulated robot tuned for the simulator.
func DefaultConfig() *Config {
	return defaultConfig(BackendSim)
}

// DefaultHardwareConfig returns an unwired robot with the shipped tunables.
func DefaultHardwareConfig() *Config {
	return defaultConfig(BackendHardware)
}

func defaultConfig(backend string) *Config {
	tunables := mechanism.DefaultTunables()
	if backend != BackendHardware {
		tunables = DefaultSimTunables()
	}
	return &Config{
		Backend: backend,
		Hz:      50,
		Pivot: PivotConfig{
			ServoID:     1,
			StepTicks:   20,
			Timeout:     100 * time.Millisecond,
			Calibration: DefaultPivotCalibration(),
		},
		Sim:      DefaultSimConfig(),
		Tunables: tunables,
	}
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file. Keys missing from
// the file keep the defaults of the file's backend.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Backend string `yaml:"backend"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg := defaultConfig(head.Backend)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}

// Normalize fills zero values that have a sensible default.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendSim
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 50
	}
	if cfg.Pivot.StepTicks <= 0 {
		cfg.Pivot.StepTicks = 20
	}
	if cfg.Pivot.Timeout <= 0 {
		cfg.Pivot.Timeout = 100 * time.Millisecond
	}
	if cfg.Modbus != nil && cfg.Modbus.Timeout <= 0 {
		cfg.Modbus.Timeout = time.Second
	}
}

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	if err := cfg.Tunables.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch cfg.Backend {
	case BackendSim:
		return nil
	case BackendHardware:
	default:
		return fmt.Errorf("config: unknown backend %q", cfg.Backend)
	}

	if cfg.Pivot.Port == "" {
		return errors.New("config: pivot.port is required")
	}
	if !cfg.Pivot.Calibration.IsCalibrated() {
		return errors.New("config: pivot is not calibrated, run setup")
	}
	for _, name := range AllOutputs() {
		if cfg.Outputs[name] == "" {
			return fmt.Errorf("config: outputs.%s pin is required", name)
		}
	}

	usesModbus := false
	switches := []struct {
		name string
		sw   SwitchConfig
	}{
		{"limit", cfg.Switches.Limit},
		{"pressure", cfg.Switches.Pressure},
	}
	for _, s := range switches {
		if (s.sw.Pin == "") == (s.sw.ModbusInput == nil) {
			return fmt.Errorf("config: switches.%s needs exactly one of pin or modbus_input", s.name)
		}
		usesModbus = usesModbus || s.sw.ModbusInput != nil
	}
	relays := []struct {
		name string
		r    RelayConfig
	}{
		{"camera_light", cfg.Relays.CameraLight},
		{"compressor", cfg.Relays.Compressor},
	}
	for _, r := range relays {
		if (r.r.Forward == "") == (r.r.ModbusCoil == nil) {
			return fmt.Errorf("config: relays.%s needs exactly one of forward or modbus_coil", r.name)
		}
		usesModbus = usesModbus || r.r.ModbusCoil != nil
	}
	if usesModbus && (cfg.Modbus == nil || cfg.Modbus.Endpoint == "") {
		return errors.New("config: modbus.endpoint is required by a modbus switch or relay")
	}
	return nil
}
