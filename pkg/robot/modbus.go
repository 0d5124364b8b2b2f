package robot

import (
	"errors"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// ModbusIO is a single TCP connection to a Modbus I/O module carrying the
// shooter's switches and relays. Requests are serialized.
type ModbusIO struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	logf    func(string, ...any)
}

func NewModbusIO(cfg ModbusConfig, logf func(string, ...any)) (*ModbusIO, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus: endpoint required")
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &ModbusIO{
		handler: h,
		client:  modbus.NewClient(h),
		logf:    logf,
	}, nil
}

func (m *ModbusIO) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler.Close()
}

func (m *ModbusIO) readInput(addr uint16) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.client.ReadDiscreteInputs(addr, 1)
	if err != nil {
		return false, err
	}
	if len(res) == 0 {
		return false, errors.New("empty response")
	}
	return res[0]&1 == 1, nil
}

func (m *ModbusIO) writeCoil(addr uint16, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.client.WriteSingleCoil(addr, coilValue(on))
	return err
}

// Input returns a switch reading discrete input addr.
func (m *ModbusIO) Input(addr uint16, activeLow bool) *ModbusSwitch {
	return &ModbusSwitch{io: m, addr: addr, activeLow: activeLow}
}

// Coil returns a relay on coil addr. The coil is on only for RelayForward.
func (m *ModbusIO) Coil(addr uint16) *ModbusRelay {
	return &ModbusRelay{io: m, addr: addr}
}

// ModbusSwitch reports the last good reading when a request fails.
type ModbusSwitch struct {
	io        *ModbusIO
	addr      uint16
	activeLow bool

	mu   sync.Mutex
	last bool
}

func (s *ModbusSwitch) Get() bool {
	v, err := s.io.readInput(s.addr)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.io.logf("modbus: read input %d: %v", s.addr, err)
		return s.last
	}
	s.last = v != s.activeLow
	return s.last
}

type ModbusRelay struct {
	io   *ModbusIO
	addr uint16
}

func (r *ModbusRelay) Set(v mechanism.RelayValue) {
	if err := r.io.writeCoil(r.addr, v == mechanism.RelayForward); err != nil {
		r.io.logf("modbus: write coil %d: %v", r.addr, err)
	}
}

func coilValue(on bool) uint16 {
	if on {
		return 0xFF00
	}
	return 0x0000
}
