package driver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

// pollInterval bounds a single low-level read so line reads can enforce their own deadline
const pollInterval = 100 * time.Millisecond

// LinkParams describes how the real link is opened
type LinkParams struct {
	BaudRate    int           // ignored by USB CDC, required for UART
	ReadTimeout time.Duration // upper bound for one ReadReply
	SettleDelay time.Duration // pause after opening before the first command
}

// DefaultLinkParams returns 115200 bps, a 1s read timeout and a 2s settle delay
func DefaultLinkParams() LinkParams {
	return LinkParams{
		BaudRate:    115200,
		ReadTimeout: 1 * time.Second,
		SettleDelay: 2 * time.Second,
	}
}

// Validate checks the parameters a real link needs
func (l LinkParams) Validate() error {
	if l.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive, got %d", l.BaudRate)
	}
	if l.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if l.SettleDelay < 0 {
		return errors.New("settle delay must not be negative")
	}
	return nil
}

// SerialPort wraps go.bug.st/serial for the board's CDC/UART link
type SerialPort struct {
	serial.Port
	portName string
}

var _ Port = (*SerialPort)(nil)

// openSerialPort opens a physical serial port (8N1)
func openSerialPort(portName string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}

	// Set read timeout to prevent blocking forever
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	logger.Info("Serial port %s opened at %d bps (8N1)", portName, baudRate)
	return &SerialPort{Port: port, portName: portName}, nil
}

func (p *SerialPort) Close() error {
	logger.Debug("Closing serial port %s", p.portName)
	return p.Port.Close()
}

// OpenPort opens either a physical serial port or a TCP bridge, based on the name.
// TCP addresses use the form "tcp://host:port"; serial ports are "COM3", "/dev/ttyACM0", etc.
func OpenPort(portName string, link LinkParams) (Port, error) {
	if strings.HasPrefix(portName, "tcp://") {
		return OpenTCP(strings.TrimPrefix(portName, "tcp://"))
	}
	return openSerialPort(portName, link.BaudRate)
}
