package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/protocol"
)

// idleBackoff is slept when a poll returns nothing, so ports that do not block on Read don't spin
const idleBackoff = 10 * time.Millisecond

// LineTransport is the real Transport: protocol lines over a Port
type LineTransport struct {
	port    Port
	name    string
	timeout time.Duration

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

var _ Transport = (*LineTransport)(nil)

// OpenLine opens portName with link and waits the settle delay before returning.
// The settle wait is abandoned, and the port closed, if ctx ends first.
func OpenLine(ctx context.Context, portName string, link LinkParams) (*LineTransport, error) {
	if err := link.Validate(); err != nil {
		return nil, err
	}

	port, err := OpenPort(portName, link)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}

	t := NewLineTransport(port, portName, link)
	if err := t.settle(ctx, link.SettleDelay); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// NewLineTransport wraps an already open port. No settle delay is applied.
func NewLineTransport(port Port, name string, link LinkParams) *LineTransport {
	timeout := link.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultLinkParams().ReadTimeout
	}
	return &LineTransport{port: port, name: name, timeout: timeout}
}

// settle gives the host OS and driver time to finish enumeration, then
// drops anything the board printed while starting up.
func (t *LineTransport) settle(ctx context.Context, delay time.Duration) error {
	if delay > 0 {
		logger.Debug("Waiting %v for %s to settle", delay, t.name)
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return fmt.Errorf("settle %s: %w", t.name, ctx.Err())
		case <-timer.C:
		}
	}
	return t.port.ResetInputBuffer()
}

func (t *LineTransport) WriteCommand(line string) error {
	if err := protocol.CheckCommand(line); err != nil {
		return err
	}
	if t.isClosed() {
		return ErrClosed
	}

	frame := protocol.Frame(line)
	logger.Protocol("TX", t.name, frame)
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// ReadReply reads up to and including the next LF. Bytes are consumed one
// at a time so nothing after the terminator is taken from the port.
func (t *LineTransport) ReadReply() (string, error) {
	if t.isClosed() {
		return "", ErrClosed
	}

	var line []byte
	b := make([]byte, 1)
	deadline := time.Now().Add(t.timeout)

	for time.Now().Before(deadline) {
		n, err := t.port.Read(b)
		if n > 0 {
			line = append(line, b[0])
			if b[0] == '\n' {
				logger.Protocol("RX", t.name, line)
				return protocol.Normalize(line), nil
			}
			continue
		}
		if err != nil {
			return protocol.Normalize(line), fmt.Errorf("read error: %w", err)
		}
		time.Sleep(idleBackoff)
	}

	logger.Warn("Read timeout on %s after %v (%d bytes)", t.name, t.timeout, len(line))
	logger.Protocol("RX", t.name+" partial", line)
	return protocol.Normalize(line), nil
}

func (t *LineTransport) Close() error {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()

		t.closeErr = t.port.Close()
		logger.Info("Closed %s", t.name)
	})
	return t.closeErr
}

func (t *LineTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
