package driver

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
)

const (
	tcpDialTimeout = 2 * time.Second
	drainWindow    = 10 * time.Millisecond
)

// TCPPort carries the board's serial stream over TCP: ser2net/RFC2217-style
// bridges in raw mode, or the mock-dut emulator.
type TCPPort struct {
	conn net.Conn
	addr string
	poll time.Duration
}

var _ Port = (*TCPPort)(nil)

// OpenTCP dials a board bridge at address (host:port)
func OpenTCP(address string) (Port, error) {
	conn, err := net.DialTimeout("tcp", address, tcpDialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		// one command line per write, don't let Nagle hold it back
		tc.SetNoDelay(true)
	}

	logger.Info("Connected to board bridge %s (TCP)", address)
	return &TCPPort{conn: conn, addr: address, poll: pollInterval}, nil
}

// Read waits at most one poll interval. Like a serial read timeout, an
// expired wait returns 0 bytes and no error.
func (t *TCPPort) Read(p []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.poll)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if isTimeout(err) {
		err = nil
	}
	return n, err
}

func (t *TCPPort) Write(p []byte) (int, error) {
	return t.conn.Write(p)
}

func (t *TCPPort) Close() error {
	logger.Debug("Disconnecting from %s", t.addr)
	return t.conn.Close()
}

// ResetInputBuffer discards whatever the bridge has already delivered
func (t *TCPPort) ResetInputBuffer() error {
	scratch := make([]byte, 512)
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(drainWindow)); err != nil {
			return err
		}
		n, err := t.conn.Read(scratch)
		if n > 0 {
			continue
		}
		if err == nil || isTimeout(err) {
			return nil
		}
		return err
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
