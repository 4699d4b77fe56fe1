package driver

import (
	"bytes"
	"io"
	"sync"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/protocol"
)

// MockPort emulates the board firmware at byte level. Every complete line
// written to it is answered through protocol.Respond, so a LineTransport
// on top of it behaves like one talking to real hardware.
type MockPort struct {
	mu       sync.Mutex
	readBuf  *bytes.Buffer // bytes the board has sent
	writeBuf *bytes.Buffer // every byte written by the host
	pending  []byte        // incomplete request line
	muted    bool
	closed   bool
	closes   int
}

var _ Port = (*MockPort)(nil)

func NewMockPort() *MockPort {
	return &MockPort{
		readBuf:  new(bytes.Buffer),
		writeBuf: new(bytes.Buffer),
	}
}

// Read returns what the board has sent so far, or 0 bytes if nothing is pending,
// like a serial read that hit its timeout.
func (m *MockPort) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, io.EOF
	}
	if m.readBuf.Len() == 0 {
		return 0, nil
	}
	return m.readBuf.Read(p)
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, io.ErrClosedPipe
	}

	m.writeBuf.Write(p)
	m.pending = append(m.pending, p...)

	for {
		idx := bytes.IndexByte(m.pending, '\n')
		if idx < 0 {
			break
		}
		line := m.pending[:idx+1]
		m.pending = m.pending[idx+1:]
		if m.muted {
			continue
		}
		m.readBuf.WriteString(protocol.Reply(line))
		m.readBuf.WriteString(protocol.Terminator)
	}

	return len(p), nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.closes++
	return nil
}

func (m *MockPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Reset()
	return nil
}

// Mute makes the board stop answering, as a hung or wrong device would
func (m *MockPort) Mute(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// Inject queues unsolicited output from the board, e.g. a boot banner or a partial line
func (m *MockPort) Inject(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

// Written returns every byte the host has written
func (m *MockPort) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writeBuf.Bytes()...)
}

// Closes reports how many times Close was called
func (m *MockPort) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
