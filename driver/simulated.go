package driver

import (
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/logger"
	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/protocol"
)

// SimulatedTransport answers commands in memory with the firmware's reply contract.
// It keeps a single last-sent slot: each write replaces the previous one and
// ReadReply is a pure function of that slot.
type SimulatedTransport struct {
	lastSent []byte
}

var _ Transport = (*SimulatedTransport)(nil)

// NewSimulated returns a simulated board. link is accepted so both
// variants are constructed the same way; it is not used.
func NewSimulated(link LinkParams) *SimulatedTransport {
	return &SimulatedTransport{}
}

func (s *SimulatedTransport) WriteCommand(line string) error {
	if err := protocol.CheckCommand(line); err != nil {
		return err
	}
	s.lastSent = protocol.Frame(line)
	logger.Protocol("TX", "simulated", s.lastSent)
	return nil
}

func (s *SimulatedTransport) ReadReply() (string, error) {
	return protocol.Reply(s.lastSent), nil
}

// Close does nothing; there is no resource behind the simulation
func (s *SimulatedTransport) Close() error {
	return nil
}

// LastSent returns the exact bytes of the most recent write, terminator included
func (s *SimulatedTransport) LastSent() []byte {
	return append([]byte(nil), s.lastSent...)
}
