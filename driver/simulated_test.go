package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyjharrington-sys/STM32DevBoardTestingProject/protocol"
)

func TestSimulatedStoresExactBytes(t *testing.T) {
	sim := NewSimulated(DefaultLinkParams())
	require.NoError(t, sim.WriteCommand("ADD 5 7"))
	assert.Equal(t, []byte("ADD 5 7\r\n"), sim.LastSent())
}

func TestSimulatedSlotIsOverwritten(t *testing.T) {
	sim := NewSimulated(LinkParams{})
	require.NoError(t, sim.WriteCommand("STATUS"))
	require.NoError(t, sim.WriteCommand("VERSION"))

	reply, err := sim.ReadReply()
	require.NoError(t, err)
	assert.Equal(t, "v1.0", reply)
	assert.Equal(t, []byte("VERSION\r\n"), sim.LastSent())
}

func TestSimulatedReadIsRepeatable(t *testing.T) {
	sim := NewSimulated(LinkParams{})
	require.NoError(t, sim.WriteCommand("DIVIDE 10 3"))

	first, _ := sim.ReadReply()
	second, _ := sim.ReadReply()
	assert.Equal(t, "3 (remainder 1)", first)
	assert.Equal(t, first, second)
}

func TestSimulatedBeforeAnyWrite(t *testing.T) {
	sim := NewSimulated(LinkParams{})
	reply, err := sim.ReadReply()
	require.NoError(t, err)
	assert.Equal(t, protocol.ReplyUnknown, reply)
}

func TestSimulatedRejectsEmbeddedTerminator(t *testing.T) {
	sim := NewSimulated(LinkParams{})
	require.NoError(t, sim.WriteCommand("STATUS"))
	assert.ErrorIs(t, sim.WriteCommand("ADD 1 2\r\nSTATUS"), protocol.ErrEmbeddedTerminator)
	assert.Equal(t, []byte("STATUS\r\n"), sim.LastSent())
}

func TestSimulatedCloseIsNoop(t *testing.T) {
	sim := NewSimulated(LinkParams{})
	assert.NoError(t, sim.Close())
	assert.NoError(t, sim.Close())
	require.NoError(t, sim.WriteCommand("STATUS"))
	reply, _ := sim.ReadReply()
	assert.Equal(t, "OK", reply)
}
