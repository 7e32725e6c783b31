package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/wire"
)

func TestSeqGen_MonotonicStartingAtOne(t *testing.T) {
	var g SeqGen
	assert.EqualValues(t, 1, g.Next())
	assert.EqualValues(t, 2, g.Next())
	assert.EqualValues(t, 3, g.Next())
}

func TestPipeConnector_SendDeliversToPeer(t *testing.T) {
	a, b := NewPipe("a", "b")

	var got wire.Envelope
	b.SetReceiver(func(e wire.Envelope) { got = e })

	seq, err := a.Send("ping_request", []byte(`{}`))
	require.NoError(t, err)
	assert.EqualValues(t, 1, seq)
	assert.Equal(t, "ping_request", got.Type)
	assert.EqualValues(t, 1, got.Seq)
}

func TestPipeConnector_CloseRejectsFurtherSend(t *testing.T) {
	a, b := NewPipe("a", "b")
	require.NoError(t, a.Close())

	_, err := a.Send("ping_request", []byte(`{}`))
	assert.ErrorIs(t, err, ErrClosed)
	_ = b
}

func TestPipeConnector_IndependentSeqPerDirection(t *testing.T) {
	a, b := NewPipe("a", "b")
	a.SetReceiver(func(wire.Envelope) {})
	b.SetReceiver(func(wire.Envelope) {})

	seqA1, _ := a.Send("x", nil)
	seqB1, _ := b.Send("y", nil)
	seqA2, _ := a.Send("x", nil)

	assert.EqualValues(t, 1, seqA1)
	assert.EqualValues(t, 1, seqB1)
	assert.EqualValues(t, 2, seqA2)
}
