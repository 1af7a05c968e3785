package openlcb

import (
	"testing"

	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	done   bool
	loaded []*can.OutgoingMessage
}

func (f *fakeTx) Load(msg *can.OutgoingMessage) { f.loaded = append(f.loaded, msg); f.done = true }
func (f *fakeTx) Done() bool                    { return f.done }

func TestSequencerSendsInitializationCompleteThenProducersThenConsumers(t *testing.T) {
	tx := &fakeTx{done: true}
	var completed []uint64
	s := NewSequencer(tx, func(n *node.Node) { completed = append(completed, n.ID) })

	nodes := node.New(1)
	n, ok := nodes.Allocate(0x020157000001, node.Params{})
	require.True(t, ok)
	n.Producers = []node.Event{{ID: 1, Status: node.EventSet}, {ID: 2, Status: node.EventClear}}
	n.Consumers = []node.Event{{ID: 3, Status: node.EventUnknown}}
	n.State = node.LoadInitializationComplete

	s.Step(n)
	require.Equal(t, node.LoadProducerEvents, n.State)
	require.Len(t, tx.loaded, 1)
	require.Equal(t, uint16(MTIInitializationComplete), tx.loaded[0].MTI)
	require.Equal(t, uint64(0x020157000001), wire.NodeID(tx.loaded[0].Payload))
	require.True(t, n.Flags.Initialized)

	s.Step(n)
	require.Equal(t, node.LoadProducerEvents, n.State)
	require.Equal(t, uint16(MTIProducerIdentifiedSet), tx.loaded[1].MTI)
	require.Equal(t, uint64(1), wire.EventID(tx.loaded[1].Payload))

	s.Step(n)
	require.Equal(t, uint16(MTIProducerIdentifiedClear), tx.loaded[2].MTI)

	s.Step(n) // producers exhausted -> moves to consumer state, no message
	require.Equal(t, node.LoadConsumerEvents, n.State)
	require.Len(t, tx.loaded, 3)

	s.Step(n)
	require.Equal(t, uint16(MTIConsumerIdentifiedUnknown), tx.loaded[3].MTI)

	s.Step(n) // consumers exhausted -> LOGIN_COMPLETE, no message
	require.Equal(t, node.LoginComplete, n.State)
	require.Len(t, tx.loaded, 4)
	require.Empty(t, completed)

	s.Step(n)
	require.Equal(t, node.Run, n.State)
	require.Equal(t, []uint64{0x020157000001}, completed)
}

func TestSequencerUsesSimpleInitCompleteWhenAdvertised(t *testing.T) {
	tx := &fakeTx{done: true}
	s := NewSequencer(tx, nil)
	nodes := node.New(1)
	n, _ := nodes.Allocate(1, node.Params{SimpleProtocol: true})
	n.State = node.LoadInitializationComplete

	s.Step(n)
	require.Equal(t, uint16(MTIInitializationCompleteSimple), tx.loaded[0].MTI)
}
