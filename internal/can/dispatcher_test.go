package can

import (
	"testing"

	"github.com/openlcb/canlink/internal/aliastable"
	"github.com/openlcb/canlink/internal/buffer"
	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *node.Table, *candrv.LoopbackDriver) {
	t.Helper()
	driver := candrv.NewLoopbackDriver(32)
	nodes := node.New(2)
	aliases := aliastable.New(8)
	store := buffer.NewStore(4)
	messages := buffer.NewFIFO(4)
	datagrams := buffer.NewFIFO(4)
	partials := buffer.NewPartialList(4)
	rx := NewRxMachine(store, messages, datagrams, partials, aliases, nil)

	var stepped []uint64
	d := NewDispatcher(driver, nodes, aliases, rx, nil, func(n *node.Node) { stepped = append(stepped, n.ID) })
	return d, nodes, driver
}

func TestDispatcherDrivesLoginToCompletion(t *testing.T) {
	d, nodes, driver := newTestDispatcher(t)
	n, ok := nodes.Allocate(0x020157000001, node.Params{})
	require.True(t, ok)

	for i := 0; i < 2000 && n.State < node.LoadInitializationComplete; i++ {
		d.Step()
		n.TimerTicks++
	}
	require.GreaterOrEqual(t, n.State, node.LoadInitializationComplete)
	require.True(t, n.Flags.Permitted)
	_ = driver
}

func TestDispatcherAnswersDeferredAMEWithAMD(t *testing.T) {
	d, nodes, driver := newTestDispatcher(t)
	n, ok := nodes.Allocate(0x020157000001, node.Params{})
	require.True(t, ok)
	n.Alias = 0x123
	n.Flags.Permitted = true
	n.Flags.AMEPending = true

	d.Step()

	var sent []wire.Frame
	driver.PollReceive(func(f wire.Frame) { sent = append(sent, f) })

	require.Len(t, sent, 1, "AMEPending must produce exactly one AMD frame")
	require.Equal(t, wire.FrameTypeControlOther, sent[0].ID.Type)
	require.Equal(t, uint16(0x701), sent[0].ID.Variable)
	require.Equal(t, n.Alias, sent[0].ID.SourceAlias)
	require.False(t, n.Flags.AMEPending)
}
