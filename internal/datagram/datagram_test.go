package datagram

import (
	"testing"

	"github.com/openlcb/canlink/internal/can"
	"github.com/openlcb/canlink/internal/openlcb"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	loaded []*can.OutgoingMessage
}

func (f *fakeTx) Load(msg *can.OutgoingMessage) { f.loaded = append(f.loaded, msg) }
func (f *fakeTx) Done() bool                    { return true }

func TestReceiverAcceptEmitsDatagramOK(t *testing.T) {
	tx := &fakeTx{}
	r := NewReceiver(tx, 4)
	r.Complete(0x100, 0x200, Outcome{Accept: true})

	require.Len(t, tx.loaded, 1)
	require.Equal(t, uint16(openlcb.MTIDatagramOK), tx.loaded[0].MTI)
	require.Equal(t, uint16(0x200), tx.loaded[0].DestAlias)
	require.Equal(t, Idle, r.State(0x100, 0x200), "exchange completes and frees its slot within one call")
}

func TestReceiverAcceptWithReplyPendingCarriesDuration(t *testing.T) {
	tx := &fakeTx{}
	r := NewReceiver(tx, 4)
	r.Complete(0x100, 0x200, Outcome{Accept: true, ReplyPendingMs: 500})

	require.Equal(t, []byte{0x01, 0xF4}, tx.loaded[0].Payload)
}

func TestReceiverRejectEmitsDatagramRejectedWithCode(t *testing.T) {
	tx := &fakeTx{}
	r := NewReceiver(tx, 4)
	r.Complete(0x100, 0x200, Outcome{Accept: false, ErrorCode: ErrorBufferFull})

	require.Equal(t, uint16(openlcb.MTIDatagramRejected), tx.loaded[0].MTI)
	require.Equal(t, []byte{0x20, 0x20}, tx.loaded[0].Payload)
}

func TestSenderRejectsSecondSendToSamePairWhileInFlight(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 3)
	require.True(t, s.Send(0x100, 0x200, []byte{1, 2, 3}))
	require.False(t, s.Send(0x100, 0x200, []byte{4, 5, 6}))
	require.Len(t, tx.loaded, 1)
}

func TestSenderAllowsConcurrentExchangesToDifferentPairs(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 3)
	require.True(t, s.Send(0x100, 0x200, []byte{1}))
	require.True(t, s.Send(0x100, 0x300, []byte{2}))
}

func TestSenderRetriesWithExponentialBackoffThenGivesUp(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 2)
	require.True(t, s.Send(0x100, 0x200, []byte{1}))
	require.Len(t, tx.loaded, 1, "the initial send")

	// Ticking immediately must not re-send before the backoff window for
	// attempt 1 has elapsed.
	s.Tick()
	require.Len(t, tx.loaded, 1, "backoff window has not elapsed yet")

	// Running well past every backoff window and the retry budget must
	// produce exactly one retry (maxRetries=2 means attempt 1 plus one
	// retry) and then abandon the exchange, never sending a third time.
	for i := 0; i < 20; i++ {
		s.Tick()
	}
	require.Len(t, tx.loaded, 2, "exactly one retry before the retry budget is exhausted")
	require.Nil(t, s.find(0x100, 0x200), "exchange abandoned after exhausting retries")
}

func TestSenderHandleReplyClearsExchangeOnImmediateAck(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 3)
	s.Send(0x100, 0x200, []byte{1})
	s.HandleReply(0x100, 0x200, true, 0)
	require.Nil(t, s.find(0x100, 0x200))
	require.True(t, s.Send(0x100, 0x200, []byte{2}), "slot freed, a new exchange to the same pair may start")
}

func TestSenderHandleReplyWithPendingWaitsThenTimesOut(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 3)
	s.Send(0x100, 0x200, []byte{1})
	s.HandleReply(0x100, 0x200, true, 3)
	require.NotNil(t, s.find(0x100, 0x200))

	s.Tick()
	s.Tick()
	require.NotNil(t, s.find(0x100, 0x200))
	s.Tick()
	require.Nil(t, s.find(0x100, 0x200))
}

func TestSenderClearReleasesBeforeTimeout(t *testing.T) {
	tx := &fakeTx{}
	s := NewSender(tx, 4, 3)
	s.Send(0x100, 0x200, []byte{1})
	s.HandleReply(0x100, 0x200, true, 50)
	s.Clear(0x100, 0x200)
	require.Nil(t, s.find(0x100, 0x200))
}
