package canlink

import (
	"sync"

	"github.com/openlcb/canlink/internal/candrv"
	"github.com/openlcb/canlink/internal/configmem"
	"github.com/openlcb/canlink/internal/node"
	"github.com/openlcb/canlink/internal/openlcb"
	"github.com/openlcb/canlink/internal/wire"
)

// MockDriver is a candrv.Driver for unit tests: it behaves like
// candrv.LoopbackDriver (frames handed to TransmitFrame are queued for the
// next PollReceive) but additionally tracks call counts and lets a test
// inject a transmit failure on demand, the way the teacher's MockBackend
// tracks call counts and lets a test flip it into a closed/failing state.
type MockDriver struct {
	mu sync.RWMutex

	txReady   bool
	failNext  bool
	queue     []wire.Frame
	sent      []wire.Frame
	closed    bool

	transmitCalls    int
	pollReceiveCalls int
}

// NewMockDriver creates a MockDriver with its transmit buffer ready.
func NewMockDriver() *MockDriver {
	return &MockDriver{txReady: true}
}

func (d *MockDriver) IsTxBufferReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.txReady
}

func (d *MockDriver) TransmitFrame(f wire.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.transmitCalls++
	if d.closed {
		return candrv.ErrTxBufferFull
	}
	if d.failNext {
		d.failNext = false
		return candrv.ErrTxBufferFull
	}
	d.sent = append(d.sent, f)
	d.queue = append(d.queue, f) // loopback: a driver hears its own traffic
	return nil
}

func (d *MockDriver) PollReceive(sink candrv.FrameSink) (int, error) {
	d.mu.Lock()
	d.pollReceiveCalls++
	frames := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, f := range frames {
		sink(f)
	}
	return len(frames), nil
}

func (d *MockDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// SetTxReady lets a test simulate the hardware transmit queue backing up.
func (d *MockDriver) SetTxReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.txReady = ready
}

// FailNextTransmit makes the next single TransmitFrame call report
// candrv.ErrTxBufferFull, then resumes succeeding.
func (d *MockDriver) FailNextTransmit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = true
}

// Deliver injects a frame as if it had arrived from the bus, without going
// through TransmitFrame — useful for feeding a crafted frame to a Stack
// under test.
func (d *MockDriver) Deliver(f wire.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, f)
}

// Sent returns every frame that has been successfully transmitted, in
// order.
func (d *MockDriver) Sent() []wire.Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]wire.Frame, len(d.sent))
	copy(out, d.sent)
	return out
}

// CallCounts reports how many times TransmitFrame and PollReceive have
// been invoked.
func (d *MockDriver) CallCounts() (transmit, pollReceive int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.transmitCalls, d.pollReceiveCalls
}

var _ candrv.Driver = (*MockDriver)(nil)

// MockConfigMemory wraps a configmem.Store with per-space call counting, so
// a test can assert which spaces a handler actually touched without
// instrumenting the handler itself.
type MockConfigMemory struct {
	mu    sync.Mutex
	store *configmem.Store

	reads  map[configmem.Space]int
	writes map[configmem.Space]int
}

// NewMockConfigMemory builds a MockConfigMemory backed by a configmem.Store
// sized per the given spaces.
func NewMockConfigMemory(sizes map[configmem.Space]int) *MockConfigMemory {
	return &MockConfigMemory{
		store:  configmem.NewStore(sizes),
		reads:  make(map[configmem.Space]int),
		writes: make(map[configmem.Space]int),
	}
}

// Seed pre-populates a space, forwarding to the underlying Store.
func (m *MockConfigMemory) Seed(space configmem.Space, data []byte) {
	m.store.Seed(space, data)
}

func (m *MockConfigMemory) Read(space configmem.Space, offset uint32, length int) ([]byte, error) {
	m.mu.Lock()
	m.reads[space]++
	m.mu.Unlock()
	return m.store.Read(space, offset, length)
}

func (m *MockConfigMemory) Write(space configmem.Space, offset uint32, data []byte) (int, error) {
	m.mu.Lock()
	m.writes[space]++
	m.mu.Unlock()
	return m.store.Write(space, offset, data)
}

// ReadCount reports how many times Read was called against space,
// regardless of whether it succeeded.
func (m *MockConfigMemory) ReadCount(space configmem.Space) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[space]
}

// WriteCount reports how many times Write was called against space,
// regardless of whether it succeeded.
func (m *MockConfigMemory) WriteCount(space configmem.Space) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[space]
}

var _ configmem.ConfigMemory = (*MockConfigMemory)(nil)

// RecordingHandler implements openlcb.Handler by appending every call it
// receives to a per-method slice, so a test can assert on exactly what
// reached the application layer without hand-writing a bespoke stub each
// time. It embeds openlcb.NopHandler so new Handler methods added later
// degrade to a no-op instead of a compile error here.
type RecordingHandler struct {
	openlcb.NopHandler

	mu sync.Mutex

	VerifyNodeID                []openlcb.Message
	ProtocolSupportInquiry      []openlcb.Message
	EventReports                []openlcb.Message
	IdentifyProducer             []openlcb.Message
	IdentifyConsumer             []openlcb.Message
	Datagrams                   []openlcb.Message
	DatagramOKs                  []openlcb.Message
	DatagramRejecteds             []openlcb.Message
	Unknown                      []openlcb.Message
}

func (h *RecordingHandler) HandleVerifyNodeID(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.VerifyNodeID = append(h.VerifyNodeID, msg)
}

func (h *RecordingHandler) HandleProtocolSupportInquiry(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ProtocolSupportInquiry = append(h.ProtocolSupportInquiry, msg)
}

func (h *RecordingHandler) HandleEventReport(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.EventReports = append(h.EventReports, msg)
}

func (h *RecordingHandler) HandleIdentifyProducer(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.IdentifyProducer = append(h.IdentifyProducer, msg)
}

func (h *RecordingHandler) HandleIdentifyConsumer(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.IdentifyConsumer = append(h.IdentifyConsumer, msg)
}

func (h *RecordingHandler) HandleDatagram(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	h.Datagrams = append(h.Datagrams, msg)
	h.mu.Unlock()
}

func (h *RecordingHandler) HandleDatagramOK(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.DatagramOKs = append(h.DatagramOKs, msg)
}

func (h *RecordingHandler) HandleDatagramRejected(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.DatagramRejecteds = append(h.DatagramRejecteds, msg)
}

func (h *RecordingHandler) HandleUnknown(n *node.Node, msg openlcb.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Unknown = append(h.Unknown, msg)
}

var _ openlcb.Handler = (*RecordingHandler)(nil)
