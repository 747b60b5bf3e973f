package scale

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort feeds queued chunks to the reader and behaves like a port with a
// short read timeout when the queue is empty.
type fakePort struct {
	chunks chan []byte
	mu     sync.Mutex
	closed bool
}

func newFakePort() *fakePort {
	return &fakePort{chunks: make(chan []byte, 16)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case c := <-p.chunks:
		return copy(b, c), nil
	case <-time.After(5 * time.Millisecond):
		return 0, nil
	}
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func TestReader_ParsesLinesAcrossChunks(t *testing.T) {
	port := newFakePort()
	monitor := NewMonitor(10)

	var wg sync.WaitGroup
	wg.Add(3)
	reader := NewReader(Settings{BaudRate: 9600}, ProtocolGeneric,
		func(name string, s Settings) (Port, error) {
			assert.Equal(t, "/dev/ttyUSB0", name)
			assert.Equal(t, 9600, s.BaudRate)
			return port, nil
		},
		func(r Reading) {
			monitor.Record(r)
			wg.Done()
		})

	require.NoError(t, reader.Connect("/dev/ttyUSB0"))
	assert.True(t, reader.Connected())
	assert.Equal(t, "/dev/ttyUSB0", reader.Info().Port)

	port.chunks <- []byte("ST 12")
	port.chunks <- []byte("50.5 kg\r\n\r\nUS 1300 kg\n")
	port.chunks <- []byte("???\n")
	wg.Wait()

	events := monitor.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "???", events[0].RawLine)
	assert.Equal(t, StatusError, events[0].Status)
	assert.Equal(t, StatusUnstable, events[1].Status)
	assert.Equal(t, "ST 1250.5 kg", events[2].RawLine)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(monitor.LastStableWeight()))

	require.NoError(t, reader.Disconnect())
	assert.True(t, port.isClosed())
	assert.False(t, reader.Connected())
}

func TestReader_ConnectTwiceFails(t *testing.T) {
	reader := NewReader(Settings{}, ProtocolGeneric,
		func(string, Settings) (Port, error) { return newFakePort(), nil }, nil)

	require.NoError(t, reader.Connect("COM3"))
	assert.ErrorIs(t, reader.Connect("COM3"), ErrAlreadyConnected)
	require.NoError(t, reader.Disconnect())
	assert.NoError(t, reader.Disconnect(), "disconnect is idempotent")
}

func TestReader_OpenError(t *testing.T) {
	reader := NewReader(Settings{}, ProtocolGeneric,
		func(string, Settings) (Port, error) { return nil, errors.New("access denied") }, nil)

	err := reader.Connect("COM9")
	assert.EqualError(t, err, "access denied")
	assert.False(t, reader.Connected())
}

// blockingPort never returns from Read until it is closed.
type blockingPort struct {
	closed chan struct{}
}

func (p *blockingPort) Read([]byte) (int, error) {
	<-p.closed
	return 0, errors.New("port closed")
}

func (p *blockingPort) Close() error {
	close(p.closed)
	return nil
}

func TestReader_DisconnectIsBounded(t *testing.T) {
	port := &blockingPort{closed: make(chan struct{})}
	reader := NewReader(Settings{}, ProtocolGeneric,
		func(string, Settings) (Port, error) { return port, nil }, nil)
	reader.joinTimeout = 50 * time.Millisecond

	require.NoError(t, reader.Connect("COM1"))

	start := time.Now()
	require.NoError(t, reader.Disconnect())
	assert.Less(t, time.Since(start), time.Second)
}
