package scale

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

var (
	ErrNotConnected     = errors.New("scale is not connected")
	ErrAlreadyConnected = errors.New("scale is already connected")
)

const (
	maxPendingBytes    = 4096
	readErrorBackoff   = time.Second
	defaultJoinTimeout = time.Second
)

// Settings describes the serial line parameters of the indicator.
type Settings struct {
	BaudRate    int           `json:"baudRate"`
	DataBits    int           `json:"dataBits"`
	Parity      string        `json:"parity"`   // none, odd, even, mark, space
	StopBits    int           `json:"stopBits"` // 1 or 2
	ReadTimeout time.Duration `json:"readTimeout"`
}

// Port is the part of a serial port the reader needs.
type Port interface {
	io.Reader
	Close() error
}

// Opener opens a named port with the given settings.
type Opener func(name string, s Settings) (Port, error)

// OpenSerial opens a real serial device.
func OpenSerial(name string, s Settings) (Port, error) {
	mode := &serial.Mode{
		BaudRate: s.BaudRate,
		DataBits: s.DataBits,
		Parity:   serialParity(s.Parity),
		StopBits: serial.OneStopBit,
	}
	if s.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if s.ReadTimeout > 0 {
		if err := p.SetReadTimeout(s.ReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
		}
	}
	return p, nil
}

func serialParity(name string) serial.Parity {
	switch strings.ToLower(name) {
	case "odd":
		return serial.OddParity
	case "even":
		return serial.EvenParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

// ListPorts returns the serial devices present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// ConnectionInfo is a snapshot of the reader's connection.
type ConnectionInfo struct {
	Settings
	Port      string   `json:"port"`
	Protocol  Protocol `json:"protocol"`
	Connected bool     `json:"connected"`
}

// Reader owns one serial connection and the goroutine that reads from it.
// Each connection gets a fresh Parser that only the reader goroutine touches.
type Reader struct {
	settings    Settings
	open        Opener
	onReading   func(Reading)
	joinTimeout time.Duration

	mu       sync.Mutex
	protocol Protocol
	port     Port
	portName string
	stop     chan struct{}
	done     chan struct{}
}

// NewReader creates a disconnected reader. onReading runs on the reader
// goroutine and must not block.
func NewReader(settings Settings, protocol Protocol, open Opener, onReading func(Reading)) *Reader {
	if open == nil {
		open = OpenSerial
	}
	if onReading == nil {
		onReading = func(Reading) {}
	}
	return &Reader{
		settings:    settings,
		protocol:    protocol,
		open:        open,
		onReading:   onReading,
		joinTimeout: defaultJoinTimeout,
	}
}

// SetProtocol changes the protocol used by the next connection.
func (r *Reader) SetProtocol(p Protocol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.protocol = p
}

// Connect opens the port and starts reading.
func (r *Reader) Connect(portName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port != nil {
		return ErrAlreadyConnected
	}

	port, err := r.open(portName, r.settings)
	if err != nil {
		return err
	}

	r.port = port
	r.portName = portName
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.readLoop(port, NewParser(r.protocol), r.stop, r.done)
	log.Printf("Scale connected on %s (protocol %s, %d baud)", portName, r.protocol, r.settings.BaudRate)
	return nil
}

// Disconnect stops the reader goroutine, waits for it up to the join timeout
// and then closes the port. Calling it while disconnected is a no-op.
func (r *Reader) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.port == nil {
		return nil
	}

	close(r.stop)
	select {
	case <-r.done:
	case <-time.After(r.joinTimeout):
		log.Printf("Warning: scale reader on %s did not stop within %s", r.portName, r.joinTimeout)
	}

	err := r.port.Close()
	log.Printf("Scale disconnected from %s", r.portName)

	r.port = nil
	r.portName = ""
	r.stop = nil
	r.done = nil

	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Connected reports whether a port is open.
func (r *Reader) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port != nil
}

// Info returns the current connection settings.
func (r *Reader) Info() ConnectionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ConnectionInfo{
		Settings:  r.settings,
		Port:      r.portName,
		Protocol:  r.protocol,
		Connected: r.port != nil,
	}
}

func (r *Reader) readLoop(port Port, parser *Parser, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 256)
	var pending []byte

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = r.emitLines(pending, parser)
			if len(pending) > maxPendingBytes {
				log.Printf("Warning: discarding %d bytes without line terminator", len(pending))
				pending = pending[:0]
			}
		}

		if err != nil {
			select {
			case <-stop:
				return
			default:
			}
			log.Printf("Error reading from serial port: %v", err)
			select {
			case <-stop:
				return
			case <-time.After(readErrorBackoff):
			}
		}
	}
}

// emitLines parses every complete line in pending and returns the remainder.
func (r *Reader) emitLines(pending []byte, parser *Parser) []byte {
	for {
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return pending
		}
		line := strings.TrimSpace(strings.ToValidUTF8(string(pending[:idx]), "�"))
		pending = pending[idx+1:]
		if line == "" {
			continue
		}
		r.onReading(parser.Parse(line))
	}
}
