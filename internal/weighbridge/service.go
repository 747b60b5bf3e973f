// Package weighbridge ties the scale reader to the store: it keeps the
// indicator connected and turns stable readings into registered weighings.
package weighbridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"enturne-backend/config"
	"enturne-backend/internal/model"
	"enturne-backend/internal/parse"
	"enturne-backend/internal/scale"
	"enturne-backend/internal/store"
)

var (
	ErrNoStableWeight = errors.New("no stable weight available")
	ErrPlateRequired  = errors.New("plate is required")
	ErrNoPort         = errors.New("no serial port configured")
	ErrInvalidTare    = errors.New("tare must be between zero and the gross weight")
)

// CaptureRequest carries the vehicle data registered with a weight.
type CaptureRequest struct {
	Plate       string `json:"plate" binding:"required"`
	Process     string `json:"process"`
	Driver      string `json:"driver"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	// Tare is the empty vehicle weight in the reading's unit. When set, the
	// weighing also records the net weight.
	Tare *decimal.Decimal `json:"tare"`
}

// Status is the scale panel snapshot.
type Status struct {
	Connection scale.ConnectionInfo `json:"connection"`
	Latest     *scale.Reading       `json:"latest"`
	LastStable *scale.Reading       `json:"lastStable"`
	Display    string               `json:"display"`
}

// Service orchestrates the scale connection and weight capture.
type Service struct {
	cfg       *config.ScaleConfig
	store     store.Store
	monitor   *scale.Monitor
	reader    *scale.Reader
	listPorts func() ([]string, error)
	now       func() time.Time

	mu   sync.Mutex
	port string
	// wanted is false after an explicit disconnect so Run does not reconnect.
	wanted bool
}

// NewService creates the service. A nil opener uses the real serial port.
func NewService(cfg *config.ScaleConfig, s store.Store, monitor *scale.Monitor, open scale.Opener) *Service {
	protocol, err := scale.ParseProtocol(cfg.Protocol)
	if err != nil {
		log.Printf("Warning: %v. Falling back to %s.", err, scale.ProtocolGeneric)
	}

	settings := scale.Settings{
		BaudRate:    cfg.BaudRate,
		DataBits:    cfg.DataBits,
		Parity:      cfg.Parity,
		StopBits:    cfg.StopBits,
		ReadTimeout: cfg.ReadTimeout,
	}

	return &Service{
		cfg:       cfg,
		store:     s,
		monitor:   monitor,
		reader:    scale.NewReader(settings, protocol, open, monitor.Record),
		listPorts: scale.ListPorts,
		now:       time.Now,
		port:      cfg.Port,
		wanted:    cfg.Enabled,
	}
}

// Run keeps the configured scale connected until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Scale is disabled. Not starting.")
		return
	}
	log.Println("Starting weighbridge service...")

	s.ensureConnected()

	timer := time.NewTimer(s.cfg.ReconnectInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Weighbridge service shutting down.")
			if err := s.reader.Disconnect(); err != nil {
				log.Printf("Error disconnecting scale: %v", err)
			}
			return
		case <-timer.C:
			s.ensureConnected()
			timer.Reset(s.cfg.ReconnectInterval)
		}
	}
}

func (s *Service) ensureConnected() {
	s.mu.Lock()
	port, wanted := s.port, s.wanted
	s.mu.Unlock()

	if !wanted || port == "" || s.reader.Connected() {
		return
	}
	if err := s.reader.Connect(port); err != nil && !errors.Is(err, scale.ErrAlreadyConnected) {
		log.Printf("Error connecting to scale on %s: %v", port, err)
	}
}

// Connect opens port (or the configured one) with protocol (or the current
// one). Readings from a previous device are forgotten.
func (s *Service) Connect(port, protocol string) error {
	if protocol != "" {
		p, err := scale.ParseProtocol(protocol)
		if err != nil {
			return err
		}
		s.reader.SetProtocol(p)
	}

	s.mu.Lock()
	if port == "" {
		port = s.port
	}
	s.mu.Unlock()
	if port == "" {
		return ErrNoPort
	}

	s.monitor.Reset()
	if err := s.reader.Connect(port); err != nil {
		return err
	}

	s.mu.Lock()
	s.port = port
	s.wanted = true
	s.mu.Unlock()
	return nil
}

// Disconnect closes the port and keeps it closed until the next Connect.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	s.wanted = false
	s.mu.Unlock()
	return s.reader.Disconnect()
}

// Status returns the connection and the latest readings.
func (s *Service) Status() Status {
	st := Status{Connection: s.reader.Info()}
	if r, ok := s.monitor.Latest(); ok {
		st.Latest = &r
	}
	if r, ok := s.monitor.LastStable(); ok {
		st.LastStable = &r
		st.Display = scale.FormatWeight(r.Weight, r.Unit, s.cfg.Decimals)
	} else {
		st.Display = scale.FormatWeight(nil, scale.DefaultUnit, s.cfg.Decimals)
	}
	return st
}

// Events returns the recent raw lines, newest first.
func (s *Service) Events() []scale.Reading {
	return s.monitor.Events()
}

// Ports lists the serial devices of this machine.
func (s *Service) Ports() ([]string, error) {
	return s.listPorts()
}

// Capture registers the last stable weight for a vehicle.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (*model.Weighing, error) {
	plate := parse.Plate(req.Plate)
	if plate == "" {
		return nil, ErrPlateRequired
	}

	reading, ok := s.monitor.LastStable()
	if !ok || reading.Weight == nil {
		return nil, ErrNoStableWeight
	}

	w := &model.Weighing{
		Ticket:      uuid.New(),
		Plate:       plate,
		Weight:      *reading.Weight,
		Unit:        reading.Unit,
		Process:     req.Process,
		WeighedAt:   s.now().UTC(),
		Stable:      reading.IsStable,
		Driver:      req.Driver,
		Origin:      req.Origin,
		Destination: req.Destination,
		RawLine:     reading.RawLine,
	}
	if req.Tare != nil {
		if req.Tare.IsNegative() || req.Tare.GreaterThan(w.Weight) {
			return nil, ErrInvalidTare
		}
		w.Tare = decimal.NewNullDecimal(*req.Tare)
		w.Net = decimal.NewNullDecimal(w.Weight.Sub(*req.Tare))
	}
	if err := s.store.SaveWeighing(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to register weighing: %w", err)
	}
	return w, nil
}
