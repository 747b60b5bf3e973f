package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"enturne-backend/internal/model"
	"enturne-backend/internal/scale"
	"enturne-backend/internal/store"
	"enturne-backend/internal/weighbridge"
)

// Scale is the weighbridge surface the handlers use.
type Scale interface {
	Status() weighbridge.Status
	Events() []scale.Reading
	Ports() ([]string, error)
	Connect(port, protocol string) error
	Disconnect() error
	Capture(ctx context.Context, req weighbridge.CaptureRequest) (*model.Weighing, error)
}

// Notifier receives vehicles whose status changed.
type Notifier interface {
	Dispatch(vehicleID int64)
}

// Options are the request defaults of the handlers.
type Options struct {
	PageSize int
	Location *time.Location
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	scale    Scale
	notifier Notifier
	webpush  *webpush.Options
	opts     Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, sc Scale, n Notifier, webpushOptions *webpush.Options, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Handler{
		store:    s,
		scale:    sc,
		notifier: n,
		webpush:  webpushOptions,
		opts:     opts,
	}
}
