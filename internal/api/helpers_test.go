package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"enturne-backend/config"
	"enturne-backend/internal/model"
	"enturne-backend/internal/scale"
	"enturne-backend/internal/store"
	"enturne-backend/internal/weighbridge"
)

// fakeStore keeps everything in memory. Methods the handlers never call are
// left to the embedded nil interface.
type fakeStore struct {
	store.Store

	mu          sync.Mutex
	vehicles    map[int64]model.Vehicle
	listedFolio int
	weighings   []model.Weighing
	lastFilter  store.WeighingFilter
	stats       store.WeighingStats
	subs        map[string]model.PushSubscription
	subVehicles map[string][]int64
}

func newFakeStore(vehicles ...model.Vehicle) *fakeStore {
	fs := &fakeStore{
		vehicles:    make(map[int64]model.Vehicle),
		subs:        make(map[string]model.PushSubscription),
		subVehicles: make(map[string][]int64),
	}
	for _, v := range vehicles {
		fs.vehicles[v.ID] = v
	}
	return fs
}

func (f *fakeStore) ListVehicles(ctx context.Context, folio int) ([]model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listedFolio = folio
	var out []model.Vehicle
	for id := int64(1); id <= int64(len(f.vehicles)); id++ {
		if v, ok := f.vehicles[id]; ok && v.Folio == folio {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (f *fakeStore) UpdateVehicle(ctx context.Context, v *model.Vehicle) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.vehicles[v.ID]
	if !ok {
		return false, store.ErrNotFound
	}
	updated := *v
	updated.Folio = old.Folio
	updated.Consecutive = old.Consecutive
	f.vehicles[v.ID] = updated
	return old.Status != v.Status, nil
}

func (f *fakeStore) ListWeighings(ctx context.Context, filter store.WeighingFilter) ([]model.Weighing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	return f.weighings, nil
}

func (f *fakeStore) WeighingStats(ctx context.Context, filter store.WeighingFilter) (*store.WeighingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	stats := f.stats
	return &stats, nil
}

func (f *fakeStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription, vehicleIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[sub.Endpoint] = *sub
	f.subVehicles[sub.Endpoint] = vehicleIDs
	return nil
}

func (f *fakeStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, endpoint)
	delete(f.subVehicles, endpoint)
	return nil
}

func (f *fakeStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[endpoint]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, id := range f.subVehicles[endpoint] {
		sub.Vehicles = append(sub.Vehicles, &model.Vehicle{ID: id})
	}
	return &sub, nil
}

type fakeNotifier struct {
	dispatched []int64
}

func (n *fakeNotifier) Dispatch(vehicleID int64) {
	n.dispatched = append(n.dispatched, vehicleID)
}

// fakeScale stands in for the weighbridge service.
type fakeScale struct {
	status     weighbridge.Status
	events     []scale.Reading
	ports      []string
	connectErr error
	captureErr error
	captured   []weighbridge.CaptureRequest
}

func (s *fakeScale) Status() weighbridge.Status { return s.status }
func (s *fakeScale) Events() []scale.Reading    { return s.events }
func (s *fakeScale) Ports() ([]string, error)   { return s.ports, nil }
func (s *fakeScale) Disconnect() error {
	s.status.Connection.Connected = false
	return nil
}

func (s *fakeScale) Connect(port, protocol string) error {
	if s.connectErr != nil {
		return s.connectErr
	}
	s.status.Connection.Port = port
	s.status.Connection.Connected = true
	return nil
}

func (s *fakeScale) Capture(ctx context.Context, req weighbridge.CaptureRequest) (*model.Weighing, error) {
	if s.captureErr != nil {
		return nil, s.captureErr
	}
	s.captured = append(s.captured, req)
	return &model.Weighing{ID: int64(len(s.captured)), Plate: req.Plate, Unit: "kg", Stable: true}, nil
}

func newTestRouter(s store.Store, sc Scale, n Notifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, sc, n, &webpush.Options{VAPIDPublicKey: "test-public-key"}, Options{PageSize: 2, Location: time.UTC})
	return NewRouter(&config.ServerConfig{}, h)
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ptr[T any](v T) *T { return &v }
