package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"enturne-backend/internal/model"
)

// ErrNotFound is returned when a vehicle or subscription does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	ListVehicles(ctx context.Context, folio int) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error)
	UpdateVehicle(ctx context.Context, v *model.Vehicle) (statusChanged bool, err error)

	SaveWeighing(ctx context.Context, w *model.Weighing) error
	ListWeighings(ctx context.Context, f WeighingFilter) ([]model.Weighing, error)
	WeighingStats(ctx context.Context, f WeighingFilter) (*WeighingStats, error)

	UpsertSubscription(ctx context.Context, sub *model.PushSubscription, vehicleIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	SubscribersForVehicle(ctx context.Context, vehicleID int64) ([]model.PushSubscription, error)

	DB() *gorm.DB
}

// editableVehicleColumns are the columns the edit form may change.
var editableVehicleColumns = []string{
	"national_id", "driver_name", "plate", "trailer", "product_group", "product",
	"process", "client", "origin", "destination", "manifest", "axle_count",
	"packaging_type", "status",
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListVehicles returns the active queue of one folio in turn order.
func (s *gormStore) ListVehicles(ctx context.Context, folio int) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := s.db.WithContext(ctx).
		Where("folio = ? AND record_state = ?", folio, model.RecordStateActive).
		Order("consecutive").
		Find(&vehicles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles for folio %d: %w", folio, err)
	}
	return vehicles, nil
}

func (s *gormStore) GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch vehicle %d: %w", id, err)
	}
	return &v, nil
}

// UpdateVehicle writes the editable columns of v and reports whether its
// status differs from the stored one.
func (s *gormStore) UpdateVehicle(ctx context.Context, v *model.Vehicle) (bool, error) {
	var statusChanged bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Vehicle
		if err := tx.Select("status").First(&current, v.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch vehicle %d: %w", v.ID, err)
		}

		if err := tx.Model(v).Select(editableVehicleColumns).Updates(v).Error; err != nil {
			return fmt.Errorf("failed to update vehicle %d: %w", v.ID, err)
		}
		statusChanged = current.Status != v.Status
		return nil
	})
	if err != nil {
		return false, err
	}
	return statusChanged, nil
}

// SaveWeighing persists a captured weight, assigning a ticket if missing.
func (s *gormStore) SaveWeighing(ctx context.Context, w *model.Weighing) error {
	if w.Ticket == uuid.Nil {
		w.Ticket = uuid.New()
	}
	if w.WeighedAt.IsZero() {
		w.WeighedAt = time.Now()
	}
	// SQLite compares timestamps as text, so every row is kept in UTC.
	w.WeighedAt = w.WeighedAt.UTC()
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("failed to save weighing for %s: %w", w.Plate, err)
	}
	log.Printf("Weighing %s saved: %s %s %s", w.Ticket, w.Plate, w.Weight.String(), w.Unit)
	return nil
}

// ListWeighings returns the newest weighings matching f.
func (s *gormStore) ListWeighings(ctx context.Context, f WeighingFilter) ([]model.Weighing, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultWeighingLimit
	}

	var weighings []model.Weighing
	err := applyWeighingFilter(s.db.WithContext(ctx), f).
		Order("weighed_at DESC, id DESC").
		Limit(limit).
		Find(&weighings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list weighings: %w", err)
	}
	return weighings, nil
}

// WeighingStats aggregates the weights matching f. Limit is ignored.
func (s *gormStore) WeighingStats(ctx context.Context, f WeighingFilter) (*WeighingStats, error) {
	var stats WeighingStats
	err := applyWeighingFilter(s.db.WithContext(ctx).Model(&model.Weighing{}), f).
		Select("COUNT(*) AS count, " +
			"COALESCE(SUM(weight), 0) AS total, " +
			"COALESCE(AVG(weight), 0) AS average, " +
			"COALESCE(MIN(weight), 0) AS minimum, " +
			"COALESCE(MAX(weight), 0) AS maximum").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute weighing stats: %w", err)
	}
	stats.Average = stats.Average.Round(3)
	return &stats, nil
}

func applyWeighingFilter(q *gorm.DB, f WeighingFilter) *gorm.DB {
	if f.Date != nil {
		d := *f.Date
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		q = q.Where("weighed_at >= ? AND weighed_at < ?", start.UTC(), start.AddDate(0, 0, 1).UTC())
	}
	if f.Plate != "" {
		q = q.Where("plate LIKE ?", "%"+f.Plate+"%")
	}
	if f.Process != "" {
		q = q.Where("process = ?", f.Process)
	}
	return q
}

// UpsertSubscription creates or refreshes a push subscription and replaces
// the set of vehicles it follows.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription, vehicleIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Vehicles").Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		var vehicles []*model.Vehicle
		if len(vehicleIDs) > 0 {
			if err := tx.Find(&vehicles, vehicleIDs).Error; err != nil {
				return fmt.Errorf("failed to load subscribed vehicles: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Vehicles").Replace(vehicles); err != nil {
			return fmt.Errorf("failed to replace subscribed vehicles: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes a subscription together with its vehicle links.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	sub := model.PushSubscription{Endpoint: endpoint}
	if err := s.db.WithContext(ctx).Select("Vehicles").Delete(&sub).Error; err != nil {
		return fmt.Errorf("failed to delete subscription %s: %w", endpoint, err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Vehicles").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch subscription: %w", err)
	}
	return &sub, nil
}

// SubscribersForVehicle returns the subscriptions following a vehicle.
func (s *gormStore) SubscribersForVehicle(ctx context.Context, vehicleID int64) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_vehicle_mapping svm ON svm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("svm.vehicle_id = ?", vehicleID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for vehicle %d: %w", vehicleID, err)
	}
	return subscriptions, nil
}
