package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"enturne-backend/internal/model"
	"enturne-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends status-change notifications for vehicles.
type WorkerPool struct {
	size    int
	jobs    chan int64
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan int64, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case vehicleID := <-wp.jobs:
			log.Printf("Worker %d processing vehicle %d", id, vehicleID)
			wp.sendNotificationsForVehicle(ctx, vehicleID)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a vehicle whose status changed. It drops the job when the
// queue is full so that request handlers never block on push delivery.
func (wp *WorkerPool) Dispatch(vehicleID int64) {
	select {
	case wp.jobs <- vehicleID:
	default:
		log.Printf("Warning: notification queue full, dropping vehicle %d", vehicleID)
	}
}

// SetSender replaces the push transport.
func (wp *WorkerPool) SetSender(s NotificationSender) {
	wp.sender = s
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan int64 {
	return wp.jobs
}

// StatusMessage is the push payload for a vehicle.
func StatusMessage(v *model.Vehicle) string {
	return fmt.Sprintf("Vehículo %s: %s", v.PlateLabel(), v.Status)
}

func (wp *WorkerPool) sendNotificationsForVehicle(ctx context.Context, vehicleID int64) {
	subscriptions, err := wp.store.SubscribersForVehicle(ctx, vehicleID)
	if err != nil {
		log.Printf("Error fetching subscriptions for vehicle %d: %v", vehicleID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	vehicle, err := wp.store.GetVehicle(ctx, vehicleID)
	if err != nil {
		log.Printf("Error fetching vehicle %d: %v", vehicleID, err)
		return
	}

	log.Printf("Sending %d notifications for vehicle %d", len(subscriptions), vehicleID)

	message := StatusMessage(vehicle)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
