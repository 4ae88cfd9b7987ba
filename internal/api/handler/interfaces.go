package handler

import (
	"context"
	"time"

	"github.com/danribes/go-event-booking/internal/application"
	"github.com/danribes/go-event-booking/internal/domain/booking"
	"github.com/danribes/go-event-booking/internal/domain/event"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	PublishEvent(ctx context.Context, id string) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookEvent(ctx context.Context, input application.BookEventInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID string) (*booking.Booking, error)
	MarkAttended(ctx context.Context, bookingID string) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	CheckCapacity(ctx context.Context, eventID string, attendees int) (*application.CapacityStatus, error)
	SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error)
}
