package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danribes/go-event-booking/internal/domain/booking"
	"github.com/danribes/go-event-booking/internal/domain/event"
)

// EventService はイベント管理のユースケースを実装する
type EventService struct {
	eventRepo   event.Repository
	bookingRepo booking.Repository
}

func NewEventService(eventRepo event.Repository, bookingRepo booking.Repository) *EventService {
	return &EventService{eventRepo: eventRepo, bookingRepo: bookingRepo}
}

type CreateEventInput struct {
	Name        string
	Description string
	Venue       string
	EventDate   time.Time
	Price       int
	Capacity    int
}

func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	e := event.NewEvent(input.Name, input.Description, input.Venue, input.EventDate, input.Price, input.Capacity)
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

type UpdateEventInput struct {
	ID          string
	Name        string
	Description string
	Venue       string
	EventDate   time.Time
	Price       int
	Capacity    int
}

// UpdateEvent はイベントを更新する
// 定員変更は残席数を差分だけ調整する。既存予約のTotalPriceは価格変更の影響を受けない
// 読み取り後に予約・キャンセルが走った場合は楽観的ロックにより失敗する
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	e.Name = input.Name
	e.Description = input.Description
	e.Venue = input.Venue
	e.EventDate = input.EventDate
	e.Price = input.Price
	if input.Capacity != e.Capacity {
		if err := e.ChangeCapacity(input.Capacity); err != nil {
			return nil, err
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// PublishEvent はイベントを公開し、予約受付を開始する
func (s *EventService) PublishEvent(ctx context.Context, id string) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsPublished {
		return e, nil
	}
	e.Publish()
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEvent はイベントを削除する
// 有効な予約が残っている場合は削除できない
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	count, err := s.bookingRepo.CountActiveByEventID(ctx, id)
	if err != nil && !errors.Is(err, booking.ErrBookingNotFound) {
		return fmt.Errorf("予約数の確認に失敗しました: %w", err)
	}
	if count > 0 {
		return event.ErrEventHasBookings
	}
	return s.eventRepo.Delete(ctx, id)
}
