package event

import "time"

// Event はイベントエンティティを表す
// AvailableSpots は予約操作（ReserveSpots / ReleaseSpots）以外で直接変更してはならない
type Event struct {
	ID             string
	Name           string
	Description    string
	Venue          string
	EventDate      time.Time
	Price          int // 最小通貨単位（円）
	Capacity       int
	AvailableSpots int
	IsPublished    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int // 楽観的ロック用
}

// NewEvent は新しいイベントを作成する
// 作成時点では未公開で、残席数は定員と等しい
func NewEvent(name, description, venue string, eventDate time.Time, price, capacity int) *Event {
	now := time.Now()
	return &Event{
		Name:           name,
		Description:    description,
		Venue:          venue,
		EventDate:      eventDate,
		Price:          price,
		Capacity:       capacity,
		AvailableSpots: capacity,
		IsPublished:    false,
		CreatedAt:      now,
		UpdatedAt:      now,
		Version:        0,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.EventDate.IsZero() {
		return ErrEventDateRequired
	}
	if e.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.AvailableSpots < 0 || e.AvailableSpots > e.Capacity {
		return ErrInvalidAvailableSpots
	}
	return nil
}

// Publish はイベントを公開する
func (e *Event) Publish() {
	e.IsPublished = true
	e.UpdatedAt = time.Now()
}

// CheckBookable は予約を受け付けられる状態かを検証する
// 未公開または開催日時を過ぎたイベントは予約できない
func (e *Event) CheckBookable(now time.Time) error {
	if !e.IsPublished {
		return ErrEventNotPublished
	}
	if !e.EventDate.After(now) {
		return ErrEventAlreadyStarted
	}
	return nil
}

// BookedSpots は予約済みの人数を返す
func (e *Event) BookedSpots() int {
	return e.Capacity - e.AvailableSpots
}

// ChangeCapacity は定員を変更し、残席数を差分だけ調整する
// 予約済み人数を下回る定員には変更できない
func (e *Event) ChangeCapacity(capacity int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	if capacity < e.BookedSpots() {
		return ErrCapacityBelowBooked
	}
	e.AvailableSpots += capacity - e.Capacity
	e.Capacity = capacity
	e.UpdatedAt = time.Now()
	return nil
}
