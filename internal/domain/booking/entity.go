package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusAttended  Status = "attended"
	StatusCancelled Status = "cancelled"
)

// Booking は予約エンティティを表す
// TotalPrice は予約時点のイベント価格で確定し、以降は再計算されない
type Booking struct {
	ID             string
	EventID        string
	UserID         string
	Attendees      int
	TotalPrice     int
	Status         Status
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewBooking は新しい予約をpending状態で作成する
func NewBooking(eventID, userID string, attendees, totalPrice int) *Booking {
	now := time.Now()
	return &Booking{
		EventID:    eventID,
		UserID:     userID,
		Attendees:  attendees,
		TotalPrice: totalPrice,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive は残席を消費している予約（キャンセル以外）かを返す
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// Confirm は支払い完了後に予約を確定する
func (b *Booking) Confirm() error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
// キャンセル済みは終端状態で、二重キャンセルは拒否される
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if b.Status == StatusAttended {
		return ErrBookingAlreadyAttended
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// MarkAttended は来場済みとして記録する
func (b *Booking) MarkAttended() error {
	if b.Status != StatusConfirmed {
		return ErrBookingNotConfirmed
	}
	b.Status = StatusAttended
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.EventID == "" {
		return ErrEventIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.Attendees < 1 {
		return ErrInvalidAttendees
	}
	if b.TotalPrice < 0 {
		return ErrInvalidTotalPrice
	}
	return nil
}
