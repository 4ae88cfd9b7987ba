package notification

import "time"

// Kind は通知の種類を表す
// ルーティングキーとしてそのままブローカーに渡される
type Kind string

const (
	KindBookingCreated   Kind = "booking.created"
	KindBookingConfirmed Kind = "booking.confirmed"
	KindBookingCancelled Kind = "booking.cancelled"
	KindEventReminder    Kind = "event.reminder"
)

// Message はブローカーに発行される通知ペイロードを表す
// 下流のコンシューマー（メール・WhatsApp配信）が主データベースを参照せずに
// 処理できるだけの情報を含める
type Message struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	BookingID  string    `json:"booking_id,omitempty"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Attendees  int       `json:"attendees,omitempty"`
	TotalPrice int       `json:"total_price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
