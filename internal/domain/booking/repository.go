package booking

import (
	"context"
	"time"

	"github.com/danribes/go-event-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 同一ユーザー・同一イベントの有効な予約が既にある場合はErrDuplicateBookingを返す
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetActiveByUserAndEvent はユーザーとイベントの組に対する有効な予約を取得する
	GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// Update は予約の状態遷移を保存する（トランザクション必須）
	// fromで指定した遷移元の状態からの条件付き書き込みであり、
	// 他の操作が先に状態を変更していた場合はErrBookingStatusConflictを返す
	Update(ctx context.Context, tx transaction.Tx, booking *Booking, from Status) error

	// CountActiveByEventID はイベントの有効な予約数を取得する
	CountActiveByEventID(ctx context.Context, eventID string) (int, error)

	// GetDueReminders はリマインダー未送信で開催が近い有効な予約を取得する
	GetDueReminders(ctx context.Context, until time.Time, limit int) ([]*Booking, error)

	// MarkReminderSent はリマインダー送信済みとして記録する
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}
