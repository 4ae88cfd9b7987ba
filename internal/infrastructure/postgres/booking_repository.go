package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/danribes/go-event-booking/internal/domain/booking"
	"github.com/danribes/go-event-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID             string     `db:"id"`
	EventID        string     `db:"event_id"`
	UserID         string     `db:"user_id"`
	Attendees      int        `db:"attendees"`
	TotalPrice     int        `db:"total_price"`
	Status         string     `db:"status"`
	ReminderSentAt *time.Time `db:"reminder_sent_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, EventID: r.EventID, UserID: r.UserID,
		Attendees: r.Attendees, TotalPrice: r.TotalPrice,
		Status: booking.Status(r.Status), ReminderSentAt: r.ReminderSentAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する
// (user_id, event_id) の部分一意インデックスが重複予約のストレージ層での最終防衛線
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		INSERT INTO bookings (event_id, user_id, attendees, total_price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := sqlxTx.QueryRowContext(ctx, query,
		b.EventID, b.UserID, b.Attendees, b.TotalPrice, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return booking.ErrDuplicateBooking
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT id, event_id, user_id, attendees, total_price, status, reminder_sent_at, created_at, updated_at FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetActiveByUserAndEvent(ctx context.Context, userID, eventID string) (*booking.Booking, error) {
	var row bookingRow
	query := `
		SELECT id, event_id, user_id, attendees, total_price, status, reminder_sent_at, created_at, updated_at
		FROM bookings
		WHERE user_id = $1 AND event_id = $2 AND status <> 'cancelled'
	`
	if err := r.db.GetContext(ctx, &row, query, userID, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `
		SELECT id, event_id, user_id, attendees, total_price, status, reminder_sent_at, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

// Update は予約の状態遷移を条件付きで書き込む
// WHERE句で遷移元の状態を検査するため、同一予約への並行した遷移は1つだけ成功し、
// 敗者はキャンセルの返席や確定を二重に適用できない
func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking, from booking.Status) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `UPDATE bookings SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := sqlxTx.ExecContext(ctx, query, string(b.Status), b.UpdatedAt, b.ID, string(from))
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, b.ID); err != nil {
			return fmt.Errorf("予約更新に失敗: %w", err)
		}
		if !exists {
			return booking.ErrBookingNotFound
		}
		return booking.ErrBookingStatusConflict
	}
	return nil
}

func (r *BookingRepository) CountActiveByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE event_id = $1 AND status <> 'cancelled'`, eventID)
	if err != nil {
		return 0, fmt.Errorf("予約数取得に失敗: %w", err)
	}
	return count, nil
}

// GetDueReminders はリマインダー未送信で開催がuntilまでに迫った有効な予約を取得する
func (r *BookingRepository) GetDueReminders(ctx context.Context, until time.Time, limit int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `
		SELECT b.id, b.event_id, b.user_id, b.attendees, b.total_price, b.status, b.reminder_sent_at, b.created_at, b.updated_at
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.status IN ('pending', 'confirmed')
		  AND b.reminder_sent_at IS NULL
		  AND e.event_date > NOW()
		  AND e.event_date <= $1
		ORDER BY e.event_date ASC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &rows, query, until, limit); err != nil {
		return nil, fmt.Errorf("リマインダー対象取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		result[i] = row.toEntity()
	}
	return result, nil
}

func (r *BookingRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE bookings SET reminder_sent_at = $1, updated_at = NOW() WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("リマインダー記録に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

var _ booking.Repository = (*BookingRepository)(nil)
