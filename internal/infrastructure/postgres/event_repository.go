package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danribes/go-event-booking/internal/domain/event"
	"github.com/danribes/go-event-booking/internal/domain/transaction"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	Description    *string   `db:"description"`
	Venue          *string   `db:"venue"`
	EventDate      time.Time `db:"event_date"`
	Price          int       `db:"price"`
	Capacity       int       `db:"capacity"`
	AvailableSpots int       `db:"available_spots"`
	IsPublished    bool      `db:"is_published"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int       `db:"version"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	var desc, venue string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Venue != nil {
		venue = *r.Venue
	}
	return &event.Event{
		ID:             r.ID,
		Name:           r.Name,
		Description:    desc,
		Venue:          venue,
		EventDate:      r.EventDate,
		Price:          r.Price,
		Capacity:       r.Capacity,
		AvailableSpots: r.AvailableSpots,
		IsPublished:    r.IsPublished,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		Version:        r.Version,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (name, description, venue, event_date, price, capacity, available_spots, is_published, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var desc, venue *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Venue != "" {
		venue = &e.Venue
	}

	err := r.db.QueryRowContext(ctx, query,
		e.Name, desc, venue, e.EventDate, e.Price, e.Capacity, e.AvailableSpots, e.IsPublished, e.CreatedAt, e.UpdatedAt, e.Version,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT id, name, description, venue, event_date, price, capacity, available_spots, is_published, created_at, updated_at, version FROM events WHERE id = $1`

	var row eventRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	query := `
		SELECT id, name, description, venue, event_date, price, capacity, available_spots, is_published, created_at, updated_at, version
		FROM events
		ORDER BY event_date ASC
		LIMIT $1 OFFSET $2
	`

	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントを更新する（楽観的ロック）
// available_spots もここで書き込まれるが、予約・キャンセルがversionを進めるため
// 読み取り後に残席が動いた場合は必ず競合として失敗する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, venue = $3, event_date = $4, price = $5,
		    capacity = $6, available_spots = $7, is_published = $8, updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11
	`

	var desc, venue *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Venue != "" {
		venue = &e.Venue
	}

	result, err := r.db.ExecContext(ctx, query,
		e.Name, desc, venue, e.EventDate, e.Price, e.Capacity, e.AvailableSpots, e.IsPublished, time.Now(), e.ID, e.Version,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		// 行が存在しないのか競合なのかを区別する
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, e.ID); err == nil && exists {
			return event.ErrOptimisticLockConflict
		}
		return event.ErrEventNotFound
	}

	e.Version++
	return nil
}

// Delete はイベントを削除する
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// ReserveSpots は残席数を条件付きで減らす
// WHERE句の available_spots >= $n が過剰予約に対する唯一かつ十分な防御であり、
// アプリケーション側のロックは使用しない
func (r *EventRepository) ReserveSpots(ctx context.Context, tx transaction.Tx, eventID string, n int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET available_spots = available_spots - $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND available_spots >= $1
	`
	result, err := sqlxTx.ExecContext(ctx, query, n, eventID)
	if err != nil {
		return fmt.Errorf("残席の確保に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return event.ErrInsufficientCapacity
	}
	return nil
}

// ReleaseSpots はキャンセルされた人数分の残席を返却する
// 正常運用ではcapacityを超えることはないが、防御的にクランプする
func (r *EventRepository) ReleaseSpots(ctx context.Context, tx transaction.Tx, eventID string, n int) error {
	sqlxTx := UnwrapTx(tx)
	if sqlxTx == nil {
		return fmt.Errorf("トランザクションが不正です")
	}

	query := `
		UPDATE events
		SET available_spots = LEAST(available_spots + $1, capacity), updated_at = NOW(), version = version + 1
		WHERE id = $2
	`
	result, err := sqlxTx.ExecContext(ctx, query, n, eventID)
	if err != nil {
		return fmt.Errorf("残席の返却に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
