package event

import (
	"context"

	"github.com/danribes/go-event-booking/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List はイベント一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Update はイベントを更新する（楽観的ロック）
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// ReserveSpots は残席数を条件付きでn減らす（トランザクション必須）
	// 残席が足りない場合はErrInsufficientCapacityを返し、状態は変更されない
	// 過剰予約の防止はこの単一のアトミックなUPDATEにのみ依存する
	ReserveSpots(ctx context.Context, tx transaction.Tx, eventID string, n int) error

	// ReleaseSpots は残席数をn増やす（トランザクション必須）
	// 定員を超えないようにクランプされる
	ReleaseSpots(ctx context.Context, tx transaction.Tx, eventID string, n int) error
}
