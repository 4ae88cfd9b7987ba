package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound          = errors.New("イベントが見つかりません")
	ErrEventNameRequired      = errors.New("イベント名は必須です")
	ErrEventDateRequired      = errors.New("開催日時は必須です")
	ErrInvalidCapacity        = errors.New("定員は1以上である必要があります")
	ErrInvalidPrice           = errors.New("価格は0以上である必要があります")
	ErrInvalidAvailableSpots  = errors.New("残席数は0以上かつ定員以下である必要があります")
	ErrEventNotPublished      = errors.New("イベントは公開されていません")
	ErrEventAlreadyStarted    = errors.New("開催日時を過ぎたイベントは予約できません")
	ErrInsufficientCapacity   = errors.New("残席数が不足しています")
	ErrCapacityBelowBooked    = errors.New("予約済み人数を下回る定員には変更できません")
	ErrEventHasBookings       = errors.New("有効な予約があるイベントは削除できません")
	ErrOptimisticLockConflict = errors.New("楽観的ロックの競合が発生しました")
)
