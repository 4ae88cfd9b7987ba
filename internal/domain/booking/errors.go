package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingNotPending       = errors.New("予約は保留中ではありません")
	ErrBookingNotConfirmed     = errors.New("予約は確定されていません")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrBookingAlreadyAttended  = errors.New("来場済みの予約はキャンセルできません")
	ErrDuplicateBooking        = errors.New("このイベントには既に予約があります")
	ErrNotBookingOwner         = errors.New("この予約の所有者ではありません")
	ErrBookingStatusConflict   = errors.New("予約の状態が他の操作によって変更されています")
	ErrEventIDRequired         = errors.New("イベントIDは必須です")
	ErrUserIDRequired          = errors.New("ユーザーIDは必須です")
	ErrInvalidAttendees        = errors.New("予約人数は1以上である必要があります")
	ErrTooManyAttendees        = errors.New("1回の予約の人数が上限を超えています")
	ErrInvalidTotalPrice       = errors.New("合計金額は0以上である必要があります")
)
