package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/domain/booking"
	"github.com/danribes/go-event-booking/internal/domain/event"
	"github.com/danribes/go-event-booking/internal/domain/transaction"
	redisinfra "github.com/danribes/go-event-booking/internal/infrastructure/redis"
	"github.com/danribes/go-event-booking/internal/notification"
	"github.com/danribes/go-event-booking/internal/pkg/logger"
	"github.com/danribes/go-event-booking/internal/pkg/metrics"
)

// DefaultMaxAttendees は設定がない場合の1予約あたりの上限人数
const DefaultMaxAttendees = 10

// BookingService は予約のユースケースを実装する
// 過剰予約の防止はReserveSpotsの条件付きUPDATEに委譲し、
// プロセス内のロックや排他制御は一切行わない
type BookingService struct {
	txManager    transaction.Manager
	bookingRepo  booking.Repository
	eventRepo    event.Repository
	cache        *redisinfra.CapacityCache
	cacheTTL     time.Duration
	notifier     notification.Enqueuer
	metrics      *metrics.Metrics
	maxAttendees int
}

// NewBookingService は新しいBookingServiceを作成する
// cache・notifier・metricsはnil可（その機能が無効になるだけ）
func NewBookingService(
	tm transaction.Manager,
	br booking.Repository,
	er event.Repository,
	cache *redisinfra.CapacityCache,
	cacheTTL time.Duration,
	notifier notification.Enqueuer,
	m *metrics.Metrics,
	maxAttendees int,
) *BookingService {
	if maxAttendees <= 0 {
		maxAttendees = DefaultMaxAttendees
	}
	return &BookingService{
		txManager:    tm,
		bookingRepo:  br,
		eventRepo:    er,
		cache:        cache,
		cacheTTL:     cacheTTL,
		notifier:     notifier,
		metrics:      m,
		maxAttendees: maxAttendees,
	}
}

type BookEventInput struct {
	EventID   string
	UserID    string
	Attendees int
}

// BookEvent はイベントの残席をアトミックに確保して予約を作成する
//
// 事前条件（人数範囲、イベントの存在・公開・開催前、重複予約）はすべて
// 状態を変更する前に検証される。残席の確保と予約行の挿入は1つの
// トランザクションで行われ、挿入が失敗した場合はロールバックによって
// 確保した残席が復元される
func (s *BookingService) BookEvent(ctx context.Context, input BookEventInput) (*booking.Booking, error) {
	if input.UserID == "" {
		return nil, s.bookingFailure("validation_error", booking.ErrUserIDRequired)
	}
	if input.EventID == "" {
		return nil, s.bookingFailure("validation_error", booking.ErrEventIDRequired)
	}
	if input.Attendees < 1 {
		return nil, s.bookingFailure("validation_error", booking.ErrInvalidAttendees)
	}
	if input.Attendees > s.maxAttendees {
		return nil, s.bookingFailure("validation_error", booking.ErrTooManyAttendees)
	}

	// 重複予約チェック（同一ユーザー・同一イベントの有効な予約は1件まで）
	if _, err := s.bookingRepo.GetActiveByUserAndEvent(ctx, input.UserID, input.EventID); err == nil {
		return nil, s.bookingFailure("duplicate", booking.ErrDuplicateBooking)
	} else if !errors.Is(err, booking.ErrBookingNotFound) {
		return nil, s.bookingFailure("error", fmt.Errorf("重複予約チェックに失敗: %w", err))
	}

	// イベント確認
	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			return nil, s.bookingFailure("not_found", err)
		}
		return nil, s.bookingFailure("error", fmt.Errorf("イベント取得に失敗: %w", err))
	}
	if err := ev.CheckBookable(time.Now()); err != nil {
		return nil, s.bookingFailure("validation_error", err)
	}

	// 合計金額は予約時点の価格で確定する
	b := booking.NewBooking(input.EventID, input.UserID, input.Attendees, ev.Price*input.Attendees)
	if err := b.Validate(); err != nil {
		return nil, s.bookingFailure("validation_error", err)
	}

	// 条件付きデクリメントと予約挿入を1トランザクションで実行
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, s.bookingFailure("error", fmt.Errorf("トランザクション開始に失敗: %w", err))
	}
	defer tx.Rollback()

	if err := s.eventRepo.ReserveSpots(ctx, tx, input.EventID, input.Attendees); err != nil {
		if errors.Is(err, event.ErrInsufficientCapacity) {
			return nil, s.bookingFailure("capacity_conflict", err)
		}
		return nil, s.bookingFailure("error", err)
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		// ロールバックにより確保した残席は復元される
		if errors.Is(err, booking.ErrDuplicateBooking) {
			return nil, s.bookingFailure("duplicate", err)
		}
		return nil, s.bookingFailure("error", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.bookingFailure("error", fmt.Errorf("コミットに失敗: %w", err))
	}

	s.countBooking("success")
	s.invalidateCache(ctx, input.EventID)
	s.enqueue(notification.KindBookingCreated, b)

	return b, nil
}

// CancelBooking は予約をキャンセルし、確保していた残席を返却する
// 所有者以外によるキャンセル・二重キャンセルは拒否される
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, userID string) (*booking.Booking, error) {
	if userID == "" {
		return nil, s.cancelFailure("validation_error", booking.ErrUserIDRequired)
	}

	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			return nil, s.cancelFailure("not_found", err)
		}
		return nil, s.cancelFailure("error", fmt.Errorf("予約取得に失敗: %w", err))
	}
	if b.UserID != userID {
		return nil, s.cancelFailure("validation_error", booking.ErrNotBookingOwner)
	}
	prev := b.Status
	if err := b.Cancel(); err != nil {
		return nil, s.cancelFailure("validation_error", err)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, s.cancelFailure("error", fmt.Errorf("トランザクション開始に失敗: %w", err))
	}
	defer tx.Rollback()

	// 遷移元の状態を条件にした書き込みにより、並行するキャンセルは1つだけ成功し
	// 返席（ReleaseSpots）も勝者の1回しか適用されない
	if err := s.bookingRepo.Update(ctx, tx, b, prev); err != nil {
		if errors.Is(err, booking.ErrBookingStatusConflict) {
			return nil, s.cancelFailure("validation_error", booking.ErrBookingAlreadyCancelled)
		}
		return nil, s.cancelFailure("error", err)
	}
	if err := s.eventRepo.ReleaseSpots(ctx, tx, b.EventID, b.Attendees); err != nil {
		return nil, s.cancelFailure("error", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.cancelFailure("error", fmt.Errorf("コミットに失敗: %w", err))
	}

	if s.metrics != nil {
		s.metrics.CancellationsTotal.WithLabelValues("success").Inc()
	}
	s.invalidateCache(ctx, b.EventID)
	s.enqueue(notification.KindBookingCancelled, b)

	return b, nil
}

// ConfirmBooking は支払い完了後に予約を確定する（pending → confirmed）
// 決済プロバイダーの呼び出しは行わず、状態遷移のみを担当する
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.Confirm(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Update(ctx, tx, b, booking.StatusPending); err != nil {
		// キャンセルが先に確定していた予約を確定し直してはならない
		if errors.Is(err, booking.ErrBookingStatusConflict) {
			return nil, booking.ErrBookingNotPending
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.enqueue(notification.KindBookingConfirmed, b)
	return b, nil
}

// MarkAttended は確定済みの予約を来場済みとして記録する
func (s *BookingService) MarkAttended(ctx context.Context, bookingID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.MarkAttended(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Update(ctx, tx, b, booking.StatusConfirmed); err != nil {
		if errors.Is(err, booking.ErrBookingStatusConflict) {
			return nil, booking.ErrBookingNotConfirmed
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

// CapacityStatus はcheckCapacityの結果を表す
type CapacityStatus struct {
	EventID        string
	Requested      int
	AvailableSpots int
	Capacity       int
	Available      bool
}

// CheckCapacity は指定人数分の残席があるかを返す参照専用ヘルパー
// キャッシュ経由で読むため結果は最新とは限らない。予約可否の最終判定は
// BookEvent内の条件付きデクリメントが行う
func (s *BookingService) CheckCapacity(ctx context.Context, eventID string, attendees int) (*CapacityStatus, error) {
	if attendees < 1 {
		return nil, booking.ErrInvalidAttendees
	}

	if s.cache != nil {
		if available, capacity, err := s.cache.Get(ctx, eventID); err == nil {
			return &CapacityStatus{
				EventID:        eventID,
				Requested:      attendees,
				AvailableSpots: available,
				Capacity:       capacity,
				Available:      available >= attendees,
			}, nil
		} else if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("残席キャッシュの読み込みに失敗", zap.String("event_id", eventID), zap.Error(err))
		}
	}

	ev, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, eventID, ev.AvailableSpots, ev.Capacity, s.cacheTTL); err != nil {
			logger.Warn("残席キャッシュの保存に失敗", zap.String("event_id", eventID), zap.Error(err))
		}
	}

	return &CapacityStatus{
		EventID:        eventID,
		Requested:      attendees,
		AvailableSpots: ev.AvailableSpots,
		Capacity:       ev.Capacity,
		Available:      ev.AvailableSpots >= attendees,
	}, nil
}

// SendDueReminders は開催が近い予約へのリマインダー通知を送信する
// 送信済みの記録は通知の投入後に行うため、記録に失敗した場合は
// 次回のtickで再送される（最大1回以上の送信を許容する）
func (s *BookingService) SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error) {
	const batchSize = 100

	due, err := s.bookingRepo.GetDueReminders(ctx, time.Now().Add(leadTime), batchSize)
	if err != nil {
		return 0, fmt.Errorf("リマインダー対象取得に失敗: %w", err)
	}

	sent := 0
	for _, b := range due {
		s.enqueue(notification.KindEventReminder, b)
		if err := s.bookingRepo.MarkReminderSent(ctx, b.ID, time.Now()); err != nil {
			logger.Error("リマインダー記録に失敗", zap.String("booking_id", b.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// enqueue は通知を投入する（fire-and-forget、失敗は予約処理に影響しない）
func (s *BookingService) enqueue(kind notification.Kind, b *booking.Booking) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(notification.Message{
		Kind:       kind,
		BookingID:  b.ID,
		EventID:    b.EventID,
		UserID:     b.UserID,
		Attendees:  b.Attendees,
		TotalPrice: b.TotalPrice,
	})
}

// invalidateCache はベストエフォートで残席キャッシュを無効化する
func (s *BookingService) invalidateCache(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, eventID); err != nil {
		logger.Warn("残席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
	}
}

func (s *BookingService) bookingFailure(status string, err error) error {
	s.countBooking(status)
	return err
}

func (s *BookingService) cancelFailure(status string, err error) error {
	if s.metrics != nil {
		s.metrics.CancellationsTotal.WithLabelValues(status).Inc()
	}
	return err
}

func (s *BookingService) countBooking(status string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(status).Inc()
	}
}
