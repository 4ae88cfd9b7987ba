package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/pkg/logger"
)

// ReminderSender は開催が近い予約へのリマインダーを送信するインターフェース
type ReminderSender interface {
	SendDueReminders(ctx context.Context, leadTime time.Duration) (int, error)
}

// EventReminder は開催前のイベントの予約者へリマインダー通知を送るワーカー
type EventReminder struct {
	bookingService ReminderSender
	interval       time.Duration
	leadTime       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewEventReminder は新しいリマインダーワーカーを作成
func NewEventReminder(
	bs ReminderSender,
	interval time.Duration,
	leadTime time.Duration,
) *EventReminder {
	return &EventReminder{
		bookingService: bs,
		interval:       interval,
		leadTime:       leadTime,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始
func (w *EventReminder) Start(ctx context.Context) {
	logger.Info("イベントリマインダーワーカー開始",
		zap.Duration("interval", w.interval),
		zap.Duration("lead_time", w.leadTime),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("イベントリマインダーワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("イベントリマインダーワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

// Stop はワーカーを停止
func (w *EventReminder) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

// run はリマインダー送信を1回実行する
func (w *EventReminder) run(ctx context.Context) {
	log := logger.Get()
	log.Debug("リマインダー送信開始")

	count, err := w.bookingService.SendDueReminders(ctx, w.leadTime)
	if err != nil {
		log.Error("リマインダー送信に失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Info("リマインダーを送信", zap.Int("count", count))
	} else {
		log.Debug("リマインダー対象なし")
	}
}
