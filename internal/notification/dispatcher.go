package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/pkg/logger"
	"github.com/danribes/go-event-booking/internal/pkg/metrics"
)

// Enqueuer は通知の投入側インターフェース
// 呼び出し元はエラーを受け取らない（fire-and-forget）
type Enqueuer interface {
	Enqueue(msg Message)
}

// Dispatcher は通知をバッファリングして非同期にブローカーへ発行する
// 発行失敗は予約処理に一切影響させず、ログとメトリクスに記録するだけ
type Dispatcher struct {
	publisher      Publisher
	metrics        *metrics.Metrics
	ch             chan Message
	publishTimeout time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewDispatcher は新しいDispatcherを作成する
func NewDispatcher(publisher Publisher, m *metrics.Metrics, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Dispatcher{
		publisher:      publisher,
		metrics:        m,
		ch:             make(chan Message, bufferSize),
		publishTimeout: 5 * time.Second,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Enqueue は通知をキューに投入する
// バッファが満杯の場合はブロックせずに破棄し、ログに残す
func (d *Dispatcher) Enqueue(msg Message) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now()
	}

	select {
	case d.ch <- msg:
	default:
		logger.Warn("通知バッファが満杯のため破棄",
			zap.String("kind", string(msg.Kind)),
			zap.String("booking_id", msg.BookingID),
		)
		d.count(msg.Kind, "dropped")
	}
}

// Start はディスパッチループを開始する
// ctxのキャンセルまたはStopで停止し、停止前にバッファ内の通知を送り切る
func (d *Dispatcher) Start(ctx context.Context) {
	logger.Info("通知ディスパッチャー開始", zap.Int("buffer", cap(d.ch)))

	defer close(d.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("通知ディスパッチャー停止（コンテキストキャンセル）")
			return
		case <-d.stopCh:
			d.drain()
			logger.Info("通知ディスパッチャー停止（シグナル受信）")
			return
		case msg := <-d.ch:
			d.publish(msg)
		}
	}
}

// Stop はディスパッチャーを停止する
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
}

// drain は停止時にバッファへ残った通知を発行する
func (d *Dispatcher) drain() {
	for {
		select {
		case msg := <-d.ch:
			d.publish(msg)
		default:
			return
		}
	}
}

// publish は1件の通知を発行する
// 失敗してもエラーは伝播させない
func (d *Dispatcher) publish(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.publishTimeout)
	defer cancel()

	if err := d.publisher.Publish(ctx, msg); err != nil {
		logger.Error("通知の発行に失敗",
			zap.String("kind", string(msg.Kind)),
			zap.String("booking_id", msg.BookingID),
			zap.Error(err),
		)
		d.count(msg.Kind, "failed")
		return
	}
	d.count(msg.Kind, "published")
}

func (d *Dispatcher) count(kind Kind, status string) {
	if d.metrics != nil {
		d.metrics.NotificationsTotal.WithLabelValues(string(kind), status).Inc()
	}
}

var _ Enqueuer = (*Dispatcher)(nil)
