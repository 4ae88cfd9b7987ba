package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/danribes/go-event-booking/internal/pkg/logger"
)

// Publisher は通知メッセージをブローカーに発行するインターフェース
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// AMQPPublisher はRabbitMQへ通知を発行する
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher は接続を確立し、通知用のトピック交換を宣言する
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("ブローカー接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャンネル作成に失敗しました: %w", err)
	}

	// durableなトピック交換（ブローカー再起動後もメッセージを失わない）
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("交換の宣言に失敗しました: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish は通知メッセージを発行する
// ルーティングキーは通知の種類（booking.created等）
func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("通知の作成に失敗しました: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.channel.PublishWithContext(ctx,
		p.exchange,
		string(msg.Kind), // routing key
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		return fmt.Errorf("通知の発行に失敗しました: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		logger.Warn("チャンネルのクローズに失敗", zap.Error(err))
	}
	return p.conn.Close()
}

// LogPublisher はブローカー未設定時のフォールバック
// 通知内容をログに出力するだけで、常に成功する
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	logger.Info("通知（ログのみ）",
		zap.String("kind", string(msg.Kind)),
		zap.String("booking_id", msg.BookingID),
		zap.String("event_id", msg.EventID),
		zap.String("user_id", msg.UserID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var (
	_ Publisher = (*AMQPPublisher)(nil)
	_ Publisher = (*LogPublisher)(nil)
)
