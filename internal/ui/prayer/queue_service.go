package prayer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Its-donkey/shrine-live/internal/ui/model"
)

// Publisher is the part of *amqp.Channel the queue service needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueService hands prayer requests to a broker instead of calling the API.
type QueueService struct {
	publisher  Publisher
	exchange   string
	routingKey string
	now        func() time.Time
}

// NewQueueService publishes through pub to exchange with routingKey.
func NewQueueService(pub Publisher, exchange, routingKey string) *QueueService {
	return &QueueService{
		publisher:  pub,
		exchange:   exchange,
		routingKey: routingKey,
		now:        time.Now,
	}
}

// CreatePrayer publishes req as a persistent JSON message.
func (s *QueueService) CreatePrayer(ctx context.Context, req model.PrayerRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode prayer request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.publisher.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    s.now().UTC(),
		Type:         "prayer.created",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish prayer request: %w", err)
	}
	return nil
}

// Broker is a live AMQP connection with a declared exchange.
type Broker struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

// DialBroker connects to url and declares a durable topic exchange.
func DialBroker(url, exchange string) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Broker{conn: conn, Channel: ch}, nil
}

// Close releases the channel and connection.
func (b *Broker) Close() error {
	if b == nil {
		return nil
	}
	if b.Channel != nil {
		b.Channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
