package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
)

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// Acknowledger подтверждает доставку, реализуется amqp.Delivery.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ConsumerMessage читает очередь и обрабатывает до prefetch сообщений параллельно.
// Блокируется до отмены ctx или закрытия канала, затем ждет активные обработчики.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler Handler, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	Serve(ctx, delivery, handler, log)
	return nil
}

// Serve обрабатывает поток доставок до его закрытия или отмены ctx.
func Serve(ctx context.Context, delivery <-chan amqp.Delivery, handler Handler, log *slog.Logger) {
	sem := make(chan struct{}, prefetch)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			wg.Add(1)
			go func() {
				defer func() {
					<-sem
					wg.Done()
				}()
				Handle(ctx, d, d.Body, handler, log)
			}()
		case <-ctx.Done():
			return
		}
	}
}

// Handle вызывает handler и подтверждает доставку: Ack при успехе,
// Nack с возвратом в очередь при ошибке.
func Handle(ctx context.Context, ack Acknowledger, body []byte, handler Handler, log *slog.Logger) {
	if err := handler(ctx, body); err != nil {
		log.Warn("message handling failed, requeue", sl.Err(err))
		if nackErr := ack.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
