package rabbitmq

const (
	// Exchange direct exchange уведомлений.
	Exchange = "notifications"
	// ExpiringRoutingKey ключ напоминаний об окончании подписки.
	ExpiringRoutingKey = "expiring"
	// ExpiringQueue очередь напоминаний.
	ExpiringQueue = "notifications.expiring"

	prefetch = 10
)

// QueueConfig очередь и ключ маршрутизации, с которым она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди сервиса уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ExpiringQueue, RoutingKey: ExpiringRoutingKey},
		// при необходимости дополнительные очереди для других воркеров
	}
}
