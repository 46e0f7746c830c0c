package notifier

import "errors"

var (
	// ErrConnect возвращается, когда не удалось подключиться к брокеру
	ErrConnect = errors.New("notifier: failed to connect to broker")

	// ErrMarshal возвращается при ошибке сериализации события
	ErrMarshal = errors.New("notifier: failed to marshal event")

	// ErrPublish возвращается при ошибке публикации события
	ErrPublish = errors.New("notifier: failed to publish event")
)
