package guest_booking

import "time"

// Request модель запроса на подтверждение гостевой записи
type Request struct {
	SpecialistID int64     // Выбранный специалист
	ServiceIDs   []int64   // Услуги в порядке выбора; первая сохраняется как ServiceID
	StartUTC     time.Time // Начало выбранного слота
	UserID       *int64    // ID авторизованного пользователя (опционально)
	Contact      Contact
	Note         *string
}

// Contact контактные данные гостя
type Contact struct {
	Name  string  `validate:"required,max=200"`
	Email string  `validate:"required,email,max=254"`
	Phone *string `validate:"omitempty,e164"`
}
