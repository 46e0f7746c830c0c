package slots

import "errors"

var (
	// ErrNoServices возвращается, когда не выбрано ни одной услуги
	ErrNoServices = errors.New("slots: no services selected")

	// ErrInvalidSlotDuration возвращается, когда шаг сетки специалиста не положительный
	ErrInvalidSlotDuration = errors.New("slots: slot duration must be positive")

	// ErrInvalidServiceDuration возвращается для услуги с неположительной длительностью
	ErrInvalidServiceDuration = errors.New("slots: service duration must be positive")

	// ErrBeforeLeadTime возвращается, когда начало раньше now + minLead
	ErrBeforeLeadTime = errors.New("slots: start is before the earliest bookable instant")

	// ErrOffGrid возвращается, когда начало не совпадает ни с одним слотом сетки
	// или интервал не помещается в рабочие часы
	ErrOffGrid = errors.New("slots: start is not on the specialist's grid")
)
