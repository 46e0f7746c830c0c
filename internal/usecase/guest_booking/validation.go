package guest_booking

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// phoneReplacer убирает оформление, которое гости вводят в номер телефона
var phoneReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// normalizeContact обрезает пробелы и приводит телефон к виду +79991234567
func normalizeContact(c Contact) Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Phone != nil {
		phone := phoneReplacer.Replace(strings.TrimSpace(*c.Phone))
		if phone == "" {
			c.Phone = nil
		} else {
			c.Phone = &phone
		}
	}
	return c
}

// validateRequest валидирует входные данные запроса
func validateRequest(v *validator.Validate, req *Request) error {
	if req.SpecialistID <= 0 {
		return fmt.Errorf("%w: specialistID must be positive", ErrInvalidInput)
	}

	if len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}

	if req.StartUTC.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidInput)
	}

	if err := v.Struct(req.Contact); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}

	if req.Note != nil && utf8.RuneCountInString(*req.Note) > domain.MaxNoteLength {
		return fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, domain.MaxNoteLength)
	}

	return nil
}

// describe превращает ошибки валидатора в короткое сообщение для клиента
func describe(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("contact %s fails %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
