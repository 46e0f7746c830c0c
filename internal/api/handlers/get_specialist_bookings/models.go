package get_specialist_bookings

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(
	specialistID int64,
	fromStr string,
	toStr string,
	statusStr string,
	includeInactiveStr string,
) (*models.ListBySpecialistRequest, error) {
	req := &models.ListBySpecialistRequest{
		SpecialistID:    specialistID,
		IncludeInactive: false, // По умолчанию только занимающие время
	}

	// Парсим from если указан
	if fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid from value: %w", err)
		}
		from = from.UTC()
		req.From = &from
	}

	// Парсим to если указан
	if toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid to value: %w", err)
		}
		to = to.UTC()
		req.To = &to
	}

	if statusStr != "" {
		req.Status = &statusStr
	}

	// Парсим includeInactive если указан
	if includeInactiveStr != "" {
		includeInactive, err := strconv.ParseBool(includeInactiveStr)
		if err != nil {
			return nil, fmt.Errorf("invalid includeInactive value: %w", err)
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}
