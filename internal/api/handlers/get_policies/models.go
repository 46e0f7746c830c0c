package get_policies

import (
	"strconv"

	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
)

// ToServiceRequest формирует запрос действующей политики из query параметров.
// Возвращает nil, если ни specialistId, ни serviceId не указаны.
func ToServiceRequest(specialistIDStr, serviceIDStr string) (*models.GetPolicyRequest, error) {
	if specialistIDStr == "" && serviceIDStr == "" {
		return nil, nil
	}

	req := &models.GetPolicyRequest{}

	// Парсим specialistId если указан
	if specialistIDStr != "" {
		specialistID, err := strconv.ParseInt(specialistIDStr, 10, 64)
		if err != nil {
			return nil, err
		}
		req.SpecialistID = &specialistID
	}

	// Парсим serviceId если указан
	if serviceIDStr != "" {
		serviceID, err := strconv.ParseInt(serviceIDStr, 10, 64)
		if err != nil {
			return nil, err
		}
		req.ServiceID = &serviceID
	}

	return req, nil
}
