package check_availability

import (
	"fmt"
	"strconv"

	"github.com/m04kA/TourBookingService/internal/domain"
	checkAvailability "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	IsAvailable      bool     `json:"isAvailable"`
	ConflictingCount int      `json:"conflictingCount"`
	MaxCapacity      int      `json:"maxCapacity"`
	AlternativeTimes []string `json:"alternativeTimes"`
	Message          string   `json:"message"`
	Reason           string   `json:"reason,omitempty"`
}

// ToUseCaseRequest собирает запрос из query параметров
func ToUseCaseRequest(dateStr, timeStr, tourType, partySizeStr string) (*checkAvailability.Request, error) {
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	start, err := types.NewTimeStringFromString(timeStr)
	if err != nil {
		return nil, err
	}

	partySize := 1
	if partySizeStr != "" {
		partySize, err = strconv.Atoi(partySizeStr)
		if err != nil {
			return nil, fmt.Errorf("%w: party size %q", domain.ErrInvalidInput, partySizeStr)
		}
	}

	return &checkAvailability.Request{
		Date:      date,
		Time:      start,
		PartySize: partySize,
		TourType:  tourType,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *checkAvailability.Response) *AvailabilityResponse {
	alternatives := make([]string, 0, len(resp.AlternativeTimes))
	for _, t := range resp.AlternativeTimes {
		alternatives = append(alternatives, t.String())
	}

	return &AvailabilityResponse{
		IsAvailable:      resp.IsAvailable,
		ConflictingCount: resp.ConflictingCount,
		MaxCapacity:      resp.MaxCapacity,
		AlternativeTimes: alternatives,
		Message:          resp.Message,
		Reason:           string(resp.Reason),
	}
}
