package get_alternative_times

import (
	"github.com/m04kA/TourBookingService/internal/domain"
	checkAvailability "github.com/m04kA/TourBookingService/internal/usecase/check_availability"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// AlternativesResponse HTTP response model
type AlternativesResponse struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// ToUseCaseRequest собирает запрос из query параметров; exclude необязателен
func ToUseCaseRequest(dateStr, tourType, excludeStr string) (*checkAvailability.AlternativesRequest, error) {
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}

	req := &checkAvailability.AlternativesRequest{Date: date, TourType: tourType}
	if excludeStr != "" {
		exclude, err := types.NewTimeStringFromString(excludeStr)
		if err != nil {
			return nil, err
		}
		req.Exclude = &exclude
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *checkAvailability.AlternativesResponse) *AlternativesResponse {
	times := make([]string, 0, len(resp.Times))
	for _, t := range resp.Times {
		times = append(times, t.String())
	}
	return &AlternativesResponse{
		Date:  resp.Date.Format(domain.DateFormat),
		Times: times,
	}
}
