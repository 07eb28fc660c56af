package blocked_periods

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/internal/service/blocks/models"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// CreateBlockRequest HTTP request model. Без startTime блокируется весь день
type CreateBlockRequest struct {
	Date      string  `json:"date"`                // "2025-08-20"
	StartTime *string `json:"startTime,omitempty"` // "10:00"
	Reason    *string `json:"reason,omitempty"`
}

// BlockRangeRequest HTTP request model: блокировка слотов в [from, to)
type BlockRangeRequest struct {
	Date   string  `json:"date"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Reason *string `json:"reason,omitempty"`
}

// BlockResponse HTTP response model
type BlockResponse struct {
	ID        int64   `json:"id"`
	Date      string  `json:"date"`
	StartTime *string `json:"startTime,omitempty"`
	WholeDay  bool    `json:"wholeDay"`
	Reason    *string `json:"reason,omitempty"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt string  `json:"createdAt"`
}

// BlockListResponse список блокировок
type BlockListResponse struct {
	Blocks []BlockResponse `json:"blocks"`
	Total  int             `json:"total"`
}

// CleanDuplicatesResponse результат очистки дублей
type CleanDuplicatesResponse struct {
	Removed int `json:"removed"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateBlockRequest) ToServiceRequest(createdBy string) (*models.CreateRequest, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := parseOptionalTime(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &models.CreateRequest{
		Date:      date,
		StartTime: startTime,
		Reason:    r.Reason,
		CreatedBy: createdBy,
	}, nil
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса; from/to проверяет сервис
func (r *BlockRangeRequest) ToServiceRequest(createdBy string) (*models.BlockRangeRequest, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}

	return &models.BlockRangeRequest{
		Date:      date,
		From:      r.From,
		To:        r.To,
		Reason:    r.Reason,
		CreatedBy: createdBy,
	}, nil
}

// FromDomainBlock конвертирует domain.BlockedPeriod в BlockResponse
func FromDomainBlock(b *domain.BlockedPeriod) BlockResponse {
	resp := BlockResponse{
		ID:        b.ID,
		Date:      b.Date.Format(domain.DateFormat),
		WholeDay:  b.IsWholeDay(),
		Reason:    b.Reason,
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	if b.StartTime != nil {
		start := b.StartTime.String()
		resp.StartTime = &start
	}
	return resp
}

// FromDomainBlockList конвертирует список блокировок
func FromDomainBlockList(blocks []*domain.BlockedPeriod) *BlockListResponse {
	out := make([]BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, FromDomainBlock(b))
	}
	return &BlockListResponse{Blocks: out, Total: len(out)}
}

func parseOptionalTime(s *string) (*types.TimeString, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := types.NewTimeStringFromString(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
