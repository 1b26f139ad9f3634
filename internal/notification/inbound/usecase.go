package inbound

import (
	"context"

	"github.com/shandysiswandi/ahoum/internal/notification/usecase"
)

type uc interface {
	ConsumeFacilitatorOnboarded(ctx context.Context, in usecase.ConsumeFacilitatorOnboardedInput) error
}
