package entity

import "github.com/shandysiswandi/ahoum/internal/pkg/valueobject"

// CreateDeliveryLog records an outgoing notification before it is handed to
// the provider.
type CreateDeliveryLog struct {
	ID            int64
	FacilitatorID int64
	TriggerKey    TriggerKey
	Channel       Channel
	Recipient     string
	Status        DeliveryStatus
	Data          valueobject.JSONMap
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
}
