package event

import "time"

const FacilitatorOnboardedDestination string = "facilitator_onboarded"
const FacilitatorOnboardedDestinationConsumerNotification string = "facilitator_onboarded_notification"

type FacilitatorOnboardedMessage struct {
	FacilitatorID int64     `json:"facilitator_id"`
	PhoneNumber   string    `json:"phone_number"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	OnboardedAt   time.Time `json:"onboarded_at"`
}
