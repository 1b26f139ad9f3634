package inbound

import (
	"encoding/json"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
)

// flat marks the auth responses written without the {message,data} envelope.
type flat struct{}

func (flat) Flat() bool { return true }

type FacilitatorSummary struct {
	ID          int64  `json:"id,string"`
	PhoneNumber string `json:"phone_number"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

func newFacilitatorSummary(s entity.Summary) FacilitatorSummary {
	return FacilitatorSummary{
		ID:          s.ID,
		PhoneNumber: s.PhoneNumber,
		Name:        s.Name,
		Email:       s.Email,
	}
}

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type SendOTPResponse struct {
	flat
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number"`
}

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

type VerifyOTPResponse struct {
	flat
	Success     bool                `json:"success"`
	IsNewUser   bool                `json:"is_new_user"`
	RedirectTo  string              `json:"redirect_to"`
	Message     string              `json:"message"`
	Facilitator *FacilitatorSummary `json:"facilitator,omitempty"`
}

type CompleteOnboardingRequest struct {
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	BasicInfo           json.RawMessage `json:"basic_info"`
	ProfessionalDetails json.RawMessage `json:"professional_details"`
	BioAbout            json.RawMessage `json:"bio_about"`
	Experience          json.RawMessage `json:"experience"`
	Certifications      json.RawMessage `json:"certifications"`
	VisualProfile       json.RawMessage `json:"visual_profile"`
}

func (r CompleteOnboardingRequest) sections() map[entity.Section]json.RawMessage {
	return map[entity.Section]json.RawMessage{
		entity.SectionBasicInfo:           r.BasicInfo,
		entity.SectionProfessionalDetails: r.ProfessionalDetails,
		entity.SectionBioAbout:            r.BioAbout,
		entity.SectionExperience:          r.Experience,
		entity.SectionCertifications:      r.Certifications,
		entity.SectionVisualProfile:       r.VisualProfile,
	}
}

type CompleteOnboardingResponse struct {
	flat
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Facilitator FacilitatorSummary `json:"facilitator"`
	RedirectTo  string             `json:"redirect_to"`
}

type LogoutResponse struct {
	flat
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SessionStatusResponse struct {
	flat
	Authenticated   bool   `json:"authenticated"`
	FacilitatorID   int64  `json:"facilitator_id,omitempty,string"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	TempPhoneNumber string `json:"temp_phone_number,omitempty"`
	Status          string `json:"status"`
}

type ProfileResponse struct {
	ID                  int64           `json:"id,string"`
	PhoneNumber         string          `json:"phone_number"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	BasicInfo           json.RawMessage `json:"basic_info"`
	ProfessionalDetails json.RawMessage `json:"professional_details"`
	BioAbout            json.RawMessage `json:"bio_about"`
	Experience          json.RawMessage `json:"experience"`
	Certifications      json.RawMessage `json:"certifications"`
	VisualProfile       json.RawMessage `json:"visual_profile"`
	AvatarURL           string          `json:"avatar_url"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func newProfileResponse(f *entity.Facilitator) ProfileResponse {
	section := func(s entity.Section) json.RawMessage {
		if v := f.SectionValue(s); len(v) > 0 {
			return v
		}
		return s.Default()
	}

	return ProfileResponse{
		ID:                  f.ID,
		PhoneNumber:         f.PhoneNumber,
		Name:                f.Name,
		Email:               f.Email,
		BasicInfo:           section(entity.SectionBasicInfo),
		ProfessionalDetails: section(entity.SectionProfessionalDetails),
		BioAbout:            section(entity.SectionBioAbout),
		Experience:          section(entity.SectionExperience),
		Certifications:      section(entity.SectionCertifications),
		VisualProfile:       section(entity.SectionVisualProfile),
		AvatarURL:           f.AvatarURL,
		CreatedAt:           f.CreatedAt,
		UpdatedAt:           f.UpdatedAt,
	}
}

type ProfileUpdateSectionResponse struct {
	ProfileResponse
	section entity.Section
}

func (r ProfileUpdateSectionResponse) Message() string {
	return "Profile " + r.section.String() + " updated successfully"
}

type ProfileUpdateAvatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

func (ProfileUpdateAvatarResponse) Message() string {
	return "Avatar updated successfully"
}
