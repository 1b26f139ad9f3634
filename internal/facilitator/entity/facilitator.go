package entity

import (
	"encoding/json"
	"time"
)

type Facilitator struct {
	ID                  int64
	PhoneNumber         string
	Name                string
	Email               string
	BasicInfo           json.RawMessage
	ProfessionalDetails json.RawMessage
	BioAbout            json.RawMessage
	Experience          json.RawMessage
	Certifications      json.RawMessage
	VisualProfile       json.RawMessage
	AvatarURL           string
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Summary is the public subset returned by the auth endpoints.
type Summary struct {
	ID          int64
	PhoneNumber string
	Name        string
	Email       string
}

func (f Facilitator) Summary() Summary {
	return Summary{
		ID:          f.ID,
		PhoneNumber: f.PhoneNumber,
		Name:        f.Name,
		Email:       f.Email,
	}
}

// SectionValue returns the stored document of a profile section.
func (f Facilitator) SectionValue(s Section) json.RawMessage {
	switch s {
	case SectionBasicInfo:
		return f.BasicInfo
	case SectionProfessionalDetails:
		return f.ProfessionalDetails
	case SectionBioAbout:
		return f.BioAbout
	case SectionExperience:
		return f.Experience
	case SectionCertifications:
		return f.Certifications
	case SectionVisualProfile:
		return f.VisualProfile
	default:
		return nil
	}
}

type NewFacilitator struct {
	ID          int64
	PhoneNumber string
	Name        string
	Email       string
	// Sections holds the optional onboarding documents; absent keys get the section default.
	Sections map[Section]json.RawMessage
}
