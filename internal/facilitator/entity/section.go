package entity

import (
	"encoding/json"
	"strings"

	"github.com/samber/lo"
)

// Section names a JSONB profile document of a facilitator. The value is also
// the column name.
type Section string

const (
	SectionBasicInfo           Section = "basic_info"
	SectionProfessionalDetails Section = "professional_details"
	SectionBioAbout            Section = "bio_about"
	SectionExperience          Section = "experience"
	SectionCertifications      Section = "certifications"
	SectionVisualProfile       Section = "visual_profile"
)

//nolint:gochecknoglobals // fixed list
var sections = []Section{
	SectionBasicInfo,
	SectionProfessionalDetails,
	SectionBioAbout,
	SectionExperience,
	SectionCertifications,
	SectionVisualProfile,
}

// Sections returns every profile section in column order.
func Sections() []Section {
	return append([]Section(nil), sections...)
}

// ParseSection accepts "basic_info" as well as the path style "basic-info".
func ParseSection(s string) (Section, bool) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	return lo.Find(sections, func(sec Section) bool { return string(sec) == s })
}

func (s Section) String() string {
	return string(s)
}

// IsList reports whether the section holds a JSON array.
func (s Section) IsList() bool {
	return s == SectionExperience || s == SectionCertifications
}

// Default is the stored value of a section never written.
func (s Section) Default() json.RawMessage {
	if s.IsList() {
		return json.RawMessage(`[]`)
	}
	return json.RawMessage(`{}`)
}
