package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
)

const facilitatorColumns = `id, phone_number, name, email,
	basic_info, professional_details, bio_about, experience, certifications, visual_profile,
	avatar_url, is_active, created_at, updated_at`

func scanFacilitator(row pgx.Row) (*entity.Facilitator, error) {
	var (
		f                                            entity.Facilitator
		basic, professional, bio, exp, certs, visual []byte
	)

	err := row.Scan(
		&f.ID, &f.PhoneNumber, &f.Name, &f.Email,
		&basic, &professional, &bio, &exp, &certs, &visual,
		&f.AvatarURL, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	f.BasicInfo = json.RawMessage(basic)
	f.ProfessionalDetails = json.RawMessage(professional)
	f.BioAbout = json.RawMessage(bio)
	f.Experience = json.RawMessage(exp)
	f.Certifications = json.RawMessage(certs)
	f.VisualProfile = json.RawMessage(visual)

	return &f, nil
}

// jsonArg binds a section document; an empty one binds NULL so COALESCE
// falls back to the column default.
func jsonArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

const queryFindFacilitatorByPhone = `SELECT ` + facilitatorColumns + `
FROM facilitators
WHERE phone_number = $1 AND is_active = TRUE`

// FindFacilitatorByPhone resolves an active facilitator. Inactive rows are
// reported as goerror.ErrNotFound.
func (s *DB) FindFacilitatorByPhone(ctx context.Context, phone string) (_ *entity.Facilitator, err error) {
	ctx, span := s.startSpan(ctx, "FindFacilitatorByPhone")
	defer func() { s.endSpan(span, err) }()

	f, err := scanFacilitator(s.conn.QueryRow(ctx, queryFindFacilitatorByPhone, phone))
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	return f, nil
}

const queryGetFacilitatorByID = `SELECT ` + facilitatorColumns + `
FROM facilitators
WHERE id = $1 AND is_active = TRUE`

func (s *DB) GetFacilitatorByID(ctx context.Context, id int64) (_ *entity.Facilitator, err error) {
	ctx, span := s.startSpan(ctx, "GetFacilitatorByID")
	defer func() { s.endSpan(span, err) }()

	f, err := scanFacilitator(s.conn.QueryRow(ctx, queryGetFacilitatorByID, id))
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	return f, nil
}

const queryCreateFacilitator = `
INSERT INTO facilitators (
	id, phone_number, name, email,
	basic_info, professional_details, bio_about, experience, certifications, visual_profile
) VALUES (
	$1, $2, $3, $4,
	COALESCE($5::jsonb, '{}'::jsonb),
	COALESCE($6::jsonb, '{}'::jsonb),
	COALESCE($7::jsonb, '{}'::jsonb),
	COALESCE($8::jsonb, '[]'::jsonb),
	COALESCE($9::jsonb, '[]'::jsonb),
	COALESCE($10::jsonb, '{}'::jsonb)
)
RETURNING ` + facilitatorColumns

// CreateFacilitator inserts a facilitator. A phone number already taken is
// reported as goerror.ErrConflict.
func (s *DB) CreateFacilitator(ctx context.Context, in entity.NewFacilitator) (_ *entity.Facilitator, err error) {
	ctx, span := s.startSpan(ctx, "CreateFacilitator")
	defer func() { s.endSpan(span, err) }()

	f, err := scanFacilitator(s.conn.QueryRow(ctx, queryCreateFacilitator,
		in.ID, in.PhoneNumber, in.Name, in.Email,
		jsonArg(in.Sections[entity.SectionBasicInfo]),
		jsonArg(in.Sections[entity.SectionProfessionalDetails]),
		jsonArg(in.Sections[entity.SectionBioAbout]),
		jsonArg(in.Sections[entity.SectionExperience]),
		jsonArg(in.Sections[entity.SectionCertifications]),
		jsonArg(in.Sections[entity.SectionVisualProfile]),
	))
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	return f, nil
}

// the column name comes from entity.Section, never from raw input.
const queryUpdateSection = `
UPDATE facilitators SET %s = $2::jsonb, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE
RETURNING ` + facilitatorColumns

func (s *DB) UpdateSection(ctx context.Context, id int64, sec entity.Section, value json.RawMessage) (_ *entity.Facilitator, err error) {
	ctx, span := s.startSpan(ctx, "UpdateSection")
	defer func() { s.endSpan(span, err) }()

	if _, ok := entity.ParseSection(sec.String()); !ok {
		return nil, fmt.Errorf("unknown profile section %q", sec)
	}

	f, err := scanFacilitator(s.conn.QueryRow(ctx, fmt.Sprintf(queryUpdateSection, sec), id, string(value)))
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	return f, nil
}

const queryUpdateAvatar = `
UPDATE facilitators SET avatar_url = $2, updated_at = NOW()
WHERE id = $1 AND is_active = TRUE`

func (s *DB) UpdateAvatar(ctx context.Context, id int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateAvatar")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateAvatar, id, avatarURL)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return s.mapError(pgx.ErrNoRows)
	}

	return nil
}
