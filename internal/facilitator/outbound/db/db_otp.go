package db

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
)

const queryIssueOTP = `
INSERT INTO facilitator_otps (id, phone_number, code_hash, type, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`

// IssueOTP stores an unconsumed code. Older live codes stay valid.
func (s *DB) IssueOTP(ctx context.Context, in entity.OTP) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "IssueOTP")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.mapError(s.conn.QueryRow(ctx, queryIssueOTP,
		in.ID, in.PhoneNumber, in.CodeHash, in.Type.String(), in.ExpiresAt,
	).Scan(&id))
	if err != nil {
		return 0, err
	}

	return id, nil
}

// The outer consumed check makes the update a compare-and-set: of concurrent
// callers racing on the same row only one gets it back.
const queryConsumeOTP = `
UPDATE facilitator_otps SET consumed = TRUE
WHERE id = (
	SELECT id FROM facilitator_otps
	WHERE phone_number = $1 AND type = $2 AND code_hash = $3
		AND consumed = FALSE AND expires_at > $4
	ORDER BY created_at DESC
	LIMIT 1
) AND consumed = FALSE
RETURNING id`

// ConsumeOTP marks the latest live code matching codeHash as used. It reports
// false when no such code exists, whether it never existed, expired or was
// already used.
func (s *DB) ConsumeOTP(ctx context.Context, phone string, typ entity.OTPType, codeHash string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOTP")
	defer func() { s.endSpan(span, err) }()

	var id int64
	err = s.mapError(s.conn.QueryRow(ctx, queryConsumeOTP, phone, typ.String(), codeHash, now).Scan(&id))
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

const queryPurgeExpiredOTP = `DELETE FROM facilitator_otps WHERE expires_at <= $1`

func (s *DB) PurgeExpiredOTP(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryPurgeExpiredOTP, now)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
