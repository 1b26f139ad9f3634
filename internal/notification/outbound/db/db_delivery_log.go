package db

import (
	"context"

	"github.com/shandysiswandi/ahoum/internal/notification/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
)

func (s *DB) CreateDeliveryLog(ctx context.Context, dl entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_delivery_logs (id, facilitator_id, trigger_key, channel, recipient, status, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dl.ID, dl.FacilitatorID, dl.TriggerKey.String(), int16(dl.Channel), dl.Recipient, int16(dl.Status), dl.Data,
	)

	return s.mapError(err)
}

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_delivery_logs
		SET status = $2, provider_response = $3, updated_at = NOW()
		WHERE id = $1`,
		u.ID, int16(u.Status), u.ProviderResponse,
	)
	if err != nil {
		return s.mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
