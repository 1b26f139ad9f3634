package usecase

import (
	"context"
	"log/slog"
)

// PurgeExpiredOTP deletes codes past their expiry. It only keeps the table
// small: verification already ignores expired rows.
func (s *Usecase) PurgeExpiredOTP(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredOTP")
	defer span.End()

	n, err := s.repoDB.PurgeExpiredOTP(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge expired otp", "error", err)
		return 0, err
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired otp purged", "count", n)
	}

	return n, nil
}
