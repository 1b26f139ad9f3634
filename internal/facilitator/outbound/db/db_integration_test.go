//go:build integration

package db

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/instrument"
	"github.com/shandysiswandi/ahoum/internal/pkg/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newPostgres(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("ahoum"),
		postgres.WithUsername("ahoum"),
		postgres.WithPassword("ahoum"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, migration.Run(dsn, migration.Up))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewDB(pool, instrument.NewNoop())
}

func TestIntegration_OTPLifecycle(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()
	phone := "+15551234567"

	_, err := s.IssueOTP(ctx, entity.OTP{ID: 1, PhoneNumber: phone, CodeHash: "old", Type: entity.OTPTypeVerification, ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)
	_, err = s.IssueOTP(ctx, entity.OTP{ID: 2, PhoneNumber: phone, CodeHash: "new", Type: entity.OTPTypeVerification, ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)
	_, err = s.IssueOTP(ctx, entity.OTP{ID: 3, PhoneNumber: phone, CodeHash: "stale", Type: entity.OTPTypeVerification, ExpiresAt: now.Add(-time.Second)})
	require.NoError(t, err)

	// a newer code does not invalidate an older live one.
	ok, err := s.ConsumeOTP(ctx, phone, entity.OTPTypeVerification, "old", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ConsumeOTP(ctx, phone, entity.OTPTypeVerification, "old", now)
	require.NoError(t, err)
	assert.False(t, ok, "a code verifies once")

	ok, err = s.ConsumeOTP(ctx, phone, entity.OTPTypeVerification, "stale", now)
	require.NoError(t, err)
	assert.False(t, ok, "expired code")

	ok, err = s.ConsumeOTP(ctx, phone, entity.OTPTypeVerification, "new", now.Add(10*time.Minute+time.Millisecond))
	require.NoError(t, err)
	assert.False(t, ok, "code past its expiry")

	n, err := s.PurgeExpiredOTP(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err = s.ConsumeOTP(ctx, phone, entity.OTPTypeVerification, "new", now)
	require.NoError(t, err)
	assert.True(t, ok, "purge keeps live codes")
}

func TestIntegration_ConsumeOTPConcurrent(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.IssueOTP(ctx, entity.OTP{ID: 10, PhoneNumber: "+15557654321", CodeHash: "race", Type: entity.OTPTypeVerification, ExpiresAt: now.Add(time.Minute)})
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.ConsumeOTP(ctx, "+15557654321", entity.OTPTypeVerification, "race", now)
			if assert.NoError(t, err) && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestIntegration_Facilitator(t *testing.T) {
	s := newPostgres(t)
	ctx := context.Background()

	created, err := s.CreateFacilitator(ctx, entity.NewFacilitator{
		ID: 100, PhoneNumber: "+15551112222", Name: "Jane Doe", Email: "jane@example.com",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(created.BasicInfo))
	assert.JSONEq(t, `[]`, string(created.Certifications))

	_, err = s.CreateFacilitator(ctx, entity.NewFacilitator{
		ID: 101, PhoneNumber: "+15551112222", Name: "Other", Email: "other@example.com",
	})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	found, err := s.FindFacilitatorByPhone(ctx, "+15551112222")
	require.NoError(t, err)
	assert.Equal(t, int64(100), found.ID)

	updated, err := s.UpdateSection(ctx, 100, entity.SectionBioAbout, []byte(`{"bio":"Yoga teacher"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bio":"Yoga teacher"}`, string(updated.BioAbout))

	require.NoError(t, s.UpdateAvatar(ctx, 100, "http://localhost/storage/a.png"))
	got, err := s.GetFacilitatorByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/storage/a.png", got.AvatarURL)

	_, err = s.FindFacilitatorByPhone(ctx, "+15550000000")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
