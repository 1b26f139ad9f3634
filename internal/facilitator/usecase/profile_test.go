package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func authCtx() context.Context {
	return session.WithFacilitatorID(context.Background(), 42)
}

func TestUsecase_Profile(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Profile(context.Background())
		requireCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("found", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetFacilitatorByID", mock.Anything, int64(42)).Return(jane(), nil).Once()

		got, err := f.uc.Profile(authCtx())
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", got.Name)
	})

	t.Run("deactivated", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("GetFacilitatorByID", mock.Anything, int64(42)).Return(nil, goerror.ErrNotFound).Once()

		_, err := f.uc.Profile(authCtx())
		requireCode(t, err, goerror.CodeNotFound)
	})
}

func TestUsecase_ProfileUpdateSection(t *testing.T) {
	t.Run("unknown section", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ProfileUpdateSection(authCtx(), ProfileUpdateSectionInput{Section: "name", Value: json.RawMessage(`{}`)})
		gerr := requireCode(t, err, goerror.CodeInvalidInput)
		assert.Contains(t, gerr.Fields(), "section")
	})

	t.Run("missing value", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ProfileUpdateSection(authCtx(), ProfileUpdateSectionInput{Section: "bio_about"})
		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("path style section", func(t *testing.T) {
		f := newFixture(t)
		updated := jane()
		updated.BasicInfo = json.RawMessage(`{"city":"Pune"}`)
		f.db.On("UpdateSection", mock.Anything, int64(42), entity.SectionBasicInfo, json.RawMessage(`{"city":"Pune"}`)).
			Return(updated, nil).Once()

		got, err := f.uc.ProfileUpdateSection(authCtx(), ProfileUpdateSectionInput{Section: "basic-info", Value: json.RawMessage(`{"city":"Pune"}`)})
		require.NoError(t, err)
		assert.JSONEq(t, `{"city":"Pune"}`, string(got.BasicInfo))
	})
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestUsecase_ProfileUpdateAvatar(t *testing.T) {
	t.Run("stores and saves url", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("UpdateAvatar", mock.Anything, int64(42), "http://cdn.test/avatars/42/uuid-1.png").Return(nil).Once()

		out, err := f.uc.ProfileUpdateAvatar(authCtx(), ProfileUpdateAvatarInput{
			File:        bytes.NewReader(pngHeader),
			ContentType: "image/png",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://cdn.test/avatars/42/uuid-1.png", out.AvatarURL)

		stored, ok := f.storage.Get("avatars/42/uuid-1.png")
		require.True(t, ok)
		assert.Equal(t, pngHeader, stored)
	})

	t.Run("rejects type", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ProfileUpdateAvatar(authCtx(), ProfileUpdateAvatarInput{
			File:        bytes.NewReader([]byte("GIF89a")),
			ContentType: "image/gif",
		})
		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("rejects size", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ProfileUpdateAvatar(authCtx(), ProfileUpdateAvatarInput{
			File:        bytes.NewReader(bytes.Repeat([]byte("a"), 65)),
			ContentType: "image/png",
		})
		requireCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("removes object when save fails", func(t *testing.T) {
		f := newFixture(t)
		f.db.On("UpdateAvatar", mock.Anything, int64(42), mock.Anything).Return(errors.New("db down")).Once()

		_, err := f.uc.ProfileUpdateAvatar(authCtx(), ProfileUpdateAvatarInput{
			File:        bytes.NewReader(pngHeader),
			ContentType: "image/png",
		})
		requireCode(t, err, goerror.CodeInternal)

		_, ok := f.storage.Get("avatars/42/uuid-1.png")
		assert.False(t, ok)
	})
}
