package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
	"github.com/shandysiswandi/ahoum/internal/pkg/storage"
)

const defaultAvatarMaxSize = 5 << 20

//nolint:gochecknoglobals // global for fast reuse
var avatarContentTypeExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileUpdateAvatarInput struct {
	File        io.Reader
	ContentType string
}

type ProfileUpdateAvatarOutput struct {
	AvatarURL string
}

func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) (*ProfileUpdateAvatarOutput, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	id, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.File == nil {
		return nil, goerror.NewInvalidInput(nil, "file", "file is required")
	}

	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	ext, ok := avatarContentTypeExt[contentType]
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "file", "file must be a JPEG, PNG or WebP image")
	}

	maxSize := s.cfg.GetInt64("modules.facilitator.avatar.max_size_bytes")
	if maxSize <= 0 {
		maxSize = defaultAvatarMaxSize
	}

	// buffered: the S3 driver signs the payload and needs a seekable body.
	body, err := io.ReadAll(io.LimitReader(in.File, maxSize+1))
	if err != nil {
		slog.WarnContext(ctx, "failed to read avatar upload", "facilitator_id", id, "error", err)
		return nil, goerror.NewInvalidFormat()
	}
	if int64(len(body)) > maxSize {
		return nil, goerror.NewInvalidInput(nil, "file", fmt.Sprintf("file must not exceed %d bytes", maxSize))
	}

	key := fmt.Sprintf("avatars/%d/%s%s", id, s.uuid.Generate(), ext)
	obj, err := s.storage.Put(ctx, key, bytes.NewReader(body), storage.PutOptions{
		Size:        int64(len(body)),
		ContentType: contentType,
		Metadata:    map[string]string{"facilitator_id": strconv.FormatInt(id, 10)},
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload facilitator avatar", "facilitator_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoDB.UpdateAvatar(ctx, id, obj.URL); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to delete orphan avatar", "key", key, "error", delErr)
		}
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Facilitator not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo update avatar", "facilitator_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileUpdateAvatarOutput{AvatarURL: obj.URL}, nil
}
