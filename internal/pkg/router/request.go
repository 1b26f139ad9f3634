package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// DecodeBody decodes a single JSON document from the body into dst.
// An empty body leaves dst untouched so field validation reports what is missing.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// File is a multipart file part streamed from the request body.
type File struct {
	io.ReadCloser
	Filename    string
	ContentType string
}

// StreamSingleFile returns the first multipart file matching the form field name.
// Parts before it are discarded; parts after it are never read.
func (r *Request) StreamSingleFile(name string) (*File, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, goerror.NewInvalidFormat("Invalid request content-type")
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, goerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, goerror.NewInvalidInput(nil, name, name+" is required")
		}
		if err != nil {
			return nil, goerror.NewInvalidFormat()
		}

		if part.FormName() == name && part.FileName() != "" {
			return &File{
				ReadCloser:  part,
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
			}, nil
		}

		if err := discard(part); err != nil {
			return nil, goerror.NewInvalidFormat(err.Error())
		}
	}
}

func discard(part *multipart.Part) error {
	_, errCopy := io.Copy(io.Discard, part)
	errClose := part.Close()
	return errors.Join(errCopy, errClose)
}
