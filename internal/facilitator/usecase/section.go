package usecase

import (
	"bytes"
	"encoding/json"

	"github.com/shandysiswandi/ahoum/internal/facilitator/entity"
	"github.com/shandysiswandi/ahoum/internal/pkg/goerror"
)

// sectionValue checks raw against the shape of sec. Empty and null values
// report ok=false so the caller can keep the stored or default document.
func sectionValue(sec entity.Section, raw json.RawMessage) (_ json.RawMessage, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, nil
	}

	if !json.Valid(raw) {
		return nil, false, goerror.NewInvalidInput(nil, sec.String(), sec.String()+" must be valid JSON")
	}

	if sec.IsList() && raw[0] != '[' {
		return nil, false, goerror.NewInvalidInput(nil, sec.String(), sec.String()+" must be a list")
	}
	if !sec.IsList() && raw[0] != '{' {
		return nil, false, goerror.NewInvalidInput(nil, sec.String(), sec.String()+" must be an object")
	}

	return raw, true, nil
}
