package validators

import (
	"errors"
	"mime/multipart"
	"net/http"

	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
)

// ParseMultipartForm parses the request as multipart, bounding memory use
// and total request size to maxBytes.
func ParseMultipartForm(r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	return nil
}

// FormFile extracts a required file field from an already-parsed multipart form.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required").WithDetails(map[string]any{"field": field})
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid file upload")
	}
	return file, header, nil
}
