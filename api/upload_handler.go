package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	uploadField        = "file"
	maxFilesPerRequest = 10
)

type uploadHandler struct {
	responder Responder
	logger    zerolog.Logger
	media     *services.MediaService
	maxBytes  int64
}

func newUploadHandler(media *services.MediaService, maxBytes int64) uploadHandler {
	logger := log.With().Str("handlerName", "uploadHandler").Logger()
	return uploadHandler{
		responder: NewResponder(logger),
		logger:    logger,
		media:     media,
		maxBytes:  maxBytes,
	}
}

// @Summary Upload images
// @Description Stores every multipart "file" field as an image and mirrors it to object storage when enabled
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image, may be repeated"
// @Success 201 {object} listResponse[services.StoredFile]
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /uploads [post]
func (h uploadHandler) uploadImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uploads, err := readUploads(w, r, h.maxBytes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		files, err := h.media.SaveImages(r.Context(), uploads)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteStatusJSON(w, http.StatusCreated, newListResponse(files))
	}
}

// readUploads collects the "file" parts of a multipart request. Each part may
// be at most maxBytes long.
func readUploads(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]services.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes*maxFilesPerRequest+maxJSONBodyBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, errs.NewMaxBodySizeExceededError(maxBytesErr.Limit)
		}
		return nil, errs.NewMalformedPayloadError("multipart", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		return nil, errs.NewMissingRequiredFieldError(uploadField)
	}
	if len(headers) > maxFilesPerRequest {
		return nil, errs.NewInvalidFieldError(uploadField, "too many files in one request")
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, header := range headers {
		if header.Size > maxBytes {
			return nil, errs.NewMaxBodySizeExceededError(maxBytes)
		}
		data, err := readPart(header)
		if err != nil {
			return nil, errs.NewMalformedPayloadError("multipart", err)
		}
		uploads = append(uploads, services.Upload{Filename: header.Filename, Data: data})
	}
	return uploads, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
