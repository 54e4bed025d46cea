package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/api/middleware"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/docxfill"
	"github.com/dvloznov/medreport/internal/jobs"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/dvloznov/medreport/internal/pipeline"
	"github.com/dvloznov/medreport/internal/processor"
	"github.com/dvloznov/medreport/internal/report"
	"github.com/dvloznov/medreport/internal/summarizer"
)

// DefaultMaxUploadBytes bounds a multipart request.
const DefaultMaxUploadBytes = 32 << 20

// errBadRequest marks client errors detected by the handlers themselves.
var errBadRequest = errors.New("bad request")

// upload is a file read from a multipart form.
type upload struct {
	Name string
	Data []byte
}

// parseForm limits the body to maxBytes and parses the multipart form.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("request larger than %d bytes: %w", maxBytes, errTooLarge)
		}
		return fmt.Errorf("invalid multipart form: %w", errBadRequest)
	}
	return nil
}

var errTooLarge = errors.New("too large")

// formFile reads the named file field and checks its extension against exts.
func formFile(r *http.Request, field string, exts ...string) (*upload, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing file field %q: %w", field, errBadRequest)
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	allowed := false
	for _, e := range exts {
		if ext == e {
			allowed = true
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%s: expected %s file: %w", name, strings.Join(exts, " or "), errUnsupported)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &upload{Name: name, Data: data}, nil
}

var errUnsupported = errors.New("unsupported file type")

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupported),
		errors.Is(err, processor.ErrNotDocx),
		errors.Is(err, summarizer.ErrNotPDF),
		errors.Is(err, pipeline.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errBadRequest),
		errors.Is(err, config.ErrUnknownDoctor),
		errors.Is(err, docxfill.ErrVisitOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, docx.ErrNotDocx),
		errors.Is(err, report.ErrNoVisits):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bq.ErrNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoStorage),
		errors.Is(err, pipeline.ErrNoSummarizer),
		errors.Is(err, jobs.ErrQueueClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, summarizer.ErrEmptyResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeErr logs err and writes it with its mapped status. Server errors
// get a generic message.
func writeErr(w http.ResponseWriter, log zerolog.Logger, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, status, msg)
		return
	}
	log.Warn().Err(err).Int("status", status).Msg(msg)
	middleware.WriteError(w, status, err.Error())
}

// attachment sets the download headers for a generated file.
func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// requestLog prefers the request-scoped logger set by the logging middleware.
func requestLog(r *http.Request, fallback zerolog.Logger) zerolog.Logger {
	if l, ok := r.Context().Value(logger.LoggerKey).(zerolog.Logger); ok {
		return l
	}
	return fallback
}
