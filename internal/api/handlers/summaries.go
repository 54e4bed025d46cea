package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/api/middleware"
	"github.com/dvloznov/medreport/internal/pipeline"
	"github.com/dvloznov/medreport/internal/summarizer"
)

// SummariesHandler summarises uploaded PDFs without storing them.
type SummariesHandler struct {
	summarizer pipeline.PDFSummarizer
	maxBytes   int64
	log        zerolog.Logger
}

// NewSummariesHandler creates a summaries handler. A nil summarizer makes
// every request fail with 503.
func NewSummariesHandler(s pipeline.PDFSummarizer, maxBytes int64, log zerolog.Logger) *SummariesHandler {
	return &SummariesHandler{summarizer: s, maxBytes: maxBytes, log: log}
}

// Summarize handles POST /api/summaries
func (h *SummariesHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	if h.summarizer == nil {
		writeErr(w, log, "Summaries unavailable", pipeline.ErrNoSummarizer)
		return
	}
	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}
	format := strings.ToLower(r.FormValue("format"))
	switch format {
	case "", "json", "txt", "html":
	default:
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	file, err := formFile(r, "file", ".pdf")
	if err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}

	summary, err := h.summarizer.Summarize(r.Context(), file.Name, file.Data)
	if err != nil {
		writeErr(w, log, "Failed to summarise document", err)
		return
	}

	switch format {
	case "txt":
		attachment(w, summarizer.SummaryFilename(file.Name), "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(summary.Text))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(summary.HTML))
	default:
		middleware.WriteJSON(w, http.StatusOK, summary)
	}
}
