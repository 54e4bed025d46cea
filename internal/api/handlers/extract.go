package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/api/middleware"
	"github.com/dvloznov/medreport/internal/processor"
	"github.com/dvloznov/medreport/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExtractHandler turns an uploaded report into its transposed table.
type ExtractHandler struct {
	maxBytes int64
	log      zerolog.Logger
}

// NewExtractHandler creates an extract handler.
func NewExtractHandler(maxBytes int64, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{maxBytes: maxBytes, log: log}
}

// ExtractResponse is the JSON body of POST /api/extract.
type ExtractResponse struct {
	Table    *report.Table `json:"table"`
	Warnings []string      `json:"warnings"`
}

// Extract handles POST /api/extract
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}
	format := strings.ToLower(r.FormValue("format"))
	if format != "" && format != "json" && format != "xlsx" {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	file, err := formFile(r, "file", ".docx")
	if err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}

	table, warnings, err := buildTable(r.Context(), file)
	if err != nil {
		writeErr(w, log, "Failed to extract report", err)
		return
	}
	for _, warn := range warnings {
		log.Warn().Str("file", file.Name).Msg(warn)
	}

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, table); err != nil {
			writeErr(w, log, "Failed to write spreadsheet", err)
			return
		}
		attachment(w, report.XLSXFilename(file.Name), xlsxContentType)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
		return
	}

	if warnings == nil {
		warnings = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, ExtractResponse{Table: table, Warnings: warnings})
}

// buildTable processes an uploaded report into its table.
func buildTable(ctx context.Context, file *upload) (*report.Table, []string, error) {
	outcome, err := processor.Process(ctx, file.Name, file.Data)
	if err != nil {
		return nil, nil, err
	}
	return report.Build(outcome)
}
