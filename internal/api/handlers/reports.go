package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/api/middleware"
	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/docxfill"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// WarningsHeader carries the warnings of a generated report.
const WarningsHeader = "X-Report-Warnings"

// ReportsHandler fills a template with one visit of an uploaded report.
type ReportsHandler struct {
	cfg      *config.Config
	fetcher  docxfill.ImageFetcher
	maxBytes int64
	log      zerolog.Logger
}

// NewReportsHandler creates a reports handler. fetcher downloads the
// doctors' signature images.
func NewReportsHandler(cfg *config.Config, fetcher docxfill.ImageFetcher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{cfg: cfg, fetcher: fetcher, maxBytes: cfg.Server.MaxUploadBytes, log: log}
}

// Generate handles POST /api/reports
func (h *ReportsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}

	doctor, err := h.cfg.FindDoctor(r.FormValue("doctor"))
	if err != nil {
		writeErr(w, log, "Invalid doctor", err)
		return
	}
	template, err := formFile(r, "template", ".docx")
	if err != nil {
		writeErr(w, log, "Invalid template", err)
		return
	}
	source, err := formFile(r, "source", ".docx")
	if err != nil {
		writeErr(w, log, "Invalid source report", err)
		return
	}

	table, warnings, err := buildTable(r.Context(), source)
	if err != nil {
		writeErr(w, log, "Failed to extract report", err)
		return
	}

	visit := table.Visits() - 1
	if col := strings.TrimSpace(r.FormValue("column")); col != "" {
		visit, err = strconv.Atoi(col)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("column must be a number, got %q", col))
			return
		}
	}

	extra := docxfill.ExtraFor(doctor,
		r.FormValue("expediente"),
		r.FormValue("documentacion_aportada"),
		r.FormValue("documentacion_no_aportada"),
	)
	res, err := docxfill.Fill(r.Context(), template.Data, table, visit, extra, docxfill.SignatureFor(doctor, h.fetcher))
	if err != nil {
		writeErr(w, log, "Failed to generate report", err)
		return
	}
	warnings = append(warnings, res.Warnings...)

	attachment(w, res.Filename, docxContentType)
	if len(warnings) > 0 {
		w.Header().Set(WarningsHeader, strings.Join(warnings, "; "))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// DoctorsHandler lists the registered doctors.
type DoctorsHandler struct {
	cfg *config.Config
}

// NewDoctorsHandler creates a doctors handler.
func NewDoctorsHandler(cfg *config.Config) *DoctorsHandler {
	return &DoctorsHandler{cfg: cfg}
}

// ListDoctors handles GET /api/doctors
func (h *DoctorsHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors := h.cfg.Doctors
	if doctors == nil {
		doctors = []config.Doctor{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}
