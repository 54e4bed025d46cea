// Package summarizer turns a PDF of medical evidence into a structured Spanish
// summary: the PDF is transcribed to markdown by a language model, and a
// second call condenses the markdown into twelve fixed sections.
package summarizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dvloznov/medreport/internal/config"
	"github.com/dvloznov/medreport/internal/logger"
	"github.com/rs/zerolog"
)

// ErrNotPDF is returned for input that does not carry the PDF signature.
var ErrNotPDF = errors.New("not a pdf document")

// Summary is the outcome of Summarize.
type Summary struct {
	SourceName string    `json:"source_name"`
	Markdown   string    `json:"markdown"`
	Text       string    `json:"summary"`
	HTML       string    `json:"html"`
	Sections   []Section `json:"sections"`
}

// Summarizer runs the transcription and summary calls.
type Summarizer struct {
	model        TextModel
	ocrModel     string
	summaryModel string
}

// New creates a summarizer using the model names from cfg.
func New(model TextModel, cfg config.GeminiConfig) *Summarizer {
	ocr := cfg.OCRModel
	if ocr == "" {
		ocr = cfg.Model
	}
	return &Summarizer{model: model, ocrModel: ocr, summaryModel: cfg.Model}
}

// Summarize transcribes pdf and summarises the transcription.
func (s *Summarizer) Summarize(ctx context.Context, filename string, pdf []byte) (*Summary, error) {
	log := logger.FromContext(ctx).With().Str("file", filename).Logger()

	if !bytes.HasPrefix(bytes.TrimLeft(pdf, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, fmt.Errorf("Summarize: %s: %w", filename, ErrNotPDF)
	}

	markdown, err := s.Transcribe(ctx, pdf)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	log.Debug().Int("markdown_len", len(markdown)).Msg("PDF transcribed")

	text, err := s.SummarizeMarkdown(ctx, markdown)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	html, err := RenderHTML(text)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	sections := Sections(text)
	logSections(log, sections)

	return &Summary{
		SourceName: filename,
		Markdown:   markdown,
		Text:       text,
		HTML:       html,
		Sections:   sections,
	}, nil
}

// Transcribe asks the model for a markdown transcription of pdf.
func (s *Summarizer) Transcribe(ctx context.Context, pdf []byte) (string, error) {
	out, err := s.model.Generate(ctx, Request{
		Model:      s.ocrModel,
		Prompt:     ocrPrompt,
		Attachment: pdf,
		MIMEType:   "application/pdf",
	})
	if err != nil {
		return "", fmt.Errorf("Transcribe: %w", err)
	}
	out = stripFences(out)
	if out == "" {
		return "", fmt.Errorf("Transcribe: %w", ErrEmptyResponse)
	}
	return out, nil
}

// SummarizeMarkdown produces the twelve-section summary of markdown.
func (s *Summarizer) SummarizeMarkdown(ctx context.Context, markdown string) (string, error) {
	var zero float32
	out, err := s.model.Generate(ctx, Request{
		Model:       s.summaryModel,
		System:      summaryInstructions,
		Prompt:      userPrefix + markdown,
		Temperature: &zero,
	})
	if err != nil {
		return "", fmt.Errorf("SummarizeMarkdown: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("SummarizeMarkdown: %w", ErrEmptyResponse)
	}
	return out, nil
}

func logSections(log zerolog.Logger, sections []Section) {
	empty := 0
	for _, sec := range sections {
		if sec.Empty() {
			empty++
		}
	}
	log.Info().
		Int("sections", len(sections)).
		Int("without_information", empty).
		Msg("Summary generated")
}

// SummaryFilename names the text download for a source file.
func SummaryFilename(source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." {
		stem = "documento"
	}
	return "resumen_" + stem + ".txt"
}

// stripFences removes a surrounding ``` block if the model added one.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	idx := strings.Index(s, "\n")
	if idx == -1 {
		return ""
	}
	s = s[idx+1:]
	if end := strings.LastIndex(s, "```"); end != -1 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
