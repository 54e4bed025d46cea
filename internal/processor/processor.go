// Package processor runs the full read of one report: package parsing, field
// extraction and the checkbox-based consent and visit type lookups.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/medreport/internal/docx"
	"github.com/dvloznov/medreport/internal/domain"
	"github.com/dvloznov/medreport/internal/extract"
	"github.com/dvloznov/medreport/internal/formfields"
	"github.com/dvloznov/medreport/internal/logger"
)

// ErrNotDocx is returned for file names without the .docx extension.
var ErrNotDocx = errors.New("not a .docx file")

// Outcome is everything read from one report.
type Outcome struct {
	SourceName     string
	DocumentNumber string
	Result         *extract.Result
	Consent        string
	ConsentFound   bool
	VisitTypes     []formfields.VisitType
}

// Visits returns the first visit followed by the follow-up visits.
func (o *Outcome) Visits() []*domain.Record {
	return o.Result.Visits()
}

// Process reads a report given its file name and content.
func Process(ctx context.Context, filename string, data []byte) (*Outcome, error) {
	log := logger.FromContext(ctx)

	if !strings.EqualFold(filepath.Ext(filename), ".docx") {
		return nil, fmt.Errorf("Process: %s: %w", filename, ErrNotDocx)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Process: %w", err)
	}

	doc, err := docx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("Process: %s: %w", filename, err)
	}

	root, err := formfields.Parse(doc.XML)
	if err != nil {
		return nil, fmt.Errorf("Process: %s: %w", filename, err)
	}

	out := &Outcome{
		SourceName:     filepath.Base(filename),
		DocumentNumber: DocumentNumber(filename),
		Result:         extract.FromDocument(doc),
		VisitTypes:     formfields.NextVisitTypes(root),
	}
	out.Consent, out.ConsentFound = formfields.ConsentState(root)

	log.Debug().
		Str("file", out.SourceName).
		Int("tables", len(doc.Tables)).
		Int("visits", len(out.Visits())).
		Int("visit_types", len(out.VisitTypes)).
		Bool("consent_found", out.ConsentFound).
		Msg("Processed report")

	return out, nil
}

// ProcessFile reads and processes the report at path.
func ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ProcessFile: %w", err)
	}
	return Process(ctx, path, data)
}

// DocumentNumber is the base file name without extension, cut at the first
// space.
func DocumentNumber(filename string) string {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	number, _, _ := strings.Cut(stem, " ")
	return number
}

// Failure records a file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// ProcessDir processes every .docx in dir with at most workers goroutines.
// Outcomes and failures are sorted by file name. A failing file does not
// stop the others; the error is only non-nil when the folder cannot be read
// or ctx is cancelled.
func ProcessDir(ctx context.Context, dir string, workers int) ([]*Outcome, []Failure, error) {
	log := logger.FromContext(ctx)

	paths, err := ListDocx(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("ProcessDir: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]*Outcome, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i], errs[i] = ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("ProcessDir: %w", err)
	}

	var done []*Outcome
	var failures []Failure
	for i, path := range paths {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("file", path).Msg("Skipping report")
			failures = append(failures, Failure{Path: path, Err: errs[i]})
			continue
		}
		done = append(done, outcomes[i])
	}

	log.Info().
		Str("dir", dir).
		Int("processed", len(done)).
		Int("failed", len(failures)).
		Msg("Processed folder")

	return done, failures, nil
}

// ListDocx returns the .docx files in dir sorted by name. Word lock files
// (~$name.docx) are skipped.
func ListDocx(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ListDocx: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") || !strings.EqualFold(filepath.Ext(name), ".docx") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}
