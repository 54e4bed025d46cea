// Package gdrive downloads shared Google Drive files, following the
// virus-scan confirmation page Drive serves for some downloads.
package gdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/dvloznov/medreport/internal/logger"
)

// ErrNotImage is returned when the downloaded content is not an image.
var ErrNotImage = errors.New("downloaded content is not an image")

// DefaultBaseURL is the Drive download host.
const DefaultBaseURL = "https://drive.google.com"

const defaultMaxBytes = 10 << 20

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`),
}

// FileID extracts the Drive file id from a sharing link.
func FileID(link string) (string, bool) {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(link); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Fetcher downloads images from Drive sharing links or plain URLs.
type Fetcher struct {
	Client   *http.Client
	BaseURL  string
	MaxBytes int64
}

// NewFetcher returns a Fetcher with a 30 second timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		BaseURL:  DefaultBaseURL,
		MaxBytes: defaultMaxBytes,
	}
}

// DownloadURL is the direct download address of a Drive file.
func (f *Fetcher) DownloadURL(id string) string {
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/uc?export=download&id=" + url.QueryEscape(id)
}

// Fetch downloads the image behind link.
func (f *Fetcher) Fetch(ctx context.Context, link string) ([]byte, error) {
	log := logger.FromContext(ctx)

	target := link
	if id, ok := FileID(link); ok {
		target = f.DownloadURL(id)
	}

	body, contentType, final, err := f.get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	if isHTML(contentType, body) {
		next, err := confirmURL(body, contentType, final)
		if err != nil {
			return nil, fmt.Errorf("Fetch: %s: %w", link, err)
		}
		log.Debug().Str("url", next).Msg("Following Drive confirmation page")
		body, contentType, _, err = f.get(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("Fetch: %w", err)
		}
	}

	if !isImage(contentType, body) {
		return nil, fmt.Errorf("Fetch: %s: %w (%s)", link, ErrNotImage, contentType)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, string, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("building request: %w", err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", nil, fmt.Errorf("GET %s: HTTP %d", target, resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, "", nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if int64(len(body)) > limit {
		return nil, "", nil, fmt.Errorf("GET %s: body larger than %d bytes", target, limit)
	}
	return body, resp.Header.Get("Content-Type"), resp.Request.URL, nil
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}

func isHTML(contentType string, body []byte) bool {
	if mediaType(contentType) == "text/html" {
		return true
	}
	return strings.HasPrefix(http.DetectContentType(body), "text/html")
}

func isImage(contentType string, body []byte) bool {
	if strings.HasPrefix(mediaType(contentType), "image/") {
		return true
	}
	return strings.HasPrefix(http.DetectContentType(body), "image/")
}

// confirmURL reads the confirmation page and returns the address that starts
// the actual download.
func confirmURL(body []byte, contentType string, page *url.URL) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing confirmation page: %w", err)
	}

	if form := doc.Find("form#download-form").First(); form.Length() > 0 {
		action, _ := form.Attr("action")
		u, err := resolve(page, action)
		if err != nil {
			return "", err
		}
		q := u.Query()
		form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
			name, ok := s.Attr("name")
			if !ok || name == "" {
				return
			}
			value, _ := s.Attr("value")
			q.Set(name, value)
		})
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	if href, ok := doc.Find("a#uc-download-link").First().Attr("href"); ok && href != "" {
		u, err := resolve(page, href)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}

	return "", ErrNotImage
}

func resolve(page *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing download link %q: %w", ref, err)
	}
	if page == nil {
		return u, nil
	}
	return page.ResolveReference(u), nil
}
