package gdrive

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFileID(t *testing.T) {
	tests := []struct {
		link   string
		want   string
		wantOK bool
	}{
		{"https://drive.google.com/file/d/1uiMxUd-_s/view", "1uiMxUd-_s", true},
		{"https://drive.google.com/open?id=abc123", "abc123", true},
		{"https://drive.google.com/uc?export=download&id=xyz", "xyz", true},
		{"https://docs.google.com/d/QWE/edit", "QWE", true},
		{"https://example.com/firma.png", "", false},
	}
	for _, tt := range tests {
		got, ok := FileID(tt.link)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("FileID(%q) = %q, %v; want %q, %v", tt.link, got, ok, tt.want, tt.wantOK)
		}
	}
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 2))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newServer(t *testing.T) *httptest.Server {
	img := pngData(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/uc", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "direct":
			w.Header().Set("Content-Type", "image/png")
			w.Write(img)
		case "form":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(`<html><body><form id="download-form" action="/download" method="get">
				<input type="hidden" name="id" value="form">
				<input type="hidden" name="confirm" value="t">
				<input type="submit" value="Download anyway"></form></body></html>`))
		case "link":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><a id="uc-download-link" href="/download?id=link&amp;confirm=t">Download</a></body></html>`))
		case "page":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><p>Access denied</p></body></html>`))
		case "text":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("hello"))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "t" {
			http.Error(w, "missing confirm", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(img)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch(t *testing.T) {
	srv := newServer(t)
	f := NewFetcher()
	f.BaseURL = srv.URL
	want := pngData(t)

	tests := []struct {
		name    string
		link    string
		wantErr error
		fails   bool
	}{
		{name: "direct image", link: "https://drive.google.com/file/d/direct/view"},
		{name: "confirmation form", link: "https://drive.google.com/file/d/form/view"},
		{name: "confirmation link", link: "https://drive.google.com/open?id=link"},
		{name: "plain url", link: srv.URL + "/uc?export=download&id=direct"},
		{name: "html without link", link: "https://drive.google.com/file/d/page/view", wantErr: ErrNotImage},
		{name: "text body", link: "https://drive.google.com/file/d/text/view", wantErr: ErrNotImage},
		{name: "missing file", link: "https://drive.google.com/file/d/missing/view", fails: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Fetch(context.Background(), tt.link)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
			case tt.fails:
				if err == nil {
					t.Error("Fetch() should fail")
				}
			default:
				if err != nil {
					t.Fatalf("Fetch failed: %v", err)
				}
				if !bytes.Equal(got, want) {
					t.Error("Fetch() returned different bytes")
				}
			}
		})
	}
}

func TestFetcher_MaxBytes(t *testing.T) {
	srv := newServer(t)
	f := &Fetcher{Client: srv.Client(), BaseURL: srv.URL, MaxBytes: 8}
	if _, err := f.Fetch(context.Background(), "https://drive.google.com/file/d/direct/view"); err == nil {
		t.Error("Fetch() should reject bodies over MaxBytes")
	}
}
