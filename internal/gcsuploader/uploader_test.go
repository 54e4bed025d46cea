package gcsuploader

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://bucket/reports/a/file.docx", wantBucket: "bucket", wantObject: "reports/a/file.docx"},
		{uri: "gs://bucket/file.pdf", wantBucket: "bucket", wantObject: "file.pdf"},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "s3://bucket/file.pdf", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURI) {
					t.Fatalf("ParseURI() error = %v, want ErrInvalidURI", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI() error = %v", err)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI() = (%q, %q), want (%q, %q)", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix, file, wantPrefix, wantName string
	}{
		{prefix: "reports", file: "/tmp/EXP-1 Ana.docx", wantPrefix: "reports/", wantName: "EXP-1 Ana.docx"},
		{prefix: "/reports/2024/", file: "a.pdf", wantPrefix: "reports/2024/", wantName: "a.pdf"},
		{prefix: "", file: "a.pdf", wantPrefix: "", wantName: "a.pdf"},
	}

	for _, tt := range tests {
		got := ObjectName(tt.prefix, tt.file)
		if !strings.HasPrefix(got, tt.wantPrefix) || !strings.HasSuffix(got, "/"+tt.wantName) {
			t.Errorf("ObjectName(%q, %q) = %q", tt.prefix, tt.file, got)
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(got, tt.wantPrefix), "/"+tt.wantName)
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("ObjectName(%q, %q) = %q: middle segment %q is not a uuid", tt.prefix, tt.file, got, id)
		}
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	tests := map[string]string{
		"gs://bucket/folder/file.pdf": "file.pdf",
		"gs://bucket/file.docx":       "file.docx",
		"gs://bucket":                 "bucket",
	}
	for in, want := range tests {
		if got := ExtractFilenameFromGCSURI(in); got != want {
			t.Errorf("ExtractFilenameFromGCSURI(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"b.PDF":  "application/pdf",
		"c.bin":  "application/octet-stream",
	}
	for in, want := range tests {
		if got := ContentType(in); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestURI(t *testing.T) {
	if got := URI("b", "reports/x/a.pdf"); got != "gs://b/reports/x/a.pdf" {
		t.Errorf("URI() = %q", got)
	}
}
