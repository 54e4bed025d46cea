package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"
)

// Well-known part names inside a WordprocessingML package.
const (
	DocumentPart     = "word/document.xml"
	DocumentRelsPart = "word/_rels/document.xml.rels"
	ContentTypesPart = "[Content_Types].xml"
)

// ErrNotDocx is returned when the input is not a zip with a main document part.
var ErrNotDocx = errors.New("not a docx package")

type part struct {
	name     string
	data     []byte
	method   uint16
	modified time.Time
}

// Package holds every part of a .docx in archive order so a modified document
// can be written back without losing styles, headers or media.
type Package struct {
	parts []*part
	index map[string]int
}

// OpenPackage reads all parts of the zip archive in data.
func OpenPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("OpenPackage: %w: %v", ErrNotDocx, err)
	}

	pkg := &Package{index: make(map[string]int)}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("OpenPackage: opening %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("OpenPackage: reading %s: %w", f.Name, err)
		}
		pkg.index[f.Name] = len(pkg.parts)
		pkg.parts = append(pkg.parts, &part{
			name:     f.Name,
			data:     content,
			method:   f.Method,
			modified: f.Modified,
		})
	}

	if _, ok := pkg.index[DocumentPart]; !ok {
		return nil, fmt.Errorf("OpenPackage: %w: missing %s", ErrNotDocx, DocumentPart)
	}
	return pkg, nil
}

// Part returns the bytes of the named part.
func (p *Package) Part(name string) ([]byte, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.parts[i].data, true
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.index[name]
	return ok
}

// SetPart replaces the named part or appends it when new.
func (p *Package) SetPart(name string, data []byte) {
	if i, ok := p.index[name]; ok {
		p.parts[i].data = data
		return
	}
	p.index[name] = len(p.parts)
	p.parts = append(p.parts, &part{
		name:     name,
		data:     data,
		method:   zip.Deflate,
		modified: time.Now(),
	})
}

// Names lists the part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.parts))
	for _, pt := range p.parts {
		names = append(names, pt.name)
	}
	return names
}

// Bytes serialises the package as a zip archive.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, pt := range p.parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   pt.method,
			Modified: pt.modified,
		})
		if err != nil {
			return nil, fmt.Errorf("Bytes: creating %s: %w", pt.name, err)
		}
		if _, err := w.Write(pt.data); err != nil {
			return nil, fmt.Errorf("Bytes: writing %s: %w", pt.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("Bytes: closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
