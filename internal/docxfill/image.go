package docxfill

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/dvloznov/medreport/internal/docx"
)

// ErrUnsupportedImage is returned for signature images of unknown formats.
var ErrUnsupportedImage = errors.New("unsupported image format")

const (
	emuPerInch = 914400

	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsDrawingWP     = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsDrawingMain   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPicture       = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	relTypeImage    = nsRelationships + "/image"
)

var imageTypes = map[string]struct{ ext, contentType string }{
	"png":  {"png", "image/png"},
	"jpeg": {"jpeg", "image/jpeg"},
	"gif":  {"gif", "image/gif"},
	"bmp":  {"bmp", "image/bmp"},
	"tiff": {"tiff", "image/tiff"},
}

// picture is a decoded image ready to be embedded.
type picture struct {
	data          []byte
	ext           string
	contentType   string
	width, height int
}

func decodePicture(data []byte) (*picture, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decodePicture: %w: %v", ErrUnsupportedImage, err)
	}
	t, ok := imageTypes[format]
	if !ok || cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("decodePicture: %w: %s", ErrUnsupportedImage, format)
	}
	return &picture{data: data, ext: t.ext, contentType: t.contentType, width: cfg.Width, height: cfg.Height}, nil
}

// insertSignature swaps the first body paragraph holding the placeholder for
// a right-aligned paragraph with the signature. The placeholder paragraph is
// removed even when the image cannot be loaded; the returned string is then
// a warning.
func insertSignature(ctx context.Context, doc *docx.Document, sig SignatureSource) string {
	var target *etree.Element
	for _, p := range doc.BodyParagraphs() {
		if strings.Contains(docx.ParagraphText(p), SignaturePlaceholder) {
			target = p
			break
		}
	}
	if target == nil {
		return ""
	}

	parent := target.Parent()
	index := target.Index()
	parent.RemoveChild(target)

	if sig.URL == "" || sig.Fetcher == nil {
		return "signature image not configured; placeholder removed"
	}
	data, err := sig.Fetcher.Fetch(ctx, sig.URL)
	if err != nil {
		return fmt.Sprintf("could not load the signature image: %v", err)
	}
	pic, err := decodePicture(data)
	if err != nil {
		return fmt.Sprintf("could not load the signature image: %v", err)
	}

	relID, err := addImagePart(doc.Package(), pic)
	if err != nil {
		return fmt.Sprintf("could not embed the signature image: %v", err)
	}

	inches := sig.Inches
	if inches <= 0 {
		inches = 1
	}
	cx := int64(math.Round(inches * emuPerInch))
	cy := cx * int64(pic.height) / int64(pic.width)

	parent.InsertChildAt(index, signatureParagraph(relID, nextDocPrID(doc), cx, cy))
	return ""
}

func signatureParagraph(relID string, id int, cx, cy int64) *etree.Element {
	p := etree.NewElement("w:p")
	p.CreateElement("w:pPr").CreateElement("w:jc").CreateAttr("w:val", "right")

	inline := p.CreateElement("w:r").CreateElement("w:drawing").CreateElement("wp:inline")
	inline.CreateAttr("xmlns:wp", nsDrawingWP)
	for _, k := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(k, "0")
	}
	setExtent(inline.CreateElement("wp:extent"), cx, cy)
	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(id))
	docPr.CreateAttr("name", "Firma "+strconv.Itoa(id))

	graphic := inline.CreateElement("a:graphic")
	graphic.CreateAttr("xmlns:a", nsDrawingMain)
	data := graphic.CreateElement("a:graphicData")
	data.CreateAttr("uri", nsPicture)

	pic := data.CreateElement("pic:pic")
	pic.CreateAttr("xmlns:pic", nsPicture)
	nv := pic.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", "0")
	cNvPr.CreateAttr("name", "firma")
	nv.CreateElement("pic:cNvPicPr")

	fill := pic.CreateElement("pic:blipFill")
	blip := fill.CreateElement("a:blip")
	blip.CreateAttr("xmlns:r", nsRelationships)
	blip.CreateAttr("r:embed", relID)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	sp := pic.CreateElement("pic:spPr")
	xfrm := sp.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	setExtent(xfrm.CreateElement("a:ext"), cx, cy)
	geom := sp.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
	return p
}

func setExtent(el *etree.Element, cx, cy int64) {
	el.CreateAttr("cx", strconv.FormatInt(cx, 10))
	el.CreateAttr("cy", strconv.FormatInt(cy, 10))
}

// nextDocPrID returns an id above every drawing id already in the document.
func nextDocPrID(doc *docx.Document) int {
	maxID := 0
	for _, el := range doc.Tree().FindElements("//docPr") {
		if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n > maxID {
			maxID = n
		}
	}
	return maxID + 1
}

// addImagePart stores the image under word/media, links it from the
// document relationships and registers its content type. It returns the
// relationship id. The package is only modified once every part has been
// built, so a failure leaves it untouched.
func addImagePart(pkg *docx.Package, pic *picture) (string, error) {
	name := ""
	for i := 1; ; i++ {
		name = fmt.Sprintf("media/firma%d.%s", i, pic.ext)
		if !pkg.HasPart(path.Join("word", name)) {
			break
		}
	}

	rels, err := loadOrCreate(pkg, docx.DocumentRelsPart, "Relationships", nsPackageRels)
	if err != nil {
		return "", err
	}
	root := rels.Root()
	used := make(map[string]bool)
	for _, r := range root.ChildElements() {
		used[r.SelectAttrValue("Id", "")] = true
	}
	id := ""
	for i := len(used) + 1; ; i++ {
		id = "rId" + strconv.Itoa(i)
		if !used[id] {
			break
		}
	}
	rel := root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relTypeImage)
	rel.CreateAttr("Target", name)
	relsRaw, err := partBytes(docx.DocumentRelsPart, rels)
	if err != nil {
		return "", err
	}

	types, err := loadOrCreate(pkg, docx.ContentTypesPart, "Types", nsContentTypes)
	if err != nil {
		return "", err
	}
	troot := types.Root()
	registered := false
	for _, d := range troot.SelectElements("Default") {
		if strings.EqualFold(d.SelectAttrValue("Extension", ""), pic.ext) {
			registered = true
			break
		}
	}
	var typesRaw []byte
	if !registered {
		def := etree.NewElement("Default")
		def.CreateAttr("Extension", pic.ext)
		def.CreateAttr("ContentType", pic.contentType)
		troot.InsertChildAt(0, def)
		if typesRaw, err = partBytes(docx.ContentTypesPart, types); err != nil {
			return "", err
		}
	}

	pkg.SetPart(docx.DocumentRelsPart, relsRaw)
	if typesRaw != nil {
		pkg.SetPart(docx.ContentTypesPart, typesRaw)
	}
	pkg.SetPart(path.Join("word", name), pic.data)
	return id, nil
}

func loadOrCreate(pkg *docx.Package, name, rootTag, ns string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if raw, ok := pkg.Part(name); ok {
		if err := doc.ReadFromBytes(raw); err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		if doc.Root() != nil {
			return doc, nil
		}
	}
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	doc.CreateElement(rootTag).CreateAttr("xmlns", ns)
	return doc, nil
}

func partBytes(name string, doc *etree.Document) ([]byte, error) {
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	return raw, nil
}
