// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx reads tables from DOCX (Office Open XML) documents.
//
// Only tables placed directly in the document body are returned, in
// document order. Each physical cell keeps its text and its span and merge
// structure so that callers can lay the table out on its column grid.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pdiddy/cne-ai/pkg/types"
)

// ErrInvalidDocument is returned when the input is not a readable DOCX package.
var ErrInvalidDocument = errors.New("not a valid DOCX document")

// MaxPartBytes caps the decompressed size of the main document part.
var MaxPartBytes int64 = 256 << 20

const (
	defaultMainPart   = "word/document.xml"
	contentTypesPart  = "[Content_Types].xml"
	packageRelsPart   = "_rels/.rels"
	officeDocumentRel = "/officeDocument"
)

// Reader provides access to the tables of a DOCX document.
type Reader struct {
	closer io.Closer
	tables []types.Table
}

// Open opens the DOCX file at path. A missing file yields an error that
// matches os.ErrNotExist.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening document: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrInvalidDocument)
	}

	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader parses a DOCX package held in r. The package is fully parsed
// before NewReader returns; r is not retained.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading package: %w: %v", ErrInvalidDocument, err)
	}

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	if files[contentTypesPart] == nil {
		return nil, fmt.Errorf("missing %s: %w", contentTypesPart, ErrInvalidDocument)
	}

	mainPart := mainPartName(files)
	part := files[mainPart]
	if part == nil {
		return nil, fmt.Errorf("missing %s: %w", mainPart, ErrInvalidDocument)
	}

	if part.UncompressedSize64 > uint64(MaxPartBytes) {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", mainPart, MaxPartBytes, ErrInvalidDocument)
	}
	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w: %v", mainPart, ErrInvalidDocument, err)
	}
	defer rc.Close()

	// The header size can lie, so the stream is bounded as well.
	lr := &io.LimitedReader{R: rc, N: MaxPartBytes + 1}
	tables, err := parseBody(lr)
	if lr.N <= 0 {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", mainPart, MaxPartBytes, ErrInvalidDocument)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %v", mainPart, ErrInvalidDocument, err)
	}
	return &Reader{tables: tables}, nil
}

// Tables returns the document's top-level tables in document order.
func (r *Reader) Tables() []types.Table {
	return r.tables
}

// Close releases the underlying file, if Open created one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// ExtractTables reads the document at path and returns its tables, dropping
// tables in which every cell is empty.
func ExtractTables(path string) ([]types.Table, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return NonEmpty(r.Tables()), nil
}

// NonEmpty returns the tables that contain at least one non-empty cell.
func NonEmpty(tables []types.Table) []types.Table {
	out := make([]types.Table, 0, len(tables))
	for _, t := range tables {
		if !t.IsEmpty() {
			out = append(out, t)
		}
	}
	return out
}

type relationshipsXML struct {
	Relationships []struct {
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// mainPartName resolves the main document part from the package
// relationships, falling back to word/document.xml.
func mainPartName(files map[string]*zip.File) string {
	f := files[packageRelsPart]
	if f == nil {
		return defaultMainPart
	}
	rc, err := f.Open()
	if err != nil {
		return defaultMainPart
	}
	defer rc.Close()

	var rels relationshipsXML
	if err := xml.NewDecoder(rc).Decode(&rels); err != nil {
		return defaultMainPart
	}
	for _, rel := range rels.Relationships {
		if strings.HasSuffix(rel.Type, officeDocumentRel) && rel.Target != "" {
			return strings.TrimPrefix(path.Clean("/"+rel.Target), "/")
		}
	}
	return defaultMainPart
}

// parseBody streams the main document part and decodes every w:tbl that is
// a direct child of w:body.
func parseBody(r io.Reader) ([]types.Table, error) {
	d := xml.NewDecoder(r)

	// Locate w:body.
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil, errors.New("document has no body")
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			break
		}
	}

	var tables []types.Table
	index := 0
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return tables, nil
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != "tbl" {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			var tx tableXML
			if err := d.DecodeElement(&tx, &el); err != nil {
				return nil, err
			}
			index++
			tables = append(tables, buildTable(tx, index))
		case xml.EndElement:
			// End of w:body.
			return tables, nil
		}
	}
}
