// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/lawbook/internal/container"
	"github.com/pdiddy/lawbook/pkg/types"
)

const documentXML = "word/document.xml"

// zipMagic opens every OOXML package; legacy Word files are OLE compound
// documents and start differently.
var zipMagic = []byte("PK\x03\x04")

// WordParser extracts paragraphs from Word renditions. DOCX files are read
// directly; legacy .doc files are converted to text by a container image
// when one is configured.
type WordParser struct {
	fetcher Fetcher
	runtime container.Runtime
	image   string
}

// NewWordParser returns a parser that downloads files through f. rt and
// image may be nil and empty, in which case legacy .doc files are
// unparseable.
func NewWordParser(f Fetcher, rt container.Runtime, image string) *WordParser {
	return &WordParser{fetcher: f, runtime: rt, image: image}
}

// Format returns types.FormatWord.
func (p *WordParser) Format() types.FileFormat { return types.FormatWord }

// Parse downloads file and extracts its paragraphs.
func (p *WordParser) Parse(ctx context.Context, detail *types.DocumentDetail, file types.SourceFile) (*types.ParsedContent, error) {
	if err := checkFormat(p, file); err != nil {
		return nil, err
	}
	data, err := p.fetcher.Fetch(ctx, file.URL)
	if err != nil {
		return nil, unparseable(p.Format(), err)
	}

	var lines []string
	if bytes.HasPrefix(data, zipMagic) {
		lines, err = docxParagraphs(data)
	} else {
		lines, err = p.legacyParagraphs(ctx, data)
	}
	if err != nil {
		return nil, unparseable(p.Format(), err)
	}
	return content(p.Format(), detail.Title, lines)
}

func (p *WordParser) legacyParagraphs(ctx context.Context, data []byte) ([]string, error) {
	if p.runtime == nil || p.image == "" {
		return nil, errors.New("legacy .doc file and no converter image configured")
	}
	var out bytes.Buffer
	if err := p.runtime.Run(ctx, p.image, nil, bytes.NewReader(data), &out); err != nil {
		return nil, err
	}
	return strings.Split(out.String(), "\n"), nil
}

// docxParagraphs reads word/document.xml and returns the text of each
// paragraph. Line breaks inside a paragraph split it. Paragraphs nested in
// text boxes are emitted when they close, ahead of the paragraph holding
// them; the mc:Fallback copy of a text box is ignored.
func docxParagraphs(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == documentXML {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("%s not found in archive", documentXML)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", documentXML, err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var (
		paras    []string
		open     []*strings.Builder
		inText   bool
		fallback int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", documentXML, err)
		}

		if fallback > 0 {
			switch t := tok.(type) {
			case xml.StartElement:
				if t.Name.Local == "Fallback" {
					fallback++
				}
			case xml.EndElement:
				if t.Name.Local == "Fallback" {
					fallback--
				}
			}
			continue
		}

		var cur *strings.Builder
		if len(open) > 0 {
			cur = open[len(open)-1]
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fallback":
				fallback = 1
			case "p":
				open = append(open, &strings.Builder{})
			case "t":
				inText = cur != nil
			case "tab":
				if cur != nil {
					cur.WriteByte(' ')
				}
			case "br", "cr":
				if cur != nil {
					cur.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if cur != nil {
					paras = append(paras, strings.Split(cur.String(), "\n")...)
					open = open[:len(open)-1]
				}
			}
		}
	}
	return paras, nil
}
