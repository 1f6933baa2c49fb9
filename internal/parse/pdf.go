// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"

	"github.com/pdiddy/lawbook/pkg/types"
)

// PDFParser extracts text from PDF renditions. Text is decoded through the
// page fonts (ToUnicode CMaps included) by tabula; when that yields nothing
// the raw content streams are scanned with pdfcpu instead.
type PDFParser struct {
	fetcher Fetcher
}

// NewPDFParser returns a parser that downloads files through f.
func NewPDFParser(f Fetcher) *PDFParser {
	return &PDFParser{fetcher: f}
}

// Format returns types.FormatPDF.
func (p *PDFParser) Format() types.FileFormat { return types.FormatPDF }

// Parse downloads file and extracts its text lines page by page.
func (p *PDFParser) Parse(ctx context.Context, detail *types.DocumentDetail, file types.SourceFile) (*types.ParsedContent, error) {
	if err := checkFormat(p, file); err != nil {
		return nil, err
	}
	data, err := p.fetcher.Fetch(ctx, file.URL)
	if err != nil {
		return nil, unparseable(p.Format(), err)
	}

	lines, err := fontLines(data)
	if err != nil || len(lines) == 0 {
		lines, err = streamPageLines(data)
		if err != nil {
			return nil, unparseable(p.Format(), err)
		}
	}
	return content(p.Format(), detail.Title, lines)
}

// fontLines spools data to a temporary file and extracts the positioned
// text fragments of every page.
func fontLines(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "lawbook-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("writing temp file: %w", err)
	}

	r, err := reader.Open(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("tabula open: %w", err)
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("tabula page count: %w", err)
	}
	var lines []string
	for i := 0; i < n; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		frags, err := r.ExtractTextFragments(page)
		if err != nil {
			continue
		}
		lines = append(lines, fragmentLines(frags)...)
	}
	return lines, nil
}

// fragmentLines joins fragments in drawing order, starting a new line
// whenever the baseline moves by more than half the font size. A space is
// kept between adjacent ASCII words; CJK runs are joined directly.
func fragmentLines(frags []text.TextFragment) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}

	var prev *text.TextFragment
	for i := range frags {
		f := &frags[i]
		if f.Text == "" {
			continue
		}
		if prev != nil {
			tol := math.Max(prev.FontSize/2, 1)
			if math.Abs(f.Y-prev.Y) > tol {
				flush()
			} else if f.X > prev.X+prev.Width+prev.FontSize/4 && wordEdge(prev.Text, f.Text) {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(f.Text)
		prev = f
	}
	flush()
	return lines
}

func wordEdge(left, right string) bool {
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	return isASCIIWord(l) && isASCIIWord(r)
}

func isASCIIWord(r rune) bool {
	return r < utf8.RuneSelf && (r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
}

// streamPageLines reads each page's content stream with pdfcpu.
func streamPageLines(data []byte) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	var lines []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		lines = append(lines, streamLines(stream)...)
	}
	return lines, nil
}

// pdfString matches literal strings, (text), and hex strings, <48656C6C6F>.
var pdfString = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)|<([0-9A-Fa-f\s]*)>`)

// streamLines collects the text shown by Tj, TJ, ' and " operators. Line
// moves (T*, Td, TD, Tm) and the end of a text object start a new line.
// Without font information hex strings are taken as single-byte codes.
func streamLines(stream []byte) []string {
	var lines []string
	var cur strings.Builder
	newline := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			lines = append(lines, s)
		}
		cur.Reset()
	}
	show := func(op []byte) {
		for _, m := range pdfString.FindAllSubmatchIndex(op, -1) {
			if m[2] >= 0 {
				cur.WriteString(decodePDFString(op[m[2]:m[3]]))
			} else {
				cur.WriteString(decodeHexString(op[m[4]:m[5]]))
			}
		}
	}

	for _, raw := range bytes.Split(stream, []byte{'\n'}) {
		op := bytes.TrimSpace(raw)
		if len(op) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(op, []byte("Tj")), bytes.HasSuffix(op, []byte("TJ")):
			show(op)
		case bytes.HasSuffix(op, []byte("'")), bytes.HasSuffix(op, []byte(`"`)):
			newline()
			show(op)
		case bytes.Equal(op, []byte("T*")), bytes.Equal(op, []byte("ET")),
			bytes.HasSuffix(op, []byte(" Td")), bytes.HasSuffix(op, []byte(" TD")),
			bytes.HasSuffix(op, []byte(" Tm")):
			newline()
		}
	}
	newline()
	return lines
}

// decodePDFString resolves the escape sequences of a literal string.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := int(c - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// decodeHexString decodes a hex string body. Whitespace is ignored and an
// odd final digit is padded with 0.
func decodeHexString(raw []byte) string {
	digits := bytes.Join(bytes.Fields(raw), nil)
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, hex.DecodedLen(len(digits)))
	n, err := hex.Decode(out, digits)
	if err != nil {
		return ""
	}
	return string(out[:n])
}
