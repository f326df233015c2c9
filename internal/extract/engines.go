package extract

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageEngine opens a PDF for page-by-page text extraction. Engines are
// optional capabilities resolved once at startup.
type PageEngine interface {
	Name() string
	Available() bool
	Open(data []byte) (PageSource, error)
}

// PageSource yields text for 1-based page numbers.
type PageSource interface {
	NumPages() int
	PageText(n int) (string, error)
	Info() Metadata
}

// LayoutEngine reads glyph runs with positions via ledongthuc/pdf.
type LayoutEngine struct{}

func (LayoutEngine) Name() string    { return MethodLayout }
func (LayoutEngine) Available() bool { return true }

func (LayoutEngine) Open(data []byte) (src PageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("layout reader panic: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("layout reader: %w", err)
	}
	return &layoutSource{r: r}, nil
}

type layoutSource struct {
	r *pdf.Reader
}

func (s *layoutSource) NumPages() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return s.r.NumPage()
}

func (s *layoutSource) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, r)
		}
	}()
	p := s.r.Page(n)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", n)
	}
	return p.GetPlainText(nil)
}

func (s *layoutSource) Info() (md Metadata) {
	defer func() {
		if r := recover(); r != nil {
			md = Metadata{}
		}
	}()
	info := s.r.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}
	}
	return Metadata{
		Title:    strings.TrimSpace(info.Key("Title").Text()),
		Author:   strings.TrimSpace(info.Key("Author").Text()),
		Subject:  strings.TrimSpace(info.Key("Subject").Text()),
		Creator:  strings.TrimSpace(info.Key("Creator").Text()),
		Created:  parsePDFDate(info.Key("CreationDate").Text()),
		Modified: parsePDFDate(info.Key("ModDate").Text()),
	}
}

// StructuralEngine validates the document with pdfcpu and reads text
// operators straight from each page's content stream.
type StructuralEngine struct{}

func (StructuralEngine) Name() string    { return MethodStructural }
func (StructuralEngine) Available() bool { return true }

// readPDFContext is swapped in tests.
var readPDFContext = api.ReadValidateAndOptimize

func (StructuralEngine) Open(data []byte) (src PageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("pdfcpu read panic: %v", r)
		}
	}()
	ctx, err := readPDFContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	return &structuralSource{ctx: ctx}, nil
}

type structuralSource struct {
	ctx *model.Context
}

func (s *structuralSource) NumPages() (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	return s.ctx.PageCount
}

func (s *structuralSource) PageText(n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, r)
		}
	}()
	r, err := pdfcpu.ExtractPageContent(s.ctx, n)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return textFromContentStream(data), nil
}

func (s *structuralSource) Info() (md Metadata) {
	defer func() {
		if recover() != nil {
			md = Metadata{}
		}
	}()
	return Metadata{
		Title:    strings.TrimSpace(s.ctx.Title),
		Author:   strings.TrimSpace(s.ctx.Author),
		Subject:  strings.TrimSpace(s.ctx.Subject),
		Creator:  strings.TrimSpace(s.ctx.Creator),
		Created:  parsePDFDate(s.ctx.XRefTable.CreationDate),
		Modified: parsePDFDate(s.ctx.ModDate),
	}
}

var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream handles the Tj, TJ, ' and " show operators and
// turns positioning operators into spaces or newlines.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeStrings(&sb, line)
		case (bytes.HasSuffix(line, []byte("'")) || bytes.HasSuffix(line, []byte(`"`))) && bytes.Contains(line, []byte("(")):
			sb.WriteByte('\n')
			writeStrings(&sb, line)
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")), bytes.Equal(line, []byte("ET")):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func writeStrings(sb *strings.Builder, line []byte) {
	for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
		sb.WriteString(decodePDFString(m[1]))
	}
}

// decodePDFString resolves backslash escapes in a literal string.
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
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// parsePDFDate parses D:YYYYMMDDHHmmSSOHH'mm' with any trailing part omitted.
func parsePDFDate(s string) *time.Time {
	s = strings.TrimPrefix(strings.TrimSpace(s), "D:")
	digits := 0
	for digits < len(s) && digits < 14 && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits < 4 || digits%2 != 0 {
		return nil
	}
	const layout = "20060102150405"
	t, err := time.Parse(layout[:digits], s[:digits])
	if err != nil {
		return nil
	}
	rest := strings.ReplaceAll(s[digits:], "'", "")
	if len(rest) >= 3 && (rest[0] == '+' || rest[0] == '-') {
		hh, err1 := strconv.Atoi(rest[1:3])
		mm := 0
		var err2 error
		if len(rest) >= 5 {
			mm, err2 = strconv.Atoi(rest[3:5])
		}
		if err1 == nil && err2 == nil {
			offset := hh*3600 + mm*60
			if rest[0] == '-' {
				offset = -offset
			}
			t = t.Add(-time.Duration(offset) * time.Second)
		}
	}
	t = t.UTC()
	return &t
}
