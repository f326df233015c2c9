package extract

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"unveildocs/internal/ocr"
	"unveildocs/internal/testdocs"
	"unveildocs/internal/util"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/require"
)

const longPage = "This Lease Agreement is entered into between the Landlord and the Tenant for the premises."

type fakeEngine struct {
	name    string
	pages   []string
	pageErr map[int]error
	openErr error
	opened  int
}

func (f *fakeEngine) Name() string    { return f.name }
func (f *fakeEngine) Available() bool { return true }

func (f *fakeEngine) Open([]byte) (PageSource, error) {
	f.opened++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return fakeSource{f}, nil
}

type fakeSource struct{ e *fakeEngine }

func (s fakeSource) NumPages() int { return len(s.e.pages) }

func (s fakeSource) PageText(n int) (string, error) {
	if err := s.e.pageErr[n]; err != nil {
		return "", err
	}
	return s.e.pages[n-1], nil
}

func (s fakeSource) Info() Metadata { return Metadata{Title: s.e.name + " title"} }

type fakeOCR struct {
	available bool
	calls     [][]int
	whole     int
}

func (f *fakeOCR) Available() bool { return f.available }

func (f *fakeOCR) Recognize(_ context.Context, _ []byte, pages []int) ([]ocr.Page, error) {
	if pages == nil {
		f.whole++
		return []ocr.Page{{Number: 1, Text: "Recovered scanned text of page one"}, {Number: 2, Text: "RECOVERED page two"}}, nil
	}
	f.calls = append(f.calls, pages)
	out := make([]ocr.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, ocr.Page{Number: p, Text: "scanned words"})
	}
	return out, nil
}

func TestPDFLayoutPathOCRsOnlyFlaggedPages(t *testing.T) {
	layout := &fakeEngine{name: MethodLayout, pages: []string{longPage, "", longPage, longPage}}
	o := &fakeOCR{available: true}
	x := &PDFExtractor{Layout: layout, Structural: &fakeEngine{name: MethodStructural}, OCR: o}

	res, err := x.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.OCRUsed)
	require.Equal(t, "layout+ocr", res.Method)
	require.Equal(t, [][]int{{2}}, o.calls)
	require.Equal(t, []int{2}, res.Metadata.LowYieldPages)
	require.Equal(t, []int{2}, res.Metadata.OCRPages)
	require.Contains(t, res.Text, "--- OCR Results ---")
	require.Contains(t, res.Text, "--- OCR Page 2 ---\nscanned words")
	require.Len(t, res.Units, 4)
	require.True(t, res.Units[1].LowYield)
	require.Equal(t, "layout title", res.Metadata.Title)
}

func TestPDFAllLowYieldPagesUseWholeDocumentOCR(t *testing.T) {
	layout := &fakeEngine{name: MethodLayout, pages: []string{"1", "", "tiny"}}
	basic := &fakeEngine{name: MethodStructural, pages: []string{"", "", "x"}}
	o := &fakeOCR{available: true}
	x := &PDFExtractor{Layout: layout, Structural: basic, OCR: o}

	res, err := x.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.OCRUsed)
	require.Equal(t, 1, o.whole)
	require.Empty(t, o.calls)
	require.Equal(t, "structural+ocr", res.Method)
	require.Contains(t, res.Text, "--- OCR Page 2 ---\nRecovered page two")
}

func TestPDFAllLowYieldWithoutOCRKeepsLayoutText(t *testing.T) {
	layout := &fakeEngine{name: MethodLayout, pages: []string{"", ""}}
	basic := &fakeEngine{name: MethodStructural, pages: []string{"", ""}}
	x := &PDFExtractor{Layout: layout, Structural: basic, OCR: ocr.Noop{}}

	res, err := x.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.OCRUsed)
	require.Equal(t, MethodLayout, res.Method)
	require.Zero(t, basic.opened)
}

func TestPDFBasicPathBelowFloorSkipsOCR(t *testing.T) {
	layout := &fakeEngine{name: MethodLayout, openErr: errors.New("xref damaged")}
	basic := &fakeEngine{name: MethodStructural, pages: []string{longPage, longPage, longPage, ""}}
	o := &fakeOCR{available: true}
	x := &PDFExtractor{Layout: layout, Structural: basic, OCR: o}

	res, err := x.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, MethodStructural, res.Method)
	require.False(t, res.OCRUsed)
	require.Zero(t, o.whole)
}

func TestPDFBothEnginesFailing(t *testing.T) {
	x := &PDFExtractor{
		Layout:     &fakeEngine{name: MethodLayout, openErr: errors.New("bad header")},
		Structural: &fakeEngine{name: MethodStructural, openErr: errors.New("bad header")},
	}
	res, err := x.Extract(context.Background(), nil)
	require.Error(t, err)
	require.False(t, res.Success)
	require.Equal(t, util.KindExtractionFailed, res.ErrorKind)
	require.Equal(t, MethodFailed, res.Method)
}

func TestPDFPageErrorIsRecordedPerUnit(t *testing.T) {
	layout := &fakeEngine{
		name:    MethodLayout,
		pages:   []string{longPage, longPage, longPage},
		pageErr: map[int]error{2: errors.New("bad font")},
	}
	res, err := (&PDFExtractor{Layout: layout}).Extract(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 1, res.UnitErrors())
	require.Equal(t, "bad font", res.Units[1].Error)
	require.True(t, res.Units[1].LowYield)
	require.Contains(t, res.Text, "--- Page 3 ---")
}

func TestPDFCancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	layout := &fakeEngine{name: MethodLayout, pages: []string{longPage}}
	res, err := (&PDFExtractor{Layout: layout}).Extract(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, res.Success)
	require.Equal(t, util.KindUnknown, res.ErrorKind)
}

func TestPDFRealEngines(t *testing.T) {
	data := testdocs.PDF("Master Services Agreement", "Hello World from page one", "Second page text")
	x := &PDFExtractor{Layout: LayoutEngine{}, Structural: StructuralEngine{}, OCR: ocr.Noop{}}

	res, err := x.Extract(context.Background(), data)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Metadata.PageCount)
	require.Contains(t, res.Text, "--- Page 1 ---")
	require.Contains(t, res.Text, "--- Page 2 ---")
}

func TestStructuralEngineReadsContentStream(t *testing.T) {
	src, err := StructuralEngine{}.Open(testdocs.PDF("Lease", "Rent is due monthly"))
	require.NoError(t, err)
	require.Equal(t, 1, src.NumPages())
	text, err := src.PageText(1)
	require.NoError(t, err)
	require.Contains(t, text, "Rent is due monthly")
}

func TestStructuralEngineOpenRecoversPanic(t *testing.T) {
	orig := readPDFContext
	t.Cleanup(func() { readPDFContext = orig })
	readPDFContext = func(io.ReadSeeker, *model.Configuration) (*model.Context, error) {
		panic("corrupt xref")
	}

	src, err := StructuralEngine{}.Open([]byte("%PDF-1.4 garbage"))
	require.Nil(t, src)
	require.ErrorContains(t, err, "corrupt xref")
}

func TestStructuralSourceRecoversPanics(t *testing.T) {
	src := &structuralSource{}
	require.Equal(t, 0, src.NumPages())
	require.Equal(t, Metadata{}, src.Info())
	text, err := src.PageText(1)
	require.Empty(t, text)
	require.ErrorContains(t, err, "page 1")
}

func TestPDFStructuralPanicFallsThroughToFailure(t *testing.T) {
	orig := readPDFContext
	t.Cleanup(func() { readPDFContext = orig })
	readPDFContext = func(io.ReadSeeker, *model.Configuration) (*model.Context, error) {
		panic("corrupt xref")
	}
	x := &PDFExtractor{
		Layout:     &fakeEngine{name: MethodLayout, openErr: errors.New("bad header")},
		Structural: StructuralEngine{},
		OCR:        ocr.Noop{},
	}
	res, err := x.Extract(context.Background(), []byte("%PDF-1.4 garbage"))
	require.ErrorContains(t, err, "corrupt xref")
	require.False(t, res.Success)
	require.Equal(t, util.KindExtractionFailed, res.ErrorKind)
}

func TestTextFromContentStream(t *testing.T) {
	stream := "BT\n/F1 12 Tf\n72 720 Td\n(Clause \\(a\\) applies) Tj\nT*\n[(Term) -250 (ination)] TJ\nET"
	got := textFromContentStream([]byte(stream))
	require.True(t, strings.HasPrefix(got, "Clause (a) applies\nTermination"), got)
}

func TestDecodePDFStringOctal(t *testing.T) {
	require.Equal(t, "A B", decodePDFString([]byte(`A\040B`)))
	require.Equal(t, "tab\there", decodePDFString([]byte(`tab\there`)))
}

func TestParsePDFDate(t *testing.T) {
	got := parsePDFDate("D:20240115103000+01'00'")
	require.NotNil(t, got)
	require.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), *got)

	got = parsePDFDate("D:2023")
	require.NotNil(t, got)
	require.Equal(t, 2023, got.Year())

	require.Nil(t, parsePDFDate(""))
	require.Nil(t, parsePDFDate("yesterday"))
}
