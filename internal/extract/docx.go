package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"unveildocs/internal/textclean"
	"unveildocs/internal/util"
)

var headingLevelRe = regexp.MustCompile(`(?i)heading\s*(\d+)`)

// docxHeadingLevel returns 0 for body styles, the numeric level for
// "Heading N" styles and 1 for any other heading-like style.
func docxHeadingLevel(style string) int {
	if !strings.Contains(strings.ToLower(style), "heading") {
		return 0
	}
	if m := headingLevelRe.FindStringSubmatch(style); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// ExtractDOCX walks word/document.xml in document order. Paragraph text is
// cleaned per unit; tables render one pipe-delimited line per non-empty row.
func ExtractDOCX(data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e := util.WrapError(util.KindExtractionFailed, err, "open docx archive")
		return Failed(FormatDOCX, e), e
	}
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}
	docFile := files["word/document.xml"]
	if docFile == nil {
		e := util.NewError(util.KindExtractionFailed, "word/document.xml not found in archive")
		return Failed(FormatDOCX, e), e
	}
	rels, err := readRelationships(files["word/_rels/document.xml.rels"])
	if err != nil {
		e := util.WrapError(util.KindExtractionFailed, err, "read docx relationships")
		return Failed(FormatDOCX, e), e
	}

	w := &docxWalker{rels: rels}
	if err := w.walk(docFile); err != nil {
		e := util.WrapError(util.KindExtractionFailed, err, "parse document.xml")
		return Failed(FormatDOCX, e), e
	}

	res := &Result{
		Format:     FormatDOCX,
		Text:       strings.TrimSpace(w.text.String()),
		RawText:    w.raw.String(),
		Units:      w.units,
		Hyperlinks: w.links,
		Method:     MethodDOCX,
		Success:    true,
	}
	if core := files["docProps/core.xml"]; core != nil {
		// A malformed core part leaves the descriptive fields empty.
		_ = readCoreProperties(core, &res.Metadata)
	}
	res.Metadata.Format = FormatDOCX
	res.Metadata.ParagraphCount = w.paragraphs
	res.Metadata.HeadingCount = w.headings
	res.Metadata.TableCount = w.tables
	res.Metadata.HyperlinkCount = len(w.links)
	res.Metadata.WordCount = util.CountWords(res.Text)
	res.Metadata.CharCount = len([]rune(res.Text))
	return res, nil
}

type docxWalker struct {
	rels map[string]string

	units []Unit
	links []Hyperlink
	text  strings.Builder
	raw   strings.Builder

	paragraphs, headings, tables int

	// paragraph state
	inPara bool
	inText bool
	style  string
	para   strings.Builder

	// hyperlink state
	linkTarget string
	inLink     bool
	linkText   strings.Builder

	// table state
	tableDepth int
	rows       [][]string
	row        []string
	cell       strings.Builder
}

func (w *docxWalker) walk(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t)
		case xml.EndElement:
			w.end(t)
		case xml.CharData:
			if w.inText {
				w.para.Write(t)
				if w.inLink {
					w.linkText.Write(t)
				}
			}
		}
	}
}

func (w *docxWalker) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		w.tableDepth++
		if w.tableDepth == 1 {
			w.rows = nil
		}
	case "tr":
		if w.tableDepth == 1 {
			w.row = nil
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cell.Reset()
		}
	case "p":
		w.inPara = true
		w.style = ""
		w.para.Reset()
	case "pStyle":
		if w.inPara {
			w.style = attr(t, "val")
		}
	case "t":
		w.inText = w.inPara
	case "tab":
		if w.inPara {
			w.para.WriteByte(' ')
		}
	case "br", "cr":
		if w.inPara {
			w.para.WriteByte('\n')
		}
	case "hyperlink":
		w.inLink = true
		w.linkTarget = w.rels[attr(t, "id")]
		w.linkText.Reset()
	}
}

func (w *docxWalker) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		w.inText = false
	case "hyperlink":
		if w.inLink && w.linkTarget != "" {
			if text := strings.TrimSpace(w.linkText.String()); text != "" {
				w.links = append(w.links, Hyperlink{Text: text, URL: w.linkTarget})
			}
		}
		w.inLink = false
		w.linkTarget = ""
	case "p":
		w.inPara = false
		raw := strings.TrimSpace(w.para.String())
		if w.tableDepth > 0 {
			if raw != "" {
				if w.cell.Len() > 0 {
					w.cell.WriteByte(' ')
				}
				w.cell.WriteString(raw)
			}
			return
		}
		w.finishParagraph(raw)
	case "tc":
		if w.tableDepth == 1 {
			w.row = append(w.row, textclean.Clean(w.cell.String()))
		}
	case "tr":
		if w.tableDepth == 1 && !allEmpty(w.row) {
			w.rows = append(w.rows, w.row)
		}
	case "tbl":
		if w.tableDepth == 1 {
			w.finishTable()
		}
		w.tableDepth--
	}
}

func (w *docxWalker) finishParagraph(raw string) {
	if raw == "" {
		return
	}
	text := textclean.Clean(raw)
	if text == "" {
		return
	}
	w.writeRaw(raw)
	if level := docxHeadingLevel(w.style); level > 0 {
		u := newUnit(len(w.units), UnitHeading, text)
		u.Level = level
		w.units = append(w.units, u)
		w.headings++
		w.text.WriteString("\n" + strings.Repeat("#", level) + " " + text + "\n")
		return
	}
	w.units = append(w.units, newUnit(len(w.units), UnitParagraph, text))
	w.paragraphs++
	w.text.WriteString(text + "\n")
}

func (w *docxWalker) finishTable() {
	if len(w.rows) == 0 {
		return
	}
	w.tables++
	lines := make([]string, 0, len(w.rows))
	for _, r := range w.rows {
		lines = append(lines, strings.Join(r, " | "))
		w.writeRaw(strings.Join(r, " "))
	}
	body := strings.Join(lines, "\n")
	u := newUnit(len(w.units), UnitTable, body)
	w.units = append(w.units, u)
	fmt.Fprintf(&w.text, "\n[TABLE %d]\n%s\n\n", w.tables, body)
}

func (w *docxWalker) writeRaw(s string) {
	if w.raw.Len() > 0 {
		w.raw.WriteByte('\n')
	}
	w.raw.WriteString(s)
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func attr(t xml.StartElement, local string) string {
	for _, a := range t.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func readRelationships(f *zip.File) (map[string]string, error) {
	out := map[string]string{}
	if f == nil {
		return out, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	var doc struct {
		Relationships []struct {
			ID         string `xml:"Id,attr"`
			Target     string `xml:"Target,attr"`
			TargetMode string `xml:"TargetMode,attr"`
		} `xml:"Relationship"`
	}
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, err
	}
	for _, r := range doc.Relationships {
		if strings.EqualFold(r.TargetMode, "External") {
			out[r.ID] = r.Target
		}
	}
	return out, nil
}

func readCoreProperties(f *zip.File, md *Metadata) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	var core struct {
		Title          string `xml:"title"`
		Subject        string `xml:"subject"`
		Creator        string `xml:"creator"`
		Keywords       string `xml:"keywords"`
		Description    string `xml:"description"`
		Category       string `xml:"category"`
		LastModifiedBy string `xml:"lastModifiedBy"`
		Created        string `xml:"created"`
		Modified       string `xml:"modified"`
	}
	if err := xml.NewDecoder(rc).Decode(&core); err != nil {
		return err
	}
	md.Title = strings.TrimSpace(core.Title)
	md.Subject = strings.TrimSpace(core.Subject)
	md.Author = strings.TrimSpace(core.Creator)
	md.Keywords = strings.TrimSpace(core.Keywords)
	md.Description = strings.TrimSpace(core.Description)
	md.Category = strings.TrimSpace(core.Category)
	md.LastModifiedBy = strings.TrimSpace(core.LastModifiedBy)
	md.Created = parseW3CDate(core.Created)
	md.Modified = parseW3CDate(core.Modified)
	return nil
}

func parseW3CDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
