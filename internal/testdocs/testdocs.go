// Package testdocs builds small in-memory PDF and DOCX files for tests.
package testdocs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// PDF returns a valid uncompressed PDF with one Helvetica text line per
// page. An empty page string yields a page with an empty content stream.
// Title, when set, is written to the Info dictionary.
func PDF(title string, pages ...string) []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	total := 4 + 2*len(pages)
	offsets := make([]int, total+1)
	obj := func(n int, body string) {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = strconv.Itoa(5+2*i) + " 0 R"
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj(4, fmt.Sprintf("<< /Title (%s) /Author (Test Suite) /CreationDate (D:20240115103000Z) >>", escape(title)))

	for i, text := range pages {
		pageNr, contentNr := 5+2*i, 6+2*i
		obj(pageNr, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>", contentNr))
		stream := ""
		if text != "" {
			stream = "BT\n/F1 12 Tf\n72 720 Td\n(" + escape(text) + ") Tj\nET"
		}
		offsets[contentNr] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentNr, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", total+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= total; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return []byte(b.String())
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

// Block is one body element of a generated DOCX.
type Block struct {
	Style string     // paragraph style id, e.g. "Heading2"
	Text  string     // paragraph text
	Link  string     // when set the paragraph text is a hyperlink to Link
	Rows  [][]string // when set the block is a table
}

// DOCX returns a minimal WordprocessingML package with core properties.
func DOCX(title, author string, blocks ...Block) []byte {
	var body strings.Builder
	var rels strings.Builder
	linkN := 0
	for _, blk := range blocks {
		if blk.Rows != nil {
			body.WriteString("<w:tbl>")
			for _, row := range blk.Rows {
				body.WriteString("<w:tr>")
				for _, cell := range row {
					fmt.Fprintf(&body, "<w:tc><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>", xmlEscape(cell))
				}
				body.WriteString("</w:tr>")
			}
			body.WriteString("</w:tbl>")
			continue
		}
		body.WriteString("<w:p>")
		if blk.Style != "" {
			fmt.Fprintf(&body, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, blk.Style)
		}
		run := fmt.Sprintf(`<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscape(blk.Text))
		if blk.Link != "" {
			linkN++
			id := "rIdLink" + strconv.Itoa(linkN)
			fmt.Fprintf(&rels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="%s" TargetMode="External"/>`, id, xmlEscape(blk.Link))
			fmt.Fprintf(&body, `<w:hyperlink r:id="%s">%s</w:hyperlink>`, id, run)
		} else {
			body.WriteString(run)
		}
		body.WriteString("</w:p>")
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			rels.String() + `</Relationships>`,
		"docProps/core.xml": `<?xml version="1.0" encoding="UTF-8"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
			"<dc:title>" + xmlEscape(title) + "</dc:title><dc:creator>" + xmlEscape(author) + "</dc:creator>" +
			`<dcterms:created xsi:type="dcterms:W3CDTF">2024-03-01T09:30:00Z</dcterms:created></cp:coreProperties>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "word/document.xml", "word/_rels/document.xml.rels", "docProps/core.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
