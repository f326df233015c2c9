package extract

import (
	"archive/zip"
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"unveildocs/internal/util"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

var extensionFormats = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".doc":  FormatDOC,
	".txt":  FormatTXT,
}

var mimeFormats = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/msword": FormatDOC,
	"text/plain":         FormatTXT,
}

// DetectFormat sniffs the payload first, then falls back to the filename
// extension and finally to the declared content type. Legacy .doc is
// recognised but reported as unsupported.
func DetectFormat(filename, contentType string, data []byte) (Format, error) {
	f := sniff(data)
	if f == "" {
		f = extensionFormats[strings.ToLower(filepath.Ext(filename))]
	}
	if f == "" && contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			f = mimeFormats[mt]
		}
	}
	switch f {
	case FormatPDF, FormatDOCX, FormatTXT:
		return f, nil
	case FormatDOC:
		return f, util.NewError(util.KindUnsupportedFormat,
			"legacy .doc files are not supported; supported types: %s", strings.Join(SupportedExtensions, ", "))
	}
	return "", util.NewError(util.KindUnsupportedFormat,
		"unsupported file type %q; supported types: %s", filepath.Ext(filename), strings.Join(SupportedExtensions, ", "))
}

func sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF
	case bytes.HasPrefix(data, oleMagic):
		return FormatDOC
	case bytes.HasPrefix(data, zipMagic):
		if isDOCX(data) {
			return FormatDOCX
		}
		return ""
	}
	if strings.HasPrefix(http.DetectContentType(data), "text/plain") {
		return FormatTXT
	}
	return ""
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}
