package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"unveildocs/internal/textclean"
	"unveildocs/internal/util"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// decoders run in order; the first that accepts the bytes wins.
var decoders = []decoder{
	{"utf-8", decodeUTF8},
	{"utf-16", decodeUTF16},
	{"ascii", decodeASCII},
	{"latin-1", decodeLatin1},
}

// DecodeText returns the text and the name of the encoding that decoded it.
func DecodeText(data []byte) (string, string, error) {
	for _, d := range decoders {
		if s, ok := d.decode(data); ok {
			return s, d.name, nil
		}
	}
	return "", "", util.NewError(util.KindDecodeFailed, "unable to decode text file with any supported encoding")
}

func decodeUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))), true
}

// decodeUTF16 honours a byte-order mark. Without one it only accepts input
// whose zero bytes line up the way little- or big-endian ASCII-range text does.
func decodeUTF16(b []byte) (string, bool) {
	if len(b) < 2 || len(b)%2 != 0 {
		return "", false
	}
	var enc *unicode.Endianness
	switch {
	case b[0] == 0xFF && b[1] == 0xFE:
		le := unicode.LittleEndian
		enc = &le
	case b[0] == 0xFE && b[1] == 0xFF:
		be := unicode.BigEndian
		enc = &be
	default:
		enc = guessUTF16(b)
	}
	if enc == nil {
		return "", false
	}
	out, err := unicode.UTF16(*enc, unicode.UseBOM).NewDecoder().Bytes(b)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

func guessUTF16(b []byte) *unicode.Endianness {
	var evenZero, oddZero int
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 {
			evenZero++
		}
		if b[i+1] == 0 {
			oddZero++
		}
	}
	pairs := len(b) / 2
	switch {
	case oddZero*10 >= pairs*4 && evenZero == 0:
		le := unicode.LittleEndian
		return &le
	case evenZero*10 >= pairs*4 && oddZero == 0:
		be := unicode.BigEndian
		return &be
	}
	return nil
}

func decodeASCII(b []byte) (string, bool) {
	for _, c := range b {
		if c >= 0x80 {
			return "", false
		}
	}
	return string(b), true
}

// decodeLatin1 maps every byte, so it refuses payloads that look binary.
func decodeLatin1(b []byte) (string, bool) {
	if looksBinary(b) {
		return "", false
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func looksBinary(b []byte) bool {
	if bytes.IndexByte(b, 0) >= 0 {
		return true
	}
	controls := 0
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' && c != '\f' {
			controls++
		}
	}
	return controls*10 > len(b)
}

// ExtractTXT decodes and cleans a plain-text upload. Blank-line separated
// blocks become paragraph units.
func ExtractTXT(data []byte) (*Result, error) {
	raw, enc, err := DecodeText(data)
	if err != nil {
		return Failed(FormatTXT, err), err
	}
	text := textclean.Clean(raw)
	res := &Result{
		Format:  FormatTXT,
		Text:    text,
		RawText: raw,
		Method:  MethodText,
		Success: true,
		Metadata: Metadata{
			Format:    FormatTXT,
			Encoding:  enc,
			LineCount: strings.Count(raw, "\n") + 1,
			CharCount: len([]rune(text)),
			WordCount: util.CountWords(text),
		},
	}
	if text != "" {
		for i, block := range strings.Split(text, "\n\n") {
			res.Units = append(res.Units, newUnit(i, UnitParagraph, block))
		}
	}
	res.Metadata.ParagraphCount = len(res.Units)
	return res, nil
}
