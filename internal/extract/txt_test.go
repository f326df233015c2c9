package extract

import (
	"testing"

	"unveildocs/internal/util"

	"github.com/stretchr/testify/require"
)

func TestDecodeTextEncodingOrder(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
		enc  string
	}{
		{"utf8", []byte("Café terms"), "Café terms", "utf-8"},
		{"utf8 bom", []byte("\xef\xbb\xbfLease"), "Lease", "utf-8"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'O', 0, 'K', 0}, "OK", "utf-16"},
		{"utf16be bom", []byte{0xFE, 0xFF, 0, 'O', 0, 'K'}, "OK", "utf-16"},
		{"latin1", []byte("Caf\xe9 d\xfb"), "Café dû", "latin-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, enc, err := DecodeText(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.enc, enc)
		})
	}
}

func TestDecodeTextRejectsBinary(t *testing.T) {
	_, _, err := DecodeText([]byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02, 0x03, 0xff})
	require.Error(t, err)
	require.Equal(t, util.KindDecodeFailed, util.KindOf(err))
}

func TestExtractTXT(t *testing.T) {
	res, err := ExtractTXT([]byte("NON-DISCLOSURE AGREEMENT\n\nThe parties agree.\nSecond line."))
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "Non-Disclosure Agreement\n\nThe parties agree. Second line.", res.Text)
	require.Equal(t, 4, res.Metadata.LineCount)
	require.Equal(t, "utf-8", res.Metadata.Encoding)
	require.Len(t, res.Units, 2)
	require.Equal(t, 7, res.Metadata.WordCount)
}
