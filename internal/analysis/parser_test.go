package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponseStructured(t *testing.T) {
	p := ParseResponse("Here you go:\n```json\n{\"document_type\": \"Lease\", \"parties\": [\"A\", \"B\"]}\n```")
	require.Equal(t, ParseStructured, p.Kind)
	require.Equal(t, "Lease", p.Object["document_type"])
	require.Nil(t, p.Err)
}

func TestParseResponseSectioned(t *testing.T) {
	text := "**Summary**\nA short lease {see annex}.\n\nRisks:\nLate fees apply.\nDeposit is large.\n## Empty heading"
	p := ParseResponse(text)
	require.Equal(t, ParseSectioned, p.Kind)
	require.Equal(t, map[string]string{
		"Summary": "A short lease {see annex}.",
		"Risks":   "Late fees apply.\nDeposit is large.",
	}, p.Sections)
	require.Equal(t, text, p.Raw)
	require.Error(t, p.Err)
}

func TestParseResponseBrokenJSONFallsBack(t *testing.T) {
	p := ParseResponse("Summary:\nthe {broken json} here")
	require.Equal(t, ParseSectioned, p.Kind)
	require.Error(t, p.Err)
}

func TestParseResponseBracesWithoutHeadingsStillSectioned(t *testing.T) {
	p := ParseResponse("the model said {not json at all} sorry")
	require.Equal(t, ParseSectioned, p.Kind)
	require.NotNil(t, p.Sections)
	require.Empty(t, p.Sections)
	require.Error(t, p.Err)
}

func TestParseResponseHeadingsWithoutBracesStayRaw(t *testing.T) {
	p := ParseResponse("## Summary\nA lease.\n")
	require.Equal(t, ParseRaw, p.Kind)
	require.Nil(t, p.Sections)
	require.Nil(t, p.Err)
}

func TestParseResponseRaw(t *testing.T) {
	p := ParseResponse("The agreement looks standard and balanced.")
	require.Equal(t, ParseRaw, p.Kind)
	require.Empty(t, p.Sections)
	require.Nil(t, p.Object)
}

func TestParseResponseNonObjectJSON(t *testing.T) {
	p := ParseResponse("[1, 2, 3]")
	require.Equal(t, ParseRaw, p.Kind)
}
