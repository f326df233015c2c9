package providers

import (
	"strings"

	"unveildocs/internal/util"
)

var errorFamilies = []struct {
	kind  util.ErrorKind
	terms []string
}{
	{util.KindAuthentication, []string{"api key", "authentication", "unauthorized"}},
	{util.KindQuotaExceeded, []string{"quota", "rate limit", "too many requests"}},
	{util.KindInvalidInput, []string{"invalid", "bad request", "malformed"}},
	{util.KindNetwork, []string{"timeout", "connection", "network"}},
	{util.KindServerError, []string{"internal", "server error", "500"}},
}

// ClassifyError maps a backend failure to an error kind by its message.
// Families are checked in order, so an invalid API key is an
// authentication failure.
func ClassifyError(err error) util.ErrorKind {
	if err == nil {
		return ""
	}
	e := strings.ToLower(err.Error())
	for _, f := range errorFamilies {
		for _, t := range f.terms {
			if strings.Contains(e, t) {
				return f.kind
			}
		}
	}
	return util.KindUnknown
}
