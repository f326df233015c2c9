package providers

import (
	"errors"
	"testing"

	"unveildocs/internal/util"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]util.ErrorKind{
		"API key not valid":                        util.KindAuthentication,
		"openai generate error 401 (Unauthorized)": util.KindAuthentication,
		"429 Too Many Requests":                    util.KindQuotaExceeded,
		"insufficient_quota":                       util.KindQuotaExceeded,
		"gemini generate error 400 (Bad Request)":  util.KindInvalidInput,
		"dial tcp: connection refused":             util.KindNetwork,
		"i/o timeout":                              util.KindNetwork,
		"500 Internal Server Error":                util.KindServerError,
		"something odd happened":                   util.KindUnknown,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil error classified as %s", got)
	}
}
