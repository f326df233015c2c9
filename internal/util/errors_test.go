package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOfFollowsWrapping(t *testing.T) {
	base := NewError(KindDecodeFailed, "could not decode %s", "notes.txt")
	wrapped := fmt.Errorf("extract: %w", base)

	require.Equal(t, KindDecodeFailed, KindOf(wrapped))
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Equal(t, ErrorKind(""), KindOf(nil))
}

func TestWrapErrorUnwraps(t *testing.T) {
	err := WrapError(KindMaxRetriesExceeded, ErrRequestCancelled, "gave up")
	require.ErrorIs(t, err, ErrRequestCancelled)
	require.Equal(t, "gave up: request cancelled", err.Error())
}

func TestTerminalKinds(t *testing.T) {
	for _, k := range []ErrorKind{KindAuthentication, KindQuotaExceeded, KindInvalidInput} {
		require.True(t, k.Terminal(), k)
	}
	for _, k := range []ErrorKind{KindNetwork, KindServerError, KindUnknown} {
		require.False(t, k.Terminal(), k)
	}
}
