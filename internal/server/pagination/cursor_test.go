package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	in := Cursor{Timestamp: time.Date(2025, 6, 2, 10, 30, 0, 123456789, time.UTC), ID: 42}
	out, err := Decode(in.Encode())
	require.NoError(t, err)

	assert.True(t, in.Timestamp.Equal(out.Timestamp))
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, token := range []string{
		"not base64 !!!",
		"aGVsbG8=",            // valid base64, no separator
		"bm90LWEtdGltZXw0Mg==", // bad timestamp
	} {
		_, err := Decode(token)
		assert.Error(t, err, token)
	}
}
