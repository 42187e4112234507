package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type row struct {
	ID string
}

func cursorOf(r *row) string { return r.ID }

func TestCursorRoundTrip(t *testing.T) {
	encoded, err := EncodeCursor(Cursor{CreatedAt: "2026-03-01T10:00:00Z", ID: "42"})
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.Equal(t, "2026-03-01T10:00:00Z", decoded.CreatedAt)
	require.Equal(t, "42", decoded.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("nao-e-base64!!!")
	require.Error(t, err)

	// base64 valido mas payload quebrado
	_, err = DecodeCursor("eyJpZCI6")
	require.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	rows := []*row{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	info := BuildCursorPageInfo(rows, 2, cursorOf)
	require.True(t, info.HasMore)
	require.Equal(t, "b", info.NextCursor)

	info = BuildCursorPageInfo(rows, 3, cursorOf)
	require.False(t, info.HasMore)
	require.Equal(t, "c", info.NextCursor)

	info = BuildCursorPageInfo(nil, 2, cursorOf)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}
