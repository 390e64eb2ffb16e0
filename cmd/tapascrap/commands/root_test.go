package commands

import (
	"tapascrap/internal/components/telemetry"
	"tapascrap/internal/db"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplicationClose(t *testing.T) {
	var missing *application
	require.NoError(t, missing.close())

	conn, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	a := &application{conn: conn, tel: telemetry.NewTestAPI(t)}

	require.NoError(t, a.close())
	require.Error(t, conn.Ping())
	require.NoError(t, a.close())
}

func TestParseIds(t *testing.T) {
	ids, err := parseIds([]string{"1", "42"})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 42}, ids)

	_, err = parseIds([]string{"-1"})
	require.Error(t, err)
	_, err = parseIds([]string{"abc"})
	require.Error(t, err)
}
