package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := NewTestAPI(t)
	scoped := NewScopedAPI("archive", NewScopedAPI("walk", inner))

	scoped.ReportBroken("scrape-topic", errors.New("boom"))
	scoped.ReportWarning("page")
	scoped.ReportDebug("skip 4")
	scoped.ReportCount("topics.scraped", 3)

	require.Len(t, inner.Reports(""), 4)
	require.Equal(t, "walk: archive: scrape-topic", inner.Reports("broken")[0].Id)
	require.True(t, inner.HasReport("debug", "archive: skip 4"))
	require.Equal(t, []any{int64(3)}, inner.Reports("count")[0].Params)
}

func TestSlogAPI(t *testing.T) {
	var out bytes.Buffer
	api := SlogAPI{Logger: slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	api.ReportBroken("db.query", errors.New("disk full"), "UpsertPost")
	api.ReportDebug("skip", 4)

	logged := out.String()
	require.Contains(t, logged, "broken component")
	require.Contains(t, logged, "id=db.query")
	require.Contains(t, logged, `params.0="disk full"`)
	require.Contains(t, logged, "params.1=UpsertPost")
	require.Contains(t, logged, "msg=skip params.0=4")
}

func TestSetupOtelWithoutEndpoints(t *testing.T) {
	otel, err := SetupOtel(context.Background(), "tapascrap-test", OtlpConfig{})
	require.NoError(t, err)
	require.NoError(t, otel.Shutdown(context.Background()))
}
