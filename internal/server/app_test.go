package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/equipview/internal/server/config"
	"github.com/dmitrijs2005/equipview/internal/server/repositories/repomanager"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = repomanager.SQLitePrefix + filepath.Join(dir, "app.db")
	c.UploadDir = filepath.Join(dir, "uploads")
	c.BcryptCost = 4
	c.ShutdownTimeout = 2 * time.Second
	return c
}

func TestApp_ServeAndShutdown(t *testing.T) {
	goose.SetLogger(goose.NopLogger())
	var logs bytes.Buffer

	app, err := NewApp(context.Background(), testConfig(t), &logs)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(base + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.Contains(t, logs.String(), `"msg":"Starting HTTP server"`)
	assert.Contains(t, logs.String(), `"path":"/api/history"`)
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig(t)
	c.LogLevel = "chatty"
	_, err := NewApp(context.Background(), c, io.Discard)
	assert.Error(t, err)

	c = testConfig(t)
	c.DatabaseDSN = repomanager.SQLitePrefix + filepath.Join(t.TempDir(), "missing", "dir", "app.db")
	_, err = NewApp(context.Background(), c, io.Discard)
	assert.Error(t, err)
}

func TestRun_BadAddress(t *testing.T) {
	goose.SetLogger(goose.NopLogger())
	c := testConfig(t)
	c.EndpointAddrHTTP = "127.0.0.1:-1"

	app, err := NewApp(context.Background(), c, io.Discard)
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}

func TestMain_BadFlags(t *testing.T) {
	assert.Equal(t, 2, Main([]string{"-o", "ftp"}))
}
