package app

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"adopet/internal/config"
	"adopet/internal/db"
)

func TestOpenDefaults(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(context.Background(), dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()
	assert.FileExists(t, db.Path(dir))
	assert.Equal(t, config.Default(), rt.Config)
	assert.Len(t, rt.Engine.Rules.Names(), 4)

	d := rt.Dispatcher()
	assert.Equal(t, 5, d.MaxAttempts)
	assert.Equal(t, 2*time.Second, d.Interval)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adopet.yml"), []byte("admission:\n  disabled_rules: [bogus]\n"), 0o644))
	_, err := Open(context.Background(), dir, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "bogus")
}

func TestOpenHonoursDisabledRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adopet.yml"), []byte("admission:\n  disabled_rules: [tutor-approved-limit]\n"), 0o644))
	rt, err := Open(context.Background(), dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()
	assert.NotContains(t, rt.Engine.Rules.Names(), "tutor-approved-limit")
}

func TestOpenRefusesDisablingPendingRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adopet.yml"), []byte("admission:\n  disabled_rules: [tutor-pending]\n"), 0o644))
	_, err := Open(context.Background(), dir, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "tutor-pending cannot be disabled")
}

func TestServeStopsOnCancel(t *testing.T) {
	rt, err := Open(context.Background(), t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer rt.Close()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/v0/health"
	require.Eventually(t, func() bool {
		res, err := http.Get(url)
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger("debug", "json")
	require.NoError(t, err)
	_, err = NewLogger("loud", "json")
	assert.Error(t, err)
	_, err = NewLogger("info", "xml")
	assert.Error(t, err)
}
