package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"portfolio-observer/src/alerts"
	"portfolio-observer/src/logger"
	"portfolio-observer/src/models"
)

func testServer(t *testing.T) *AlertServer {
	t.Helper()
	cfg := &models.MConfig{LogLevel: "ERROR"}
	eng := alerts.NewAlertEngine(cfg, nil, logger.NewLogger("ERROR", "test"))
	return NewAlertServer(cfg, eng, nil, logger.NewLogger("ERROR", "test"))
}

// -----------------------------------------------------------------------------

func TestStopTerminatesHubLoop(t *testing.T) {
	srv := testServer(t)

	stopped := make(chan struct{})
	go func() {
		srv.handleWebsockets()
		close(stopped)
	}()

	require.NoError(t, srv.Stop())

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub loop still running after Stop")
	}

	// The receive channels stay open, so a late broadcast must not panic
	srv.Broadcast(models.MLatestAlerts{})
}

// -----------------------------------------------------------------------------

func TestHubDeliversScopedBroadcast(t *testing.T) {
	srv := testServer(t)
	go srv.handleWebsockets()
	defer srv.Stop()

	client := &Client{hub: srv, send: make(chan interface{}, 4), scope: models.BadgeScopeCustom}
	srv.register <- client

	initial := <-client.send
	payload, ok := initial.(models.MLatestAlerts)
	require.True(t, ok)
	require.Equal(t, "INITIAL", payload.Type)

	srv.Broadcast(models.MLatestAlerts{
		Custom: []models.MAlertRecord{{Code: "CBA"}},
		Global: []models.MAlertRecord{{Code: "BHP"}},
	})

	select {
	case msg := <-client.send:
		update, ok := msg.(models.MLatestAlerts)
		require.True(t, ok)
		require.Equal(t, "UPDATE", update.Type)
		require.Empty(t, update.Global, "custom-scope client must not see the global list")
		require.Equal(t, []string{"CBA"}, recordCodes(update.Custom))
	case <-time.After(time.Second):
		t.Fatal("no broadcast delivered")
	}
}
