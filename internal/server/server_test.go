package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/profile-sync/internal/config"
	"github.com/MKhiriev/profile-sync/internal/handler"
	handlerhttp "github.com/MKhiriev/profile-sync/internal/handler/http"
	"github.com/MKhiriev/profile-sync/internal/logger"
	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/internal/store"
	"github.com/MKhiriev/profile-sync/models"
)

func TestNewServer_NoHandlers(t *testing.T) {
	_, err := NewServer(&handler.Handlers{}, &config.ServerConfig{HTTPAddress: ":0"}, logger.Nop())
	assert.ErrorIs(t, err, errNoProfileHandler)
}

func TestNewServer_NoAddress(t *testing.T) {
	_, err := NewServer(&handler.Handlers{HTTP: &handlerhttp.Handler{}}, &config.ServerConfig{}, logger.Nop())
	assert.ErrorIs(t, err, errNoHTTPAddress)
}

func TestServer_ServesUntilCancelled(t *testing.T) {
	cfg := &config.ServerConfig{HTTPAddress: "127.0.0.1:0"}
	cfg.App.TokenSignKey = "secret"
	cfg.App.TokenIssuer = "profile-sync"
	cfg.App.TokenDuration = time.Hour

	services, err := service.NewServices(store.NewMemoryProfileRepository(), cfg, models.NewAppBuildInfo("v9", "", ""), logger.Nop())
	require.NoError(t, err)

	srv, err := NewServer(&handler.Handlers{HTTP: handlerhttp.NewHandler(services, logger.Nop())}, cfg, logger.Nop())
	require.NoError(t, err)

	ready := make(chan net.Addr, 1)
	srv.(*server).ready = ready

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.RunServer(ctx) }()

	var addr net.Addr
	select {
	case addr = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start listening")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/version", addr))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "v9", string(body))

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := &config.ServerConfig{HTTPAddress: ln.Addr().String()}
	srv, err := NewServer(&handler.Handlers{HTTP: handlerhttp.NewHandler(&service.Services{}, logger.Nop())}, cfg, logger.Nop())
	require.NoError(t, err)

	err = srv.RunServer(context.Background())
	assert.Error(t, err)
}
