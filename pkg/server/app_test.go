package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MomentumScan/internal/domain/models"
	"MomentumScan/internal/domain/repository"
	"MomentumScan/internal/scheduler"
	"MomentumScan/pkg/config"
	xhttp "MomentumScan/pkg/http"
)

var pingHandler = xhttp.HandlerFunc(func(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
})

type countingRunner struct {
	mu      sync.Mutex
	markets []string
}

func (r *countingRunner) Run(_ context.Context, market string, _ repository.Period) (*models.ScreenReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markets = append(r.markets, market)
	return &models.ScreenReport{RunID: "run", Market: market}, nil
}

func (r *countingRunner) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.markets...)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestAppServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	cfg := config.Default()
	cfg.Server.Port = port
	cfg.Server.ShutdownTimeout = 2 * time.Second

	srv := xhttp.NewServer(pingHandler, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(port))
	app := New(cfg, srv, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/ping", port)
	assert.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAppRunsScheduleOnStart(t *testing.T) {
	port := freePort(t)
	cfg := config.Default()
	cfg.Server.Port = port
	cfg.Schedule.RunOnStart = true

	runner := &countingRunner{}
	sched, err := scheduler.New(runner, scheduler.Config{
		Spec:    "0 0 0 1 1 *",
		Markets: []string{"kospi", "sp500"},
		Period:  repository.Period1Y,
	}, nil)
	require.NoError(t, err)

	srv := xhttp.NewServer(pingHandler, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(port))
	app := New(cfg, srv, sched, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(runner.seen()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"kospi", "sp500"}, runner.seen())

	cancel()
	require.NoError(t, <-done)
}

func TestAppReturnsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	cfg := config.Default()
	cfg.Server.Port = port
	srv := xhttp.NewServer(pingHandler, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(port))

	err = New(cfg, srv, nil, nil).Run(context.Background())
	require.Error(t, err)
}
