package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/minepulse/gamify-engine/internal/common/httpserver"
)

// BackgroundTask: 서버와 함께 실행되는 백그라운드 작업 단위다.
// 작업이 실패하면 전체 프로세스가 종료된다.
type BackgroundTask struct {
	Name        string
	ErrorLogKey string
	Run         func(ctx context.Context) error
}

// RunHTTPServer 는 시그널 처리와 함께 HTTP 서버 및 백그라운드 태스크를 실행한다.
func RunHTTPServer(
	ctx context.Context,
	logger *slog.Logger,
	service string,
	server *http.Server,
	shutdownTimeout time.Duration,
	backgroundTasks ...BackgroundTask,
) error {
	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)

	for _, task := range backgroundTasks {
		t := task
		if t.Run == nil {
			continue
		}

		g.Go(func() error {
			if err := t.Run(gctx); err != nil {
				logKey := t.ErrorLogKey
				if logKey == "" {
					logKey = "background_task_failed"
				}
				logger.Error(logKey, "task", t.Name, "err", err)
				return fmt.Errorf("%s failed: %w", t.Name, err)
			}
			return nil
		})
	}

	logger.Info("server_start", "service", service, "addr", server.Addr)
	g.Go(func() error {
		if err := httpserver.Serve(gctx, server, shutdownTimeout); err != nil {
			return fmt.Errorf("http server serve failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run http server failed: %w", err)
	}
	return nil
}
