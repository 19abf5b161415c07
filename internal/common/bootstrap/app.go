package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ServerApp: HTTP 서버와 백그라운드 태스크(스트림 소비, 스케줄러)를 묶은 실행 단위다.
type ServerApp struct {
	Service         string
	Logger          *slog.Logger
	Server          *http.Server
	ShutdownTimeout time.Duration
	BackgroundTasks []BackgroundTask
}

// NewServerApp 는 ServerApp 인스턴스를 생성한다.
func NewServerApp(
	service string,
	logger *slog.Logger,
	server *http.Server,
	shutdownTimeout time.Duration,
	backgroundTasks ...BackgroundTask,
) *ServerApp {
	return &ServerApp{
		Service:         service,
		Logger:          logger,
		Server:          server,
		ShutdownTimeout: shutdownTimeout,
		BackgroundTasks: backgroundTasks,
	}
}

// Run 는 서버와 백그라운드 태스크를 실행한다.
func (a *ServerApp) Run(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return RunHTTPServer(
		ctx,
		a.Logger,
		a.Service,
		a.Server,
		a.ShutdownTimeout,
		a.BackgroundTasks...,
	)
}
