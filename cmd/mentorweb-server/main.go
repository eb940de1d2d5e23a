package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"mentorweb/backend/internal/calendar"
	"mentorweb/backend/internal/config"
	"mentorweb/backend/internal/service/editing"
	"mentorweb/backend/internal/service/events"
	"mentorweb/backend/internal/service/schedules"
	"mentorweb/backend/internal/store/postgres"
	grpcTransport "mentorweb/backend/internal/transport/grpc"
	"mentorweb/backend/internal/transport/rest"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "mentorweb-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "mentorweb-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
	)

	loc, err := time.LoadLocation(cfg.ReferenceTimezone)
	if err != nil {
		log.Error("reference timezone invalid", slog.Any("err", err), slog.String("tz", cfg.ReferenceTimezone))
		os.Exit(1)
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	subjects := schedules.NewService(postgres.NewScheduleRepo(db), loc, log)
	sessions := editing.NewService(subjects, log)
	reaper := editing.NewReaper(sessions, cfg.SessionTTL, log)
	if err := reaper.Start(cfg.ReapSchedule); err != nil {
		log.Error("session reaper schedule invalid", slog.Any("err", err), slog.String("schedule", cfg.ReapSchedule))
		os.Exit(1)
	}
	defer reaper.Stop()

	server := &rest.Server{
		Subjects:        subjects,
		Editing:         sessions,
		Events:          events.NewService(calendar.NewNormalizer(loc, log), log),
		Feeds:           icsFeeds(cfg.ICSFeeds),
		UnauthorizedURL: cfg.UnauthorizedURL,
	}
	if g := calendar.NewGoogle(calendar.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		CalendarID:   cfg.GoogleCalendarID,
	}); g != nil {
		server.Google = g
	} else {
		log.Info("google calendar disabled; client id or secret not set")
	}

	router := rest.NewRouter(server, log, rest.Options{
		Auth: rest.AuthConfig{
			JWTSecret:    cfg.JWTSecret,
			StaticTokens: rest.ParseStaticTokens(cfg.StaticTokens),
		},
		CSRFCookie:     cfg.CSRFCookie,
		RequestTimeout: cfg.HTTPRequestTimeout,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := grpcTransport.NewServer(log, cfg.GRPCRequestTimeout)
	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, httpServer, grpcServer, healthServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
			shutdown(log, httpServer, grpcServer, healthServer, cfg.ShutdownTimeout)
			os.Exit(1)
		}
	}
}

func icsFeeds(urls []string) []events.Feed {
	client := &http.Client{Timeout: 20 * time.Second}
	feeds := make([]events.Feed, 0, len(urls))
	for _, raw := range urls {
		name := raw
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			name = u.Host + u.Path
		}
		feeds = append(feeds, events.Feed{Name: name, Provider: calendar.NewICSFeed(name, raw, client)})
	}
	return feeds
}

func shutdown(log *slog.Logger, hs *http.Server, gs *grpc.Server, health *health.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))
	health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := hs.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	} else {
		log.Info("http server stopped")
	}

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		gs.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
