package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr() != "0.0.0.0:50051" {
		t.Fatalf("GRPCAddr = %q", cfg.GRPCAddr())
	}
	if cfg.SessionTTL != 2*time.Hour || cfg.ReapSchedule != "@every 5m" {
		t.Fatalf("editing = %v / %q", cfg.SessionTTL, cfg.ReapSchedule)
	}
	if cfg.ReferenceTimezone != "UTC" || cfg.GoogleCalendarID != "primary" || cfg.CSRFCookie != "csrftoken" {
		t.Fatalf("calendar/auth defaults = %+v", cfg)
	}
	if len(cfg.ICSFeeds) != 0 {
		t.Fatalf("ICSFeeds = %v", cfg.ICSFeeds)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MENTORWEB_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("MENTORWEB_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("MENTORWEB_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("MENTORWEB_CALENDAR_ICS_FEEDS", " https://a.example/cal.ics, ,https://b.example/cal.ics ")
	t.Setenv("MENTORWEB_CALENDAR_REFERENCE_TIMEZONE", "America/Chicago")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("MENTORWEB_EDITING_SESSION_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.GRPCHost != "127.0.0.1" || cfg.GRPCPort != 6000 {
		t.Fatalf("grpc = %s:%d", cfg.GRPCHost, cfg.GRPCPort)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if len(cfg.ICSFeeds) != 2 || cfg.ICSFeeds[1] != "https://b.example/cal.ics" {
		t.Fatalf("ICSFeeds = %v", cfg.ICSFeeds)
	}
	if cfg.ReferenceTimezone != "America/Chicago" {
		t.Fatalf("ReferenceTimezone = %q", cfg.ReferenceTimezone)
	}
	if cfg.GoogleClientID != "client" {
		t.Fatalf("GoogleClientID = %q", cfg.GoogleClientID)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "duration", key: "MENTORWEB_HTTP_REQUEST_TIMEOUT", value: "soon"},
		{name: "timezone", key: "MENTORWEB_CALENDAR_REFERENCE_TIMEZONE", value: "Mars/Olympus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
