package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test-version")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("Version = %q", cfg.Version)
	}
	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("BindAddr = %q, expected loopback default", cfg.BindAddr)
	}
	if cfg.Port != "3180" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Env != "local" {
		t.Errorf("Env = %q", cfg.Env)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults wrong: %+v", cfg.Database)
	}
	if cfg.Canvass.DoorEventsPageSize != 300 {
		t.Errorf("DoorEventsPageSize = %d", cfg.Canvass.DoorEventsPageSize)
	}
	if cfg.Canvass.LeadsPageSize != 200 {
		t.Errorf("LeadsPageSize = %d", cfg.Canvass.LeadsPageSize)
	}
	if cfg.Canvass.RecentLocationsLimit != 20 {
		t.Errorf("RecentLocationsLimit = %d", cfg.Canvass.RecentLocationsLimit)
	}
	if cfg.Canvass.TxMaxRetries != 3 {
		t.Errorf("TxMaxRetries = %d", cfg.Canvass.TxMaxRetries)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPASSWORD", "sup3rsecret")
	t.Setenv("CANVASS_DOOR_EVENTS_PAGE_SIZE", "50")

	cfg, err := Load("v1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q", cfg.Database.Host)
	}
	if cfg.Database.Password != "sup3rsecret" {
		t.Error("password not read from environment")
	}
	if cfg.Canvass.DoorEventsPageSize != 50 {
		t.Errorf("DoorEventsPageSize = %d", cfg.Canvass.DoorEventsPageSize)
	}
}

func TestLoad_RejectsInvalidPageSizes(t *testing.T) {
	t.Setenv("CANVASS_LEADS_PAGE_SIZE", "0")

	_, err := Load("v1")
	if err == nil {
		t.Fatal("expected validation error for zero page size")
	}
	if !strings.Contains(err.Error(), "leads_page_size") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "canvass",
		Password: "pw",
		Database: "canvass_engine",
		SSLMode:  "disable",
	}

	got := db.ConnectionString()
	want := "host=localhost port=5432 user=canvass password=pw dbname=canvass_engine sslmode=disable"
	if got != want {
		t.Errorf("ConnectionString() = %q, expected %q", got, want)
	}
}
