package config

import "testing"

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Storage.Backend != StorageBackendFile {
		t.Fatalf("backend = %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path == "" {
		t.Fatal("file backend path not defaulted")
	}
	if cfg.Watcher.IntervalMinutes != 60 {
		t.Fatalf("interval_minutes = %d", cfg.Watcher.IntervalMinutes)
	}
	if cfg.Watcher.RequestTimeoutSeconds != 15 {
		t.Fatalf("request_timeout_seconds = %d", cfg.Watcher.RequestTimeoutSeconds)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected missing token error")
	}
}

func TestNormalizePollingAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected webhook.url error")
	}
	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizePostgresRequiresHostAndName(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Backend = StorageBackendPostgres
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected database.host error")
	}
	cfg.Database.Host = "localhost"
	cfg.Database.Name = "ipswbot"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRejectsUnknownExcludeUpdate(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"Callback", "inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected exclude_updates error")
	}
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback || cfg.RateLimit.ExcludeUpdates[1] != UpdateMessage {
		t.Fatalf("exclude_updates = %v", cfg.RateLimit.ExcludeUpdates)
	}
}
