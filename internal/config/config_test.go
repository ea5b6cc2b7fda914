package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		RPCURL:          "https://mainnet.optimism.io",
		ChainID:         10,
		Sender:          "0x1111111111111111111111111111111111111111",
		StartTime:       1_700_000_000,
		EndTime:         1_700_500_000,
		WindowSize:      2000,
		Sink:            SinkCSV,
		Out:             "./data/records.csv",
		EtherscanAPIKey: "key",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid csv", func(*Config) {}, ""},
		{"missing rpc", func(c *Config) { c.RPCURL = "" }, `"rpc"`},
		{"missing chain id", func(c *Config) { c.ChainID = 0 }, `"chain-id"`},
		{"missing sender", func(c *Config) { c.Sender = "" }, `"sender"`},
		{"bad sender", func(c *Config) { c.Sender = "not-an-address" }, "hex address"},
		{"missing start", func(c *Config) { c.StartTime = 0 }, `"start-timestamp"`},
		{"inverted window", func(c *Config) { c.EndTime = c.StartTime - 1 }, "start-timestamp"},
		{"missing api key", func(c *Config) { c.EtherscanAPIKey = "" }, `"etherscan-api-key"`},
		{"zero window size", func(c *Config) { c.WindowSize = 0 }, "window-size"},
		{"unknown sink", func(c *Config) { c.Sink = "kafka" }, "unknown sink"},
		{"sheets without credentials", func(c *Config) { c.Sink = SinkSheets; c.GoogleFolderID = "folder" }, `"google-credentials"`},
		{"sheets without folder", func(c *Config) { c.Sink = SinkSheets; c.GoogleCredentials = "creds.json" }, `"google-folder-id"`},
		{"postgres without dsn", func(c *Config) { c.Sink = SinkPostgres }, `"pg-dsn"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not name %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadGoogleCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	payload := `{
		"access_token": {"access_token": "token", "refresh_token": "refresh"},
		"client_secrets": {
			"client_id": "client",
			"client_secret": "secret",
			"redirect_uris": ["http://localhost"]
		}
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	creds, err := LoadGoogleCredentials(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.ClientID != "client" || creds.RefreshToken != "refresh" || creds.RedirectURI != "http://localhost" {
		t.Fatalf("credentials = %+v", creds)
	}
}

func TestLoadGoogleCredentialsRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	payload := `{"access_token": {}, "client_secrets": {"client_id": "client"}}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := LoadGoogleCredentials(path); err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
}

func TestLoadGoogleCredentialsMissingFile(t *testing.T) {
	if _, err := LoadGoogleCredentials(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
