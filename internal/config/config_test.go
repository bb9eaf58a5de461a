package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "connector.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg, err := NewAppConfig(zap.NewNop(), Flags{Volume: -1})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.ServerURL() != defaultServerURL {
		t.Errorf("ServerURL: want %s, got %s", defaultServerURL, cfg.ServerURL())
	}
	if cfg.Volume() != defaultVolume {
		t.Errorf("Volume: want %d, got %d", defaultVolume, cfg.Volume())
	}
	if cfg.JoinTimeout() != 5*time.Second {
		t.Errorf("JoinTimeout: want 5s, got %v", cfg.JoinTimeout())
	}
	if cfg.StopWait() != 2*time.Second {
		t.Errorf("StopWait: want 2s, got %v", cfg.StopWait())
	}
	if !slices.Equal(cfg.ExcludeNames(), []string{"suite"}) {
		t.Errorf("ExcludeNames: want [suite], got %v", cfg.ExcludeNames())
	}
	if cfg.StatusAddr() != "" {
		t.Errorf("StatusAddr should be disabled by default, got %q", cfg.StatusAddr())
	}
	if len(cfg.Sounds().Names()) != len(defaultSoundFiles) {
		t.Errorf("Expected %d default sounds, got %d", len(defaultSoundFiles), len(cfg.Sounds().Names()))
	}
}

func TestNewAppConfig_Precedence(t *testing.T) {
	path := writeConfigFile(t, `
server: https://file.example
volume: 40
room_code: file
exclude: [kitchen]
join_timeout: 8s
sounds:
  horn: horn.mp3
  test: https://cdn.example/ping.mp3
`)

	tests := []struct {
		name      string
		env       map[string]string
		flags     Flags
		check     func(*testing.T, *AppConfig)
		expectErr string
	}{
		{
			name:  "File Overrides Defaults",
			flags: Flags{ConfigPath: path, Volume: -1},
			check: func(t *testing.T, c *AppConfig) {
				if c.ServerURL() != "https://file.example" {
					t.Errorf("ServerURL: got %s", c.ServerURL())
				}
				if c.Volume() != 40 {
					t.Errorf("Volume: want 40, got %d", c.Volume())
				}
				if c.InitialRoomCode() != "FILE" {
					t.Errorf("Room code should be upper-cased, got %s", c.InitialRoomCode())
				}
				if c.JoinTimeout() != 8*time.Second {
					t.Errorf("JoinTimeout: want 8s, got %v", c.JoinTimeout())
				}
				if uri, err := c.Sounds().Resolve("horn"); err != nil || !strings.HasSuffix(uri, "/horn.mp3") {
					t.Errorf("horn should resolve under base URL, got %q (%v)", uri, err)
				}
				if uri, _ := c.Sounds().Resolve("test"); uri != "https://cdn.example/ping.mp3" {
					t.Errorf("absolute sound URL should be kept, got %q", uri)
				}
			},
		},
		{
			name: "Env Overrides File",
			env: map[string]string{
				"CONNECTOR_CONFIG":   path,
				"CONNECTOR_VOLUME":   "55",
				"CONNECTOR_SPEAKERS": "10.0.0.2, 10.0.0.3",
				"CONNECTOR_EXCLUDE":  "",
			},
			flags: Flags{Volume: -1},
			check: func(t *testing.T, c *AppConfig) {
				if c.Volume() != 55 {
					t.Errorf("Volume: want 55, got %d", c.Volume())
				}
				if !slices.Equal(c.SpeakerHosts(), []string{"10.0.0.2", "10.0.0.3"}) {
					t.Errorf("SpeakerHosts: got %v", c.SpeakerHosts())
				}
				if len(c.ExcludeNames()) != 0 {
					t.Errorf("ExcludeNames should be empty, got %v", c.ExcludeNames())
				}
			},
		},
		{
			name:  "Flags Override Everything",
			env:   map[string]string{"CONNECTOR_VOLUME": "55"},
			flags: Flags{ConfigPath: path, Volume: 150, RoomCode: " abc ", IncludeBedroom: true, ServerURL: "http://flag.example"},
			check: func(t *testing.T, c *AppConfig) {
				if c.Volume() != 100 {
					t.Errorf("Volume should be clamped to 100, got %d", c.Volume())
				}
				if c.InitialRoomCode() != "ABC" {
					t.Errorf("Room code: want ABC, got %s", c.InitialRoomCode())
				}
				if c.ExcludeNames() != nil {
					t.Errorf("include-bedroom should clear exclusions, got %v", c.ExcludeNames())
				}
				if c.ServerURL() != "http://flag.example" {
					t.Errorf("ServerURL: got %s", c.ServerURL())
				}
			},
		},
		{
			name:      "Invalid Env Volume",
			env:       map[string]string{"CONNECTOR_VOLUME": "loud"},
			flags:     Flags{Volume: -1},
			expectErr: "invalid CONNECTOR_VOLUME",
		},
		{
			name:      "Missing Config File",
			flags:     Flags{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), Volume: -1},
			expectErr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := NewAppConfig(zap.NewNop(), tt.flags)
			if tt.expectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.expectErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.expectErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		expected  Flags
		expectErr bool
	}{
		{
			name:     "No Arguments",
			args:     nil,
			expected: Flags{Volume: -1},
		},
		{
			name:     "Room Code And Options",
			args:     []string{"-volume", "20", "-include-bedroom", "-server", "http://localhost:5000", "abcd"},
			expected: Flags{RoomCode: "abcd", Volume: 20, IncludeBedroom: true, ServerURL: "http://localhost:5000"},
		},
		{
			name:      "Too Many Positionals",
			args:      []string{"abcd", "efgh"},
			expectErr: true,
		},
		{
			name:      "Unknown Flag",
			args:      []string{"-loud"},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			got, err := ParseFlags("connector", tt.args, &out)
			if tt.expectErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Flags mismatch: want %+v, got %+v", tt.expected, got)
			}
		})
	}
}
