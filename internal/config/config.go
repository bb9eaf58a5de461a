package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultServerURL        = "https://amogus-party.duckdns.org"
	defaultVolume           = 30
	defaultConfirmSound     = "test"
	defaultDiscoveryTimeout = 10 * time.Second
	defaultJoinTimeout      = 5 * time.Second
	defaultLoopPollInterval = 500 * time.Millisecond
	defaultStopWait         = 2 * time.Second
	defaultExcludedName     = "suite"
)

// fileConfig mirrors the optional YAML configuration file
type fileConfig struct {
	Server           string            `yaml:"server"`
	AudioBaseURL     string            `yaml:"audio_base_url"`
	Volume           *int              `yaml:"volume"`
	RoomCode         string            `yaml:"room_code"`
	Speakers         []string          `yaml:"speakers"`
	Exclude          []string          `yaml:"exclude"`
	StatusAddr       string            `yaml:"status_addr"`
	Notifications    *bool             `yaml:"notifications"`
	ConfirmSound     string            `yaml:"confirm_sound"`
	DiscoveryTimeout time.Duration     `yaml:"discovery_timeout"`
	JoinTimeout      time.Duration     `yaml:"join_timeout"`
	LoopPollInterval time.Duration     `yaml:"loop_poll_interval"`
	StopWait         time.Duration     `yaml:"stop_wait"`
	Sounds           map[string]string `yaml:"sounds"`
}

// AppConfig holds application configuration. It is never mutated after NewAppConfig returns.
type AppConfig struct {
	serverURL        string
	audioBaseURL     string
	volume           int
	roomCode         string
	speakerHosts     []string
	excludeNames     []string
	statusAddr       string
	notifications    bool
	confirmSound     string
	discoveryTimeout time.Duration
	joinTimeout      time.Duration
	loopPollInterval time.Duration
	stopWait         time.Duration
	sounds           *SoundTable
}

// NewAppConfig creates the application configuration from, in increasing precedence:
// defaults, the YAML file, the .env file and environment, and command-line flags.
func NewAppConfig(logger *zap.Logger, flags Flags) (*AppConfig, error) {
	cfg := &AppConfig{
		serverURL:        defaultServerURL,
		audioBaseURL:     defaultAudioBaseURL,
		volume:           defaultVolume,
		excludeNames:     []string{defaultExcludedName},
		notifications:    true,
		confirmSound:     defaultConfirmSound,
		discoveryTimeout: defaultDiscoveryTimeout,
		joinTimeout:      defaultJoinTimeout,
		loopPollInterval: defaultLoopPollInterval,
		stopWait:         defaultStopWait,
	}
	soundFiles := maps.Clone(defaultSoundFiles)

	path := flags.ConfigPath
	if path == "" {
		path = os.Getenv("CONNECTOR_CONFIG")
	}
	if path != "" {
		fc, err := loadFile(expandHome(path))
		if err != nil {
			return nil, err
		}
		cfg.applyFile(fc)
		maps.Copy(soundFiles, fc.Sounds)
	}

	// A missing .env file is normal; anything else is worth a warning
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyFlags(flags)
	cfg.volume = ClampVolume(cfg.volume)
	cfg.roomCode = strings.ToUpper(strings.TrimSpace(cfg.roomCode))
	cfg.sounds = NewSoundTable(cfg.audioBaseURL, soundFiles)

	logger.Info("Configuration loaded",
		zap.String("server", cfg.serverURL),
		zap.Int("volume", cfg.volume),
		zap.String("roomCode", cfg.roomCode),
		zap.Strings("speakers", cfg.speakerHosts),
		zap.Strings("exclude", cfg.excludeNames),
		zap.String("statusAddr", cfg.statusAddr),
		zap.Int("sounds", len(soundFiles)))

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (c *AppConfig) applyFile(fc *fileConfig) {
	setString(&c.serverURL, fc.Server)
	setString(&c.audioBaseURL, fc.AudioBaseURL)
	setString(&c.roomCode, fc.RoomCode)
	setString(&c.statusAddr, fc.StatusAddr)
	setString(&c.confirmSound, fc.ConfirmSound)
	if fc.Volume != nil {
		c.volume = *fc.Volume
	}
	if fc.Notifications != nil {
		c.notifications = *fc.Notifications
	}
	if fc.Speakers != nil {
		c.speakerHosts = fc.Speakers
	}
	if fc.Exclude != nil {
		c.excludeNames = fc.Exclude
	}
	setDuration(&c.discoveryTimeout, fc.DiscoveryTimeout)
	setDuration(&c.joinTimeout, fc.JoinTimeout)
	setDuration(&c.loopPollInterval, fc.LoopPollInterval)
	setDuration(&c.stopWait, fc.StopWait)
}

func (c *AppConfig) applyEnv() error {
	setString(&c.serverURL, os.Getenv("CONNECTOR_SERVER"))
	setString(&c.audioBaseURL, os.Getenv("CONNECTOR_AUDIO_BASE_URL"))
	setString(&c.roomCode, os.Getenv("CONNECTOR_ROOM"))
	setString(&c.statusAddr, os.Getenv("CONNECTOR_STATUS_ADDR"))

	if v := os.Getenv("CONNECTOR_VOLUME"); v != "" {
		volume, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CONNECTOR_VOLUME %q: %w", v, err)
		}
		c.volume = volume
	}
	if v := os.Getenv("CONNECTOR_NOTIFY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CONNECTOR_NOTIFY %q: %w", v, err)
		}
		c.notifications = enabled
	}
	if v, ok := os.LookupEnv("CONNECTOR_SPEAKERS"); ok {
		c.speakerHosts = splitList(v)
	}
	if v, ok := os.LookupEnv("CONNECTOR_EXCLUDE"); ok {
		c.excludeNames = splitList(v)
	}
	return nil
}

func (c *AppConfig) applyFlags(f Flags) {
	setString(&c.serverURL, f.ServerURL)
	setString(&c.roomCode, f.RoomCode)
	if f.Volume >= 0 {
		c.volume = f.Volume
	}
	if f.IncludeBedroom {
		c.excludeNames = nil
	}
}

// ClampVolume limits a volume to the 0-100 range devices accept
func ClampVolume(v int) int {
	return min(max(v, 0), 100)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// expandHome expands environment variables and a leading ~
func expandHome(path string) string {
	path = os.ExpandEnv(path)
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

// ServerURL returns the game server base URL
func (c *AppConfig) ServerURL() string { return c.serverURL }

// Volume returns the initial speaker volume
func (c *AppConfig) Volume() int { return c.volume }

// InitialRoomCode returns the upper-cased room code given at startup
func (c *AppConfig) InitialRoomCode() string { return c.roomCode }

// SpeakerHosts returns static speaker hosts; empty means network discovery
func (c *AppConfig) SpeakerHosts() []string { return c.speakerHosts }

// ExcludeNames returns the speaker-name substrings that are skipped
func (c *AppConfig) ExcludeNames() []string { return c.excludeNames }

// StatusAddr returns the status server listen address (empty disables it)
func (c *AppConfig) StatusAddr() string { return c.statusAddr }

// NotificationsEnabled reports whether desktop notifications are wanted
func (c *AppConfig) NotificationsEnabled() bool { return c.notifications }

// ConfirmSound returns the sound played when a room is joined
func (c *AppConfig) ConfirmSound() string { return c.confirmSound }

// DiscoveryTimeout returns how long network discovery browses
func (c *AppConfig) DiscoveryTimeout() time.Duration { return c.discoveryTimeout }

// JoinTimeout returns how long a join waits for the server's answer
func (c *AppConfig) JoinTimeout() time.Duration { return c.joinTimeout }

// LoopPollInterval returns the transport-state poll interval of looping sounds
func (c *AppConfig) LoopPollInterval() time.Duration { return c.loopPollInterval }

// StopWait returns how long Stop waits for a loop to exit
func (c *AppConfig) StopWait() time.Duration { return c.stopWait }

// Sounds returns the sound table
func (c *AppConfig) Sounds() *SoundTable { return c.sounds }
