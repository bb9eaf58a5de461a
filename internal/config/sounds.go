package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrUnknownSound is returned when a sound identifier has no audio file
var ErrUnknownSound = errors.New("unknown sound")

const defaultAudioBaseURL = "https://raw.githubusercontent.com/siacavazzi/amogus_assets/main/audio/"

// defaultSoundFiles maps game sound identifiers to files under the audio base URL
var defaultSoundFiles = map[string]string{
	"test":           "test.mp3",
	"theme":          "theme.mp3",
	"meeting":        "meeting.mp3",
	"start":          "start.mp3",
	"meltdown":       "meltdown.mp3",
	"sus_victory":    "sus_victory.mp3",
	"crew_victory":   "victory.mp3",
	"meltdown_fail":  "meltdown_fail.mp3",
	"meltdown_over":  "meltdown_over.mp3",
	"dead":           "dead.mp3",
	"hack":           "hack.mp3",
	"sus":            "sus.mp3",
	"brainrot":       "brainrot.mp3",
	"annoying_notif": "annoying_notif.mp3",
	"meow":           "meow.mp3",
	"hurry":          "hurry.mp3",
	"veto":           "veto.mp3",
	"fear":           "fear.mp3",
}

// SoundTable resolves sound identifiers to audio URIs. It is immutable once built.
type SoundTable struct {
	baseURL string
	files   map[string]string
}

// NewSoundTable builds a table from a base URL and an identifier -> file mapping.
// Files that are already absolute http(s) URLs are used as is.
func NewSoundTable(baseURL string, files map[string]string) *SoundTable {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &SoundTable{
		baseURL: baseURL,
		files:   maps.Clone(files),
	}
}

// Resolve returns the audio URI for a sound identifier
func (t *SoundTable) Resolve(sound string) (string, error) {
	file, ok := t.files[sound]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSound, sound)
	}
	if strings.HasPrefix(file, "http://") || strings.HasPrefix(file, "https://") {
		return file, nil
	}
	return t.baseURL + file, nil
}

// Names returns the known sound identifiers in sorted order
func (t *SoundTable) Names() []string {
	return slices.Sorted(maps.Keys(t.files))
}
