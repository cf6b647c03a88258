package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"dictate/encoder"
	"dictate/log"
	"dictate/transcriber"
)

const (
	DefaultModel    = "whisper-1"
	DefaultLanguage = "en"
)

// Settings is the persisted settings form. Keys match the YAML file.
type Settings struct {
	APIKey     string   `yaml:"apiKey"`
	APIURL     string   `yaml:"apiUrl"`
	Model      string   `yaml:"model"`
	Prompt     string   `yaml:"prompt"`
	Language   string   `yaml:"language"`
	DebugMode  bool     `yaml:"debugMode"`
	ArchiveDir string   `yaml:"archiveDir,omitempty"`
	Encodings  []string `yaml:"encodings,omitempty"`
	Device     string   `yaml:"device,omitempty"`
	Hotkey     string   `yaml:"hotkey,omitempty"`
}

func Defaults() Settings {
	return Settings{
		APIURL:   transcriber.DefaultAPIURL,
		Model:    DefaultModel,
		Language: DefaultLanguage,
	}
}

// Preferences returns the configured encoding order, or nil for the
// recorder default.
func (s Settings) Preferences() []encoder.Format {
	var prefs []encoder.Format
	for _, e := range s.Encodings {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			prefs = append(prefs, encoder.Format(e))
		}
	}
	return prefs
}

// Options is the transcription request these settings describe.
func (s Settings) Options(filename string) transcriber.Options {
	return transcriber.Options{
		APIKey:   s.APIKey,
		APIURL:   s.APIURL,
		Model:    s.Model,
		Prompt:   s.Prompt,
		Language: s.Language,
		Filename: filename,
	}
}

// ResolvePath picks the settings file: flag, then DICTATE_CONFIG, then the
// user config directory.
func ResolvePath(flagPath string) (string, error) {
	if p := firstNonEmpty(flagPath, os.Getenv("DICTATE_CONFIG")); p != "" {
		return filepath.Abs(p)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("could not determine config directory")
	}
	return filepath.Join(dir, "dictate", "settings.yaml"), nil
}

// Store holds the settings file. It re-reads the file when another process
// (such as `dictate config set`) has rewritten it, and writes it back on
// every Update.
type Store struct {
	path string

	mu       sync.Mutex
	settings Settings
	modTime  time.Time
	size     int64
}

// Open reads path over the defaults. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path, settings: Defaults()}
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// reloadLocked reads the file again when its size or modification time
// differs from the last read or write.
func (s *Store) reloadLocked() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	next := Defaults()
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.settings = next
	s.modTime, s.size = info.ModTime(), info.Size()
	return nil
}

func (s *Store) stampLocked() {
	if info, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = info.ModTime(), info.Size()
	}
}

// Current returns a snapshot, picking up edits made to the file since the
// last call. A file that no longer parses leaves the previous settings in
// place. An empty API key falls back to OPENAI_API_KEY.
func (s *Store) Current() Settings {
	s.mu.Lock()
	if err := s.reloadLocked(); err != nil {
		log.Warnf("settings: %v", err)
	}
	cur := s.settings
	cur.Encodings = append([]string(nil), s.settings.Encodings...)
	s.mu.Unlock()
	if cur.APIKey == "" {
		cur.APIKey = envOrDefault("OPENAI_API_KEY", "")
	}
	return cur
}

func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return err
	}
	next := s.settings
	fn(&next)
	if err := save(s.path, next); err != nil {
		return err
	}
	s.settings = next
	s.stampLocked()
	return nil
}

func save(path string, st Settings) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Keys lists the settings names Get and Set accept.
var Keys = []string{"apiKey", "apiUrl", "model", "prompt", "language", "debugMode", "archiveDir", "encodings", "device", "hotkey"}

var ErrUnknownKey = errors.New("unknown setting")

func (s *Store) Get(key string) (string, error) {
	cur := s.Current()
	switch key {
	case "apiKey":
		return cur.APIKey, nil
	case "apiUrl":
		return cur.APIURL, nil
	case "model":
		return cur.Model, nil
	case "prompt":
		return cur.Prompt, nil
	case "language":
		return cur.Language, nil
	case "debugMode":
		return strconv.FormatBool(cur.DebugMode), nil
	case "archiveDir":
		return cur.ArchiveDir, nil
	case "encodings":
		return strings.Join(cur.Encodings, ","), nil
	case "device":
		return cur.Device, nil
	case "hotkey":
		return cur.Hotkey, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKey, key)
}

// Set parses value for key and persists the result.
func (s *Store) Set(key, value string) error {
	var apply func(*Settings)
	switch key {
	case "apiKey":
		apply = func(st *Settings) { st.APIKey = strings.TrimSpace(value) }
	case "apiUrl":
		apply = func(st *Settings) { st.APIURL = strings.TrimSpace(value) }
	case "model":
		apply = func(st *Settings) { st.Model = strings.TrimSpace(value) }
	case "prompt":
		apply = func(st *Settings) { st.Prompt = value }
	case "language":
		apply = func(st *Settings) { st.Language = strings.TrimSpace(value) }
	case "debugMode":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("debugMode: %w", err)
		}
		apply = func(st *Settings) { st.DebugMode = b }
	case "archiveDir":
		apply = func(st *Settings) { st.ArchiveDir = strings.TrimSpace(value) }
	case "encodings":
		var list []string
		for _, e := range strings.Split(value, ",") {
			if e = strings.TrimSpace(e); e != "" {
				list = append(list, e)
			}
		}
		apply = func(st *Settings) { st.Encodings = list }
	case "device":
		apply = func(st *Settings) { st.Device = value }
	case "hotkey":
		apply = func(st *Settings) { st.Hotkey = strings.TrimSpace(value) }
	default:
		return fmt.Errorf("%w %q", ErrUnknownKey, key)
	}
	return s.Update(apply)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
