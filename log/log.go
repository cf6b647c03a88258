package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: DICTATE_LOG_PATH environment variable
	if envPath := os.Getenv("DICTATE_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	if transcribeFile == nil {
		return
	}
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(model, encodings, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", model).
		Str("encodings", encodings).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}

// Transition records one state machine step of a dictation cycle.
func Transition(cycle, from, to string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("cycle", cycle).
		Str("from", from).
		Str("to", to).
		Msg("transition")
}

type CaptureStats struct {
	Format     string
	Bytes      int
	Frames     uint64
	AudioS     float64
	RecordedMs float64
	EncodeMs   float64
}

func Capture(cycle string, s CaptureStats) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("cycle", cycle).
		Str("format", s.Format).
		Int("bytes", s.Bytes).
		Uint64("frames", s.Frames).
		Float64("audio_s", s.AudioS).
		Float64("recorded_ms", s.RecordedMs).
		Float64("encode_ms", s.EncodeMs).
		Msg("capture")
}

type TranscriptionStats struct {
	Model       string
	Chars       int
	DNSTimeMs   float64
	TLSTimeMs   float64
	TTFBMs      float64
	TotalTimeMs float64
	NetworkMs   float64
	ConnReused  bool
	TLSProtocol string
	RateLimit   string
}

func Transcription(cycle string, s TranscriptionStats) {
	if !logReady {
		return
	}
	connStatus := "new"
	if s.ConnReused {
		connStatus = "reused"
	}
	ev := diagLog.Info().
		Str("cycle", cycle).
		Str("model", s.Model).
		Str("conn", connStatus)
	if s.TLSProtocol != "" {
		ev = ev.Str("tls_proto", s.TLSProtocol)
	}
	if s.RateLimit != "" {
		ev = ev.Str("rate_limit", s.RateLimit)
	}
	ev.Int("chars", s.Chars).
		Float64("dns_ms", s.DNSTimeMs).
		Float64("tls_ms", s.TLSTimeMs).
		Float64("ttfb_ms", s.TTFBMs).
		Float64("total_ms", s.TotalTimeMs).
		Float64("network_ms", s.NetworkMs).
		Msg("transcription")
}

func Insertion(cycle, target, element string, runes int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("cycle", cycle).
		Str("target", target).
		Str("element", element).
		Int("runes", runes).
		Msg("insertion")
}

// Failure records the error that ended a cycle early.
func Failure(cycle, step string, err error) {
	if !logReady {
		return
	}
	diagLog.Error().
		Str("cycle", cycle).
		Str("step", step).
		Err(err).
		Msg("cycle_failed")
}
