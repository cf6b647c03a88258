package main

import (
	"time"

	"github.com/spf13/pflag"
)

type Flags struct {
	LogPath    string
	ConfigPath string
	Device     string
	Setup      bool
	Gain       int
	Doctor     bool
	Record     time.Duration
	TestWAV    string
	Version    bool
	Crash      bool
	Args       []string
}

func parseFlags(args []string) (Flags, error) {
	fs := pflag.NewFlagSet("dictate", pflag.ContinueOnError)
	logPath := fs.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	configPath := fs.String("config", "", "settings file (default: $DICTATE_CONFIG or the user config directory)")
	device := fs.String("device", "", "use the microphone whose name contains this text")
	setup := fs.Bool("setup", false, "pick the microphone interactively and remember it")
	gain := fs.Int("gain", 1, "integer input gain applied to captured samples")
	doctor := fs.Bool("doctor", false, "run system diagnostics and exit")
	record := fs.Duration("record", 3*time.Second, "how long the doctor records for")
	testWAV := fs.String("test", "", "headless stdin-driven mode, capturing from this WAV file")
	version := fs.Bool("version", false, "print version and exit")
	crash := fs.Bool("crash", false, "trigger a synthetic panic to test crash logging")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return Flags{
		LogPath:    *logPath,
		ConfigPath: *configPath,
		Device:     *device,
		Setup:      *setup,
		Gain:       max(*gain, 1),
		Doctor:     *doctor,
		Record:     *record,
		TestWAV:    *testWAV,
		Version:    *version,
		Crash:      *crash,
		Args:       fs.Args(),
	}, nil
}
