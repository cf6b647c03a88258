package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"dictate/audio"
	"dictate/beep"
	"dictate/config"
	"dictate/doctor"
	"dictate/hotkey"
	"dictate/log"
	"dictate/session"
	"dictate/shutdown"
	"dictate/transcriber"
)

var version = "dev"

var shutdownOnce sync.Once

func run() {
	if len(os.Args) > 1 && os.Args[1] == "config" {
		os.Exit(runConfig(os.Args[2:]))
	}

	flags, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(flags.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if flags.Crash {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}
	if flags.Version {
		fmt.Printf("dictate %s\n", version)
		os.Exit(0)
	}

	store, err := openStore(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	settings := store.Current()
	combo, err := hotkey.Parse(settings.Hotkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using %s\n", err, hotkey.Default)
		combo = hotkey.Default
	}

	if flags.TestWAV != "" {
		os.Exit(runHeadless(flags, store))
	}

	backend, err := audio.NewContext()
	if err != nil {
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	if flags.Doctor {
		os.Exit(doctor.Run(doctor.Env{
			Audio:       backend,
			Settings:    settings,
			Transcriber: transcriber.NewOpenAI(),
			Hotkey:      hotkey.New(combo),
			Combo:       combo,
			Record:      flags.Record,
			Confirm:     true,
			In:          os.Stdin,
			Out:         os.Stdout,
		}))
	}

	device, err := resolveDevice(backend, flags, store)
	if err != nil {
		fmt.Printf("Warning: %v\n", err)
		fmt.Println("Falling back to default device")
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	deviceName := "system default"
	if device != nil {
		deviceName = device.Name
	}
	log.SessionStart(settings.Model, strings.Join(settings.Encodings, ","), deviceName)

	ctx, cancel := shutdown.Context(context.Background())
	defer cancel()

	openai := transcriber.NewOpenAI()
	go openai.Warm(settings.Options(""))

	recorder := audio.NewRecorder(backend, audio.RecorderConfig{
		Device:  device,
		Capture: captureConfig(flags.Gain),
	})
	disp := newTUIDisplay()
	a := newApp(ctx, appConfig{
		Capture:     recorder,
		Transcriber: openai,
		Settings:    store,
		Display:     disp,
	})

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Warning: global hotkey unavailable (%v), use ctrl+r inside the window\n", err)
	} else {
		defer hk.Unregister()
		go func() {
			for range hk.Keydown() {
				go a.toggle()
			}
		}()
	}

	go beep.Init()

	p := NewTUIProgram(a, combo.String())
	go disp.forward(p)
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}
	gracefulShutdown(a)
}

func gracefulShutdown(a *app) {
	shutdownOnce.Do(func() {
		if a.ctl.Status() == session.Recording {
			// finish the cycle so the capture device is released
			a.toggle()
		}
		if n := a.ctl.Completed(); n > 0 {
			log.SessionEnd(n)
		}
		log.Close()
	})
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func openStore(flagPath string) (*config.Store, error) {
	path, err := config.ResolvePath(flagPath)
	if err != nil {
		return nil, err
	}
	return config.Open(path)
}

func captureConfig(gain int) audio.CaptureConfig {
	c := audio.DefaultCaptureConfig()
	c.Gain = gain
	return c
}

// resolveDevice picks the input: --setup asks and remembers the answer,
// --device overrides the saved name for this run.
func resolveDevice(backend audio.Context, flags Flags, store *config.Store) (*audio.DeviceInfo, error) {
	if flags.Setup {
		dev, err := audio.SelectDevice(backend)
		if err != nil {
			return nil, err
		}
		if err := store.Set("device", dev.Name); err != nil {
			log.Warnf("saving device: %v", err)
		}
		return dev, nil
	}
	name := flags.Device
	if name == "" {
		name = store.Current().Device
	}
	return audio.FindDevice(backend, name)
}

// runHeadless serves the stdin-driven mode used by the integration tests.
// DICTATE_FAKE_TRANSCRIPT replaces the remote service with a fixed answer.
func runHeadless(flags Flags, store *config.Store) int {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	log.SessionStart(store.Current().Model, strings.Join(store.Current().Encodings, ","), "fake")

	backend, err := audio.LoadFakeContext(flags.TestWAV, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}

	var tr session.Transcriber = transcriber.NewOpenAI()
	if text, ok := os.LookupEnv("DICTATE_FAKE_TRANSCRIPT"); ok {
		tr = transcriber.NewFake(text, nil)
	}

	disp := &lineDisplay{out: os.Stdout}
	a := newApp(context.Background(), appConfig{
		Capture:     audio.NewRecorder(backend, audio.RecorderConfig{Capture: captureConfig(flags.Gain)}),
		Transcriber: tr,
		Settings:    store,
		Display:     disp,
	})
	runTestMode(a, os.Stdin, disp)
	waitIdle(a)
	log.SessionEnd(a.ctl.Completed())
	return 0
}

func runConfig(args []string) int {
	fs := pflag.NewFlagSet("dictate config", pflag.ContinueOnError)
	configPath := fs.String("config", "", "settings file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	args = fs.Args()

	store, err := openStore(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case len(args) == 1 && args[0] == "path":
		fmt.Println(store.Path())
	case len(args) == 1 && args[0] == "keys":
		for _, k := range config.Keys {
			fmt.Println(k)
		}
	case len(args) == 2 && args[0] == "get":
		v, err := store.Get(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(v)
	case len(args) == 3 && args[0] == "set":
		if args[1] == "hotkey" {
			if _, err := hotkey.Parse(args[2]); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return 1
			}
		}
		if err := store.Set(args[1], args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintln(os.Stderr, "Usage: dictate config [--config file] path | keys | get <key> | set <key> <value>")
		return 2
	}
	return 0
}
