package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	os.Exit(run())
}

// run returns the exit code so deferred cleanup, the terminal restore
// above all, happens before the process exits.
func run() int {
	configFile := flag.String("config", "", "Path to config, created with defaults if not found. Use .yaml/.yml for YAML.")
	backend := flag.String("backend", "", "Audio backend overriding the config: portaudio, oto or null.")
	debug := flag.Bool("debug", false, "Log every key press.")
	flag.Parse()
	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		return 2
	}
	log := newLogger(os.Stderr, *debug)

	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Error("can't read config", "path", *configFile, "err", err)
		return 1
	}
	if *backend != "" {
		config.Audio.Backend = *backend
	}
	if err := config.Validate(); err != nil {
		log.Error("invalid config", "path", *configFile, "err", err)
		return 1
	}
	mapping, err := config.Mapping()
	if err != nil {
		log.Error("invalid config", "path", *configFile, "err", err)
		return 1
	}
	var current atomic.Pointer[Mapping]
	current.Store(mapping)

	factory := sinks[config.Audio.Backend]
	sampleRate, err := factory.sampleRate(config.Audio)
	if err != nil {
		log.Error("can't determine sample rate", "err", err)
		return 1
	}
	wave, err := NewSine(config.InitialFrequency, sampleRate)
	if err != nil {
		log.Error("can't create oscillator", "sampleRate", sampleRate, "err", err)
		return 1
	}
	control := &Control{}
	errs := make(chan error, 16)
	renderer, err := NewRenderer(wave, control, config.Audio.Channels, errs)
	if err != nil {
		log.Error("can't create renderer", "err", err)
		return 1
	}
	sink, err := factory.open(config.Audio, sampleRate, renderer)
	if err != nil {
		log.Error("can't open audio", "backend", config.Audio.Backend, "err", err)
		return 1
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Warn("can't close audio", "err", err)
		}
	}()
	if err := sink.Start(); err != nil {
		log.Error("can't start audio", "backend", config.Audio.Backend, "err", err)
		return 1
	}

	done := make(chan struct{})
	defer close(done)
	configs := make(chan *Config)
	if config.WatchConfig {
		err := Watch(*configFile, configs, errs, done)
		if err != nil {
			log.Error("can't start watcher", "err", err)
			return 1
		}
	}

	restore, raw, err := rawTerminal(os.Stdin)
	if err != nil {
		log.Error("can't prepare terminal", "err", err)
		return 1
	}
	defer restore()
	if raw {
		log = newLogger(crlfWriter{os.Stderr}, *debug)
	}
	log.Info("playing",
		"backend", config.Audio.Backend,
		"sampleRate", sampleRate,
		"channels", config.Audio.Channels,
		"format", config.Audio.Format,
		"keys", mapping.Keymap.Len(),
	)

	inputErrs := make(chan error, 1)
	go func() {
		inputErrs <- capture(done, os.Stdin, &current, control, log)
		control.Close()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case c := <-configs:
			if *backend != "" {
				c.Audio.Backend = *backend
			}
			m, err := c.Mapping()
			if err != nil {
				log.Warn("config reload rejected", "err", err)
				continue
			}
			current.Store(m)
			if c.StaticConfig != config.StaticConfig {
				log.Warn("audio settings changed, restart to apply")
			}
			log.Info("config reloaded", "keys", m.Keymap.Len())
		case err := <-errs:
			log.Warn("audio", "err", err)
		case err := <-inputErrs:
			return inputDone(log, renderer, control, err)
		case <-renderer.Disconnected():
			return inputDone(log, renderer, control, <-inputErrs)
		case <-signals:
			log.Info("exiting")
			return 0
		}
	}
}

// inputDone decides the exit code once keyboard capture has ended. Only an
// explicit quit is a clean exit; without input there is nothing to play.
func inputDone(log *slog.Logger, r *Renderer, c *Control, err error) int {
	log.Debug("input ended",
		"retargets", r.Applied(),
		"coalesced", c.Coalesced(),
		"skipped", r.Skipped(),
	)
	if errors.Is(err, errQuit) {
		log.Info("exiting")
		return 0
	}
	if err == nil {
		err = ErrClosed
	}
	log.Error("input disconnected", "err", err)
	return 1
}
