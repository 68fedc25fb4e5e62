package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// replaceFile writes data next to p and renames it over p, as editors do.
func replaceFile(t *testing.T, p, data string) {
	t.Helper()
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatal(err)
	}
}

func TestWatchReloads(t *testing.T) {
	p := filepath.Join(t.TempDir(), "theremo.json")
	if _, err := ReadConfig(p); err != nil {
		t.Fatal(err)
	}
	configs := make(chan *Config)
	errs := make(chan error)
	done := make(chan struct{})
	defer close(done)
	if err := Watch(p, configs, errs, done); err != nil {
		t.Fatal(err)
	}

	changed := strings.Replace(defaultConfig, `"awsedftgyhujk"`, `"zsxdcvgbhnjm,"`, 1)
	replaceFile(t, p, changed)
	timeout := time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case c := <-configs:
			got = c.Keys == "zsxdcvgbhnjm,"
		case <-errs:
		case <-timeout:
			t.Fatal("no reload seen")
		}
	}

	broken := strings.Replace(defaultConfig, `"C5": 523.25`, `"C6": 1046.50`, 1)
	replaceFile(t, p, broken)
	for got := false; !got; {
		select {
		case <-configs:
		case err := <-errs:
			got = strings.Contains(err.Error(), "no frequency")
		case <-timeout:
			t.Fatal("invalid config not reported")
		}
	}
}

func TestWatchMissingDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing", "theremo.json")
	done := make(chan struct{})
	defer close(done)
	if err := Watch(p, make(chan *Config), make(chan error), done); err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}

func TestWatchIgnoresAudioSettings(t *testing.T) {
	p := filepath.Join(t.TempDir(), "theremo.json")
	// valid only with a -backend override
	conf := strings.Replace(defaultConfig, `"format": "float32"`, `"format": "int32"`, 1)
	conf = strings.Replace(conf, `"backend": "portaudio"`, `"backend": "oto"`, 1)
	if err := os.WriteFile(p, []byte(conf), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := ReadConfig(p)
	if err != nil {
		t.Fatal(err)
	}
	c.Audio.Backend = "null"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected config valid with null backend: %v", err)
	}

	configs := make(chan *Config)
	errs := make(chan error)
	done := make(chan struct{})
	defer close(done)
	if err := Watch(p, configs, errs, done); err != nil {
		t.Fatal(err)
	}
	replaceFile(t, p, strings.Replace(conf, `"awsedftgyhujk"`, `"zsxdcvgbhnjm,"`, 1))
	timeout := time.After(5 * time.Second)
	for got := false; !got; {
		select {
		case c := <-configs:
			got = c.Keys == "zsxdcvgbhnjm,"
		case err := <-errs:
			t.Fatalf("reload rejected: %v", err)
		case <-timeout:
			t.Fatal("no reload seen")
		}
	}
}
