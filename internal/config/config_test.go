package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athernet.yaml")
	if err := os.WriteFile(path, []byte("link:\n  address: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Link.Address != 7 {
		t.Fatalf("link.address = %d, want 7", cfg.Link.Address)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Fatalf("default sample rate = %d, want 48000", cfg.Audio.SampleRate)
	}
	if cfg.Link.AckTimeoutMS != 150 {
		t.Fatalf("default ack timeout = %d, want 150", cfg.Link.AckTimeoutMS)
	}
	if cfg.Transport.SegmentLen != 256 {
		t.Fatalf("default segment len = %d, want 256", cfg.Transport.SegmentLen)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "athernet.yaml")
	yamlBody := "audio:\n  sample_rate: 44100\ntransport:\n  segment_len: 128\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Fatalf("sample rate = %d, want 44100", cfg.Audio.SampleRate)
	}
	if cfg.Transport.SegmentLen != 128 {
		t.Fatalf("segment len = %d, want 128", cfg.Transport.SegmentLen)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/athernet.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
