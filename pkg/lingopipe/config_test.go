package lingopipe_test

import (
	"testing"
	"time"

	"github.com/lingopipe/lingopipe-sdk-go/pkg/lingopipe"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := lingopipe.NewConfig()

	if cfg.InputSampleRate != 16000 {
		t.Errorf("InputSampleRate = %d, want 16000", cfg.InputSampleRate)
	}
	if cfg.OutputSampleRate != 24000 {
		t.Errorf("OutputSampleRate = %d, want 24000", cfg.OutputSampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("Channels = %d, want 1", cfg.Channels)
	}
	if cfg.BlockSize != 4096 {
		t.Errorf("BlockSize = %d, want 4096", cfg.BlockSize)
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay = %v, want 2s", cfg.ReconnectDelay)
	}
	if cfg.SpeakingThreshold != 0.02 {
		t.Errorf("SpeakingThreshold = %v, want 0.02", cfg.SpeakingThreshold)
	}
	if cfg.BargeInThreshold != 0.08 {
		t.Errorf("BargeInThreshold = %v, want 0.08", cfg.BargeInThreshold)
	}
	if cfg.SilenceHang != 500*time.Millisecond {
		t.Errorf("SilenceHang = %v, want 500ms", cfg.SilenceHang)
	}
	if cfg.PlaybackCooldown != 500*time.Millisecond {
		t.Errorf("PlaybackCooldown = %v, want 500ms", cfg.PlaybackCooldown)
	}

	if issues := cfg.Validate(); len(issues) > 0 {
		t.Errorf("default config does not validate: %v", issues)
	}
}

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("LINGOPIPE_WS_ENDPOINT", "wss://translate.example.com/ws")
	t.Setenv("LINGOPIPE_SOURCE_LANG", "de")
	t.Setenv("LINGOPIPE_RECONNECT_DELAY", "5s")
	t.Setenv("LINGOPIPE_SPEAKING_THRESHOLD", "0.03")
	t.Setenv("LINGOPIPE_BLOCK_SIZE", "2048")
	t.Setenv("LINGOPIPE_INPUT_DEVICE_ID", "3")
	t.Setenv("LINGOPIPE_DENOISE", "false")

	cfg := lingopipe.NewConfig()

	if cfg.WSEndpoint != "wss://translate.example.com/ws" {
		t.Errorf("WSEndpoint = %q", cfg.WSEndpoint)
	}
	if cfg.SourceLang != "de" {
		t.Errorf("SourceLang = %q, want de", cfg.SourceLang)
	}
	if cfg.ReconnectDelay != 5*time.Second {
		t.Errorf("ReconnectDelay = %v, want 5s", cfg.ReconnectDelay)
	}
	if cfg.SpeakingThreshold != 0.03 {
		t.Errorf("SpeakingThreshold = %v, want 0.03", cfg.SpeakingThreshold)
	}
	if cfg.BlockSize != 2048 {
		t.Errorf("BlockSize = %d, want 2048", cfg.BlockSize)
	}
	if cfg.InputDeviceID == nil || *cfg.InputDeviceID != 3 {
		t.Errorf("InputDeviceID = %v, want 3", cfg.InputDeviceID)
	}
	if cfg.Denoise {
		t.Error("Denoise should be off when LINGOPIPE_DENOISE=false")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*lingopipe.Config)
	}{
		{"bad ws endpoint", func(c *lingopipe.Config) { c.WSEndpoint = "tcp://nope" }},
		{"bad api url", func(c *lingopipe.Config) { c.APIBaseURL = "ftp://nope" }},
		{"zero sample rate", func(c *lingopipe.Config) { c.InputSampleRate = 0 }},
		{"zero block size", func(c *lingopipe.Config) { c.BlockSize = 0 }},
		{"threshold above one", func(c *lingopipe.Config) { c.SpeakingThreshold = 1.5 }},
		{"barge-in below speaking", func(c *lingopipe.Config) { c.BargeInThreshold = 0.01 }},
		{"negative cooldown", func(c *lingopipe.Config) { c.PlaybackCooldown = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lingopipe.NewConfig()
			tt.mutate(cfg)
			if issues := cfg.Validate(); len(issues) == 0 {
				t.Error("expected validation issues, got none")
			}
		})
	}
}
