package lingopipe

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable of the SDK. The VAD/barge-in thresholds and
// the reconnect/cooldown timings are deliberately configuration rather than
// constants: the defaults were calibrated on one microphone setup and are
// not universal.
type Config struct {
	APIBaseURL string `json:"api_base_url"`
	WSEndpoint string `json:"ws_endpoint"`
	APIKey     string `json:"api_key,omitempty"`

	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	VoiceType  string `json:"voice_type"`
	Denoise    bool   `json:"denoise"`

	ReconnectDelay    time.Duration `json:"reconnect_delay"`
	SpeakingThreshold float64       `json:"speaking_threshold"`
	BargeInThreshold  float64       `json:"barge_in_threshold"`
	SilenceHang       time.Duration `json:"silence_hang"`
	PlaybackCooldown  time.Duration `json:"playback_cooldown"`

	InputSampleRate   int  `json:"input_sample_rate"`
	OutputSampleRate  int  `json:"output_sample_rate"`
	Channels          int  `json:"channels"`
	BlockSize         int  `json:"block_size"`
	OutboundQueueSize int  `json:"outbound_queue_size"`
	InputDeviceID     *int `json:"input_device_id,omitempty"`

	LogLevel       string `json:"log_level"`
	DebugWebsocket bool   `json:"debug_websocket"`
	DebugAudio     bool   `json:"debug_audio"`
}

// NewConfig returns a Config with defaults, overridden by environment
// variables (a .env file is loaded if present).
func NewConfig() *Config {
	c := &Config{
		APIBaseURL:        "http://localhost:8080",
		WSEndpoint:        "ws://localhost:8080/ws/translate",
		SourceLang:        "en",
		TargetLang:        "th",
		VoiceType:         "adult_female",
		Denoise:           true,
		ReconnectDelay:    2 * time.Second,
		SpeakingThreshold: 0.02,
		BargeInThreshold:  0.08,
		SilenceHang:       500 * time.Millisecond,
		PlaybackCooldown:  500 * time.Millisecond,
		InputSampleRate:   16000,
		OutputSampleRate:  24000,
		Channels:          1,
		BlockSize:         4096,
		OutboundQueueSize: 32,
		LogLevel:          "info",
	}

	c.loadFromEnv()

	return c
}

func (c *Config) loadFromEnv() {
	// Load .env if exists
	_ = godotenv.Load()

	if v := os.Getenv("LINGOPIPE_API_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("LINGOPIPE_WS_ENDPOINT"); v != "" {
		c.WSEndpoint = v
	}
	if v := os.Getenv("LINGOPIPE_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("LINGOPIPE_SOURCE_LANG"); v != "" {
		c.SourceLang = v
	}
	if v := os.Getenv("LINGOPIPE_TARGET_LANG"); v != "" {
		c.TargetLang = v
	}
	if v := os.Getenv("LINGOPIPE_VOICE_TYPE"); v != "" {
		c.VoiceType = v
	}
	if v := os.Getenv("LINGOPIPE_DENOISE"); v != "" {
		c.Denoise = v != "false"
	}

	c.ReconnectDelay = envDuration("LINGOPIPE_RECONNECT_DELAY", c.ReconnectDelay)
	c.SilenceHang = envDuration("LINGOPIPE_SILENCE_HANG", c.SilenceHang)
	c.PlaybackCooldown = envDuration("LINGOPIPE_PLAYBACK_COOLDOWN", c.PlaybackCooldown)
	c.SpeakingThreshold = envFloat("LINGOPIPE_SPEAKING_THRESHOLD", c.SpeakingThreshold)
	c.BargeInThreshold = envFloat("LINGOPIPE_BARGE_IN_THRESHOLD", c.BargeInThreshold)
	c.InputSampleRate = envInt("LINGOPIPE_INPUT_SAMPLE_RATE", c.InputSampleRate)
	c.OutputSampleRate = envInt("LINGOPIPE_OUTPUT_SAMPLE_RATE", c.OutputSampleRate)
	c.BlockSize = envInt("LINGOPIPE_BLOCK_SIZE", c.BlockSize)
	c.OutboundQueueSize = envInt("LINGOPIPE_OUTBOUND_QUEUE_SIZE", c.OutboundQueueSize)

	if v := os.Getenv("LINGOPIPE_INPUT_DEVICE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.InputDeviceID = &id
		}
	}

	if v := os.Getenv("LINGOPIPE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	c.DebugWebsocket = os.Getenv("LINGOPIPE_DEBUG_WEBSOCKET") == "true"
	c.DebugAudio = os.Getenv("LINGOPIPE_DEBUG_AUDIO") == "true"
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Validate returns list of issues
func (c *Config) Validate() []string {
	issues := []string{}

	if !strings.HasPrefix(c.WSEndpoint, "ws") {
		issues = append(issues, "Invalid WebSocket endpoint format")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http") {
		issues = append(issues, "Invalid API base URL format")
	}
	if c.InputSampleRate <= 0 || c.OutputSampleRate <= 0 {
		issues = append(issues, "Sample rates must be positive")
	}
	if c.Channels <= 0 {
		issues = append(issues, "Channel count must be positive")
	}
	if c.BlockSize <= 0 {
		issues = append(issues, "Block size must be positive")
	}
	if c.OutboundQueueSize <= 0 {
		issues = append(issues, "Outbound queue size must be positive")
	}
	if c.SpeakingThreshold < 0 || c.SpeakingThreshold > 1 {
		issues = append(issues, fmt.Sprintf("Speaking threshold out of range: %v", c.SpeakingThreshold))
	}
	if c.BargeInThreshold < 0 || c.BargeInThreshold > 1 {
		issues = append(issues, fmt.Sprintf("Barge-in threshold out of range: %v", c.BargeInThreshold))
	}
	if c.BargeInThreshold < c.SpeakingThreshold {
		issues = append(issues, "Barge-in threshold must not be below the speaking threshold")
	}
	if c.ReconnectDelay < 0 || c.SilenceHang < 0 || c.PlaybackCooldown < 0 {
		issues = append(issues, "Timing values must not be negative")
	}

	return issues
}

// PrintConfig writes a human-readable dump of the configuration.
func (c *Config) PrintConfig() {
	fmt.Println("lingopipe SDK configuration")
	fmt.Println("==================================================")
	fmt.Printf("API Base URL: %s\n", c.APIBaseURL)
	fmt.Printf("WebSocket Endpoint: %s\n", c.WSEndpoint)
	if c.APIKey != "" {
		fmt.Printf("API Key: %s...\n", c.APIKey[:min(len(c.APIKey), 8)])
	} else {
		fmt.Println("API Key: NOT SET")
	}
	fmt.Printf("Languages: %s -> %s (voice %s, denoise %t)\n", c.SourceLang, c.TargetLang, c.VoiceType, c.Denoise)
	fmt.Printf("Reconnect Delay: %s\n", c.ReconnectDelay)
	fmt.Printf("Speaking Threshold: %.3f\n", c.SpeakingThreshold)
	fmt.Printf("Barge-in Threshold: %.3f\n", c.BargeInThreshold)
	fmt.Printf("Silence Hang: %s\n", c.SilenceHang)
	fmt.Printf("Playback Cooldown: %s\n", c.PlaybackCooldown)
	fmt.Printf("Audio In: PCM16 mono %d Hz, %d-sample blocks\n", c.InputSampleRate, c.BlockSize)
	fmt.Printf("Audio Out: PCM16 mono %d Hz\n", c.OutputSampleRate)
	if c.InputDeviceID != nil {
		fmt.Printf("Input Device ID: %d\n", *c.InputDeviceID)
	} else {
		fmt.Println("Input Device: Default")
	}
	fmt.Printf("Log Level: %s\n", c.LogLevel)
}
