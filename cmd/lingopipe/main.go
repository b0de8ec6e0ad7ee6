package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lingopipe/lingopipe-sdk-go/pkg/lingopipe"
)

var (
	verbose    bool
	apiKey     string
	endpoint   string
	sourceLang string
	targetLang string
	voiceType  string
	deviceID   = -1
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lingopipe",
		Short: "LingoPipe SDK Go CLI",
		Long:  "A command-line interface for real-time speech translation with the LingoPipe SDK",
	}

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "WebSocket endpoint URL")
	rootCmd.PersistentFlags().StringVar(&sourceLang, "source", "", "Source language code")
	rootCmd.PersistentFlags().StringVar(&targetLang, "target", "", "Target language code")

	// Add subcommands
	rootCmd.AddCommand(liveCmd())
	rootCmd.AddCommand(pttCmd())
	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		lingopipe.GetGlobalLogger().WithError(err).Fatal("CLI execution failed")
	}
}

// buildConfig assembles the SDK config from env plus CLI flag overrides.
func buildConfig() *lingopipe.Config {
	cfg := lingopipe.NewConfig()
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	if endpoint != "" {
		cfg.WSEndpoint = endpoint
	}
	if sourceLang != "" {
		cfg.SourceLang = sourceLang
	}
	if targetLang != "" {
		cfg.TargetLang = targetLang
	}
	if voiceType != "" {
		cfg.VoiceType = voiceType
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.DebugWebsocket = true
	}
	if deviceID >= 0 {
		id := deviceID
		cfg.InputDeviceID = &id
	}
	return cfg
}

func attachPrinters(client *lingopipe.Client) {
	client.OnPartial(func(original, translation string) {
		if original != "" {
			fmt.Printf("\r... %s", original)
		}
		if translation != "" {
			fmt.Printf("  =>  %s", translation)
		}
	})
	client.OnSegment(func(seg lingopipe.TranscriptSegment) {
		fmt.Printf("\r[%d] %s\n    %s\n", seg.Index, seg.OriginalText, seg.TranslatedText)
	})
	client.OnStatus(func(status lingopipe.ProcessingStatus) {
		if verbose {
			fmt.Printf("\n-- status: %s\n", status)
		}
	})
	client.OnError(func(err *lingopipe.Error) {
		fmt.Printf("\n!! %s\n", err.Message)
	})
	client.OnConnection(func(state lingopipe.ConnectionState) {
		if verbose {
			fmt.Printf("\n-- connection: %s\n", state)
		}
	})
}

func liveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run a continuous live translation session",
		Long:  "Capture the microphone continuously and stream translations until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()

			client, err := lingopipe.NewClient(cfg)
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("client initialization failed")
			}
			defer client.Cleanup()

			attachPrinters(client)

			ctx := context.Background()
			sessionID, err := client.StartSession(ctx, lingopipe.SessionConfig{
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				VoiceType:  cfg.VoiceType,
				Mode:       lingopipe.ModeRealtime,
			})
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to start session")
			}

			fmt.Printf("Session %s started (%s -> %s). Press Ctrl-C to stop.\n",
				sessionID, cfg.SourceLang, cfg.TargetLang)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			fmt.Println("\nStopping session...")
			endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.EndSession(endCtx); err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("session did not end cleanly")
			}

			stats := client.CaptureStats()
			fmt.Printf("\n=== Session Statistics ===\n")
			fmt.Printf("Duration: %v\n", stats.Duration)
			fmt.Printf("Blocks: %d\n", stats.Blocks)
			fmt.Printf("Average Amplitude: %.4f\n", stats.AverageAmplitude)
			fmt.Printf("Max Amplitude: %.4f\n", stats.MaxAmplitude)
			fmt.Printf("Voice Activity: %.1f%%\n", stats.VoiceActivityRatio*100)
			fmt.Printf("Segments: %d\n", len(client.Segments()))
		},
	}

	cmd.Flags().StringVar(&voiceType, "voice", "", "Synthesis voice type")
	cmd.Flags().IntVar(&deviceID, "device", -1, "Input device ID (-1 for default)")
	return cmd
}

func pttCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ptt",
		Short: "Run a push-to-talk translation session",
		Long:  "Stream the microphone only while the talk key is held: press Enter to toggle, 'q' to quit",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()

			client, err := lingopipe.NewClient(cfg)
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("client initialization failed")
			}
			defer client.Cleanup()

			attachPrinters(client)

			ctx := context.Background()
			sessionID, err := client.StartSession(ctx, lingopipe.SessionConfig{
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				VoiceType:  cfg.VoiceType,
				Mode:       lingopipe.ModePushToTalk,
			})
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to start session")
			}

			fmt.Printf("Session %s started in push-to-talk mode.\n", sessionID)
			fmt.Println("Press Enter to start/stop talking, 'q' + Enter to quit.")

			ptt := client.PushToTalk()
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if scanner.Text() == "q" {
					break
				}
				if ptt.Pressed() {
					ptt.PressEnd()
					fmt.Println("-- released")
				} else {
					if err := ptt.PressStart(); err != nil {
						fmt.Printf("!! %v\n", err)
						continue
					}
					fmt.Println("-- talking")
				}
			}

			if ptt.Pressed() {
				ptt.PressEnd()
			}

			endCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := client.EndSession(endCtx); err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("session did not end cleanly")
			}
		},
	}

	cmd.Flags().StringVar(&voiceType, "voice", "", "Synthesis voice type")
	cmd.Flags().IntVar(&deviceID, "device", -1, "Input device ID (-1 for default)")
	return cmd
}

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Audio device management",
		Long:  "Commands for managing and listing audio devices",
	}

	cmd.AddCommand(devicesListCmd())
	return cmd
}

func devicesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Long:  "List all available audio input and output devices",
		Run: func(cmd *cobra.Command, args []string) {
			adm := lingopipe.NewAudioDeviceManager()
			if err := adm.Initialize(); err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("failed to list audio devices")
				fmt.Printf("Error listing devices: %v\n", err)
				return
			}
			defer adm.Cleanup()

			fmt.Println("Available Audio Devices:")
			for _, device := range adm.GetDevices() {
				marker := ""
				if device.IsDefault {
					marker = " (Default)"
				}

				capabilities := ""
				if device.IsInput && device.IsOutput {
					capabilities = "Input/Output"
				} else if device.IsInput {
					capabilities = "Input"
				} else if device.IsOutput {
					capabilities = "Output"
				}

				fmt.Printf("  %d: %s%s - %s (%.0f Hz)\n",
					device.ID, device.Name, marker, capabilities, device.DefaultSampleRate)
			}

			inputs := adm.GetInputDevices()
			if len(inputs) > 0 {
				fmt.Println("\nInput Devices:")
				for _, device := range inputs {
					marker := ""
					if device.IsDefault {
						marker = " (Default)"
					}
					fmt.Printf("  %d: %s%s - %d channels\n",
						device.ID, device.Name, marker, device.MaxInputChannels)
				}
			}
		},
	}

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session management",
		Long:  "Commands for listing and inspecting translation sessions",
	}

	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	cmd.AddCommand(sessionsCreateCmd())
	return cmd
}

func sessionsCreateCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session record",
		Long:  "Create a session record without opening a realtime connection",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()
			api := lingopipe.NewAPIClient(cfg.APIBaseURL, cfg.APIKey)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			session, err := api.CreateSession(ctx, lingopipe.SessionConfig{
				SourceLang: cfg.SourceLang,
				TargetLang: cfg.TargetLang,
				VoiceType:  cfg.VoiceType,
				Mode:       lingopipe.TranslationMode(mode),
			})
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to create session")
			}

			fmt.Printf("Created session %s (%s -> %s)\n", session.ID, session.SourceLang, session.TargetLang)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(lingopipe.ModeRealtime), "Translation mode (realtime or push-to-talk)")
	return cmd
}

func sessionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List translation sessions",
		Long:  "List all translation sessions known to the LingoPipe API",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()
			api := lingopipe.NewAPIClient(cfg.APIBaseURL, cfg.APIKey)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			sessions, err := api.ListSessions(ctx)
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to list sessions")
			}

			if len(sessions) == 0 {
				fmt.Println("No sessions found.")
				return
			}

			for _, s := range sessions {
				fmt.Printf("%s  %-10s  %s -> %s  %s  %ds\n",
					s.ID, s.Status, s.SourceLang, s.TargetLang, s.CreatedAt, s.DurationSeconds)
			}
		},
	}

	return cmd
}

func sessionsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a single session",
		Long:  "Show session details and its transcript segments",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()
			api := lingopipe.NewAPIClient(cfg.APIBaseURL, cfg.APIKey)

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			session, err := api.GetSession(ctx, args[0])
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to fetch session")
			}

			fmt.Printf("Session %s\n", session.ID)
			fmt.Printf("  Status:    %s\n", session.Status)
			fmt.Printf("  Languages: %s -> %s\n", session.SourceLang, session.TargetLang)
			fmt.Printf("  Voice:     %s\n", session.VoiceType)
			fmt.Printf("  Mode:      %s\n", session.Mode)
			fmt.Printf("  Duration:  %ds\n", session.DurationSeconds)

			segments, err := api.GetSegments(ctx, session.ID)
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("failed to fetch segments")
				return
			}

			if len(segments) > 0 {
				fmt.Println("\nTranscript:")
				for _, seg := range segments {
					fmt.Printf("  [%d] %s\n      %s\n", seg.Index, seg.OriginalText, seg.TranslatedText)
				}
			}
		},
	}

	return cmd
}

func reviewCmd() *cobra.Command {
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "review [session-id]",
		Short: "Show post-session review material",
		Long:  "Show the lesson summary, vocabulary, and flashcards for a completed session",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := buildConfig()
			api := lingopipe.NewAPIClient(cfg.APIBaseURL, cfg.APIKey)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			var summary *lingopipe.LessonSummary
			var err *lingopipe.Error
			if regenerate {
				summary, err = api.GenerateSummary(ctx, args[0])
			} else {
				summary, err = api.GetSummary(ctx, args[0])
			}
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Fatal("failed to fetch summary")
			}

			fmt.Println("=== Lesson Summary ===")
			fmt.Println(summary.Original)
			fmt.Println()
			fmt.Println(summary.Translated)
			if len(summary.KeyPoints) > 0 {
				fmt.Println("\nKey Points:")
				for _, p := range summary.KeyPoints {
					fmt.Printf("  - %s\n", p)
				}
			}
			fmt.Printf("\n%d segments over %d minutes\n", summary.SegmentCount, summary.DurationMinutes)

			vocab, err := api.GetVocabulary(ctx, args[0])
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("failed to fetch vocabulary")
			} else if len(vocab) > 0 {
				fmt.Println("\n=== Vocabulary ===")
				for _, v := range vocab {
					fmt.Printf("  %s = %s", v.Original, v.Translated)
					if v.Phonetic != "" {
						fmt.Printf(" [%s]", v.Phonetic)
					}
					fmt.Printf(" (%s)\n", v.Difficulty)
				}
			}

			cards, err := api.GetFlashcards(ctx, args[0])
			if err != nil {
				lingopipe.GetGlobalLogger().WithError(err).Error("failed to fetch flashcards")
			} else if len(cards) > 0 {
				fmt.Println("\n=== Flashcards ===")
				for _, c := range cards {
					fmt.Printf("  Q: %s\n  A: %s\n", c.Front, c.Back)
					if c.Example != "" {
						fmt.Printf("     e.g. %s\n", c.Example)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate the summary instead of fetching the stored one")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Long:  "Display the effective configuration from environment and flags",
		Run: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()

			cfg := buildConfig()

			fmt.Println("Current Configuration:")
			fmt.Printf("  API Base URL: %s\n", cfg.APIBaseURL)
			fmt.Printf("  WS Endpoint:  %s\n", cfg.WSEndpoint)
			fmt.Printf("  API Key:      %s\n", maskString(cfg.APIKey))
			fmt.Printf("  Languages:    %s -> %s\n", cfg.SourceLang, cfg.TargetLang)
			fmt.Printf("  Voice:        %s\n", cfg.VoiceType)
			fmt.Printf("  Denoise:      %v\n", cfg.Denoise)

			fmt.Println("\nAudio:")
			fmt.Printf("  Input Sample Rate:  %d Hz\n", cfg.InputSampleRate)
			fmt.Printf("  Output Sample Rate: %d Hz\n", cfg.OutputSampleRate)
			fmt.Printf("  Channels:           %d\n", cfg.Channels)
			fmt.Printf("  Block Size:         %d samples\n", cfg.BlockSize)

			fmt.Println("\nVoice Detection:")
			fmt.Printf("  Speaking Threshold: %.3f\n", cfg.SpeakingThreshold)
			fmt.Printf("  Barge-In Threshold: %.3f\n", cfg.BargeInThreshold)
			fmt.Printf("  Silence Hang:       %v\n", cfg.SilenceHang)
			fmt.Printf("  Playback Cooldown:  %v\n", cfg.PlaybackCooldown)

			fmt.Println("\nTransport:")
			fmt.Printf("  Reconnect Delay:     %v\n", cfg.ReconnectDelay)
			fmt.Printf("  Outbound Queue Size: %d\n", cfg.OutboundQueueSize)

			if warnings := cfg.Validate(); len(warnings) > 0 {
				fmt.Println("\nWarnings:")
				for _, w := range warnings {
					fmt.Printf("  ! %s\n", w)
				}
			}
		},
	}

	return cmd
}

// maskString hides most of a sensitive value
func maskString(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
