// Package lingopipe provides a Go SDK for real-time speech translation
// over the LingoPipe streaming API.
//
// # Overview
//
// The LingoPipe SDK Go provides a complete solution for:
//   - Microphone capture with energy-based voice activity detection
//   - Real-time duplex WebSocket streaming with auto-reconnection
//   - Gapless TTS playback with echo suppression and barge-in
//   - Push-to-talk and continuous translation modes
//   - Session management through the LingoPipe REST API
//   - Structured logging with Zerolog
//
// # Quick Start
//
// Basic usage example:
//
//	config := lingopipe.NewConfig()
//
//	client, err := lingopipe.NewClient(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Cleanup()
//
//	client.OnSegment(func(seg lingopipe.TranscriptSegment) {
//		fmt.Printf("%s -> %s\n", seg.OriginalText, seg.TranslatedText)
//	})
//
//	sessionID, err := client.StartSession(context.Background(), lingopipe.SessionConfig{
//		SourceLang: "en",
//		TargetLang: "es",
//		Mode:       lingopipe.ModeRealtime,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println("session:", sessionID)
//
// # Configuration
//
// Configuration is loaded from LINGOPIPE_* environment variables (a
// .env file is honored when present):
//
//	config := lingopipe.NewConfig()
//	config.SourceLang = "en"
//	config.TargetLang = "fr"
//	config.SpeakingThreshold = 0.02
//
// # Push-to-Talk
//
// In push-to-talk mode the microphone only streams while the talk key
// is held:
//
//	ptt := client.PushToTalk()
//	ptt.PressStart()
//	// ... user speaks ...
//	ptt.PressEnd()
//
// # Audio Device Management
//
// Capture devices can be enumerated and validated before a session:
//
//	adm := lingopipe.NewAudioDeviceManager()
//	if err := adm.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	defer adm.Cleanup()
//	for _, dev := range adm.GetInputDevices() {
//		fmt.Printf("[%d] %s\n", dev.ID, dev.Name)
//	}
package lingopipe
