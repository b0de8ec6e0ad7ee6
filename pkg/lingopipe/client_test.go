package lingopipe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakePlayback struct {
	playing bool
	cleared int
}

func (f *fakePlayback) IsPlaying() bool { return f.playing }
func (f *fakePlayback) ClearAll()       { f.cleared++; f.playing = false }

func sinkFixture(playing bool) (*fakePlayback, *[]string, FrameSink) {
	pb := &fakePlayback{playing: playing}
	det := NewDetector(DetectorConfig{
		SpeakingThreshold: 0.02,
		BargeInThreshold:  0.08,
		SilenceHang:       500 * time.Millisecond,
	})
	var events []string
	sink := continuousSink(pb, det, func(frame []byte) {
		if pb.playing {
			events = append(events, "sent-while-playing")
		} else {
			events = append(events, "sent")
		}
	})
	return pb, &events, sink
}

func constantFrame(level float32, samples int) []byte {
	buf := make([]float32, samples)
	for i := range buf {
		buf[i] = level
	}
	return EncodePCM16(buf)
}

func TestContinuousSinkForwardsWhenIdle(t *testing.T) {
	_, events, sink := sinkFixture(false)

	sink(constantFrame(0.001, 256))
	sink(constantFrame(0.5, 256))

	if len(*events) != 2 {
		t.Errorf("forwarded %d frames, want 2 (no filtering while idle)", len(*events))
	}
}

func TestContinuousSinkDropsEchoDuringPlayback(t *testing.T) {
	pb, events, sink := sinkFixture(true)

	// below the barge-in threshold: acoustic echo, dropped
	sink(constantFrame(0.05, 256))

	if len(*events) != 0 {
		t.Errorf("echo frame was forwarded: %v", *events)
	}
	if pb.cleared != 0 {
		t.Error("echo frame must not clear playback")
	}
}

func TestContinuousSinkBargeInClearsBeforeSend(t *testing.T) {
	pb, events, sink := sinkFixture(true)

	sink(constantFrame(0.5, 256))

	if pb.cleared != 1 {
		t.Fatalf("playback cleared %d times, want 1", pb.cleared)
	}
	if len(*events) != 1 {
		t.Fatalf("forwarded %d frames, want 1", len(*events))
	}
	// ClearAll ran strictly before the frame went out
	if (*events)[0] != "sent" {
		t.Errorf("frame was sent before playback was cleared")
	}
}

func TestAbortStartClosesSessionRecord(t *testing.T) {
	updates := make(chan SessionUpdate, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/api/v1/sessions/sess-9" {
			var update SessionUpdate
			json.NewDecoder(r.Body).Decode(&update)
			updates <- update
			json.NewEncoder(w).Encode(Session{ID: "sess-9", Status: update.Status})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := NewConfig()
	cfg.APIBaseURL = srv.URL
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	client.active = true
	client.abortStart(context.Background(), "sess-9")

	select {
	case update := <-updates:
		if update.Status != SessionCompleted {
			t.Errorf("record marked %s, want %s", update.Status, SessionCompleted)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session record was never updated")
	}

	client.mu.Lock()
	active := client.active
	client.mu.Unlock()
	if active {
		t.Error("client still active after abortStart")
	}
}

func TestContinuousSinkResumesAfterPlayback(t *testing.T) {
	pb, events, sink := sinkFixture(true)

	sink(constantFrame(0.001, 256))
	pb.playing = false
	sink(constantFrame(0.001, 256))

	if len(*events) != 1 {
		t.Errorf("forwarded %d frames, want 1 (only the post-playback frame)", len(*events))
	}
}
