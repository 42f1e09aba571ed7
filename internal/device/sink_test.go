package device

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lumina-io/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-io/lumina-core/internal/light"
)

// mockPublisher captures published messages.
type mockPublisher struct {
	mu        sync.Mutex
	published []publishedMsg
	failFor   map[string]bool
}

type publishedMsg struct {
	topic   string
	payload []byte
	qos     byte
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[topic] {
		return errors.New("publish failed")
	}
	m.published = append(m.published, publishedMsg{topic: topic, payload: payload, qos: qos})
	return nil
}

func (m *mockPublisher) IsConnected() bool { return true }

func testConfig() light.Config {
	return light.Config{
		Power:      true,
		Brightness: 180,
		Segments: []light.Segment{
			{Colors: []string{"#FF0000"}, EffectID: light.EffectBreathe, Speed: 100, Intensity: 128},
		},
	}
}

func seedControllers(t *testing.T, repo Repository, ids ...string) {
	t.Helper()
	for _, id := range ids {
		c := &Controller{ID: id, Name: id, ProfileID: "profile-1"}
		if err := repo.Create(context.Background(), c); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
}

func TestSinkAppliesToAllControllers(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	seedControllers(t, repo, "ctrl-a", "ctrl-b")
	pub := &mockPublisher{}
	sink := NewSink(pub, repo, nil)

	if err := sink.Apply(context.Background(), "profile-1", testConfig()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.published))
	}

	topics := map[string]bool{}
	for _, msg := range pub.published {
		topics[msg.topic] = true
		if msg.qos != 1 {
			t.Errorf("qos = %d, want 1", msg.qos)
		}
		if !strings.HasPrefix(msg.topic, "lumina/") || !strings.HasSuffix(msg.topic, "/command") {
			t.Errorf("unexpected topic %q", msg.topic)
		}

		var state struct {
			On         bool `json:"on"`
			Brightness int  `json:"bri"`
		}
		if err := json.Unmarshal(msg.payload, &state); err != nil {
			t.Fatalf("payload not valid JSON: %v", err)
		}
		if !state.On || state.Brightness != 180 {
			t.Errorf("payload state = %+v", state)
		}
	}
	if !topics["lumina/ctrl-a/command"] || !topics["lumina/ctrl-b/command"] {
		t.Errorf("topics = %v", topics)
	}
}

func TestSinkNoControllers(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	sink := NewSink(&mockPublisher{}, repo, nil)

	err := sink.Apply(context.Background(), "empty-profile", testConfig())
	if !errors.Is(err, ErrNoControllers) {
		t.Errorf("Apply() error = %v, want ErrNoControllers", err)
	}
}

func TestSinkPartialFailure(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	seedControllers(t, repo, "ctrl-a", "ctrl-b")
	pub := &mockPublisher{failFor: map[string]bool{"lumina/ctrl-a/command": true}}
	sink := NewSink(pub, repo, nil)

	err := sink.Apply(context.Background(), "profile-1", testConfig())
	if err == nil {
		t.Fatal("Apply() error = nil, want partial failure error")
	}
	// The healthy controller still received its command.
	if len(pub.published) != 1 || pub.published[0].topic != "lumina/ctrl-b/command" {
		t.Errorf("published = %+v, want one message for ctrl-b", pub.published)
	}
}

func TestStatusTracker(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	seedControllers(t, repo, "ctrl-a")
	tracker := NewStatusTracker(repo, nil)

	if err := tracker.HandleStatus("lumina/ctrl-a/status", []byte(`{"online":true}`)); err != nil {
		t.Fatalf("HandleStatus() error = %v", err)
	}

	got, err := repo.GetByID(context.Background(), "ctrl-a")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Online {
		t.Error("Online = false after online status")
	}

	// Legacy bare-string payloads still mark presence.
	if err := tracker.HandleStatus("lumina/ctrl-a/status", []byte("offline")); err != nil {
		t.Fatalf("HandleStatus() error = %v", err)
	}
	got, _ = repo.GetByID(context.Background(), "ctrl-a")
	if got.Online {
		t.Error("Online = true after offline status")
	}
}

func TestStatusTrackerUnknownController(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	tracker := NewStatusTracker(repo, nil)

	// Unknown controllers are ignored, not errors.
	if err := tracker.HandleStatus("lumina/ghost/status", []byte(`{"online":true}`)); err != nil {
		t.Errorf("HandleStatus() error = %v, want nil for unknown controller", err)
	}
}

func TestStatusTrackerRejectsMalformedTopic(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	tracker := NewStatusTracker(repo, nil)

	for _, topic := range []string{"lumina/ctrl-a/command", "lumina//status", "other/ctrl-a/status"} {
		err := tracker.HandleStatus(topic, []byte(`{"online":true}`))
		if !errors.Is(err, mqtt.ErrBadStatusTopic) {
			t.Errorf("HandleStatus(%q) error = %v, want ErrBadStatusTopic", topic, err)
		}
	}
}
