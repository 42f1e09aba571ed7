package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lumina-io/lumina-core/internal/infrastructure/mqtt"
	"github.com/lumina-io/lumina-core/internal/light"
)

// ErrNoControllers indicates a profile with no assigned controllers.
var ErrNoControllers = errors.New("device: no controllers assigned")

// commandQoS: commands must arrive at least once; duplicate state sets are
// harmless because WLED state is absolute, not incremental.
const commandQoS = 1

// Publisher is the MQTT capability the sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Logger is the minimal logging interface the sink needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink applies lighting configurations to a profile's controllers over MQTT.
type Sink struct {
	publisher Publisher
	repo      Repository
	logger    Logger
}

// NewSink creates a device sink.
func NewSink(publisher Publisher, repo Repository, logger Logger) *Sink {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sink{publisher: publisher, repo: repo, logger: logger}
}

// Apply publishes the configuration to every controller assigned to the
// profile. Partial failure is an error, but delivery to the remaining
// controllers is still attempted first.
func (s *Sink) Apply(ctx context.Context, profileID string, cfg light.Config) error {
	controllers, err := s.repo.ListByProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("listing controllers: %w", err)
	}
	if len(controllers) == 0 {
		return ErrNoControllers
	}

	payload, err := cfg.MarshalWLED()
	if err != nil {
		return fmt.Errorf("encoding command payload: %w", err)
	}

	var failed int
	for _, c := range controllers {
		topic := mqtt.Topics{}.DeviceCommand(c.ID)
		if err := s.publisher.Publish(topic, payload, commandQoS, false); err != nil {
			failed++
			s.logger.Error("command publish failed",
				"controller_id", c.ID, "topic", topic, "error", err)
			continue
		}
		s.logger.Info("configuration applied",
			"controller_id", c.ID, "brightness", cfg.Brightness)
	}

	if failed > 0 {
		return fmt.Errorf("device: apply failed for %d of %d controllers", failed, len(controllers))
	}
	return nil
}

// statusPayload is the presence message controllers publish.
type statusPayload struct {
	Online bool   `json:"online"`
	State  string `json:"state,omitempty"`
}

// StatusTracker consumes controller presence messages and keeps the
// registry's online flags current.
type StatusTracker struct {
	repo   Repository
	logger Logger
}

// NewStatusTracker creates a tracker over the controller registry.
func NewStatusTracker(repo Repository, logger Logger) *StatusTracker {
	if logger == nil {
		logger = noopLogger{}
	}
	return &StatusTracker{repo: repo, logger: logger}
}

// HandleStatus processes one message from lumina/{deviceId}/status. Unknown
// controllers are ignored; they may still be commissioning.
func (t *StatusTracker) HandleStatus(topic string, payload []byte) error {
	id, err := mqtt.DeviceIDFromStatusTopic(topic)
	if err != nil {
		return err
	}

	var status statusPayload
	if err := json.Unmarshal(payload, &status); err != nil {
		// Bare "online"/"offline" strings predate the JSON payload.
		status.Online = string(payload) == "online"
	}

	err = t.repo.SetOnline(context.Background(), id, status.Online, time.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		t.logger.Error("status update failed", "controller_id", id, "error", err)
		return err
	}
	return nil
}
