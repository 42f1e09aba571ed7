package mqtt

import (
	"errors"
	"testing"
)

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		build    func() string
		expected string
	}{
		{
			name:     "DeviceCommand",
			build:    func() string { return Topics{}.DeviceCommand("controller-001") },
			expected: "lumina/controller-001/command",
		},
		{
			name:     "DeviceStatus",
			build:    func() string { return Topics{}.DeviceStatus("controller-001") },
			expected: "lumina/controller-001/status",
		},
		{
			name:     "AllDeviceStatus",
			build:    func() string { return Topics{}.AllDeviceStatus() },
			expected: "lumina/+/status",
		},
		{
			name:     "SystemStatus",
			build:    func() string { return Topics{}.SystemStatus() },
			expected: "lumina/system/status",
		},
		{
			name:     "AutopilotEvent",
			build:    func() string { return Topics{}.AutopilotEvent("schedule_regenerated") },
			expected: "lumina/autopilot/event/schedule_regenerated",
		},
		{
			name:     "AutopilotSuggestions",
			build:    func() string { return Topics{}.AutopilotSuggestions("user-abc") },
			expected: "lumina/autopilot/user-abc/suggestions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expected {
				t.Errorf("topic = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeviceIDFromStatusTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    string
		wantErr bool
	}{
		{name: "valid", topic: "lumina/controller-001/status", want: "controller-001"},
		{name: "command topic", topic: "lumina/controller-001/command", wantErr: true},
		{name: "wrong prefix", topic: "other/controller-001/status", wantErr: true},
		{name: "missing device", topic: "lumina//status", wantErr: true},
		{name: "too many segments", topic: "lumina/a/b/status", wantErr: true},
		{name: "empty", topic: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeviceIDFromStatusTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrBadStatusTopic) {
					t.Fatalf("DeviceIDFromStatusTopic(%q) error = %v, want ErrBadStatusTopic", tt.topic, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DeviceIDFromStatusTopic(%q) error = %v", tt.topic, err)
			}
			if got != tt.want {
				t.Errorf("DeviceIDFromStatusTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testBrokerConfig()
	opts := clientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "lumina-test" {
		t.Errorf("client ID = %q, want lumina-test", opts.ClientID)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testBrokerConfig()
	cfg.Broker.TLS = true
	opts := clientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil {
		t.Fatal("expected TLS config to be set")
	}
}
