package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/seatplan-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "seatplan-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// offlineClient returns a client that never connected.
func offlineClient() *Client {
	return &Client{cfg: testConfig(), subscriptions: make(map[string]subscription)}
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

// =============================================================================
// Topic Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"published", topics.ArrangementPublished("arr-42"), "seatplan/arrangement/arr-42/published"},
		{"shared", topics.ArrangementShared("arr-42"), "seatplan/arrangement/arr-42/shared"},
		{"emergency", topics.ArrangementEmergency("arr-42"), "seatplan/arrangement/arr-42/emergency"},
		{"notice", topics.AttendanceNotice("s1"), "seatplan/attendance/s1/notice"},
		{"report", topics.AttendanceReport("s1"), "seatplan/attendance/s1/report"},
		{"status", topics.SystemStatus(), "seatplan/system/status"},
		{"all arrangement events", topics.AllArrangementEvents(), "seatplan/arrangement/+/+"},
		{"all attendance reports", topics.AllAttendanceReports(), "seatplan/attendance/+/report"},
		{"all", topics.AllTopics(), "seatplan/#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestMemberFromAttendanceTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOk bool
	}{
		{"seatplan/attendance/s1/report", "s1", true},
		{"seatplan/attendance/b-12/notice", "b-12", true},
		{"seatplan/attendance//report", "", false},
		{"seatplan/attendance/s1", "", false},
		{"seatplan/attendance/s1/report/extra", "", false},
		{"seatplan/arrangement/a1/shared", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := MemberFromAttendanceTopic(tt.topic)
			if ok != tt.wantOk || got != tt.want {
				t.Errorf("MemberFromAttendanceTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, got, ok, tt.want, tt.wantOk)
			}
		})
	}
}

// =============================================================================
// Option Tests
// =============================================================================

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "planner"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "seatplan-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "planner" || opts.Password != "secret" {
		t.Errorf("credentials not applied")
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Errorf("CleanSession=%v AutoReconnect=%v, want both true", opts.CleanSession, opts.AutoReconnect)
	}
	if opts.TLSConfig != nil {
		t.Error("TLSConfig set without TLS enabled")
	}
	if !opts.WillEnabled || opts.WillTopic != "seatplan/system/status" || !opts.WillRetained {
		t.Errorf("will = (%v, %q, retained %v)", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	var will statusMessage
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if will.Status != statusOffline || will.Reason != "unexpected_disconnect" {
		t.Errorf("will = %+v", will)
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)
	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers[0] = %v, want ssl://127.0.0.1:8883", opts.Servers[0])
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS 1.2 minimum not configured")
	}
	if opts.Username != "" {
		t.Error("anonymous config should not set a username")
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishValidation(t *testing.T) {
	c := offlineClient()

	if err := c.Publish("", []byte("x"), 1, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("seatplan/x", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3: %v, want ErrInvalidQoS", err)
	}
	big := []byte(strings.Repeat("x", maxPayloadSize+1))
	if err := c.Publish("seatplan/x", big, 1, false); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("oversized payload: %v, want ErrPublishFailed", err)
	}
	if err := c.Publish("seatplan/x", []byte("{}"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("offline publish: %v, want ErrNotConnected", err)
	}
}

func TestPublishJSONEncodingError(t *testing.T) {
	c := offlineClient()

	err := c.PublishJSON("seatplan/x", map[string]any{"bad": make(chan int)}, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("PublishJSON() error = %v, want ErrPublishFailed", err)
	}

	err = c.PublishJSON("seatplan/x", map[string]string{"ok": "yes"}, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishJSON() offline error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := offlineClient()
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic: %v", err)
	}
	if err := c.Subscribe("seatplan/#", 5, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 5: %v", err)
	}
	if err := c.Subscribe("seatplan/#", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler: %v", err)
	}
	if err := c.Subscribe("seatplan/#", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("offline subscribe: %v", err)
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty unsubscribe: %v", err)
	}
	if err := c.Unsubscribe("seatplan/#"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("offline unsubscribe: %v", err)
	}
	if c.SubscriptionCount() != 0 || c.HasSubscription("seatplan/#") {
		t.Error("failed subscriptions must not be tracked")
	}
}

func TestHealthCheckOffline(t *testing.T) {
	c := offlineClient()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() cancelled = %v, want context.Canceled", err)
	}
}

func TestCloseWithoutConnection(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
	if err := offlineClient().Close(); err != nil {
		t.Errorf("offline Close() = %v", err)
	}
}

func TestDispatchRecoversAndLogs(t *testing.T) {
	c := offlineClient()
	logger := &mockLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "seatplan/x", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad payload") }, "seatplan/x", nil)
	c.dispatch(func(string, []byte) error { return nil }, "seatplan/x", nil)

	if len(logger.errors) != 1 || len(logger.warns) != 1 {
		t.Errorf("errors=%v warns=%v, want one of each", logger.errors, logger.warns)
	}
}

func TestDisconnectCallback(t *testing.T) {
	c := offlineClient()
	c.connected = true
	got := make(chan error, 1)
	c.SetOnDisconnect(func(err error) { got <- err })

	c.handleDisconnect(errors.New("network down"))

	if err := <-got; err == nil || err.Error() != "network down" {
		t.Errorf("callback error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() after disconnect = true")
	}
}
