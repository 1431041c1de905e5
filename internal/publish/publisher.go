package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/seatplan-core/internal/infrastructure/mqtt"
)

// Message kinds used in logs and metrics.
const (
	kindPublished = "published"
	kindShared    = "shared"
	kindEmergency = "emergency"
	kindNotice    = "attendance_notice"
)

// Broker is the MQTT surface the publisher needs. *mqtt.Client satisfies it.
type Broker interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Telemetry is the time-series surface the publisher needs.
// *influxdb.Client satisfies it.
type Telemetry interface {
	WriteEmergencyChange(p influxdb.EmergencyPoint)
	WriteArrangementSnapshot(p influxdb.ArrangementPoint)
}

var (
	_ Broker    = (*mqtt.Client)(nil)
	_ Telemetry = (*influxdb.Client)(nil)
)

// Logger is the logging surface the publisher needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Publisher sends arrangements, shares and emergency notices.
// It is safe for concurrent use when its Broker and Telemetry are.
type Publisher struct {
	broker    Broker
	telemetry Telemetry
	logger    Logger
	metrics   *Metrics
	topics    mqtt.Topics
	location  *time.Location
	now       func() time.Time
}

// New creates a Publisher. Either dependency may be nil.
func New(broker Broker, telemetry Telemetry) *Publisher {
	return &Publisher{
		broker:    broker,
		telemetry: telemetry,
		logger:    noopLogger{},
		location:  time.UTC,
		now:       time.Now,
	}
}

// SetLogger sets the logger for publication outcomes.
func (p *Publisher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// SetLocation sets the time zone that decides the date of an attendance
// report sent without one.
func (p *Publisher) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	p.location = loc
}

// SetMetrics sets the Prometheus collectors.
func (p *Publisher) SetMetrics(m *Metrics) {
	p.metrics = m
}

// PublishArrangement publishes the final arrangement as a retained message
// and records a "published" snapshot.
//
// Parameters:
//   - ctx: Context checked before publishing
//   - doc: Saved arrangement (non-empty ID, version >= 1)
//
// Returns:
//   - error: ErrInvalidDocument, ErrTransportDisabled, or the broker error
func (p *Publisher) PublishArrangement(ctx context.Context, doc *arrangement.Document) error {
	if err := checkDocument(doc); err != nil {
		return err
	}
	at := p.now().UTC()
	p.RecordSnapshot(doc, kindPublished)

	msg := newArrangementMessage(doc, at)
	return p.send(ctx, kindPublished, p.topics.ArrangementPublished(doc.ID), msg, true)
}

// ShareArrangement asks downstream services to send doc to recipients.
// Recipients are trimmed; blanks are dropped.
func (p *Publisher) ShareArrangement(ctx context.Context, doc *arrangement.Document, recipients []string, note string) error {
	if err := checkDocument(doc); err != nil {
		return err
	}
	cleaned := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return ErrNoRecipients
	}

	msg := ShareMessage{
		ArrangementID: doc.ID,
		Name:          doc.Name,
		Date:          doc.Date,
		Version:       doc.Version,
		Recipients:    cleaned,
		Note:          strings.TrimSpace(note),
		SharedAt:      p.now().UTC(),
	}
	return p.send(ctx, kindShared, p.topics.ArrangementShared(doc.ID), msg, false)
}

// NotifyEmergency announces an applied emergency change. Removals also emit
// an attendance notice for the removed member. Telemetry is written even
// when MQTT is disabled.
//
// Parameters:
//   - ctx: Context checked before publishing
//   - arrangementID: Arrangement the change was applied to
//   - date: Performance date of the arrangement, may be empty
//   - rec: The applied change as returned by Store.ApplyEmergency
//
// Returns:
//   - error: ErrTransportDisabled or the first broker error
func (p *Publisher) NotifyEmergency(ctx context.Context, arrangementID, date string, rec arrangement.EmergencyChangeRecord) error {
	at := rec.CreatedAt
	if at.IsZero() {
		at = p.now().UTC()
	}
	if p.telemetry != nil {
		p.telemetry.WriteEmergencyChange(influxdb.EmergencyPoint{
			ArrangementID: arrangementID,
			Kind:          string(rec.Kind),
			Mode:          string(rec.ProcessMode),
			MovedMembers:  rec.MovedMemberCount,
			CascadeSteps:  len(rec.CascadeChanges),
			At:            at,
		})
	}

	rec.ArrangementID = arrangementID
	msg := EmergencyMessage{ArrangementID: arrangementID, Date: date, Change: rec}
	if err := p.send(ctx, kindEmergency, p.topics.ArrangementEmergency(arrangementID), msg, false); err != nil {
		return err
	}

	if rec.Kind != arrangement.EmergencyRemoval {
		return nil
	}
	notice := AttendanceNotice{
		MemberID:      rec.MemberID,
		ArrangementID: arrangementID,
		Date:          date,
		Reason:        "emergency_removal",
		At:            at,
	}
	return p.send(ctx, kindNotice, p.topics.AttendanceNotice(rec.MemberID), notice, false)
}

// RecordSnapshot writes seat usage for doc to the telemetry sink, if any.
func (p *Publisher) RecordSnapshot(doc *arrangement.Document, event string) {
	if p.telemetry == nil || doc == nil {
		return
	}
	p.telemetry.WriteArrangementSnapshot(influxdb.ArrangementPoint{
		ArrangementID: doc.ID,
		Event:         event,
		Rows:          doc.Layout.Rows,
		Capacity:      doc.Layout.TotalSeats(),
		Seated:        len(doc.Assignments),
		At:            p.now().UTC(),
	})
}

func (p *Publisher) send(ctx context.Context, kind, topic string, msg any, retained bool) error {
	if p.broker == nil {
		return ErrTransportDisabled
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", kind, err)
	}

	err := p.broker.PublishJSON(topic, msg, retained)
	p.metrics.message(kind, err)
	if err != nil {
		p.logger.Warn("publish failed", "kind", kind, "topic", topic, "error", err)
		return fmt.Errorf("publishing %s: %w", kind, err)
	}
	p.logger.Info("published", "kind", kind, "topic", topic)
	return nil
}

func checkDocument(doc *arrangement.Document) error {
	if doc == nil || doc.ID == "" || doc.Version < 1 {
		return ErrInvalidDocument
	}
	return nil
}
