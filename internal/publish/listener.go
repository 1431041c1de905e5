package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/seatplan-core/internal/infrastructure/mqtt"
)

// reportQoS is the subscription QoS for attendance reports.
const reportQoS = 1

// AbsenceRecorder stores an absence. *roster.SQLiteRepository satisfies it.
type AbsenceRecorder interface {
	MarkUnavailable(ctx context.Context, memberID, date, reason string) error
}

// ListenAttendanceReports subscribes to attendance reports from other
// systems and records each one with recorder. Sessions opened afterwards
// leave reported members out. A report without a date is for today in the
// publisher's time zone.
//
// ctx bounds every recorder call made by the subscription.
func (p *Publisher) ListenAttendanceReports(ctx context.Context, recorder AbsenceRecorder) error {
	if p.broker == nil {
		return ErrTransportDisabled
	}
	return p.broker.Subscribe(p.topics.AllAttendanceReports(), reportQoS, func(topic string, payload []byte) error {
		err := p.handleReport(ctx, recorder, topic, payload)
		p.metrics.report(err)
		return err
	})
}

func (p *Publisher) handleReport(ctx context.Context, recorder AbsenceRecorder, topic string, payload []byte) error {
	memberID, ok := mqtt.MemberFromAttendanceTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrInvalidReport, topic)
	}

	var report AttendanceReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	report.Date = strings.TrimSpace(report.Date)
	if report.Date == "" {
		report.Date = p.now().In(p.location).Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, report.Date); err != nil {
		return fmt.Errorf("%w: date %q", ErrInvalidReport, report.Date)
	}

	if err := recorder.MarkUnavailable(ctx, memberID, report.Date, report.Reason); err != nil {
		return fmt.Errorf("recording absence for %s: %w", memberID, err)
	}
	p.logger.Info("attendance report recorded", "member_id", memberID, "date", report.Date)
	return nil
}
