package publish

import (
	"time"

	"github.com/nerrad567/seatplan-core/internal/arrangement"
	"github.com/nerrad567/seatplan-core/internal/seating"
)

// ArrangementMessage is the published form of a finished arrangement,
// grouped by row the way it is printed for the choir.
type ArrangementMessage struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Date        string       `json:"date,omitempty"`
	Version     int          `json:"version"`
	Rows        []RowMessage `json:"rows"`
	PublishedAt time.Time    `json:"published_at"`
}

// RowMessage is one row of an ArrangementMessage.
type RowMessage struct {
	Row      int           `json:"row"`
	Capacity int           `json:"capacity"`
	Offset   float64       `json:"offset"`
	Seats    []SeatMessage `json:"seats"`
}

// SeatMessage is one occupied seat.
type SeatMessage struct {
	Col         int          `json:"col"`
	MemberID    string       `json:"member_id"`
	MemberName  string       `json:"member_name"`
	Part        seating.Part `json:"part"`
	IsRowLeader bool         `json:"is_row_leader,omitempty"`
}

// ShareMessage asks downstream services to send an arrangement to people.
type ShareMessage struct {
	ArrangementID string    `json:"arrangement_id"`
	Name          string    `json:"name"`
	Date          string    `json:"date,omitempty"`
	Version       int       `json:"version"`
	Recipients    []string  `json:"recipients"`
	Note          string    `json:"note,omitempty"`
	SharedAt      time.Time `json:"shared_at"`
}

// EmergencyMessage announces an applied emergency change.
type EmergencyMessage struct {
	ArrangementID string                            `json:"arrangement_id"`
	Date          string                            `json:"date,omitempty"`
	Change        arrangement.EmergencyChangeRecord `json:"change"`
}

// AttendanceNotice tells attendance systems a member was pulled from an
// arrangement at short notice.
type AttendanceNotice struct {
	MemberID      string    `json:"member_id"`
	ArrangementID string    `json:"arrangement_id"`
	Date          string    `json:"date,omitempty"`
	Reason        string    `json:"reason"`
	At            time.Time `json:"at"`
}

// AttendanceReport is received from other systems on
// seatplan/attendance/{member}/report.
type AttendanceReport struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

// newArrangementMessage groups doc's assignments by row. Empty rows are kept
// so the printed plan shows the full grid.
func newArrangementMessage(doc *arrangement.Document, at time.Time) ArrangementMessage {
	rows := make([]RowMessage, doc.Layout.Rows)
	for i := range rows {
		row := i + 1
		rows[i] = RowMessage{
			Row:      row,
			Capacity: doc.Layout.Capacity(row),
			Offset:   doc.Layout.OffsetForRow(row),
			Seats:    []SeatMessage{},
		}
	}
	for _, a := range doc.State().Assignments.Sorted() {
		if a.Row < 1 || a.Row > len(rows) {
			continue
		}
		rows[a.Row-1].Seats = append(rows[a.Row-1].Seats, SeatMessage{
			Col:         a.Col,
			MemberID:    a.MemberID,
			MemberName:  a.MemberName,
			Part:        a.Part,
			IsRowLeader: a.IsRowLeader,
		})
	}
	return ArrangementMessage{
		ID:          doc.ID,
		Name:        doc.Name,
		Date:        doc.Date,
		Version:     doc.Version,
		Rows:        rows,
		PublishedAt: at,
	}
}
