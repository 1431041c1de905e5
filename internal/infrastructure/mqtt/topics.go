package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the seat planner topic tree.
const (
	// TopicPrefix is the root of every seat planner topic.
	TopicPrefix = "seatplan"

	// TopicPrefixArrangement carries arrangement lifecycle events.
	TopicPrefixArrangement = "seatplan/arrangement"

	// TopicPrefixAttendance carries attendance notices and reports.
	TopicPrefixAttendance = "seatplan/attendance"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "seatplan/system"
)

// Topics provides builders for seat planner MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topic := mqtt.Topics{}.ArrangementPublished("arr-42")
//	// Returns: "seatplan/arrangement/arr-42/published"
type Topics struct{}

// ArrangementPublished returns the retained topic holding the final
// arrangement of a completed workflow.
//
// Example: seatplan/arrangement/arr-42/published
func (Topics) ArrangementPublished(arrangementID string) string {
	return fmt.Sprintf("%s/%s/published", TopicPrefixArrangement, arrangementID)
}

// ArrangementShared returns the topic for share requests of an arrangement.
//
// Example: seatplan/arrangement/arr-42/shared
func (Topics) ArrangementShared(arrangementID string) string {
	return fmt.Sprintf("%s/%s/shared", TopicPrefixArrangement, arrangementID)
}

// ArrangementEmergency returns the topic for applied emergency changes.
//
// Example: seatplan/arrangement/arr-42/emergency
func (Topics) ArrangementEmergency(arrangementID string) string {
	return fmt.Sprintf("%s/%s/emergency", TopicPrefixArrangement, arrangementID)
}

// AttendanceNotice returns the topic announcing that a member was pulled
// from an arrangement at short notice.
//
// Example: seatplan/attendance/s1/notice
func (Topics) AttendanceNotice(memberID string) string {
	return fmt.Sprintf("%s/%s/notice", TopicPrefixAttendance, memberID)
}

// AttendanceReport returns the topic external attendance systems publish
// absences on.
//
// Example: seatplan/attendance/s1/report
func (Topics) AttendanceReport(memberID string) string {
	return fmt.Sprintf("%s/%s/report", TopicPrefixAttendance, memberID)
}

// SystemStatus returns the retained service status topic.
//
// Example: seatplan/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllArrangementEvents returns a pattern matching every arrangement event.
//
// Pattern: seatplan/arrangement/+/+
func (Topics) AllArrangementEvents() string {
	return fmt.Sprintf("%s/+/+", TopicPrefixArrangement)
}

// AllAttendanceReports returns a pattern matching all attendance reports.
//
// Pattern: seatplan/attendance/+/report
func (Topics) AllAttendanceReports() string {
	return fmt.Sprintf("%s/+/report", TopicPrefixAttendance)
}

// AllTopics returns a pattern matching all seat planner topics.
//
// Pattern: seatplan/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}

// MemberFromAttendanceTopic extracts the member ID from an attendance topic.
// ok is false when topic is not seatplan/attendance/{member}/{kind}.
func MemberFromAttendanceTopic(topic string) (memberID string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefixAttendance+"/")
	if !found {
		return "", false
	}
	memberID, kind, found := strings.Cut(rest, "/")
	if !found || memberID == "" || kind == "" || strings.Contains(kind, "/") {
		return "", false
	}
	return memberID, true
}
