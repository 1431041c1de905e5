package publish

import "errors"

var (
	// ErrTransportDisabled is returned when no MQTT broker is configured.
	ErrTransportDisabled = errors.New("publish: mqtt transport disabled")

	// ErrInvalidDocument is returned for a nil or unsaved arrangement.
	ErrInvalidDocument = errors.New("publish: arrangement must be saved before publishing")

	// ErrNoRecipients is returned when a share names nobody.
	ErrNoRecipients = errors.New("publish: share needs at least one recipient")

	// ErrInvalidReport is returned for an attendance report that cannot be decoded.
	ErrInvalidReport = errors.New("publish: invalid attendance report")
)
