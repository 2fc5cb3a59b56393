package logging

import "github.com/google/uuid"

// GenerateRequestID generates a unique request ID for correlating one
// connection's or one operation's log lines, adapted from the teacher's
// hand-rolled timestamp-counter-random scheme to a standard UUIDv4.
func GenerateRequestID() string {
	return uuid.NewString()
}
