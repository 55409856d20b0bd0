package enums

import "fmt"

// RequestStatus tracks where a song request sits in the queue lifecycle.
type RequestStatus string

const (
	RequestStatusPending RequestStatus = "pending"
	RequestStatusPlayed  RequestStatus = "played"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusPlayed,
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
