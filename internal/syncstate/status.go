package syncstate

import (
	"fmt"
	"strconv"
	"strings"

	"ytbridge/internal/remote"
)

// Status is the synchronization state of a record.
type Status int

const (
	StatusDefault Status = iota
	StatusUploading
	StatusProcessing
	StatusPublished
	StatusHTTPError
	StatusError
	// StatusUpdateError is kept for records written by older releases; the
	// engine never sets it.
	StatusUpdateError
	StatusDuplicated
	StatusRemoved
	StatusNotifiedError
	StatusToDelete
	StatusToReview
)

var statusNames = []string{
	StatusDefault:       "default",
	StatusUploading:     "uploading",
	StatusProcessing:    "processing",
	StatusPublished:     "published",
	StatusHTTPError:     "http_error",
	StatusError:         "error",
	StatusUpdateError:   "update_error",
	StatusDuplicated:    "duplicated",
	StatusRemoved:       "removed",
	StatusNotifiedError: "notified_error",
	StatusToDelete:      "to_delete",
	StatusToReview:      "to_review",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// Valid reports whether s is a member of the closed set.
func (s Status) Valid() bool {
	return s >= 0 && int(s) < len(statusNames)
}

// AllStatuses returns every status in numeric order.
func AllStatuses() []Status {
	out := make([]Status, len(statusNames))
	for i := range statusNames {
		out[i] = Status(i)
	}
	return out
}

// ParseStatus accepts a status name (case-insensitive, dashes allowed) or its
// integer code.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for i, name := range statusNames {
		if name == normalized {
			return Status(i), nil
		}
	}
	if code, err := strconv.Atoi(normalized); err == nil && Status(code).Valid() {
		return Status(code), nil
	}
	return 0, fmt.Errorf("unknown status %q", value)
}

// IsErrorState reports whether the record is parked in a failure status that
// an error digest reports.
func (s Status) IsErrorState() bool {
	switch s {
	case StatusError, StatusHTTPError, StatusUpdateError:
		return true
	}
	return false
}

// ValidTransition reports whether a record may move from one status to another.
func ValidTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if to == StatusDefault {
		return false
	}
	if to == StatusToDelete {
		return true
	}
	switch from {
	case StatusDefault:
		return to == StatusUploading || to == StatusError
	case StatusToDelete:
		return to == StatusRemoved || to == StatusUploading || to == StatusError
	case StatusRemoved, StatusDuplicated:
		return to == StatusUploading
	}
	return true
}

// MapRemoteStatus converts the remote upload-status vocabulary into a local
// status. Unrecognized values map to StatusToReview.
func MapRemoteStatus(uploadStatus, rejectionReason string) Status {
	switch strings.ToLower(strings.TrimSpace(uploadStatus)) {
	case remote.UploadDeleted:
		return StatusRemoved
	case remote.UploadFailed:
		return StatusError
	case remote.UploadProcessed:
		return StatusPublished
	case remote.UploadUploaded:
		return StatusProcessing
	case remote.UploadRejected:
		if strings.EqualFold(strings.TrimSpace(rejectionReason), remote.RejectionDuplicate) {
			return StatusDuplicated
		}
		return StatusError
	default:
		return StatusToReview
	}
}
