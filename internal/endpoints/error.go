package endpoints

import (
	"errors"
)

const (
	API_SUCCESS      = iota + 303000 // 303000
	API_FAILURE                      // 303001 - Generic API failure
	API_UNAUTHORIZED                 // 303002 - Authentication/Authorization failure
)

const (
	SNAPSHOTS_NOT_AVAILABLE = iota + 101 // 101 - No snapshots found for the given criteria
	HISTORY_DISABLED                     // 102 - Snapshot history is not configured
	INVALID_PARAMETERS                   // 103 - Invalid URL or query parameters
	INVALID_TIME_RANGE                   // 104 - Start time is after end time
	REQUEST_CANCELLED                    // 105 - Request was cancelled by client or server timeout
)

var (
	ErrNoSnapshotsAvailable = errors.New("no metrics snapshots available for the specified criteria")
	ErrHistoryDisabled      = errors.New("metrics history is disabled")
	ErrInvalidParameters    = errors.New("invalid limit, offset, start or end parameter; must be integers")
	ErrInvalidTimeRange     = errors.New("start timestamp cannot be after end timestamp")
	ErrRequestCancelled     = errors.New("request cancelled by client or server timeout")
	ErrNotMultipart         = errors.New("content type is not multipart/form-data")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrNoSnapshotsAvailable):
		return SNAPSHOTS_NOT_AVAILABLE
	case errors.Is(err, ErrHistoryDisabled):
		return HISTORY_DISABLED
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, ErrInvalidTimeRange):
		return INVALID_TIME_RANGE
	case errors.Is(err, ErrRequestCancelled):
		return REQUEST_CANCELLED
	default:
		return API_FAILURE
	}
}
