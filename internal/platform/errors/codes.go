package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Location errors
	CodeLocationEmptyCampaignID    Code = "LOCATION_EMPTY_CAMPAIGN_ID"
	CodeLocationEmptyID            Code = "LOCATION_EMPTY_ID"
	CodeLocationEmptyName          Code = "LOCATION_EMPTY_NAME"
	CodeLocationEmptyUserID        Code = "LOCATION_EMPTY_USER_ID"
	CodeLocationNoMoveTargets      Code = "LOCATION_NO_MOVE_TARGETS"
	CodeLocationChildHandlingUnset Code = "LOCATION_CHILD_HANDLING_UNSET"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Lifecycle errors
	CodeCancelled Code = "CANCELLED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeLocationEmptyCampaignID,
		CodeLocationEmptyID,
		CodeLocationEmptyName,
		CodeLocationEmptyUserID,
		CodeLocationNoMoveTargets,
		CodeLocationChildHandlingUnset:
		return codes.InvalidArgument

	// NotFound - entity doesn't exist at lookup time
	case CodeNotFound:
		return codes.NotFound

	// Unavailable - store unreachable, retryable
	case CodeStorageUnavailable:
		return codes.Unavailable

	case CodeCancelled:
		return codes.Canceled

	default:
		return codes.Internal
	}
}
