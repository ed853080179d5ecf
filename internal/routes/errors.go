package routes

import (
	"errors"
	"net/http"

	"playout-engine/internal/approval"
	"playout-engine/internal/auth"
	"playout-engine/internal/jwt"
	"playout-engine/internal/playout"
	"playout-engine/internal/provisioning"
	"playout-engine/internal/storage"
	"playout-engine/internal/telemetry"
)

var (
	ErrMissingCredentials = errors.New("missing player credentials")

	ErrInvalidRequest   = errors.New("invalid request")
	ErrMissingParameter = errors.New("missing required parameter")

	ErrInternalServer = errors.New("internal server error")
)

// ErrorInfo is what a player is told about a failed request.
type ErrorInfo struct {
	Message   string
	StopCodes []string // machine readable, the player acts on these
}

type errorMapping struct {
	err    error
	status int
	info   ErrorInfo
}

func mapping(err error, status int, message string, stopCodes ...string) errorMapping {
	return errorMapping{err: err, status: status, info: ErrorInfo{Message: message, StopCodes: stopCodes}}
}

var internalError = ErrorInfo{Message: "An internal error occurred"}

// errorTable is matched in order with errors.Is, so specific errors come
// before the generic storage ones they may wrap.
var errorTable = []errorMapping{
	mapping(ErrInvalidRequest, http.StatusBadRequest, "Invalid request format", "INVALID_REQUEST"),
	mapping(ErrMissingParameter, http.StatusBadRequest, "Required parameter is missing", "MISSING_PARAMETER"),
	mapping(telemetry.ErrEmptyBatch, http.StatusBadRequest, "Event batch must not be empty", "EMPTY_BATCH"),
	mapping(telemetry.ErrBatchTooLarge, http.StatusBadRequest, "Event batch is too large", "BATCH_TOO_LARGE"),
	mapping(telemetry.ErrInvalidEvent, http.StatusBadRequest, "Invalid play event", "INVALID_EVENT"),
	mapping(telemetry.ErrInvalidHeartbeat, http.StatusBadRequest, "Invalid heartbeat", "INVALID_HEARTBEAT"),
	mapping(approval.ErrInvalidStatus, http.StatusBadRequest, "Invalid approval status", "INVALID_STATUS"),
	mapping(approval.ErrApprovalCodeRequired, http.StatusBadRequest, "Approval code is required in this region", "APPROVAL_CODE_REQUIRED"),

	mapping(ErrMissingCredentials, http.StatusUnauthorized, "Authentication required", "AUTH_REQUIRED"),
	mapping(auth.ErrUnauthorized, http.StatusUnauthorized, "Invalid player credentials", "AUTH_INVALID"),
	mapping(jwt.ErrInvalidNonce, http.StatusUnauthorized, "Invalid or reused pairing token", "AUTH_INVALID_NONCE"),
	mapping(jwt.ErrNonValidToken, http.StatusUnauthorized, "Invalid or expired pairing token", "AUTH_INVALID_TOKEN"),
	mapping(jwt.ErrInvalidClaimType, http.StatusUnauthorized, "Invalid pairing token", "AUTH_INVALID_TOKEN"),

	// Distinct from 401 so the player stops retrying with its stored token.
	mapping(auth.ErrDisconnected, http.StatusForbidden, "Player has been disconnected", "PLAYER_DISCONNECTED"),

	mapping(playout.ErrScreenNotFound, http.StatusNotFound, "Screen not found", "SCREEN_NOT_FOUND"),
	mapping(provisioning.ErrScreenNotFound, http.StatusNotFound, "Screen not found", "SCREEN_NOT_FOUND"),
	mapping(provisioning.ErrPlayerNotFound, http.StatusNotFound, "Player not found", "PLAYER_NOT_FOUND"),
	mapping(approval.ErrCreativeNotFound, http.StatusNotFound, "Creative not found", "CREATIVE_NOT_FOUND"),
	mapping(approval.ErrRegionNotFound, http.StatusNotFound, "Region not found", "REGION_NOT_FOUND"),
	mapping(storage.ErrNotFound, http.StatusNotFound, "Resource not found", "NOT_FOUND"),

	mapping(ErrServiceMissing, http.StatusInternalServerError, "Service is not available"),
	mapping(ErrServiceType, http.StatusInternalServerError, internalError.Message),
	mapping(storage.ErrConflict, http.StatusInternalServerError, internalError.Message),
	mapping(ErrInternalServer, http.StatusInternalServerError, internalError.Message),
}

func lookupError(err error) (errorMapping, bool) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// GetErrorStatus returns the HTTP status for err. Unknown errors are 500.
func GetErrorStatus(err error) int {
	if m, ok := lookupError(err); ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// GetErrorInfo returns the player-facing message and stop codes for err.
// Unknown errors never leak details.
func GetErrorInfo(err error) ErrorInfo {
	if m, ok := lookupError(err); ok {
		return m.info
	}
	return internalError
}
