// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Roster errors
	CodePlayerNameEmpty Code = "PLAYER_NAME_EMPTY"
	CodePlayerNotFound  Code = "PLAYER_NOT_FOUND"

	// Pairing errors
	CodeInsufficientPlayers Code = "INSUFFICIENT_PLAYERS"
	CodeInvalidMode         Code = "INVALID_MODE"
	CodeInvalidCourtCount   Code = "INVALID_COURT_COUNT"

	// Settlement errors
	CodeInvalidTeamSelection Code = "INVALID_TEAM_SELECTION"
	CodeUndeterminedWinner   Code = "UNDETERMINED_WINNER"
	CodeInvalidScore         Code = "INVALID_SCORE"
	CodeNoLayout             Code = "NO_LAYOUT"
	CodeLayoutMismatch       Code = "LAYOUT_MISMATCH"

	// Transport errors
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Storage errors
	CodeNotFound          Code = "NOT_FOUND"
	CodeMalformedSnapshot Code = "MALFORMED_SNAPSHOT"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodePlayerNameEmpty,
		CodeInvalidMode,
		CodeInvalidCourtCount,
		CodeInvalidTeamSelection,
		CodeUndeterminedWinner,
		CodeInvalidScore,
		CodeLayoutMismatch,
		CodeInvalidRequest,
		CodeMalformedSnapshot:
		return http.StatusBadRequest

	// Conflict - session state doesn't allow the operation
	case CodeNoLayout,
		CodeInsufficientPlayers:
		return http.StatusConflict

	case CodeNotFound,
		CodePlayerNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
