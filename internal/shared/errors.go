package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authorization errors
	ErrStateMismatch       = fmt.Errorf("state mismatch")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrRefreshFailed       = fmt.Errorf("token refresh failed")

	// Pipeline errors. Search, track and batch failures are recovered per item;
	// the rest abort the run.
	ErrFetchFailed          = fmt.Errorf("related artists fetch failed")
	ErrSearchFailed         = fmt.Errorf("artist search failed")
	ErrTrackFetchFailed     = fmt.Errorf("top tracks fetch failed")
	ErrProfileFetchFailed   = fmt.Errorf("profile fetch failed")
	ErrPlaylistCreateFailed = fmt.Errorf("playlist creation failed")
	ErrBatchInsertFailed    = fmt.Errorf("batch insertion failed")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorCode returns the snake_case name used for err on the wire, or "internal" when err is not part of the taxonomy.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// ErrorMessage returns the text of the taxonomy error err wraps, without the wrapped detail.
// Errors outside the taxonomy yield "internal error".
func ErrorMessage(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.err.Error()
		}
	}
	return "internal error"
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrStateMismatch, "state_mismatch"},
	{ErrTokenExchangeFailed, "invalid_token"},
	{ErrRefreshFailed, "refresh_failed"},
	{ErrFetchFailed, "fetch_failed"},
	{ErrSearchFailed, "search_failed"},
	{ErrTrackFetchFailed, "track_fetch_failed"},
	{ErrProfileFetchFailed, "profile_fetch_failed"},
	{ErrPlaylistCreateFailed, "playlist_create_failed"},
	{ErrBatchInsertFailed, "batch_insert_failed"},
	{ErrTimeout, "timeout"},
	{ErrMissingArgument, "missing_argument"},
	{ErrInvalidArgument, "invalid_argument"},
	{ErrMissingCredentials, "missing_credentials"},
	{ErrInvalidConfig, "invalid_config"},
}
