package types

import "errors"

// ErrAuthRejected signals that a dashboard fetch was redirected to the Google
// sign-in page: the persisted session is no longer valid. Distinct from a
// page with no content.
var ErrAuthRejected = errors.New("authentication rejected by dashboard")
