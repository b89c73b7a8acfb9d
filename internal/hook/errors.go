package hook

import "errors"

var (
	// ErrManifest is returned for a missing or malformed plugin.toml.
	ErrManifest = errors.New("invalid plugin manifest")

	// ErrHookFailed marks a hook that could not run or exited non-zero.
	ErrHookFailed = errors.New("hook failed")

	// ErrUnknownType is returned when parsing an unknown hook type name.
	ErrUnknownType = errors.New("unknown hook type")
)
