package project

import "errors"

// Detection errors.
var (
	ErrRootNotFound    = errors.New("project root not found")
	ErrLanguageUnknown = errors.New("could not detect project language")
	ErrUnknownLanguage = errors.New("unknown language")
)
