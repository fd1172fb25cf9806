// Package workflow implements the invoice extraction workflow for Reckon.
// It provides the state graph (init → extract → rescan? → finalize) that
// turns an uploaded invoice PDF into structured claim lines via a vision
// model, plus the prompt composition and response coercion that supports it.
package workflow

import "errors"

// Sentinel errors for workflow operations.
var (
	ErrSourceNotFound = errors.New("invoice blob not found")
	ErrRenderFailed   = errors.New("failed to render page images")
	ErrExtractFailed  = errors.New("extraction failed")
	ErrRescanFailed   = errors.New("rescan failed")
)
