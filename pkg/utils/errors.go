package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrContentSource    = errors.New("content source error")
	ErrManifest         = errors.New("invalid content manifest")
	ErrFrontmatter      = errors.New("invalid post frontmatter")
	ErrRender           = errors.New("markdown render error")
	ErrTemplate         = errors.New("template render error")
	ErrStore            = errors.New("preference store error")
	ErrFilesystem       = errors.New("filesystem error")
	ErrNotFound         = errors.New("not found")
	ErrConfigValidation = errors.New("configuration validation error")
)

// WrapErrorf annotates err with a formatted message, keeping it matchable with errors.Is.
// Returns nil when err is nil.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// CategorizeError maps an error to a predefined category string for logging.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrFrontmatter):
		return "Content_Frontmatter"
	case errors.Is(err, ErrManifest):
		return "Content_Manifest"
	case errors.Is(err, ErrContentSource):
		if errors.Is(err, os.ErrNotExist) {
			return "Content_MissingFile"
		}
		return "Content_Source"
	case errors.Is(err, ErrRender):
		return "Render_Markdown"
	case errors.Is(err, ErrTemplate):
		return "Render_Template"
	case errors.Is(err, ErrStore):
		if strings.Contains(strings.ToLower(err.Error()), "connection refused") {
			return "Store_ConnectionRefused"
		}
		return "Store_Other"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrNotFound):
		return "Lookup_NotFound"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types ---
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}
	if errors.Is(err, os.ErrNotExist) {
		return "Filesystem_NotExist"
	}

	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "broken pipe") || strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ClientGone"
	}

	return "Unknown"
}
