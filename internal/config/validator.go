package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/mailbox"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "texture.budget_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidAllocators returns the list of valid texture allocators
func ValidAllocators() []string {
	return []string{"auto", "software", "wgpu"}
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateTexture()...)
	errs = append(errs, c.validateBitmap()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

// SharingTarget returns the parsed texture target
func (c *TextureConfig) SharingTarget() (mailbox.Target, error) {
	return mailbox.ParseTarget(c.Target)
}

func (c *Config) validateTexture() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidAllocators(), strings.ToLower(c.Texture.Allocator)) {
		errs = append(errs, ValidationError{
			Field:   "texture.allocator",
			Value:   c.Texture.Allocator,
			Message: "must be one of " + strings.Join(ValidAllocators(), ", "),
		})
	}
	if c.Texture.BudgetMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "texture.budget_mb",
			Value:   c.Texture.BudgetMB,
			Message: "must be zero (unlimited) or positive",
		})
	}
	// Cube maps need six faces; a single decoded image cannot fill one.
	if t, err := c.Texture.SharingTarget(); err != nil || t == mailbox.TargetCubeMap {
		errs = append(errs, ValidationError{
			Field:   "texture.target",
			Value:   c.Texture.Target,
			Message: "must be one of 2d, external, rectangle",
		})
	}
	return errs
}

func (c *Config) validateBitmap() []ValidationError {
	if c.Bitmap.PoolBudgetMB < 0 {
		return []ValidationError{{
			Field:   "bitmap.pool_budget_mb",
			Value:   c.Bitmap.PoolBudgetMB,
			Message: "must be zero (unlimited) or positive",
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of " + strings.Join(ValidLogLevels(), ", "),
		})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Value:   c.Logging.Format,
			Message: "must be one of " + strings.Join(ValidLogFormats(), ", "),
		})
	}
	return errs
}
