// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error kinds that cross the post pipeline's
// action boundaries. Each kind wraps its cause so callers can still match
// the underlying error with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports input that cannot be applied. Message is safe to
// show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validation returns a ValidationError for field.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UploadError reports that the blob store rejected an upload.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError reports a failed row insert or update.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchError reports a failed asynchronous step (translation or image
// optimization). It never propagates back to the action that triggered it.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// UserMessage renders err as the inline message shown on the admin form.
func UserMessage(err error) string {
	var ve *ValidationError
	var ue *UploadError
	var pe *PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ue):
		return "The cover image could not be uploaded. Nothing was saved."
	case errors.As(err, &pe):
		return "The post could not be saved. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
