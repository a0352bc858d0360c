package pipeline

import (
	"context"
	"errors"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/services"
)

// User-facing failure messages.
const (
	MsgSignIn          = "Sign in to add records to your collection."
	MsgCameraAccess    = "Teko can't read that photo. Check camera or file permissions and try again."
	MsgEmptyPhoto      = "The photo came through empty. Take another picture of the sleeve."
	MsgUnsupportedType = "That file isn't a photo Teko can read. Use a JPEG, PNG, WebP or GIF."
	MsgPhotoTooLarge   = "That photo is too large. Try a smaller picture."
	MsgVisionAuth      = "The record recognition service rejected Teko's credentials."
	MsgUnreadable      = "Teko couldn't make out the record in that photo."
	MsgNoMatch         = "No exact match found."
	MsgInvalidRecord   = "Album title and artist are both required."
	MsgCancelled       = "Identification was cancelled."
	MsgGeneric         = "Something went wrong while identifying the record. Try again or enter the details yourself."
	MsgVersionsSkipped = "Pressing details couldn't be loaded, so the record was saved without them."
)

// UserMessage maps an error to the sentence shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, collection.ErrUnauthorized):
		return MsgSignIn
	case errors.Is(err, capture.ErrPermissionDenied):
		return MsgCameraAccess
	case errors.Is(err, capture.ErrEmptyImage):
		return MsgEmptyPhoto
	case errors.Is(err, capture.ErrUnsupportedImage):
		return MsgUnsupportedType
	case errors.Is(err, capture.ErrTooLarge):
		return MsgPhotoTooLarge
	case errors.Is(err, collection.ErrInvalidRecord):
		return MsgInvalidRecord
	case errors.Is(err, services.ErrUnauthorized):
		return MsgVisionAuth
	case errors.Is(err, services.ErrUnprocessable):
		return MsgUnreadable
	case errors.Is(err, services.ErrNoMatch):
		return MsgNoMatch
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	default:
		return MsgGeneric
	}
}
