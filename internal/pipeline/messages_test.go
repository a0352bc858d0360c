package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/pipeline"
	"teko/internal/services"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{auth.ErrUnauthorized, pipeline.MsgSignIn},
		{fmt.Errorf("open: %w", capture.ErrPermissionDenied), pipeline.MsgCameraAccess},
		{capture.ErrEmptyImage, pipeline.MsgEmptyPhoto},
		{capture.ErrUnsupportedImage, pipeline.MsgUnsupportedType},
		{capture.ErrTooLarge, pipeline.MsgPhotoTooLarge},
		{collection.ErrInvalidRecord, pipeline.MsgInvalidRecord},
		{services.Wrap(services.ErrUnauthorized, "identifying", "identify", "401", nil), pipeline.MsgVisionAuth},
		{services.Wrap(services.ErrUnprocessable, "identifying", "identify", "bad json", nil), pipeline.MsgUnreadable},
		{services.Wrap(services.ErrNoMatch, "searching", "match", "none", nil), pipeline.MsgNoMatch},
		{context.Canceled, pipeline.MsgCancelled},
		{errors.New("boom"), pipeline.MsgGeneric},
	}
	for _, tc := range tests {
		if got := pipeline.UserMessage(tc.err); got != tc.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
