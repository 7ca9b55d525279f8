package service

import (
	"errors"
	"testing"

	"food-marketplace-api/apperr"

	"gorm.io/gorm"
)

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(gorm.ErrRecordNotFound, "item 100% gone")
	wantKind(t, err, apperr.KindNotFound)
	if got := apperr.MessageOf(err); got != "item 100% gone" {
		t.Errorf("message was reformatted: %q", got)
	}

	cause := errors.New("disk full")
	err = notFoundOr(cause, "failed to load item")
	wantKind(t, err, apperr.KindInternal)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be kept on internal errors")
	}
}
