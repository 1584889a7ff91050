package service

import (
	"context"
	"errors"

	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// persistence passes store and domain errors through unchanged and wraps
// anything else in a PERSISTENCE error.
func persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	var storeErr *store.Error
	var domainErr *domainerrors.Error
	if errors.As(err, &storeErr) || errors.As(err, &domainErr) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domainerrors.Persistence(err, msg)
}
