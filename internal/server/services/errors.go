// Package services contains server-side business logic: the page upload
// merge, form capture, admin authentication and static site browsing.
// Errors returned here wrap the sentinels from internal/common.
package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
)

// storageError keeps not-found and validation errors intact and wraps
// anything else as ErrStorageUnavailable, preserving the cause.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrArgumentInvalid),
		errors.Is(err, common.ErrMalformedPath),
		errors.Is(err, common.ErrIncompatibleNode),
		errors.Is(err, common.ErrInvalidSectionsJSON):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
}
