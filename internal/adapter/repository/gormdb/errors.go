package gormdb

import (
	"context"
	"errors"
	"fmt"

	"p2p-lending/internal/domain/apperr"

	"gorm.io/gorm"
)

// translate maps driver errors onto domain errors. The *gorm.DB must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func translate(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey) && duplicate != nil:
		return duplicate
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", apperr.ErrOperationTimeout, err)
	}
	return fmt.Errorf("%w: %v", apperr.ErrStorageFailure, err)
}
