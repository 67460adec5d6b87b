package services

import (
	"errors"

	"libtrack/internal/core/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicateID)
}
