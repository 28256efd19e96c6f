//go:build integration

package store_test

import (
	"errors"

	"gymdesk/pkg/platform/sentinel"
)

func errorsIsConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict)
}
