package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter marks caller errors such as an unsupported demand window.
var ErrInvalidParameter = errors.New("invalid parameter")

// FetchError reports that a dataset could not be read. Nothing is computed on
// partial data when one is returned.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err unless it is nil or already a FetchError.
func NewFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Op: op, Err: err}
}
