package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat: a payload extension is not a recognized tabular
	// format. The file is skipped; the run continues.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrReadFailure: a payload could not be parsed into a table at all.
	ErrReadFailure = errors.New("read failure")
	// ErrNoData: the payload source yielded nothing new to process.
	ErrNoData = errors.New("no data")
	// ErrAllInvalid: every parsed file failed validation.
	ErrAllInvalid = errors.New("all files invalid")
	// ErrTemporary marks failures worth retrying at the call site.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
