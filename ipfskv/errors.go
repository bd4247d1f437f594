package ipfskv

import (
	"errors"
	"fmt"
)

// ErrUnexpectedIPNSPathFormat is returned when a resolved IPNS path does
// not begin with "/ipfs/" (spec.md §4.D).
var ErrUnexpectedIPNSPathFormat = errors.New("ipfskv: unexpected IPNS path format")

// UnexpectedIPNSPathFormatError carries the offending path.
type UnexpectedIPNSPathFormatError struct {
	Path string
}

func (e *UnexpectedIPNSPathFormatError) Error() string {
	return fmt.Sprintf("ipfskv: unexpected IPNS path format: %s", e.Path)
}

func (e *UnexpectedIPNSPathFormatError) Unwrap() error { return ErrUnexpectedIPNSPathFormat }
