package replay

import "errors"

var (
	ErrInvalidScript    = errors.New("invalid script")
	ErrNonDeterministic = errors.New("replay is not deterministic")
)
