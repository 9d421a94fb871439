package vehicle

import "errors"

var (
	ErrNilConfig   = errors.New("vehicle config is nil")
	ErrNilBody     = errors.New("rigid body is nil")
	ErrInvalidBody = errors.New("rigid body mass must be positive")
)
