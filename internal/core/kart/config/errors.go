package config

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid vehicle configuration")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)
