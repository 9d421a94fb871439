package systems

import "errors"

var (
	ErrNilVehicle       = errors.New("vehicle is nil")
	ErrDuplicateVehicle = errors.New("vehicle already registered")
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrNilSystem        = errors.New("system is nil")
	ErrInvalidTimestep  = errors.New("fixed timestep must be positive")
)
