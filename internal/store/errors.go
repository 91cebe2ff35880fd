package store

import "errors"

var (
	// ErrUnitInUse is returned when deleting a unit that still holds assets.
	ErrUnitInUse = errors.New("unit still holds assets")
	// ErrUnitExists is returned when creating a unit whose name is taken.
	ErrUnitExists = errors.New("unit already exists")
)
