package config

import "errors"

// ErrInvalid is returned when a setting holds a value the program cannot use.
var ErrInvalid = errors.New("invalid configuration")
