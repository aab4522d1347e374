package services

import "errors"

// ErrInvalidArgument marks caller errors: out-of-range weekday, hour, week or year.
var ErrInvalidArgument = errors.New("invalid argument")
