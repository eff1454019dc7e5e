package usecase

import (
	"errors"
)

// ErrInvalidWindow is returned when the caller supplies an unparseable or
// inverted time range. No partial result accompanies it.
var ErrInvalidWindow = errors.New("invalid time window")

// ErrAllSourcesFailed is returned when every ticket source failed outright,
// as opposed to partial partition failures which only produce warnings.
var ErrAllSourcesFailed = errors.New("all ticket sources failed")

// ErrUnknownCategory is returned for a category filter outside the three
// canonical values.
var ErrUnknownCategory = errors.New("unknown ticket category")
