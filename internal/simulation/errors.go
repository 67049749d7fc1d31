package simulation

import "errors"

// ErrNotFound is wrapped by any operation referencing an unknown link,
// vehicle, or stop-line id.
var ErrNotFound = errors.New("not found")

// ErrInvalidConfig is wrapped by any operation supplying impossible
// geometry: a non-positive length or speed limit, or a link with no lanes.
var ErrInvalidConfig = errors.New("invalid config")
