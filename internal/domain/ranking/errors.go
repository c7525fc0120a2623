package ranking

import "errors"

// Sentinel kinds for index faults. Both indicate programming errors and are
// raised as panics rather than returned.
var (
	ErrCorrupted = errors.New("ranking index corrupted")
	ErrNaNScore  = errors.New("score must not be NaN")
)
