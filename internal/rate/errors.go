package rate

import "errors"

// ErrRateLimited means the id already used its budget for the current window.
var ErrRateLimited = errors.New("rate: budget exhausted for window")

// ErrRedisUnavailable wraps any Redis error raised while counting.
var ErrRedisUnavailable = errors.New("rate: redis unavailable")
