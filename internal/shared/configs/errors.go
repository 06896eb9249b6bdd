package configs

import "errors"

var ErrInvalidConfig = errors.New("invalid-config")
