package attendance

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid attendance status")
)
