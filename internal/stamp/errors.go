package stamp

import "errors"

var (
	ErrInvalidParams    = errors.New("invalid stamp params")
	ErrMalformedStamp   = errors.New("malformed stamp")
	ErrInvalidSignature = errors.New("invalid stamp signature")
)
