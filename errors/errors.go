package errors

import "fmt"

var (
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrCapacityExceeded = fmt.Errorf("slot pool at capacity")
	ErrNotAMember       = fmt.Errorf("session is not a member of this channel")
	ErrInvalidChannel   = fmt.Errorf("unknown channel name")
	ErrInvalidMessage   = fmt.Errorf("unrecognized message tag")
	ErrUnknownSession   = fmt.Errorf("unknown or evicted session")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrEmptyWords = fmt.Errorf("no words have been found")
)
