package client

import (
	"errors"
	"fmt"
)

// Error is any failed API call. Status is zero when the request never got a
// response.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorMessage is the text a view shows for err: the server's message when
// the response carried one, otherwise the transport error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}
