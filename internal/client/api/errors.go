package api

import "fmt"

// Error is a server-reported failure: a validation rejection, a wrong
// password, or any other response outside the 2xx range. Message is
// user-presentable; the session surfaces it in SignInError states.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}
