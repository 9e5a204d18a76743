package response

// Error is the body sent when a request is aborted before reaching a handler.
type Error struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Extras  string `json:"extras"`
}

func (e Error) Error() string {
	return e.Extras
}

func NewError(code int, message string) Error {
	return Error{
		Success: false,
		Code:    code,
		Extras:  message,
	}
}
