package transport

import "encoding/json"

// ErrorBody is the JSON payload of every non-2xx answer.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewError returns an error body.
func NewError(code string, message string) ErrorBody {
	return ErrorBody{
		Error: message,
		Code:  code,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e ErrorBody) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
