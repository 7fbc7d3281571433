package transport

import "github.com/fastygo/taskboard/domain"

// TaskRequest is the body of POST /tasks. Any id sent by the client is ignored.
type TaskRequest struct {
	ID string `json:"id,omitempty"`
	domain.Draft
}
