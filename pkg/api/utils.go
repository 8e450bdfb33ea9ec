package api

import (
	"taskboard-api/pkg/auth"
	"taskboard-api/pkg/comment"
	"taskboard-api/pkg/event"
	"taskboard-api/pkg/task"
)

// Define a common response structure
type ApiResponse struct {
	Success bool        `json:"success"`
	Body    interface{} `json:"body"`
	Error   interface{} `json:"error"`
}

func defaultErrorResponse(errorMsg interface{}) ApiResponse {
	return ApiResponse{Success: false, Body: nil, Error: errorMsg}
}

func defaultSuccessResponse(body interface{}) ApiResponse {
	return ApiResponse{Success: true, Body: body, Error: nil}
}

// Dependencies are the services the controllers route into. Init is called
// once from main before the router starts serving.
type Dependencies struct {
	Tasks    *task.Service
	Comments *comment.Service
	Auth     *auth.AuthService
	Hub      *event.Hub
}

var deps Dependencies

func Init(d Dependencies) {
	deps = d
}
