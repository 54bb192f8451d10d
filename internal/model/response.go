package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type MeResponse struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// ServiceResult pairs an HTTP status with the response body. The service
// layer decides the mapping once; handlers only forward it.
type ServiceResult struct {
	Status int
	Body   any
}
