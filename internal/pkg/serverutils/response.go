package serverutils

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type Response[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

type ErrorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{Status: StatusOK, Message: message, Data: data}
}

func ErrorResponse(code, message string) ErrorBody {
	return ErrorBody{Status: StatusError, Code: code, Message: message}
}
