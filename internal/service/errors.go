package service

type ErrorCode string

const (
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeUnspecified      ErrorCode = "UNSPECIFIED"
	ErrorCodeInvalidBody      ErrorCode = "INVALID_BODY"
	ErrorCodeInvalidCSV       ErrorCode = "INVALID_CSV"
	ErrorCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrorCodeAlreadySubmitted ErrorCode = "ALREADY_SUBMITTED"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
