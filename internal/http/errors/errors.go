// errors стандартизирует ответы об ошибках HTTP-слоя threads-service.
// Ошибки сервисного слоя сначала сводятся к gRPC-кодам (общий словарь
// с остальными сервисами агрегатора), а код уже маппится в:
//   - HTTP-статус;
//   - краткое безопасное message без утечки деталей.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/threads-service/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Code сводит ошибку к gRPC-коду:
//
//	ErrInvalidArgument, ErrInvalidCursor -> InvalidArgument
//	ErrNotFound, ErrParentNotFound       -> NotFound
//	ErrConflict                          -> AlreadyExists
//	ErrMaxDepthExceeded                  -> FailedPrecondition
//	context.Canceled                     -> Canceled
//	context.DeadlineExceeded             -> DeadlineExceeded
//	gRPC-статус                          -> его код
//	прочее                               -> Internal
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.Internal
	case errors.Is(err, service.ErrInvalidArgument), errors.Is(err, service.ErrInvalidCursor):
		return codes.InvalidArgument
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrParentNotFound):
		return codes.NotFound
	case errors.Is(err, service.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, service.ErrMaxDepthExceeded):
		return codes.FailedPrecondition
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Internal
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ для фронта.
//
// err == nil — это программная ошибка вызова: возвращаем 500/internal,
// чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
func ToHTTP(err error) (int, ErrorResponse) {
	httpStatus, code, msg := baseFromGRPC(Code(err))
	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromGRPC — маппинг gRPC -> HTTP/FE-код/сообщение.
func baseFromGRPC(c codes.Code) (int, string, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found", "not found"
	case codes.AlreadyExists:
		return http.StatusConflict, "already_exists", "already exists"
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed, "failed_precondition", "failed precondition"
	case codes.Canceled:
		return StatusClientClosedRequest, "canceled", "canceled"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
