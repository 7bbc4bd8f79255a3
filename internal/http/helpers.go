package http

import (
	"context"
	"errors"
	"net/http"

	"donorboard/internal/analytics"
	"donorboard/internal/core"
	"donorboard/internal/log"
	"donorboard/internal/middleware/trace"
	"donorboard/internal/source"
)

// writeJSON sends v with a 200 status.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	if err := NewJSONResponse().Body(v).Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Response encoding failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
	}
}

// writeError maps err to a status code and writes the error envelope.
// Request errors become 400, fetcher failures 502 (504 on timeout) and
// anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	builder, errorType := errorResponse(ctx, err)

	logger := log.FromContext(ctx)
	fields := log.NewFields().WithError(err)
	fields["error_type"] = errorType
	fields[log.FieldPath] = r.URL.Path
	if errorType == log.ErrorTypeValidation {
		logger.InfoContext(ctx, "Request rejected", fields.ToSlice()...)
	} else {
		logger.ErrorContext(ctx, "Request failed", fields.ToSlice()...)
	}

	if body, ok := builder.body.(ErrorBody); ok {
		body.Error.RequestID = trace.GetRequestID(ctx)
		builder.Body(body)
	}
	_ = builder.Write(w)
}

func errorResponse(ctx context.Context, err error) (*JSONResponseBuilder, string) {
	switch {
	case errors.Is(err, analytics.ErrUnknownSortKey),
		errors.Is(err, analytics.ErrUnknownPreset),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, core.ErrEmptyOrgID):
		return BadRequestError(err.Error()), log.ErrorTypeValidation
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return GatewayTimeoutError("donation source timed out"), log.ErrorTypeTimeout
	case source.IsTransport(err):
		return BadGatewayError("donation source unavailable"), log.ErrorTypeTransport
	default:
		return InternalServerError("internal error"), log.ErrorTypeInternal
	}
}
