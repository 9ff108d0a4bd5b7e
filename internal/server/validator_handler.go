// Package server provides the Connect RPC handler of the validator service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/at-ishikawa/apijudge/internal/inference"
	"github.com/at-ishikawa/apijudge/internal/jsonvalue"
	"github.com/at-ishikawa/apijudge/internal/validator"
)

const (
	ValidatorServiceName = "apijudge.v1.ValidatorService"
	ValidateProcedure    = "/" + ValidatorServiceName + "/Validate"

	DefaultRetryAfter = time.Second

	errorDomain          = "apijudge"
	reasonMalformed      = "MALFORMED_VERDICT"
	reasonBackendFailure = "BACKEND_FAILURE"
)

type ValidateRequest struct {
	Response       jsonvalue.Value `json:"response"`
	ExpectedFields []string        `json:"expected_fields,omitempty"`
	Context        string          `json:"context,omitempty"`
}

type ValidateResponse struct {
	IsValid       bool     `json:"is_valid"`
	Feedback      string   `json:"feedback"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Backend       string   `json:"backend"`
}

// Validator produces verdicts for the handler.
type Validator interface {
	Validate(ctx context.Context, req inference.ValidationRequest) (inference.ValidationResult, error)
	Backend() string
}

// ValidatorHandler serves ValidatorService.Validate.
type ValidatorHandler struct {
	validator  Validator
	retryAfter time.Duration
}

func NewValidatorHandler(v Validator) *ValidatorHandler {
	return &ValidatorHandler{validator: v, retryAfter: DefaultRetryAfter}
}

// NewValidatorServiceHandler returns the path and handler to mount on a mux.
func NewValidatorServiceHandler(h *ValidatorHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	return ValidateProcedure, connect.NewUnaryHandler(ValidateProcedure, h.Validate, opts...)
}

// NewValidatorClient calls a remote ValidatorService at baseURL.
func NewValidatorClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *connect.Client[ValidateRequest, ValidateResponse] {
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return connect.NewClient[ValidateRequest, ValidateResponse](httpClient, strings.TrimSuffix(baseURL, "/")+ValidateProcedure, opts...)
}

func (h *ValidatorHandler) Validate(
	ctx context.Context,
	req *connect.Request[ValidateRequest],
) (*connect.Response[ValidateResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	validationRequest := inference.ValidationRequest{
		Response:       req.Msg.Response,
		ExpectedFields: req.Msg.ExpectedFields,
		Context:        req.Msg.Context,
	}
	result, err := h.validator.Validate(ctx, validationRequest)
	if err != nil {
		slog.Default().Warn("validation failed",
			slog.String("backend", h.validator.Backend()),
			slog.Any("error", err),
		)
		return nil, h.toConnectError(err)
	}

	return connect.NewResponse(&ValidateResponse{
		IsValid:       result.IsValid,
		Feedback:      result.Feedback,
		MissingFields: validationRequest.MissingFields(),
		Backend:       h.validator.Backend(),
	}), nil
}

func validateRequest(msg *ValidateRequest) *connect.Error {
	var fieldViolations []*errdetails.BadRequest_FieldViolation
	if !msg.Response.IsValid() {
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       "response",
			Description: "response is required",
		})
	}
	for i, field := range msg.ExpectedFields {
		if strings.TrimSpace(field) == "" {
			fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       fmt.Sprintf("expected_fields[%d]", i),
				Description: "expected field names must not be blank",
			})
		}
	}
	if len(fieldViolations) == 0 {
		return nil
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, validator.ErrInvalidRequest)
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: fieldViolations,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func (h *ValidatorHandler) toConnectError(err error) *connect.Error {
	var malformed *inference.MalformedResponseError
	switch {
	case errors.Is(err, validator.ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case inference.IsAuthentication(err):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case inference.IsServiceUnavailable(err):
		connectErr := connect.NewError(connect.CodeUnavailable, err)
		if detail, detailErr := connect.NewErrorDetail(&errdetails.RetryInfo{
			RetryDelay: durationpb.New(h.retryAfter),
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	case errors.As(err, &malformed):
		connectErr := connect.NewError(connect.CodeInternal, err)
		if detail, detailErr := connect.NewErrorDetail(&errdetails.ErrorInfo{
			Reason:   reasonMalformed,
			Domain:   errorDomain,
			Metadata: map[string]string{"raw": malformed.Raw, "backend": h.validator.Backend()},
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		connectErr := connect.NewError(connect.CodeInternal, err)
		if detail, detailErr := connect.NewErrorDetail(&errdetails.ErrorInfo{
			Reason:   reasonBackendFailure,
			Domain:   errorDomain,
			Metadata: map[string]string{"backend": h.validator.Backend()},
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
		return connectErr
	}
}
