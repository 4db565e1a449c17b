package grpcapi

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"github.com/example/fritter/services/freets/internal/domain"
)

const errorDomain = "freets"

func withDetails(c codes.Code, reason, msg string, extra ...protoadapt.MessageV1) error {
	st := status.New(c, msg)
	details := append([]protoadapt.MessageV1{&errdetails.ErrorInfo{Reason: reason, Domain: errorDomain}}, extra...)
	st2, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errUnauthenticated(msg string) error {
	return withDetails(codes.Unauthenticated, "UNAUTHENTICATED", msg)
}

// toStatus maps service errors onto gRPC status codes. Anything outside the
// domain kinds becomes an opaque Internal.
func toStatus(err error) error {
	var verr *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &verr):
		bad := &errdetails.BadRequest{FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: verr.Field, Description: verr.Message},
		}}
		return withDetails(codes.InvalidArgument, verr.Code, verr.Message, bad)
	case errors.As(err, &nf):
		return withDetails(codes.NotFound, "NOT_FOUND", nf.Message())
	case errors.Is(err, domain.ErrPermission):
		return withDetails(codes.PermissionDenied, "FORBIDDEN", domain.ErrPermission.Error())
	case errors.Is(err, domain.ErrConflict):
		return withDetails(codes.AlreadyExists, "CONFLICT", err.Error())
	default:
		return withDetails(codes.Internal, "INTERNAL", "internal error")
	}
}
