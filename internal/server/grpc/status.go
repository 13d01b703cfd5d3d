package grpc

import (
	"github.com/dmitrijs2005/docshare/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func codeFor(kind common.Kind) codes.Code {
	switch kind {
	case common.KindUnauthenticated:
		return codes.Unauthenticated
	case common.KindForbidden:
		return codes.PermissionDenied
	case common.KindNotFound:
		return codes.NotFound
	case common.KindConflict:
		return codes.FailedPrecondition
	case common.KindInvalid:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a gRPC status error.
func toStatus(err error) error {
	code := codeFor(common.Classify(err))
	if code == codes.Internal {
		return status.Error(code, common.ErrorInternal.Error())
	}
	return status.Error(code, err.Error())
}
