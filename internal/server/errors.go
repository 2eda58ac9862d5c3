package server

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jbweber/virtd/internal/virt"
)

func toGRPCError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	if errors.Is(err, virt.ErrNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	if errors.Is(err, virt.ErrDefine) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, virt.ErrLifecycle) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if errors.Is(err, virt.ErrConnect) || errors.Is(err, virt.ErrClosed) {
		return status.Error(codes.Unavailable, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}
