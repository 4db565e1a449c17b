// Package grpcapi serves freets.v1.CommentService. Messages are plain
// structs carried by the json codec registered in this package.
package grpcapi

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

const ServiceName = "freets.v1.CommentService"

// CommentServer is the server API for freets.v1.CommentService.
type CommentServer interface {
	CreateComment(context.Context, *CreateCommentRequest) (*CreateCommentResponse, error)
	GetCommentTree(context.Context, *GetCommentTreeRequest) (*GetCommentTreeResponse, error)
	GetComment(context.Context, *GetCommentRequest) (*GetCommentResponse, error)
	UpdateComment(context.Context, *UpdateCommentRequest) (*UpdateCommentResponse, error)
	DeleteComment(context.Context, *DeleteCommentRequest) (*DeleteCommentResponse, error)
}

// CommentService implements CommentServer on top of *comments.Service.
type CommentService struct {
	Comments *comments.Service
	Log      *zap.Logger
}

var _ CommentServer = (*CommentService)(nil)

func userIDFromMD(ctx context.Context) (string, error) {
	uid := optionalUserID(ctx)
	if uid == "" {
		return "", errUnauthenticated("missing user_id in metadata")
	}
	return uid, nil
}

// optionalUserID returns "" for anonymous callers.
func optionalUserID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("user_id")
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

func (s *CommentService) fail(method string, err error) error {
	if !domain.IsDomain(err) && s.Log != nil {
		s.Log.Error("grpc call failed", zap.String("method", method), zap.Error(err))
	}
	return toStatus(err)
}

func (s *CommentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*CreateCommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	in := comments.CreateInput{Author: userID, Content: req.Content, PostID: req.FreetID}
	if req.ParentID != nil {
		// Replies inherit the parent's visibility; req.Visibility is ignored.
		pid := strings.TrimSpace(*req.ParentID)
		in.ParentID = &pid
	} else {
		vis, err := comments.ParseFilter(req.Visibility)
		if err != nil {
			return nil, s.fail("CreateComment", err)
		}
		private := vis == store.VisibilityPrivate
		in.IsPrivate = &private
	}

	created, err := s.Comments.Create(ctx, in)
	if err != nil {
		return nil, s.fail("CreateComment", err)
	}
	return &CreateCommentResponse{Comment: commentToWire(created)}, nil
}

func (s *CommentService) GetCommentTree(ctx context.Context, req *GetCommentTreeRequest) (*GetCommentTreeResponse, error) {
	filter, err := comments.ParseFilter(req.Visibility)
	if err != nil {
		return nil, s.fail("GetCommentTree", err)
	}
	nodes, err := s.Comments.GetTree(ctx, optionalUserID(ctx), req.FreetID, filter)
	if err != nil {
		return nil, s.fail("GetCommentTree", err)
	}
	return &GetCommentTreeResponse{Comments: nodesToWire(nodes)}, nil
}

func (s *CommentService) GetComment(ctx context.Context, req *GetCommentRequest) (*GetCommentResponse, error) {
	c, err := s.Comments.GetComment(ctx, optionalUserID(ctx), req.CommentID)
	if err != nil {
		return nil, s.fail("GetComment", err)
	}
	return &GetCommentResponse{Comment: commentToWire(c)}, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, req *UpdateCommentRequest) (*UpdateCommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.Comments.Update(ctx, userID, req.CommentID, req.Content)
	if err != nil {
		return nil, s.fail("UpdateComment", err)
	}
	return &UpdateCommentResponse{Comment: commentToWire(updated)}, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, req *DeleteCommentRequest) (*DeleteCommentResponse, error) {
	userID, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Comments.Delete(ctx, userID, req.CommentID); err != nil {
		return nil, s.fail("DeleteComment", err)
	}
	return &DeleteCommentResponse{}, nil
}

// unary adapts a typed method to grpc.MethodDesc, running interceptors the
// same way generated code does.
func unary[Req, Resp any](name string, call func(CommentServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CommentServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CommentServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes freets.v1.CommentService for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommentServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateComment", CommentServer.CreateComment),
		unary("GetCommentTree", CommentServer.GetCommentTree),
		unary("GetComment", CommentServer.GetComment),
		unary("UpdateComment", CommentServer.UpdateComment),
		unary("DeleteComment", CommentServer.DeleteComment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "freets/v1/comments",
}

func RegisterCommentServer(s grpc.ServiceRegistrar, srv CommentServer) {
	s.RegisterService(&ServiceDesc, srv)
}
