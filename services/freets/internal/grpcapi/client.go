package grpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// CommentClient calls freets.v1.CommentService over the json codec.
type CommentClient struct {
	cc grpc.ClientConnInterface
}

func NewCommentClient(cc grpc.ClientConnInterface) *CommentClient {
	return &CommentClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CommentClient) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CreateCommentResponse, error) {
	return invoke[CreateCommentResponse](ctx, c.cc, "CreateComment", in, opts)
}

func (c *CommentClient) GetCommentTree(ctx context.Context, in *GetCommentTreeRequest, opts ...grpc.CallOption) (*GetCommentTreeResponse, error) {
	return invoke[GetCommentTreeResponse](ctx, c.cc, "GetCommentTree", in, opts)
}

func (c *CommentClient) GetComment(ctx context.Context, in *GetCommentRequest, opts ...grpc.CallOption) (*GetCommentResponse, error) {
	return invoke[GetCommentResponse](ctx, c.cc, "GetComment", in, opts)
}

func (c *CommentClient) UpdateComment(ctx context.Context, in *UpdateCommentRequest, opts ...grpc.CallOption) (*UpdateCommentResponse, error) {
	return invoke[UpdateCommentResponse](ctx, c.cc, "UpdateComment", in, opts)
}

func (c *CommentClient) DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*DeleteCommentResponse, error) {
	return invoke[DeleteCommentResponse](ctx, c.cc, "DeleteComment", in, opts)
}
