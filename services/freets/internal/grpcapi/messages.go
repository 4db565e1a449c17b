package grpcapi

import (
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/example/fritter/services/freets/internal/comments"
	"github.com/example/fritter/services/freets/internal/store"
)

type Comment struct {
	ID         string                 `json:"id"`
	FreetID    string                 `json:"freet_id"`
	AuthorID   string                 `json:"author_id"`
	ParentID   *string                `json:"parent_id,omitempty"`
	Content    string                 `json:"content"`
	IsPrivate  bool                   `json:"is_private"`
	CreatedAt  *timestamppb.Timestamp `json:"created_at"`
	ModifiedAt *timestamppb.Timestamp `json:"modified_at"`
}

type CommentNode struct {
	Comment *Comment       `json:"comment"`
	Replies []*CommentNode `json:"replies"`
}

type CreateCommentRequest struct {
	FreetID  string  `json:"freet_id"`
	ParentID *string `json:"parent_id,omitempty"`
	Content  string  `json:"content"`
	// Visibility is "public" or "private"; ignored for replies.
	Visibility string `json:"visibility"`
}

type CreateCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type GetCommentTreeRequest struct {
	FreetID    string `json:"freet_id"`
	Visibility string `json:"visibility"`
}

type GetCommentTreeResponse struct {
	Comments []*CommentNode `json:"comments"`
}

type GetCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type GetCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type UpdateCommentRequest struct {
	CommentID string `json:"comment_id"`
	Content   string `json:"content"`
}

type UpdateCommentResponse struct {
	Comment *Comment `json:"comment"`
}

type DeleteCommentRequest struct {
	CommentID string `json:"comment_id"`
}

type DeleteCommentResponse struct{}

func commentToWire(c store.Comment) *Comment {
	return &Comment{
		ID:         c.ID,
		FreetID:    c.PostID,
		AuthorID:   c.AuthorID,
		ParentID:   c.ParentID,
		Content:    c.Content,
		IsPrivate:  c.IsPrivate,
		CreatedAt:  timestamppb.New(c.CreatedAt),
		ModifiedAt: timestamppb.New(c.ModifiedAt),
	}
}

func nodesToWire(nodes []comments.Node) []*CommentNode {
	out := make([]*CommentNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &CommentNode{
			Comment: commentToWire(n.Comment),
			Replies: nodesToWire(n.Replies),
		})
	}
	return out
}
