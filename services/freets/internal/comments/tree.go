package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

// Node is a visible comment with its visible replies. Replies is never nil.
type Node struct {
	store.Comment `yaml:",inline"`
	Replies       []Node `json:"replies" yaml:"replies"`
}

// BlockLookup lists the users a viewer has blocked.
type BlockLookup interface {
	BlockedBy(ctx context.Context, viewer string) (map[string]struct{}, error)
}

// Assembler rebuilds reply trees from the flat comment store and prunes
// everything the viewer may not see.
type Assembler struct {
	comments store.CommentStore
	posts    store.PostStore
	blocks   BlockLookup
}

func NewAssembler(comments store.CommentStore, posts store.PostStore) *Assembler {
	return &Assembler{comments: comments, posts: posts}
}

// HideBlocked makes the assembler drop subtrees written by users the viewer
// has blocked.
func (a *Assembler) HideBlocked(b BlockLookup) { a.blocks = b }

// Build returns the visible tree of postID. The explicit filter restricts
// root-level candidates only; every node, roots included, must also pass
// IsVisible against the post author.
func (a *Assembler) Build(ctx context.Context, postID, viewer string, filter store.Visibility) ([]Node, error) {
	postAuthor, err := postAuthor(ctx, a.posts, postID)
	if err != nil {
		return nil, err
	}
	roots, err := a.comments.ListByParentPost(ctx, postID, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("comments: list roots: %w", err)
	}
	return a.assemble(ctx, postID, viewer, postAuthor, roots)
}

// Subtree returns the visible replies below anchor. The filter restricts the
// direct replies only.
func (a *Assembler) Subtree(ctx context.Context, anchor store.Comment, viewer, postAuthor string, filter store.Visibility) ([]Node, error) {
	direct, err := a.comments.ListByParentComment(ctx, anchor.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("comments: list replies: %w", err)
	}
	return a.assemble(ctx, anchor.PostID, viewer, postAuthor, direct, anchor.ID)
}

// assemble loads the post's comments once into an arena indexed by id, then
// walks down from tops with an explicit stack. A hidden node is never
// expanded, so its whole subtree disappears with it, and replies whose
// parent was deleted are unreachable.
// Ids in above are treated as already emitted and never appear below.
func (a *Assembler) assemble(ctx context.Context, postID, viewer, postAuthor string, tops []store.Comment, above ...string) ([]Node, error) {
	out := make([]Node, 0, len(tops))
	if len(tops) == 0 {
		return out, nil
	}

	blocked, err := a.blockedBy(ctx, viewer)
	if err != nil {
		return nil, err
	}
	visible := func(c store.Comment) bool {
		if _, hidden := blocked[c.AuthorID]; hidden {
			return false
		}
		return IsVisible(viewer, postAuthor, c.AuthorID, c.IsPrivate)
	}

	arena, err := a.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("comments: load arena: %w", err)
	}
	children := make(map[string][]int, len(arena))
	for i, c := range arena {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], i)
		}
	}

	// seen guards against cycles introduced out of band.
	seen := make(map[string]struct{}, len(arena))
	for _, id := range above {
		seen[id] = struct{}{}
	}
	for _, c := range tops {
		if _, dup := seen[c.ID]; dup || !visible(c) {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, Node{Comment: c})
	}

	stack := make([]*Node, 0, len(out))
	for i := range out {
		stack = append(stack, &out[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := children[n.ID]
		// Capacity is fixed up front so pointers into Replies stay valid.
		n.Replies = make([]Node, 0, len(kids))
		for _, idx := range kids {
			c := arena[idx]
			if _, dup := seen[c.ID]; dup || !visible(c) {
				continue
			}
			seen[c.ID] = struct{}{}
			n.Replies = append(n.Replies, Node{Comment: c})
		}
		for i := range n.Replies {
			stack = append(stack, &n.Replies[i])
		}
	}
	return out, nil
}

func (a *Assembler) blockedBy(ctx context.Context, viewer string) (map[string]struct{}, error) {
	if a.blocks == nil || viewer == Anonymous {
		return nil, nil
	}
	set, err := a.blocks.BlockedBy(ctx, viewer)
	if err != nil {
		return nil, fmt.Errorf("comments: load blocks: %w", err)
	}
	return set, nil
}

func postAuthor(ctx context.Context, posts store.PostStore, postID string) (string, error) {
	author, err := posts.GetAuthor(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return "", domain.NotFound("freet", postID)
	}
	if err != nil {
		return "", fmt.Errorf("comments: resolve freet author: %w", err)
	}
	return author, nil
}

// Count returns the number of nodes in the forest.
func Count(nodes []Node) int {
	n := 0
	stack := make([][]Node, 0, 1)
	stack = append(stack, nodes)
	for len(stack) > 0 {
		level := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n += len(level)
		for _, node := range level {
			if len(node.Replies) > 0 {
				stack = append(stack, node.Replies)
			}
		}
	}
	return n
}
