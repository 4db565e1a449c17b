package comments

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

type treeFixture struct {
	comments *store.InMemoryCommentStore
	posts    *store.InMemoryPostStore
	asm      *Assembler
}

func newTreeFixture(t *testing.T) *treeFixture {
	t.Helper()
	f := &treeFixture{
		comments: store.NewInMemoryCommentStore(),
		posts:    store.NewInMemoryPostStore(),
	}
	f.asm = NewAssembler(f.comments, f.posts)
	require.NoError(t, f.posts.Upsert(context.Background(), store.Post{ID: "f1", AuthorID: "owner"}))
	return f
}

func (f *treeFixture) add(t *testing.T, id, parent, author string, private bool) {
	t.Helper()
	c := store.Comment{ID: id, PostID: "f1", AuthorID: author, Content: id, IsPrivate: private}
	if parent != "" {
		c.ParentID = &parent
	}
	_, err := f.comments.Insert(context.Background(), c)
	require.NoError(t, err)
}

// ids flattens a forest depth-first as "id(child,child)".
func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s := n.ID
		if len(n.Replies) > 0 {
			s += "("
			for i, r := range ids(n.Replies) {
				if i > 0 {
					s += ","
				}
				s += r
			}
			s += ")"
		}
		out = append(out, s)
	}
	return out
}

func TestBuild_NestsInInsertionOrder(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)
	f.add(t, "b", "", "u2", false)
	f.add(t, "a1", "a", "u2", false)
	f.add(t, "a2", "a", "u3", false)
	f.add(t, "a1x", "a1", "u1", false)

	nodes, err := f.asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a(a1(a1x),a2)", "b"}, ids(nodes))
	assert.Equal(t, 5, Count(nodes))
}

func TestBuild_RepliesNeverNil(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)

	nodes, err := f.asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.NotNil(t, nodes[0].Replies)
	assert.Empty(t, nodes[0].Replies)

	empty, err := f.asm.Build(context.Background(), "f1", "u1", store.VisibilityPrivate)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestBuild_UnknownPost(t *testing.T) {
	f := newTreeFixture(t)
	_, err := f.asm.Build(context.Background(), "missing", Anonymous, store.VisibilityAny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuild_PrunesHiddenSubtrees(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "pub", "", "u1", false)
	f.add(t, "priv", "", "u2", true)
	f.add(t, "priv-reply", "priv", "u2", true)
	// An out-of-band public reply under a private parent stays hidden.
	f.add(t, "leak", "priv", "u3", false)
	f.add(t, "pub-priv", "pub", "u3", true)

	cases := map[string][]string{
		Anonymous: {"pub"},
		"u9":      {"pub"},
		"u2":      {"pub", "priv(priv-reply,leak)"},
		"u3":      {"pub(pub-priv)"},
		"owner":   {"pub(pub-priv)", "priv(priv-reply,leak)"},
	}
	for viewer, want := range cases {
		nodes, err := f.asm.Build(context.Background(), "f1", viewer, store.VisibilityAny)
		require.NoError(t, err)
		assert.Equal(t, want, ids(nodes), "viewer %q", viewer)
	}
}

func TestBuild_FilterAppliesToRootsOnly(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "pub", "", "u1", false)
	f.add(t, "priv", "", "u1", true)
	f.add(t, "pub-priv", "pub", "u1", true)
	f.add(t, "priv-priv", "priv", "u1", true)

	ctx := context.Background()
	nodes, err := f.asm.Build(ctx, "f1", "u1", store.VisibilityPublic)
	require.NoError(t, err)
	assert.Equal(t, []string{"pub(pub-priv)"}, ids(nodes))

	nodes, err = f.asm.Build(ctx, "f1", "u1", store.VisibilityPrivate)
	require.NoError(t, err)
	assert.Equal(t, []string{"priv(priv-priv)"}, ids(nodes))

	// The filter never widens what the policy allows.
	nodes, err = f.asm.Build(ctx, "f1", "stranger", store.VisibilityPrivate)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestBuild_OrphansUnreachable(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)
	f.add(t, "a1", "a", "u1", false)
	f.add(t, "a1x", "a1", "u1", false)
	f.add(t, "b", "", "u1", false)

	_, err := f.comments.DeleteByID(context.Background(), "a1")
	require.NoError(t, err)

	nodes, err := f.asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(nodes))

	// The orphan is still stored.
	_, err = f.comments.GetByID(context.Background(), "a1x")
	assert.NoError(t, err)
}

func TestBuild_Idempotent(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)
	f.add(t, "a1", "a", "u2", true)

	first, err := f.asm.Build(context.Background(), "f1", "owner", store.VisibilityAny)
	require.NoError(t, err)
	second, err := f.asm.Build(context.Background(), "f1", "owner", store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuild_DeepChainDoesNotRecurse(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "n0", "", "u1", false)
	prev := "n0"
	for i := 1; i < 5000; i++ {
		id := "n" + strconv.Itoa(i)
		f.add(t, id, prev, "u1", false)
		prev = id
	}
	nodes, err := f.asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, 5000, Count(nodes))
}

type cycleStore struct {
	store.CommentStore
	arena []store.Comment
}

func (s cycleStore) ListByParentPost(context.Context, string, *string, store.Visibility) ([]store.Comment, error) {
	return s.arena[:1], nil
}

func (s cycleStore) ListByPost(context.Context, string) ([]store.Comment, error) {
	return s.arena, nil
}

func (s cycleStore) ListByParentComment(_ context.Context, commentID string, _ store.Visibility) ([]store.Comment, error) {
	var out []store.Comment
	for _, c := range s.arena {
		if c.ParentID != nil && *c.ParentID == commentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestBuild_CycleTerminates(t *testing.T) {
	a, b := "a", "b"
	arena := []store.Comment{
		{ID: a, PostID: "f1", AuthorID: "u1"},
		{ID: b, PostID: "f1", AuthorID: "u1", ParentID: &a},
		// Points back at b; corrupt data written out of band.
		{ID: a, PostID: "f1", AuthorID: "u1", ParentID: &b},
	}
	posts := store.NewInMemoryPostStore()
	require.NoError(t, posts.Upsert(context.Background(), store.Post{ID: "f1", AuthorID: "owner"}))

	asm := NewAssembler(cycleStore{arena: arena}, posts)
	nodes, err := asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a(b)"}, ids(nodes))
}

func TestSubtree_CycleThroughAnchor(t *testing.T) {
	a, b := "a", "b"
	arena := []store.Comment{
		{ID: a, PostID: "f1", AuthorID: "u1"},
		{ID: b, PostID: "f1", AuthorID: "u1", ParentID: &a},
		{ID: a, PostID: "f1", AuthorID: "u1", ParentID: &b},
	}
	asm := NewAssembler(cycleStore{arena: arena}, store.NewInMemoryPostStore())

	nodes, err := asm.Subtree(context.Background(), arena[0], Anonymous, "owner", store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(nodes), "the anchor never reappears below itself")
}

type staticBlocks map[string]map[string]struct{}

func (s staticBlocks) BlockedBy(_ context.Context, viewer string) (map[string]struct{}, error) {
	return s[viewer], nil
}

type failingBlocks struct{}

func (failingBlocks) BlockedBy(context.Context, string) (map[string]struct{}, error) {
	return nil, errors.New("db down")
}

func TestBuild_HideBlocked(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)
	f.add(t, "a1", "a", "troll", false)
	f.add(t, "a1x", "a1", "u1", false)
	f.add(t, "b", "", "troll", false)

	f.asm.HideBlocked(staticBlocks{"u1": {"troll": {}}})

	nodes, err := f.asm.Build(context.Background(), "f1", "u1", store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(nodes))

	// Other viewers and anonymous readers are unaffected.
	nodes, err = f.asm.Build(context.Background(), "f1", Anonymous, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a(a1(a1x))", "b"}, ids(nodes))

	f.asm.HideBlocked(failingBlocks{})
	_, err = f.asm.Build(context.Background(), "f1", "u1", store.VisibilityAny)
	require.Error(t, err)
	assert.False(t, domain.IsDomain(err))
}

func TestSubtree(t *testing.T) {
	f := newTreeFixture(t)
	f.add(t, "a", "", "u1", false)
	f.add(t, "a1", "a", "u2", false)
	f.add(t, "a2", "a", "u2", true)
	f.add(t, "a1x", "a1", "u3", true)

	anchor, err := f.comments.GetByID(context.Background(), "a")
	require.NoError(t, err)

	nodes, err := f.asm.Subtree(context.Background(), anchor, "u3", "owner", store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1(a1x)"}, ids(nodes))

	nodes, err = f.asm.Subtree(context.Background(), anchor, "owner", "owner", store.VisibilityPrivate)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2"}, ids(nodes))
}

func TestCount(t *testing.T) {
	assert.Zero(t, Count(nil))
	assert.Equal(t, 3, Count([]Node{{Replies: []Node{{}, {}}}}))
}
