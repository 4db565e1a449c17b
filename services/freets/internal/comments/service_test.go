package comments

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/fritter/internal/platform/events"
	"github.com/example/fritter/services/freets/internal/domain"
	"github.com/example/fritter/services/freets/internal/store"
)

type published struct {
	subject string
	name    string
	userID  string
	props   map[string]any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(subject, eventName, userID string, props map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject, eventName, userID, props})
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.subject
	}
	return out
}

type fixture struct {
	svc      *Service
	comments *store.InMemoryCommentStore
	posts    *store.InMemoryPostStore
	pub      *recordingPublisher
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		comments: store.NewInMemoryCommentStore(),
		posts:    store.NewInMemoryPostStore(),
		pub:      &recordingPublisher{},
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.comments, f.posts,
		WithEvents(f.pub),
		WithClock(func() time.Time { return f.clock }),
	)
	require.NoError(t, f.posts.Upsert(context.Background(), store.Post{ID: "P", AuthorID: "U1"}))
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) root(t *testing.T, author, content string, private bool) store.Comment {
	t.Helper()
	c, err := f.svc.Create(context.Background(), CreateInput{
		Author: author, Content: content, PostID: "P", IsPrivate: ptr(private),
	})
	require.NoError(t, err)
	return c
}

func treeIDs(t *testing.T, f *fixture, viewer string) []string {
	t.Helper()
	nodes, err := f.svc.GetTree(context.Background(), viewer, "P", store.VisibilityAny)
	require.NoError(t, err)
	return ids(nodes)
}

func TestVisibilityWalkthrough(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c1 := f.root(t, "U2", "hello", false)
	reply, err := f.svc.Create(ctx, CreateInput{
		Author: "U1", Content: "hi back", ParentID: &c1.ID, IsPrivate: ptr(true),
	})
	require.NoError(t, err)
	assert.False(t, reply.IsPrivate, "replies inherit the parent's visibility")
	assert.Equal(t, "P", reply.PostID)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, c1.ID, *reply.ParentID)

	want := c1.ID + "(" + reply.ID + ")"
	assert.Equal(t, []string{want}, treeIDs(t, f, "U3"))

	c2 := f.root(t, "U3", "secret", true)
	assert.Equal(t, []string{want, c2.ID}, treeIDs(t, f, "U3"))
	assert.Equal(t, []string{want}, treeIDs(t, f, "U2"))
	assert.Equal(t, []string{want, c2.ID}, treeIDs(t, f, "U1"))
	assert.Equal(t, []string{want}, treeIDs(t, f, Anonymous))
}

func TestCreate_ContentLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: strings.Repeat("x", 141)})
	assert.Equal(t, domain.CodeContentTooLong, validationCode(t, err))

	c, err := f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: strings.Repeat("x", 140)})
	require.NoError(t, err)
	assert.Len(t, c.Content, 140)

	c, err = f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: "  padded \n"})
	require.NoError(t, err)
	assert.Equal(t, "padded", c.Content)
	assert.Equal(t, f.clock, c.CreatedAt)
	assert.Equal(t, c.CreatedAt, c.ModifiedAt)
	assert.False(t, c.IsPrivate)
	assert.NotEmpty(t, c.ID)
}

func TestCreate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.root(t, "U2", "hello", false)
	other := "Q"
	require.NoError(t, f.posts.Upsert(ctx, store.Post{ID: other, AuthorID: "U9"}))

	_, err := f.svc.Create(ctx, CreateInput{Author: Anonymous, PostID: "P", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", Content: "x"})
	assert.Equal(t, domain.CodeMissingPost, validationCode(t, err))

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "nope", Content: "x"})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "freet", nf.Resource)

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", ParentID: ptr("ghost"), Content: "x"})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "comment", nf.Resource)

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", PostID: other, ParentID: &c1.ID, Content: "x"})
	assert.Equal(t, domain.CodeParentPostMismatch, validationCode(t, err))

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: "   "})
	assert.Equal(t, domain.CodeEmptyContent, validationCode(t, err))

	assert.Equal(t, []string{events.SubjectCommentCreated}, f.pub.subjects())
}

func TestCreate_ReplyToHiddenParent(t *testing.T) {
	f := newFixture(t)
	secret := f.root(t, "U3", "secret", true)

	_, err := f.svc.Create(context.Background(), CreateInput{Author: "U2", ParentID: &secret.ID, Content: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	reply, err := f.svc.Create(context.Background(), CreateInput{Author: "U1", ParentID: &secret.ID, Content: "x"})
	require.NoError(t, err)
	assert.True(t, reply.IsPrivate)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.root(t, "U2", "hello", true)

	_, err := f.svc.Update(ctx, "U3", c1.ID, "hijacked")
	assert.ErrorIs(t, err, domain.ErrPermission)
	stored, err := f.comments.GetByID(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, c1, stored)

	_, err = f.svc.Update(ctx, Anonymous, c1.ID, "x")
	assert.ErrorIs(t, err, domain.ErrPermission)

	// Permission is checked before content.
	_, err = f.svc.Update(ctx, "U3", c1.ID, "")
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, err = f.svc.Update(ctx, "U3", "ghost", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Update(ctx, "U2", c1.ID, strings.Repeat("y", 141))
	assert.Equal(t, domain.CodeContentTooLong, validationCode(t, err))

	f.clock = f.clock.Add(time.Minute)
	updated, err := f.svc.Update(ctx, "U2", c1.ID, " edited ")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, f.clock, updated.ModifiedAt)
	assert.Equal(t, c1.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.IsPrivate)

	// A clock that steps backwards never moves modified_at back.
	f.clock = f.clock.Add(-time.Hour)
	again, err := f.svc.Update(ctx, "U2", c1.ID, "edited twice")
	require.NoError(t, err)
	assert.Equal(t, updated.ModifiedAt, again.ModifiedAt)

	assert.Equal(t, []string{
		events.SubjectCommentCreated,
		events.SubjectCommentUpdated,
		events.SubjectCommentUpdated,
	}, f.pub.subjects())
}

func TestDelete_KeepsReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.root(t, "U2", "hello", false)
	reply, err := f.svc.Create(ctx, CreateInput{Author: "U3", ParentID: &c1.ID, Content: "child"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, "U3", c1.ID), domain.ErrPermission)
	assert.ErrorIs(t, f.svc.Delete(ctx, Anonymous, c1.ID), domain.ErrPermission)
	require.NoError(t, f.svc.Delete(ctx, "U2", c1.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, "U2", c1.ID), domain.ErrNotFound)

	assert.Empty(t, treeIDs(t, f, "U3"))
	orphan, err := f.svc.GetComment(ctx, "U3", reply.ID)
	require.NoError(t, err)
	assert.Equal(t, reply.ID, orphan.ID)

	last := f.pub.events[len(f.pub.events)-1]
	assert.Equal(t, events.SubjectCommentDeleted, last.subject)
	assert.Equal(t, "U2", last.userID)
	assert.Equal(t, c1.ID, last.props["comment_id"])
}

func TestGetComment_HidesPrivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	secret := f.root(t, "U3", "secret", true)

	_, err := f.svc.GetComment(ctx, "U2", secret.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetComment(ctx, Anonymous, secret.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, viewer := range []string{"U1", "U3"} {
		got, err := f.svc.GetComment(ctx, viewer, secret.ID)
		require.NoError(t, err)
		assert.Equal(t, secret, got)
	}

	// Without a directory entry there is no post-author privilege.
	require.NoError(t, f.posts.Delete(ctx, "P"))
	_, err = f.svc.GetComment(ctx, "U1", secret.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetComment(ctx, "U3", secret.ID)
	assert.NoError(t, err)
}

func TestListReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c1 := f.root(t, "U2", "hello", false)
	r1, err := f.svc.Create(ctx, CreateInput{Author: "U3", ParentID: &c1.ID, Content: "one"})
	require.NoError(t, err)
	r2, err := f.svc.Create(ctx, CreateInput{Author: "U2", ParentID: &r1.ID, Content: "two"})
	require.NoError(t, err)

	nodes, err := f.svc.ListReplies(ctx, Anonymous, c1.ID, store.VisibilityAny)
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID + "(" + r2.ID + ")"}, ids(nodes))

	nodes, err = f.svc.ListReplies(ctx, Anonymous, c1.ID, store.VisibilityPrivate)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	secret := f.root(t, "U3", "secret", true)
	_, err = f.svc.ListReplies(ctx, "U2", secret.ID, store.VisibilityAny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetTree_UnknownPost(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetTree(context.Background(), "U1", "nope", store.VisibilityAny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWithBlockLookup(t *testing.T) {
	comments := store.NewInMemoryCommentStore()
	posts := store.NewInMemoryPostStore()
	require.NoError(t, posts.Upsert(context.Background(), store.Post{ID: "P", AuthorID: "U1"}))
	svc := NewService(comments, posts, WithBlockLookup(staticBlocks{"U1": {"U2": {}}}))

	_, err := svc.Create(context.Background(), CreateInput{Author: "U2", PostID: "P", Content: "hi"})
	require.NoError(t, err)

	nodes, err := svc.GetTree(context.Background(), "U1", "P", store.VisibilityAny)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

type mockPosts struct{ mock.Mock }

func (m *mockPosts) GetAuthor(ctx context.Context, postID string) (string, error) {
	args := m.Called(ctx, postID)
	return args.String(0), args.Error(1)
}

func (m *mockPosts) Upsert(ctx context.Context, p store.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPosts) Delete(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	posts := new(mockPosts)
	boom := errors.New("connection refused")
	posts.On("GetAuthor", mock.Anything, "P").Return("", boom)

	svc := NewService(store.NewInMemoryCommentStore(), posts)

	_, err := svc.Create(context.Background(), CreateInput{Author: "U2", PostID: "P", Content: "hi"})
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsDomain(err))

	_, err = svc.GetTree(context.Background(), "U2", "P", store.VisibilityAny)
	require.ErrorIs(t, err, boom)
	assert.False(t, domain.IsDomain(err))

	posts.AssertNumberOfCalls(t, "GetAuthor", 2)
}

func TestListReplies_ResolvesPostAuthorOnce(t *testing.T) {
	ctx := context.Background()
	comments := store.NewInMemoryCommentStore()
	posts := new(mockPosts)
	posts.On("GetAuthor", mock.Anything, "P").Return("U1", nil)
	svc := NewService(comments, posts)

	root, err := svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: "root"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Author: "U3", ParentID: &root.ID, Content: "reply"})
	require.NoError(t, err)
	posts.Calls = nil

	nodes, err := svc.ListReplies(ctx, "U2", root.ID, store.VisibilityAny)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
	posts.AssertNumberOfCalls(t, "GetAuthor", 1)
}

func TestCreate_UnknownTargetBeforeContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var nf *domain.NotFoundError

	_, err := f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "nope", Content: strings.Repeat("x", 141)})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "freet", nf.Resource)

	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", ParentID: ptr("ghost"), Content: "   "})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "comment", nf.Resource)

	// A known target still validates content.
	_, err = f.svc.Create(ctx, CreateInput{Author: "U2", PostID: "P", Content: "   "})
	assert.Equal(t, domain.CodeEmptyContent, validationCode(t, err))
}
