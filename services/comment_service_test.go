package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) comment(t *testing.T, postID uint, parentID *uint, content string) *models.Comment {
	t.Helper()
	c, err := f.comments.Create(context.Background(), f.other, CommentInput{PostID: postID, ParentID: parentID, Content: content})
	require.NoError(t, err)
	return c
}

func TestCommentService_DepthLimitedTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Threaded", PostInput{})

	root := f.comment(t, post.ID, nil, "R")
	c1 := f.comment(t, post.ID, &root.ID, "C1")
	f.comment(t, post.ID, &c1.ID, "C2")

	tree, err := f.comments.Tree(ctx, post.ID, 2, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, c1.ID, tree[0].Replies[0].ID)
	assert.Empty(t, tree[0].Replies[0].Replies)
	assert.NotNil(t, tree[0].Replies[0].Replies)

	deep, err := f.comments.Tree(ctx, post.ID, 5, false)
	require.NoError(t, err)
	require.Len(t, deep[0].Replies[0].Replies, 1)

	flat, err := f.comments.Tree(ctx, post.ID, 1, false)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Empty(t, flat[0].Replies)
}

func TestCommentService_RepliesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Ordered", PostInput{})

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	f.store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	root := f.comment(t, post.ID, nil, "root")
	older := f.comment(t, post.ID, &root.ID, "older")
	newer := f.comment(t, post.ID, &root.ID, "newer")

	tree, err := f.comments.Tree(ctx, post.ID, 2, false)
	require.NoError(t, err)
	require.Len(t, tree[0].Replies, 2)
	assert.Equal(t, newer.ID, tree[0].Replies[0].ID)
	assert.Equal(t, older.ID, tree[0].Replies[1].ID)
}

func TestCommentService_ParentMustShareThePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createPost(t, "Post A", PostInput{})
	b := f.createPost(t, "Post B", PostInput{})
	onA := f.comment(t, a.ID, nil, "on A")

	_, err := f.comments.Create(ctx, f.other, CommentInput{PostID: b.ID, ParentID: &onA.ID, Content: "cross post"})
	require.Error(t, err)
	assert.True(t, errs.IsCommentPostMismatch(err))
	assert.Equal(t, 400, errs.StatusCodeOf(err))

	onB, err := f.comments.ListAll(ctx, database.CommentFilter{PostID: &b.ID})
	require.NoError(t, err)
	assert.Empty(t, onB)

	missing := uint(999)
	_, err = f.comments.Create(ctx, f.other, CommentInput{PostID: a.ID, ParentID: &missing, Content: "orphan"})
	assert.True(t, errs.IsInvalidFieldError(err))
}

func TestCommentService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Validated", PostInput{})

	_, err := f.comments.Create(ctx, nil, CommentInput{PostID: post.ID, Content: "anon"})
	assert.True(t, errs.IsUnauthorized(err))

	_, err = f.comments.Create(ctx, f.other, CommentInput{PostID: post.ID, Content: "   "})
	assert.True(t, errs.IsMissingRequiredFieldError(err))

	_, err = f.comments.Create(ctx, f.other, CommentInput{PostID: post.ID, Content: strings.Repeat("x", 5001)})
	assert.True(t, errs.IsInvalidFieldError(err))

	_, err = f.comments.Create(ctx, f.other, CommentInput{PostID: 404, Content: "lost"})
	assert.True(t, errs.IsNotFound(err))

	c, err := f.comments.Create(ctx, f.other, CommentInput{PostID: post.ID, Content: "published", Status: ptr(models.StatusPublished)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, c.Status)
	assert.False(t, c.Banned)

	anonymous := NewCommentService(f.store, true, zerolog.Nop())
	c, err = anonymous.Create(ctx, nil, CommentInput{PostID: post.ID, Content: "anon"})
	require.NoError(t, err)
	assert.Nil(t, c.AuthorID)
	assert.Equal(t, models.StatusDraft, c.Status)
}

func TestCommentService_BannedComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Moderated", PostInput{})

	root := f.comment(t, post.ID, nil, "root")
	spam := f.comment(t, post.ID, &root.ID, "spam")
	f.comment(t, post.ID, &root.ID, "fine")

	n, err := f.comments.Ban(ctx, []uint{spam.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.comments.GetVisible(ctx, spam.ID)
	assert.True(t, errs.IsNotFound(err))
	got, err := f.comments.GetAny(ctx, spam.ID)
	require.NoError(t, err)
	assert.True(t, got.Banned)

	public, err := f.comments.Tree(ctx, post.ID, 2, false)
	require.NoError(t, err)
	require.Len(t, public[0].Replies, 1)
	assert.Equal(t, "fine", public[0].Replies[0].Content)

	admin, err := f.comments.Tree(ctx, post.ID, 2, true)
	require.NoError(t, err)
	assert.Len(t, admin[0].Replies, 2)

	visible, err := f.comments.ListVisible(ctx, database.CommentFilter{PostID: &post.ID})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	all, err := f.comments.ListAll(ctx, database.CommentFilter{PostID: &post.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.comments.Create(ctx, f.other, CommentInput{PostID: post.ID, ParentID: &spam.ID, Content: "reply to banned"})
	assert.True(t, errs.IsInvalidFieldError(err))

	n, err = f.comments.Unban(ctx, []uint{spam.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = f.comments.GetVisible(ctx, spam.ID)
	assert.NoError(t, err)
}

func TestCommentService_ApproveRetract(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Approvals", PostInput{})
	a := f.comment(t, post.ID, nil, "a")
	b := f.comment(t, post.ID, nil, "b")

	n, err := f.comments.Approve(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.comments.Approve(ctx, []uint{a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := f.comments.GetAny(ctx, a.ID)
	assert.Equal(t, models.StatusPublished, got.Status)

	_, err = f.comments.Retract(ctx, []uint{a.ID})
	require.NoError(t, err)
	got, _ = f.comments.GetAny(ctx, a.ID)
	assert.Equal(t, models.StatusDraft, got.Status)
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.createPost(t, "Editable", PostInput{})
	other := f.createPost(t, "Elsewhere", PostInput{})

	root := f.comment(t, post.ID, nil, "root")
	child := f.comment(t, post.ID, &root.ID, "child")
	grandchild := f.comment(t, post.ID, &child.ID, "grandchild")
	elsewhere := f.comment(t, other.ID, nil, "elsewhere")

	t.Run("moderators only", func(t *testing.T) {
		_, err := f.comments.Update(ctx, f.other, child.ID, CommentUpdate{Content: ptr("edited")})
		assert.True(t, errs.IsForbidden(err))
	})

	t.Run("rejects cycles", func(t *testing.T) {
		_, err := f.comments.Update(ctx, f.admin, root.ID, CommentUpdate{ParentID: &grandchild.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrCommentParentCycle)
	})

	t.Run("rejects reparenting across posts", func(t *testing.T) {
		_, err := f.comments.Update(ctx, f.admin, child.ID, CommentUpdate{ParentID: &elsewhere.ID})
		assert.True(t, errs.IsCommentPostMismatch(err))
	})

	t.Run("edits content and detaches", func(t *testing.T) {
		got, err := f.comments.Update(ctx, f.admin, grandchild.ID, CommentUpdate{Content: ptr("edited"), DetachParent: true})
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Content)
		assert.True(t, got.IsTopLevel())
		assert.Equal(t, post.ID, got.PostID)
	})

	t.Run("delete cascades to replies", func(t *testing.T) {
		err := f.comments.Delete(ctx, f.author, root.ID)
		assert.True(t, errs.IsForbidden(err))

		require.NoError(t, f.comments.Delete(ctx, f.other, root.ID))
		_, err = f.comments.GetAny(ctx, child.ID)
		assert.True(t, errs.IsNotFound(err))
		_, err = f.comments.GetAny(ctx, grandchild.ID)
		assert.NoError(t, err)
	})
}

func TestParseDepth(t *testing.T) {
	assert.Equal(t, 2, ParseDepth(""))
	assert.Equal(t, 2, ParseDepth("abc"))
	assert.Equal(t, 3, ParseDepth("3"))
	assert.Equal(t, 0, ParseDepth("0"))
}
