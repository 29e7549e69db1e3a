package services

import (
	"context"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"
	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/models"
)

// DefaultCommentDepth is the nesting used when the caller gives none or an unparsable value.
const DefaultCommentDepth = 2

// CommentNode is a comment with its depth-limited replies, newest first.
type CommentNode struct {
	*models.Comment
	Replies []*CommentNode `json:"replies"`
}

// ParseDepth reads a depth query value. Top-level comments are level 1, so
// depth 2 includes their direct replies and anything below 2 includes none.
func ParseDepth(raw string) int {
	if raw == "" {
		return DefaultCommentDepth
	}
	depth, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultCommentDepth
	}
	return depth
}

// newReplyLoader batches reply lookups by parent id so each tree level costs one query.
func newReplyLoader(comments database.CommentRepository, includeBanned bool) *dataloader.Loader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		parentIDs := make([]uint, 0, len(keys))
		for _, key := range keys {
			id, err := strconv.ParseUint(key.String(), 10, 64)
			if err == nil {
				parentIDs = append(parentIDs, uint(id))
			}
		}

		replies, err := comments.FindReplies(ctx, parentIDs, includeBanned)
		results := make([]*dataloader.Result, len(keys))
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		for i, key := range keys {
			id, _ := strconv.ParseUint(key.String(), 10, 64)
			results[i] = &dataloader.Result{Data: replies[uint(id)]}
		}
		return results
	}

	return dataloader.NewBatchedLoader(batchFn,
		dataloader.WithWait(time.Millisecond),
		dataloader.WithCache(&dataloader.NoCache{}),
	)
}

// buildTree attaches replies to roots one level at a time until depth is reached.
func buildTree(ctx context.Context, comments database.CommentRepository, roots []*models.Comment, depth int, includeBanned bool) ([]*CommentNode, error) {
	nodes := make([]*CommentNode, 0, len(roots))
	for _, c := range roots {
		nodes = append(nodes, &CommentNode{Comment: c, Replies: []*CommentNode{}})
	}

	loader := newReplyLoader(comments, includeBanned)
	level := nodes
	for current := 1; current < depth && len(level) > 0; current++ {
		keys := make(dataloader.Keys, 0, len(level))
		for _, node := range level {
			keys = append(keys, dataloader.StringKey(strconv.FormatUint(uint64(node.ID), 10)))
		}

		data, loadErrs := loader.LoadMany(ctx, keys)()
		for _, err := range loadErrs {
			if err != nil {
				return nil, err
			}
		}

		var next []*CommentNode
		for i, node := range level {
			if i >= len(data) {
				break
			}
			replies, _ := data[i].([]*models.Comment)
			for _, reply := range replies {
				child := &CommentNode{Comment: reply, Replies: []*CommentNode{}}
				node.Replies = append(node.Replies, child)
				next = append(next, child)
			}
		}
		level = next
	}
	return nodes, nil
}
