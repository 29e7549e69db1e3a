// Package memory is an in-process implementation of database.Store used by
// tests and by DB_TYPE=memory. It mirrors the constraints the postgres schema
// enforces: unique titles, slugs and usernames, foreign keys, and the cascade
// and set-null rules on delete.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rpupo63/myblog-backend/database"
	"github.com/rpupo63/myblog-backend/errs"
	"github.com/rpupo63/myblog-backend/models"
)

type Store struct {
	mu sync.RWMutex

	users           map[uint]*models.User
	posts           map[uint]*models.Post
	postTags        map[uint]map[string]struct{}
	comments        map[uint]*models.Comment
	classifications map[string]*models.Taxonomy
	tags            map[string]*models.Taxonomy
	preference      *models.StoragePreference

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint

	now func() time.Time
}

var _ database.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:           make(map[uint]*models.User),
		posts:           make(map[uint]*models.Post),
		postTags:        make(map[uint]map[string]struct{}),
		comments:        make(map[uint]*models.Comment),
		classifications: make(map[string]*models.Taxonomy),
		tags:            make(map[string]*models.Taxonomy),
		nextUserID:      1,
		nextPostID:      1,
		nextCommentID:   1,
		now:             time.Now,
	}
}

// SetClock replaces the time source used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Posts() database.PostRepository { return postRepo{s} }

func (s *Store) Comments() database.CommentRepository { return commentRepo{s} }

func (s *Store) Classifications() database.TaxonomyRepository {
	return taxonomyRepo{s: s, entity: "classification", entries: func() map[string]*models.Taxonomy { return s.classifications }}
}

func (s *Store) Tags() database.TaxonomyRepository {
	return taxonomyRepo{s: s, entity: "tag", entries: func() map[string]*models.Taxonomy { return s.tags }}
}

func (s *Store) Users() database.UserRepository { return userRepo{s} }

func (s *Store) StoragePreference() database.StoragePreferenceRepository { return preferenceRepo{s} }

// Transaction runs fn against a copy of the store and publishes the copy only
// when fn returns nil. Other callers block until it finishes, so fn must use
// the Store it is given and never s itself.
func (s *Store) Transaction(ctx context.Context, fn func(database.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.clone()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.adopt(tx)
	return nil
}

// clone deep-copies the stored rows. Callers hold the lock.
func (s *Store) clone() *Store {
	c := &Store{
		users:           make(map[uint]*models.User, len(s.users)),
		posts:           make(map[uint]*models.Post, len(s.posts)),
		postTags:        make(map[uint]map[string]struct{}, len(s.postTags)),
		comments:        make(map[uint]*models.Comment, len(s.comments)),
		classifications: make(map[string]*models.Taxonomy, len(s.classifications)),
		tags:            make(map[string]*models.Taxonomy, len(s.tags)),
		nextUserID:      s.nextUserID,
		nextPostID:      s.nextPostID,
		nextCommentID:   s.nextCommentID,
		now:             s.now,
	}
	for id, u := range s.users {
		cp := *u
		c.users[id] = &cp
	}
	for id, p := range s.posts {
		cp := *p
		c.posts[id] = &cp
	}
	for id, set := range s.postTags {
		names := make(map[string]struct{}, len(set))
		for name := range set {
			names[name] = struct{}{}
		}
		c.postTags[id] = names
	}
	for id, cm := range s.comments {
		cp := *cm
		c.comments[id] = &cp
	}
	for name, t := range s.classifications {
		cp := *t
		c.classifications[name] = &cp
	}
	for name, t := range s.tags {
		cp := *t
		c.tags[name] = &cp
	}
	if s.preference != nil {
		cp := *s.preference
		c.preference = &cp
	}
	return c
}

// adopt takes over the rows of a committed transaction. Callers hold the lock.
func (s *Store) adopt(tx *Store) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	s.users, s.posts, s.postTags, s.comments = tx.users, tx.posts, tx.postTags, tx.comments
	s.classifications, s.tags, s.preference = tx.classifications, tx.tags, tx.preference
	s.nextUserID, s.nextPostID, s.nextCommentID = tx.nextUserID, tx.nextPostID, tx.nextCommentID
}

// ---- posts ----

type postRepo struct{ s *Store }

// hydrate returns a copy of p with its author and tags attached. Callers hold the lock.
func (s *Store) hydrate(p *models.Post) *models.Post {
	out := *p
	out.Tags = nil
	out.Author = nil
	out.Classification = nil

	if p.AuthorID != nil {
		if u, ok := s.users[*p.AuthorID]; ok {
			author := *u
			out.Author = &author
		}
	}

	names := s.sortedTagNames(p.ID)
	out.Tags = make([]models.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := s.tags[name]; ok {
			out.Tags = append(out.Tags, models.Tag(*t))
		}
	}
	return &out
}

func (s *Store) sortedTagNames(postID uint) []string {
	names := make([]string, 0, len(s.postTags[postID]))
	for name := range s.postTags[postID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r postRepo) FindAll(ctx context.Context, filter database.PostFilter) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	classifications := toSet(filter.Classifications)
	tags := toSet(filter.Tags)

	var posts []*models.Post
	for _, p := range r.s.posts {
		if len(classifications) > 0 {
			if _, ok := classifications[p.ClassificationOrEmpty()]; !ok || p.ClassificationName == nil {
				continue
			}
		}
		if len(tags) > 0 && !r.s.hasAnyTag(p.ID, tags) {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Pinned != nil && p.IsPinned != *filter.Pinned {
			continue
		}
		if filter.Start != nil && p.CreatedAt.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && p.CreatedAt.After(*filter.End) {
			continue
		}
		if !filter.IncludeHidden && !p.Visible {
			if filter.ViewerID == nil || p.AuthorID == nil || *p.AuthorID != *filter.ViewerID {
				continue
			}
		}
		posts = append(posts, r.s.hydrate(p))
	}

	sort.SliceStable(posts, postLess(posts, filter.Ordering))
	return posts, nil
}

func (s *Store) hasAnyTag(postID uint, tags map[string]struct{}) bool {
	for name := range s.postTags[postID] {
		if _, ok := tags[name]; ok {
			return true
		}
	}
	return false
}

// postLess orders like the SQL ORDER BY clauses in database.PostOrderings, ties broken by id descending.
func postLess(posts []*models.Post, ordering string) func(i, j int) bool {
	byID := func(a, b *models.Post) bool { return a.ID > b.ID }
	byCreated := func(a, b *models.Post, desc bool) (bool, bool) {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return false, false
		}
		if desc {
			return a.CreatedAt.After(b.CreatedAt), true
		}
		return a.CreatedAt.Before(b.CreatedAt), true
	}
	byBool := func(a, b bool, desc bool) (bool, bool) {
		if a == b {
			return false, false
		}
		if desc {
			return a, true
		}
		return b, true
	}

	return func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch ordering {
		case "created_at", "-created_at":
			if less, decided := byCreated(a, b, ordering[0] == '-'); decided {
				return less
			}
		case "is_pinned", "-is_pinned":
			if less, decided := byBool(a.IsPinned, b.IsPinned, ordering[0] == '-'); decided {
				return less
			}
		case "status":
			if a.Status != b.Status {
				return a.Status < b.Status
			}
		case "-status":
			if a.Status != b.Status {
				return a.Status > b.Status
			}
		default:
			if less, decided := byBool(a.IsPinned, b.IsPinned, true); decided {
				return less
			}
			if less, decided := byCreated(a, b, true); decided {
				return less
			}
		}
		return byID(a, b)
	}
}

func (r postRepo) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, errs.NewNotFound("post")
	}
	return r.s.hydrate(p), nil
}

func (r postRepo) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.posts {
		if p.Slug == slug {
			return r.s.hydrate(p), nil
		}
	}
	return nil, errs.NewNotFound("post")
}

func (r postRepo) FindByIDs(ctx context.Context, ids []uint) ([]*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var posts []*models.Post
	for _, id := range ids {
		if p, ok := r.s.posts[id]; ok {
			posts = append(posts, r.s.hydrate(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r postRepo) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.posts {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// checkPost enforces the unique and foreign key constraints of the posts table. Callers hold the lock.
func (s *Store) checkPost(post *models.Post) error {
	for _, p := range s.posts {
		if p.ID == post.ID {
			continue
		}
		if p.Title == post.Title {
			return errs.NewUniqueConstraintViolationError("post", "title", nil)
		}
		if p.Slug == post.Slug {
			return errs.NewUniqueConstraintViolationError("post", "slug", nil)
		}
	}
	if post.ClassificationName != nil {
		if _, ok := s.classifications[*post.ClassificationName]; !ok {
			return errs.NewNotFound("classification")
		}
	}
	if post.AuthorID != nil {
		if _, ok := s.users[*post.AuthorID]; !ok {
			return errs.NewNotFound("user")
		}
	}
	return nil
}

func (r postRepo) Add(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	post.ID = r.s.nextPostID
	if err := r.s.checkPost(post); err != nil {
		post.ID = 0
		return err
	}
	r.s.nextPostID++

	now := r.s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	stored := *post
	stored.Tags, stored.Author, stored.Classification = nil, nil, nil
	r.s.posts[post.ID] = &stored
	return nil
}

func (r postRepo) Update(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[post.ID]; !ok {
		return errs.NewNotFound("post")
	}
	if err := r.s.checkPost(post); err != nil {
		return err
	}
	post.UpdatedAt = r.s.now()

	stored := *post
	stored.Tags, stored.Author, stored.Classification = nil, nil, nil
	r.s.posts[post.ID] = &stored
	return nil
}

func (r postRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[id]; !ok {
		return errs.NewNotFound("post")
	}
	delete(r.s.posts, id)
	delete(r.s.postTags, id)
	for cid, c := range r.s.comments {
		if c.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

func (r postRepo) IncrementViews(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p, ok := r.s.posts[id]; ok {
		p.ViewsCount++
	}
	return nil
}

func (r postRepo) SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error) {
	return r.update(ids, func(p *models.Post) { p.Status = status }), nil
}

func (r postRepo) SetPinned(ctx context.Context, ids []uint, pinned bool) (int64, error) {
	return r.update(ids, func(p *models.Post) { p.IsPinned = pinned }), nil
}

func (r postRepo) update(ids []uint, apply func(*models.Post)) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var affected int64
	for id := range toIDSet(ids) {
		if p, ok := r.s.posts[id]; ok {
			apply(p)
			p.UpdatedAt = r.s.now()
			affected++
		}
	}
	return affected
}

func (r postRepo) TagNames(ctx context.Context, postID uint) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.sortedTagNames(postID), nil
}

func (r postRepo) AddTags(ctx context.Context, postID uint, names []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[postID]; !ok {
		return errs.NewNotFound("post")
	}
	for _, name := range names {
		if _, ok := r.s.tags[name]; !ok {
			return errs.NewNotFound("tag")
		}
	}
	set, ok := r.s.postTags[postID]
	if !ok {
		set = make(map[string]struct{})
		r.s.postTags[postID] = set
	}
	for _, name := range names {
		set[name] = struct{}{}
	}
	return nil
}

func (r postRepo) RemoveTags(ctx context.Context, postID uint, names []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, name := range names {
		delete(r.s.postTags[postID], name)
	}
	return nil
}

func (r postRepo) ClearTags(ctx context.Context, postID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.postTags, postID)
	return nil
}

// ---- comments ----

type commentRepo struct{ s *Store }

func (r commentRepo) find(filter database.CommentFilter, visibleOnly bool) []*models.Comment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Comment
	for _, c := range r.s.comments {
		if visibleOnly && c.Banned {
			continue
		}
		if filter.PostID != nil && c.PostID != *filter.PostID {
			continue
		}
		if filter.ParentID != nil {
			if c.ParentID == nil || *c.ParentID != *filter.ParentID {
				continue
			}
		} else if filter.RootOnly && c.ParentID != nil {
			continue
		}
		if filter.Banned != nil && c.Banned != *filter.Banned {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sortComments(out)
	return out
}

// sortComments orders newest first, ties broken by id descending.
func sortComments(comments []*models.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func (r commentRepo) FindVisible(ctx context.Context, filter database.CommentFilter) ([]*models.Comment, error) {
	return r.find(filter, true), nil
}

func (r commentRepo) FindAll(ctx context.Context, filter database.CommentFilter) ([]*models.Comment, error) {
	return r.find(filter, false), nil
}

func (r commentRepo) FindVisibleByID(ctx context.Context, id uint) (*models.Comment, error) {
	c, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Banned {
		return nil, errs.NewNotFound("comment")
	}
	return c, nil
}

func (r commentRepo) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, errs.NewNotFound("comment")
	}
	cp := *c
	return &cp, nil
}

func (r commentRepo) FindReplies(ctx context.Context, parentIDs []uint, includeBanned bool) (map[uint][]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	parents := toIDSet(parentIDs)
	result := make(map[uint][]*models.Comment, len(parents))
	for _, c := range r.s.comments {
		if c.ParentID == nil {
			continue
		}
		if _, ok := parents[*c.ParentID]; !ok {
			continue
		}
		if c.Banned && !includeBanned {
			continue
		}
		cp := *c
		result[*c.ParentID] = append(result[*c.ParentID], &cp)
	}
	for _, replies := range result {
		sortComments(replies)
	}
	return result, nil
}

// checkComment enforces the foreign keys of the comments table. Callers hold the lock.
func (s *Store) checkComment(comment *models.Comment) error {
	if _, ok := s.posts[comment.PostID]; !ok {
		return errs.NewNotFound("post")
	}
	if comment.ParentID != nil {
		if _, ok := s.comments[*comment.ParentID]; !ok {
			return errs.NewNotFound("comment")
		}
	}
	if comment.AuthorID != nil {
		if _, ok := s.users[*comment.AuthorID]; !ok {
			return errs.NewNotFound("user")
		}
	}
	return nil
}

func (r commentRepo) Add(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkComment(comment); err != nil {
		return err
	}
	comment.ID = r.s.nextCommentID
	r.s.nextCommentID++
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = r.s.now()
	}

	stored := *comment
	stored.Author, stored.Post, stored.Parent = nil, nil, nil
	r.s.comments[comment.ID] = &stored
	return nil
}

func (r commentRepo) Update(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[comment.ID]; !ok {
		return errs.NewNotFound("comment")
	}
	if err := r.s.checkComment(comment); err != nil {
		return err
	}

	stored := *comment
	stored.Author, stored.Post, stored.Parent = nil, nil, nil
	r.s.comments[comment.ID] = &stored
	return nil
}

func (r commentRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return errs.NewNotFound("comment")
	}
	r.s.deleteCommentTree(id)
	return nil
}

// deleteCommentTree removes a comment and every reply below it. Callers hold the lock.
func (s *Store) deleteCommentTree(id uint) {
	delete(s.comments, id)
	for cid, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == id {
			s.deleteCommentTree(cid)
		}
	}
}

func (r commentRepo) SetBanned(ctx context.Context, ids []uint, banned bool) (int64, error) {
	return r.update(ids, func(c *models.Comment) { c.Banned = banned }), nil
}

func (r commentRepo) SetStatus(ctx context.Context, ids []uint, status models.Status) (int64, error) {
	return r.update(ids, func(c *models.Comment) { c.Status = status }), nil
}

func (r commentRepo) update(ids []uint, apply func(*models.Comment)) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var affected int64
	for id := range toIDSet(ids) {
		if c, ok := r.s.comments[id]; ok {
			apply(c)
			affected++
		}
	}
	return affected
}

// ---- classifications and tags ----

type taxonomyRepo struct {
	s       *Store
	entity  string
	entries func() map[string]*models.Taxonomy
}

func (r taxonomyRepo) FindAll(ctx context.Context) ([]*models.Taxonomy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Taxonomy, 0, len(r.entries()))
	for _, e := range r.entries() {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r taxonomyRepo) FindByName(ctx context.Context, name string) (*models.Taxonomy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.entries()[name]
	if !ok {
		return nil, errs.NewNotFound(r.entity)
	}
	cp := *e
	return &cp, nil
}

func (r taxonomyRepo) Add(ctx context.Context, entry *models.Taxonomy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.entries()[entry.Name]; ok {
		return errs.NewAlreadyExists(r.entity)
	}
	cp := *entry
	r.entries()[entry.Name] = &cp
	return nil
}

func (r taxonomyRepo) Update(ctx context.Context, entry *models.Taxonomy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.entries()[entry.Name]
	if !ok {
		return errs.NewNotFound(r.entity)
	}
	e.Color = entry.Color
	return nil
}

func (r taxonomyRepo) Delete(ctx context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.entries()[name]; !ok {
		return errs.NewNotFound(r.entity)
	}
	delete(r.entries(), name)

	if r.isTags() {
		for _, set := range r.s.postTags {
			delete(set, name)
		}
		return nil
	}
	for _, p := range r.s.posts {
		if p.ClassificationName != nil && *p.ClassificationName == name {
			p.ClassificationName = nil
		}
	}
	return nil
}

func (r taxonomyRepo) CountPosts(ctx context.Context, name string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	if r.isTags() {
		for _, set := range r.s.postTags {
			if _, ok := set[name]; ok {
				count++
			}
		}
		return count, nil
	}
	for _, p := range r.s.posts {
		if p.ClassificationName != nil && *p.ClassificationName == name {
			count++
		}
	}
	return count, nil
}

func (r taxonomyRepo) SetItemCount(ctx context.Context, name string, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.entries()[name]; ok {
		e.ItemCount = count
	}
	return nil
}

func (r taxonomyRepo) isTags() bool {
	return r.entity == "tag"
}

// ---- users ----

type userRepo struct{ s *Store }

func (r userRepo) FindAll(ctx context.Context) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r userRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, errs.NewNotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.NewNotFound("user")
}

// checkUser enforces unique usernames and emails. Callers hold the lock.
func (s *Store) checkUser(user *models.User) error {
	for _, u := range s.users {
		if u.ID == user.ID {
			continue
		}
		if u.Username == user.Username {
			return errs.NewUniqueConstraintViolationError("user", "username", nil)
		}
		if u.Email == user.Email {
			return errs.NewUniqueConstraintViolationError("user", "email", nil)
		}
	}
	return nil
}

func (r userRepo) Add(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkUser(user); err != nil {
		return err
	}
	user.ID = r.s.nextUserID
	r.s.nextUserID++
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now

	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return errs.NewNotFound("user")
	}
	if err := r.s.checkUser(user); err != nil {
		return err
	}
	user.UpdatedAt = r.s.now()

	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) Delete(ctx context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return errs.NewNotFound("user")
	}
	delete(r.s.users, id)
	for _, p := range r.s.posts {
		if p.AuthorID != nil && *p.AuthorID == id {
			p.AuthorID = nil
		}
	}
	for _, c := range r.s.comments {
		if c.AuthorID != nil && *c.AuthorID == id {
			c.AuthorID = nil
		}
	}
	return nil
}

// ---- storage preference ----

type preferenceRepo struct{ s *Store }

func (r preferenceRepo) Get(ctx context.Context) (*models.StoragePreference, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.preference == nil {
		r.s.preference = &models.StoragePreference{ID: models.StoragePreferenceID, UpdatedAt: r.s.now()}
	}
	cp := *r.s.preference
	return &cp, nil
}

func (r preferenceRepo) Save(ctx context.Context, pref *models.StoragePreference) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pref.ID = models.StoragePreferenceID
	pref.UpdatedAt = r.s.now()
	cp := *pref
	r.s.preference = &cp
	return nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func toIDSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
