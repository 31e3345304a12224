package models

import (
	"sort"
	"time"
)

// Post is a forum question or idea
type Post struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Slug      string    `json:"slug" db:"slug"`
	Content   string    `json:"content" db:"content"`
	Image     *string   `json:"image,omitempty" db:"image"`
	UserID    *int64    `json:"userId,omitempty" db:"user_id"`
	Pinned    bool      `json:"pinned" db:"pinned"`
	ViewCount int64     `json:"viewCount" db:"view_count"`
	IsDeleted bool      `json:"-" db:"is_deleted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Derived
	Author        *UserSummary `json:"author,omitempty"`
	Tags          []*Tag       `json:"tags,omitempty"`
	TotalUpvotes  int64        `json:"totalUpvotes"`
	TotalComments int64        `json:"totalComments"`
}

// Tag labels posts
type Tag struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Comment belongs to a post and optionally replies to another comment
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"postId" db:"post_id"`
	UserID    *int64    `json:"userId,omitempty" db:"user_id"`
	ParentID  *int64    `json:"parentId,omitempty" db:"parent_id"`
	Content   string    `json:"content" db:"content"`
	IsDeleted bool      `json:"-" db:"is_deleted"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	AuthorUsername *string `json:"author,omitempty"`
}

// PostUpvote marks a user's upvote on a post
type PostUpvote struct {
	ID        int64     `json:"id" db:"id"`
	PostID    int64     `json:"postId" db:"post_id"`
	UserID    int64     `json:"userId" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UpvoteAction is the outcome of a toggle
type UpvoteAction string

const (
	UpvoteAdded   UpvoteAction = "added"
	UpvoteRemoved UpvoteAction = "removed"
)

// CommentNode is a comment with its replies
type CommentNode struct {
	*Comment
	Replies []*CommentNode `json:"replies"`
}

// BuildCommentTree groups a flat comment list by parent id and returns the
// top-level nodes. Deleted comments and their subtrees are dropped, as are
// replies whose parent is not in the list. Siblings are ordered by creation
// time ascending.
func BuildCommentTree(comments []*Comment) []*CommentNode {
	nodes := make(map[int64]*CommentNode, len(comments))
	children := make(map[int64][]*CommentNode)
	var roots []*CommentNode

	for _, c := range comments {
		if c == nil || c.IsDeleted {
			continue
		}
		nodes[c.ID] = &CommentNode{Comment: c, Replies: []*CommentNode{}}
	}

	for _, c := range comments {
		if c == nil {
			continue
		}
		node, ok := nodes[c.ID]
		if !ok {
			continue
		}
		if c.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], node)
	}

	for parentID, replies := range children {
		parent, ok := nodes[parentID]
		if !ok {
			continue
		}
		sortNodes(replies)
		parent.Replies = replies
	}

	sortNodes(roots)
	if roots == nil {
		roots = []*CommentNode{}
	}
	return roots
}

func sortNodes(nodes []*CommentNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].ID < nodes[j].ID
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}
