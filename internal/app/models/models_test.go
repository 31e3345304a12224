package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestBuildCommentTree(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	comments := []*Comment{
		{ID: 4, PostID: 1, ParentID: ptr(int64(1)), Content: "second reply", CreatedAt: base.Add(4 * time.Minute)},
		{ID: 1, PostID: 1, Content: "first", CreatedAt: base},
		{ID: 2, PostID: 1, Content: "second", CreatedAt: base.Add(time.Minute)},
		{ID: 3, PostID: 1, ParentID: ptr(int64(1)), Content: "first reply", CreatedAt: base.Add(2 * time.Minute)},
		{ID: 5, PostID: 1, Content: "removed", IsDeleted: true, CreatedAt: base.Add(5 * time.Minute)},
		{ID: 6, PostID: 1, ParentID: ptr(int64(5)), Content: "reply to removed", CreatedAt: base.Add(6 * time.Minute)},
		{ID: 7, PostID: 1, ParentID: ptr(int64(3)), Content: "nested", CreatedAt: base.Add(7 * time.Minute)},
	}

	roots := BuildCommentTree(comments)

	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(2), roots[1].ID)

	require.Len(t, roots[0].Replies, 2)
	assert.Equal(t, int64(3), roots[0].Replies[0].ID)
	assert.Equal(t, int64(4), roots[0].Replies[1].ID)

	require.Len(t, roots[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested", roots[0].Replies[0].Replies[0].Content)

	assert.Empty(t, roots[1].Replies)
}

func TestBuildCommentTree_Empty(t *testing.T) {
	roots := BuildCommentTree(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)
}

func TestNotificationType(t *testing.T) {
	assert.Equal(t, NotificationAlert, ParseNotificationType("ALERT"))
	assert.Equal(t, NotificationInfo, ParseNotificationType("celebration"))
	assert.False(t, NotificationType("celebration").IsValid())
	assert.Equal(t, "fa-envelope", NotificationMessage.DefaultIcon())
}

func TestRoleType(t *testing.T) {
	assert.True(t, RoleExpert.IsValid())
	assert.True(t, RoleProducer.SelfAssignable())
	assert.False(t, RoleAdmin.SelfAssignable())
	assert.False(t, RoleType("student").IsValid())
}

func TestProfileCompletion(t *testing.T) {
	u := &User{}
	assert.Equal(t, 0, u.ProfileCompletion())

	u.FullName = ptr("Aline Uwase")
	u.Bio = ptr("   ")
	u.Location = ptr("Kigali")
	u.Github = ptr("https://github.com/aline")
	assert.Equal(t, 42, u.ProfileCompletion())
}

func TestConversationHasParticipant(t *testing.T) {
	c := &Conversation{Participants: []*UserSummary{{ID: 1}, {ID: 2}}}
	assert.True(t, c.HasParticipant(2))
	assert.False(t, c.HasParticipant(3))
}
