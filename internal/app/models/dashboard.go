package models

// Dashboard is the signed-in user's overview
type Dashboard struct {
	ActiveListings  int64 `json:"activeListings"`
	Posts           int64 `json:"posts"`
	UpvotesReceived int64 `json:"upvotesReceived"`
	UnreadMessages  int64 `json:"unreadMessages"`

	RecentListings []*Listing `json:"recentListings"`
	RecentPosts    []*Post    `json:"recentPosts"`
	RecentMessages []*Message `json:"recentMessages"`
}
