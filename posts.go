package discourseapi

import (
	"context"
	"html"
	"net/http"
	"strconv"
)

// CreatePost replies to a topic as actingUser.
func (c *Client) CreatePost(ctx context.Context, body string, topicID int64, actingUser string) (*Result, error) {
	params := NewParams().
		Set("raw", body).
		Set("archetype", "regular").
		Set("topic_id", topicID)
	return c.write(ctx, http.MethodPost, "/posts", params, actingUser)
}

// GetPostByNumber fetches the n-th post of a topic.
func (c *Client) GetPostByNumber(ctx context.Context, topicID, postNumber int64) (*Result, error) {
	return c.get(ctx, "/posts/by_number/"+strconv.FormatInt(topicID, 10)+"/"+strconv.FormatInt(postNumber, 10)+".json", nil)
}

// UpdatePost replaces a post's content. bodyHTML is sent as the cooked text;
// its entity-decoded form becomes the raw text.
func (c *Client) UpdatePost(ctx context.Context, bodyHTML string, postID int64, actingUser string) (*Result, error) {
	params := NewParams().
		Set("post[cooked]", bodyHTML).
		Set("post[edit_reason]", "").
		Set("post[raw]", html.UnescapeString(bodyHTML))
	return c.write(ctx, http.MethodPut, "/posts/"+strconv.FormatInt(postID, 10), params, actingUser)
}
