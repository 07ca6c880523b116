package discourseapi

import (
	"context"
	"net/http"
	"strconv"
)

// NewTopic is the input of CreateTopic. Category accepts an id or a name.
type NewTopic struct {
	Title             string `mapstructure:"title"`
	Body              string `mapstructure:"body"`
	Category          string `mapstructure:"category"`
	ActingUser        string `mapstructure:"acting_user"`
	ReplyToPostNumber int    `mapstructure:"reply_to_post_number"`
}

// CreateTopic opens a topic; its first post is Body.
func (c *Client) CreateTopic(ctx context.Context, t NewTopic) (*Result, error) {
	params := NewParams().
		Set("title", t.Title).
		Set("raw", t.Body).
		Set("category", t.Category).
		Set("archetype", "regular").
		Set("reply_to_post_number", t.ReplyToPostNumber)
	return c.write(ctx, http.MethodPost, "/posts", params, t.ActingUser)
}

// GetTopic fetches a topic with its first page of posts.
func (c *Client) GetTopic(ctx context.Context, id int64) (*Result, error) {
	return c.get(ctx, "/t/"+strconv.FormatInt(id, 10)+".json", nil)
}

// TopTopics lists the top topics of a category for period (daily, weekly,
// monthly, quarterly, yearly, all). Empty period means daily.
func (c *Client) TopTopics(ctx context.Context, category, period string) (*Result, error) {
	if period == "" {
		period = "daily"
	}
	return c.get(ctx, "/c/"+seg(category)+"/l/top/"+seg(period)+".json", nil)
}

// LatestTopics lists the latest topics of a category.
func (c *Client) LatestTopics(ctx context.Context, category string) (*Result, error) {
	return c.get(ctx, "/c/"+seg(category)+"/l/latest.json", nil)
}
