package discourseapi

import (
	"context"
	"net/http"
	"sort"
	"strconv"
)

// CategoryUpdate holds every field PUT /categories/{id} accepts. Start from
// DefaultCategoryUpdate so unset fields keep the forum defaults.
type CategoryUpdate struct {
	AllowBadges              bool   `mapstructure:"allow_badges"`
	AutoCloseBasedOnLastPost bool   `mapstructure:"auto_close_based_on_last_post"`
	AutoCloseHours           string `mapstructure:"auto_close_hours"`
	BackgroundURL            string `mapstructure:"background_url"`
	Color                    string `mapstructure:"color"`
	ContainsMessages         bool   `mapstructure:"contains_messages"`
	EmailIn                  string `mapstructure:"email_in"`
	EmailInAllowStrangers    bool   `mapstructure:"email_in_allow_strangers"`
	LogoURL                  string `mapstructure:"logo_url"`
	Name                     string `mapstructure:"name"`
	ParentCategoryID         string `mapstructure:"parent_category_id"`
	Position                 string `mapstructure:"position"`
	Slug                     string `mapstructure:"slug"`
	SuppressFromHomepage     bool   `mapstructure:"suppress_from_homepage"`
	TextColor                string `mapstructure:"text_color"`
	TopicTemplate            string `mapstructure:"topic_template"`
	// Permissions maps group names to permission levels
	// (1 full, 2 create/reply, 3 see).
	Permissions map[string]int `mapstructure:"permissions"`
}

// DefaultCategoryUpdate returns allow_badges=true, color=0E76BD and
// text_color=FFFFFF with every other field empty or false.
func DefaultCategoryUpdate() CategoryUpdate {
	return CategoryUpdate{
		AllowBadges: true,
		Color:       "0E76BD",
		TextColor:   "FFFFFF",
	}
}

func (u CategoryUpdate) params() *Params {
	p := NewParams().
		Set("allow_badges", u.AllowBadges).
		Set("auto_close_based_on_last_post", u.AutoCloseBasedOnLastPost).
		Set("auto_close_hours", u.AutoCloseHours).
		Set("background_url", u.BackgroundURL).
		Set("color", u.Color).
		Set("contains_messages", u.ContainsMessages).
		Set("email_in", u.EmailIn).
		Set("email_in_allow_strangers", u.EmailInAllowStrangers).
		Set("logo_url", u.LogoURL).
		Set("name", u.Name).
		Set("parent_category_id", u.ParentCategoryID).
		Set("position", u.Position).
		Set("slug", u.Slug).
		Set("suppress_from_homepage", u.SuppressFromHomepage).
		Set("text_color", u.TextColor).
		Set("topic_template", u.TopicTemplate)

	groups := make([]string, 0, len(u.Permissions))
	for g := range u.Permissions {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		p.Set("permissions["+g+"]", u.Permissions[g])
	}
	return p
}

// CreateCategory creates a category as actingUser. Empty textColor means
// "000000", empty actingUser the client default.
func (c *Client) CreateCategory(ctx context.Context, name, color, textColor, actingUser string) (*Result, error) {
	if textColor == "" {
		textColor = "000000"
	}
	params := NewParams().
		Set("name", name).
		Set("color", color).
		Set("text_color", textColor)
	return c.write(ctx, http.MethodPost, "/categories", params, actingUser)
}

// GetCategory fetches a category by slug.
func (c *Client) GetCategory(ctx context.Context, slug string) (*Result, error) {
	return c.get(ctx, "/c/"+seg(slug)+".json", nil)
}

// UpdateCategory overwrites a category's settings.
func (c *Client) UpdateCategory(ctx context.Context, id int64, u CategoryUpdate) (*Result, error) {
	return c.write(ctx, http.MethodPut, "/categories/"+strconv.FormatInt(id, 10), u.params(), "")
}

// GetCategories lists all categories.
func (c *Client) GetCategories(ctx context.Context) (*Result, error) {
	return c.get(ctx, "/categories.json", nil)
}
