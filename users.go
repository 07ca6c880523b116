package discourseapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// NewUser is the input of CreateUser.
type NewUser struct {
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// UserIDByUsername resolves a username to its id.
func (c *Client) UserIDByUsername(ctx context.Context, username string) Lookup {
	return c.lookupID(ctx, "/users/"+seg(username)+".json", "user.id")
}

// GetUserByUsername fetches a public user profile.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*Result, error) {
	return c.get(ctx, "/users/"+seg(username)+".json", nil)
}

// GetUserByExternalID fetches an SSO user by external id.
func (c *Client) GetUserByExternalID(ctx context.Context, externalID string) (*Result, error) {
	return c.get(ctx, "/users/by-external/"+seg(externalID)+".json", nil)
}

// GetUserBadgesByUsername lists badges granted to a user.
func (c *Client) GetUserBadgesByUsername(ctx context.Context, username string) (*Result, error) {
	return c.get(ctx, "/user-badges/"+seg(username)+".json", nil)
}

// LogoutUser ends every session of username.
func (c *Client) LogoutUser(ctx context.Context, username string) (*Result, error) {
	u := c.UserIDByUsername(ctx, username)
	if err := u.errFor(ErrUserNotFound, username); err != nil {
		return nil, err
	}
	return c.write(ctx, http.MethodPost, "/admin/users/"+strconv.FormatInt(u.ID, 10)+"/log_out", nil, "")
}

// CreateUser registers a user. The honeypot challenge is fetched first;
// ErrChallengeUnavailable is returned when that does not answer 200.
func (c *Client) CreateUser(ctx context.Context, u NewUser) (*Result, error) {
	hp, err := c.get(ctx, "/users/hp.json", nil)
	if err != nil {
		return nil, err
	}
	if hp.Status != 200 {
		return nil, fmt.Errorf("%w (status %d)", ErrChallengeUnavailable, hp.Status)
	}

	params := NewParams().
		Set("name", u.Name).
		Set("username", u.Username).
		Set("email", u.Email).
		Set("password", u.Password).
		Set("challenge", reverse(hp.Get("challenge").String())).
		Set("password_confirmation", hp.Get("value").String())
	return c.write(ctx, http.MethodPost, "/users", params, "")
}

// ActivateUser activates a user account by id.
func (c *Client) ActivateUser(ctx context.Context, id int64) (*Result, error) {
	return c.write(ctx, http.MethodPut, "/admin/users/"+strconv.FormatInt(id, 10)+"/activate", nil, "")
}

// InviteUser invites email to a topic as actingUser.
func (c *Client) InviteUser(ctx context.Context, email string, topicID int64, actingUser string) (*Result, error) {
	params := NewParams().
		Set("email", email).
		Set("topic_id", topicID)
	return c.write(ctx, http.MethodPost, "/t/"+strconv.FormatInt(topicID, 10)+"/invite.json", params, actingUser)
}

// UsernameByEmail returns the username of the active user whose email
// matches exactly.
func (c *Client) UsernameByEmail(ctx context.Context, email string) (string, error) {
	user, err := c.findActiveUser(ctx, email, func(a, b string) bool { return a == b })
	if err != nil {
		return "", err
	}
	name, _ := user["username"].(string)
	return name, nil
}

// UserByEmail returns the decoded object of the active user whose email
// matches case-insensitively.
func (c *Client) UserByEmail(ctx context.Context, email string) (map[string]any, error) {
	return c.findActiveUser(ctx, email, strings.EqualFold)
}

func (c *Client) findActiveUser(ctx context.Context, email string, match func(a, b string) bool) (map[string]any, error) {
	res, err := c.get(ctx, "/admin/users/list/active.json", NewParams().Set("filter", email))
	if err != nil {
		return nil, err
	}
	users, _ := res.JSON.([]any)
	for _, u := range users {
		m, ok := u.(map[string]any)
		if !ok {
			continue
		}
		if e, _ := m["email"].(string); match(e, email) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
