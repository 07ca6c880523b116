package discourseapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// GroupOptions are the attributes of a new group. Start from
// DefaultGroupOptions; the zero value is not the forum default.
type GroupOptions struct {
	Usernames                       []string `mapstructure:"usernames"`
	AliasLevel                      int      `mapstructure:"alias_level"`
	Visible                         bool     `mapstructure:"visible"`
	AutomaticMembershipEmailDomains string   `mapstructure:"automatic_membership_email_domains"`
	AutomaticMembershipRetroactive  bool     `mapstructure:"automatic_membership_retroactive"`
	Title                           string   `mapstructure:"title"`
	PrimaryGroup                    bool     `mapstructure:"primary_group"`
	GrantTrustLevel                 int      `mapstructure:"grant_trust_level"`
}

// DefaultGroupOptions returns alias_level=3 and visible=true, everything else empty.
func DefaultGroupOptions() GroupOptions {
	return GroupOptions{AliasLevel: 3, Visible: true}
}

type groupPayload struct {
	Group groupFields `url:"group"`
}

type groupFields struct {
	Name                            string `url:"name"`
	Usernames                       string `url:"usernames"`
	AliasLevel                      int    `url:"alias_level"`
	Visible                         bool   `url:"visible"`
	AutomaticMembershipEmailDomains string `url:"automatic_membership_email_domains"`
	AutomaticMembershipRetroactive  bool   `url:"automatic_membership_retroactive"`
	Title                           string `url:"title"`
	PrimaryGroup                    bool   `url:"primary_group"`
	GrantTrustLevel                 int    `url:"grant_trust_level"`
}

// GetGroups lists all groups.
func (c *Client) GetGroups(ctx context.Context) (*Result, error) {
	return c.get(ctx, "/groups.json", nil)
}

// GetGroup fetches one group by name.
func (c *Client) GetGroup(ctx context.Context, name string) (*Result, error) {
	return c.get(ctx, "/groups/"+seg(name)+".json", nil)
}

// GroupIDByName resolves a group name to its id.
func (c *Client) GroupIDByName(ctx context.Context, name string) Lookup {
	return c.lookupID(ctx, "/groups/"+seg(name)+".json", "group.id")
}

// GetGroupMembers lists the members of a group.
func (c *Client) GetGroupMembers(ctx context.Context, name string) (*Result, error) {
	return c.get(ctx, "/groups/"+seg(name)+"/members.json", nil)
}

// JoinGroup adds username to group. ErrGroupNotFound is returned, without
// further requests, when the group lookup does not answer 200.
func (c *Client) JoinGroup(ctx context.Context, group, username string) (*Result, error) {
	g := c.GroupIDByName(ctx, group)
	if err := g.errFor(ErrGroupNotFound, group); err != nil {
		return nil, err
	}
	params := NewParams().Set("usernames", username)
	return c.write(ctx, http.MethodPut, groupMembersPath(g.ID), params, "")
}

// LeaveGroup removes username from group. The user is resolved first, then
// the group; either failure aborts the call.
func (c *Client) LeaveGroup(ctx context.Context, group, username string) (*Result, error) {
	u := c.UserIDByUsername(ctx, username)
	if err := u.errFor(ErrUserNotFound, username); err != nil {
		return nil, err
	}
	g := c.GroupIDByName(ctx, group)
	if err := g.errFor(ErrGroupNotFound, group); err != nil {
		return nil, err
	}
	params := NewParams().Set("user_id", u.ID)
	return c.write(ctx, http.MethodDelete, groupMembersPath(g.ID), params, "")
}

// AddGroup creates a group. A nil opts means DefaultGroupOptions.
// ErrGroupExists is returned when a group of that name is already there.
func (c *Client) AddGroup(ctx context.Context, name string, opts *GroupOptions) (*Result, error) {
	g := c.GroupIDByName(ctx, name)
	switch g.State {
	case LookupFound:
		return nil, fmt.Errorf("%w: %s", ErrGroupExists, name)
	case LookupFailed:
		return nil, g.Err
	}

	o := DefaultGroupOptions()
	if opts != nil {
		o = *opts
	}
	payload := groupPayload{Group: groupFields{
		Name:                            name,
		Usernames:                       strings.Join(o.Usernames, ","),
		AliasLevel:                      o.AliasLevel,
		Visible:                         o.Visible,
		AutomaticMembershipEmailDomains: o.AutomaticMembershipEmailDomains,
		AutomaticMembershipRetroactive:  o.AutomaticMembershipRetroactive,
		Title:                           o.Title,
		PrimaryGroup:                    o.PrimaryGroup,
		GrantTrustLevel:                 o.GrantTrustLevel,
	}}
	return c.writeNested(ctx, http.MethodPost, "/admin/groups", payload)
}

// RemoveGroup deletes a group by name.
func (c *Client) RemoveGroup(ctx context.Context, name string) (*Result, error) {
	g := c.GroupIDByName(ctx, name)
	if err := g.errFor(ErrGroupNotFound, name); err != nil {
		return nil, err
	}
	return c.write(ctx, http.MethodDelete, "/admin/groups/"+strconv.FormatInt(g.ID, 10), nil, "")
}

func groupMembersPath(id int64) string {
	return "/groups/" + strconv.FormatInt(id, 10) + "/members.json"
}
