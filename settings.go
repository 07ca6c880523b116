package discourseapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ChangeSiteSetting sets one site setting. value is formatted the way form
// fields are (booleans as true/false, numbers in decimal). The name is sent
// unescaped as the form key, so a name that form encoding would alter
// (spaces, &, =, +, %) is rejected before any request is made.
func (c *Client) ChangeSiteSetting(ctx context.Context, name string, value any) (*Result, error) {
	if name == "" || url.QueryEscape(name) != name {
		return nil, fmt.Errorf("invalid site setting name %q", name)
	}
	params := NewParams().Set(name, value)
	return c.write(ctx, http.MethodPut, "/admin/site_settings/"+seg(name), params, "")
}
