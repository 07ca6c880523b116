package main

import (
	"context"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetCategories(ctx)
		})
	},
}

var categoryGetCmd = &cobra.Command{
	Use:   "get <slug>",
	Short: "Show one category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetCategory(ctx, args[0])
		})
	},
}

var categoryCreateFlags struct {
	color      string
	textColor  string
	actingUser string
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := categoryCreateFlags
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.CreateCategory(ctx, args[0], f.color, f.textColor, f.actingUser)
		})
	},
}

var categoryUpdate = discourseapi.DefaultCategoryUpdate()

var categoryUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace the settings of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "category id")
		if err != nil {
			return err
		}
		u := categoryUpdate
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.UpdateCategory(ctx, id, u)
		})
	},
}

func init() {
	cf := categoryCreateCmd.Flags()
	cf.StringVar(&categoryCreateFlags.color, "color", "", "background color (hex, no #)")
	cf.StringVar(&categoryCreateFlags.textColor, "text-color", "", "text color (hex, no #), default 000000")
	cf.StringVar(&categoryCreateFlags.actingUser, "as", "", "acting user")

	u := &categoryUpdate
	uf := categoryUpdateCmd.Flags()
	uf.StringVar(&u.Name, "name", "", "category name")
	uf.StringVar(&u.Slug, "slug", "", "category slug")
	uf.StringVar(&u.Color, "color", u.Color, "background color")
	uf.StringVar(&u.TextColor, "text-color", u.TextColor, "text color")
	uf.StringVar(&u.ParentCategoryID, "parent", "", "parent category id")
	uf.StringVar(&u.Position, "position", "", "position")
	uf.StringVar(&u.TopicTemplate, "topic-template", "", "template for new topics")
	uf.StringVar(&u.BackgroundURL, "background-url", "", "background image url")
	uf.StringVar(&u.LogoURL, "logo-url", "", "logo url")
	uf.StringVar(&u.EmailIn, "email-in", "", "incoming email address")
	uf.BoolVar(&u.EmailInAllowStrangers, "email-in-allow-strangers", false, "accept email from non-users")
	uf.StringVar(&u.AutoCloseHours, "auto-close-hours", "", "close topics after N hours")
	uf.BoolVar(&u.AutoCloseBasedOnLastPost, "auto-close-last-post", false, "count auto close from the last post")
	uf.BoolVar(&u.AllowBadges, "allow-badges", u.AllowBadges, "allow badges")
	uf.BoolVar(&u.ContainsMessages, "contains-messages", false, "category contains messages")
	uf.BoolVar(&u.SuppressFromHomepage, "suppress-from-homepage", false, "hide from the homepage")
	uf.StringToIntVar(&u.Permissions, "permission", nil, "group=level (1 full, 2 create/reply, 3 see); repeatable")

	categoryCmd.AddCommand(categoryListCmd, categoryGetCmd, categoryCreateCmd, categoryUpdateCmd)
}
