package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups and their members",
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetGroups(ctx)
		})
	},
}

var groupGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show one group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetGroup(ctx, args[0])
		})
	},
}

var groupMembersCmd = &cobra.Command{
	Use:   "members <name>",
	Short: "List group members",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetGroupMembers(ctx, args[0])
		})
	},
}

var groupJoinCmd = &cobra.Command{
	Use:   "join <group> <username>",
	Short: "Add a user to a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.JoinGroup(ctx, args[0], args[1])
		})
	},
}

var groupLeaveCmd = &cobra.Command{
	Use:   "leave <group> <username>",
	Short: "Remove a user from a group",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.LeaveGroup(ctx, args[0], args[1])
		})
	},
}

var groupAddOpts = discourseapi.DefaultGroupOptions()

var groupAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := groupAddOpts
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.AddGroup(ctx, args[0], &opts)
		})
	},
}

var groupRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.RemoveGroup(ctx, args[0])
		})
	},
}

func init() {
	f := groupAddCmd.Flags()
	f.StringSliceVar(&groupAddOpts.Usernames, "usernames", nil, "initial members")
	f.IntVar(&groupAddOpts.AliasLevel, "alias-level", groupAddOpts.AliasLevel, "who can mention the group")
	f.BoolVar(&groupAddOpts.Visible, "visible", groupAddOpts.Visible, "group is visible")
	f.StringVar(&groupAddOpts.AutomaticMembershipEmailDomains, "email-domains", "", "automatic membership email domains")
	f.BoolVar(&groupAddOpts.AutomaticMembershipRetroactive, "retroactive", false, "apply automatic membership to existing users")
	f.StringVar(&groupAddOpts.Title, "title", "", "title granted to members")
	f.BoolVar(&groupAddOpts.PrimaryGroup, "primary", false, "make it the members' primary group")
	f.IntVar(&groupAddOpts.GrantTrustLevel, "trust-level", 0, "trust level granted to members")

	groupCmd.AddCommand(groupListCmd, groupGetCmd, groupMembersCmd, groupJoinCmd, groupLeaveCmd, groupAddCmd, groupRemoveCmd)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return id, nil
}
