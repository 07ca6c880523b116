package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userGetCmd = &cobra.Command{
	Use:   "get <username>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetUserByUsername(ctx, args[0])
		})
	},
}

var userExternalCmd = &cobra.Command{
	Use:   "external <external-id>",
	Short: "Show a user by SSO external id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetUserByExternalID(ctx, args[0])
		})
	},
}

var userBadgesCmd = &cobra.Command{
	Use:   "badges <username>",
	Short: "List the badges of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetUserBadgesByUsername(ctx, args[0])
		})
	},
}

var newUser discourseapi.NewUser

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUser
		u.Username = args[0]
		if u.Name == "" {
			u.Name = u.Username
		}
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.CreateUser(ctx, u)
		})
	},
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <user-id>",
	Short: "Activate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "user id")
		if err != nil {
			return err
		}
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.ActivateUser(ctx, id)
		})
	},
}

var userLogoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "End all sessions of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.LogoutUser(ctx, args[0])
		})
	},
}

var inviteActingUser string

var userInviteCmd = &cobra.Command{
	Use:   "invite <email> <topic-id>",
	Short: "Invite an email address to a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		topicID, err := parseID(args[1], "topic id")
		if err != nil {
			return err
		}
		as := inviteActingUser
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.InviteUser(ctx, args[0], topicID, as)
		})
	},
}

var byEmailIgnoreCase bool

var userByEmailCmd = &cobra.Command{
	Use:   "by-email <email>",
	Short: "Find an active user by email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		out := cmd.OutOrStdout()
		if !byEmailIgnoreCase {
			name, err := s.client.UsernameByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, name)
			return err
		}
		user, err := s.client.UserByEmail(ctx, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(user)
	},
}

func init() {
	cf := userCreateCmd.Flags()
	cf.StringVar(&newUser.Name, "name", "", "display name (defaults to the username)")
	cf.StringVar(&newUser.Email, "email", "", "email address")
	cf.StringVar(&newUser.Password, "password", "", "initial password")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userInviteCmd.Flags().StringVar(&inviteActingUser, "as", "", "acting user")
	userByEmailCmd.Flags().BoolVarP(&byEmailIgnoreCase, "ignore-case", "i", false, "match case-insensitively and print the full user record")

	userCmd.AddCommand(userGetCmd, userExternalCmd, userBadgesCmd, userCreateCmd, userActivateCmd, userLogoutCmd, userInviteCmd, userByEmailCmd)
}
