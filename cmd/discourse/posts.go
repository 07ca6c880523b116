package main

import (
	"context"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Read, create and edit posts",
}

var postGetCmd = &cobra.Command{
	Use:   "get <topic-id> <post-number>",
	Short: "Show a post by its number within a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		topicID, err := parseID(args[0], "topic id")
		if err != nil {
			return err
		}
		n, err := parseID(args[1], "post number")
		if err != nil {
			return err
		}
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetPostByNumber(ctx, topicID, n)
		})
	},
}

var postActingUser string

var postCreateCmd = &cobra.Command{
	Use:   "create <topic-id> <body>",
	Short: "Reply to a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		topicID, err := parseID(args[0], "topic id")
		if err != nil {
			return err
		}
		as := postActingUser
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.CreatePost(ctx, args[1], topicID, as)
		})
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update <post-id> <html>",
	Short: "Replace the body of a post",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		postID, err := parseID(args[0], "post id")
		if err != nil {
			return err
		}
		as := postActingUser
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.UpdatePost(ctx, args[1], postID, as)
		})
	},
}

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Change site settings",
}

var settingSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Change one site setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.ChangeSiteSetting(ctx, args[0], args[1])
		})
	},
}

func init() {
	postCmd.PersistentFlags().StringVar(&postActingUser, "as", "", "acting user")
	postCmd.AddCommand(postGetCmd, postCreateCmd, postUpdateCmd)
	settingCmd.AddCommand(settingSetCmd)
}
