package main

import (
	"context"

	"github.com/loykin/discourseapi"
	"github.com/spf13/cobra"
)

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Read and create topics",
}

var topicGetCmd = &cobra.Command{
	Use:   "get <topic-id>",
	Short: "Show a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "topic id")
		if err != nil {
			return err
		}
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.GetTopic(ctx, id)
		})
	},
}

var newTopic discourseapi.NewTopic

var topicCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Open a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t := newTopic
		t.Title = args[0]
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.CreateTopic(ctx, t)
		})
	},
}

var topPeriod string

var topicTopCmd = &cobra.Command{
	Use:   "top <category>",
	Short: "List top topics of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		period := topPeriod
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.TopTopics(ctx, args[0], period)
		})
	},
}

var topicLatestCmd = &cobra.Command{
	Use:   "latest <category>",
	Short: "List latest topics of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd, func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error) {
			return c.LatestTopics(ctx, args[0])
		})
	},
}

func init() {
	f := topicCreateCmd.Flags()
	f.StringVar(&newTopic.Body, "body", "", "first post (markdown)")
	f.StringVar(&newTopic.Category, "category", "", "category id or name")
	f.StringVar(&newTopic.ActingUser, "as", "", "acting user")
	f.IntVar(&newTopic.ReplyToPostNumber, "reply-to", 0, "post number this topic replies to")
	_ = topicCreateCmd.MarkFlagRequired("body")

	topicTopCmd.Flags().StringVar(&topPeriod, "period", "daily", "yearly, quarterly, monthly, weekly or daily")

	topicCmd.AddCommand(topicGetCmd, topicCreateCmd, topicTopCmd, topicLatestCmd)
}
