package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/loykin/discourseapi"
	"github.com/loykin/discourseapi/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
)

// session is the per-command state: the loaded config, the client and the
// optional call history store.
type session struct {
	doc    ConfigDoc
	client *discourseapi.Client
	store  *discourseapi.Store
}

// loadConfig reads the config file (when one is given) and lets flags and
// DISCOURSE_* environment variables override the connection settings.
func loadConfig() (ConfigDoc, error) {
	v := viper.GetViper()
	var doc ConfigDoc
	if path, ok := util.TrimEmptyCheck(v.GetString("config")); ok {
		if err := doc.Load(path); err != nil {
			return doc, fmt.Errorf("load config: %w", err)
		}
	}
	doc.Host = util.FirstNonEmpty(v.GetString("host"), doc.Host)
	doc.APIKey = util.FirstNonEmpty(v.GetString("api_key"), doc.APIKey)
	doc.APIUsername = util.FirstNonEmpty(v.GetString("api_username"), doc.APIUsername)
	doc.Protocol = util.FirstNonEmpty(v.GetString("protocol"), doc.Protocol)
	if v.GetBool("no_store") {
		doc.Store.Disabled = true
	}
	return doc, nil
}

func openSession(ctx context.Context) (*session, error) {
	doc, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := doc.SetupLogging(); err != nil {
		return nil, err
	}
	opts, err := doc.ClientOptions()
	if err != nil {
		return nil, err
	}

	s := &session{doc: doc}
	if cfg := doc.Store.ToStoreConfig(); cfg != nil {
		st, err := discourseapi.OpenStore(ctx, *cfg)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.store = st
		opts = append(opts, discourseapi.WithRecorder(st))
	}

	if strings.TrimSpace(doc.APIKey) == "" {
		_ = s.Close()
		return nil, errors.New("api key is required (--api-key, DISCOURSE_API_KEY or api_key in config)")
	}
	c, err := discourseapi.New(doc.Host, doc.APIKey, opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.client = c
	return s, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

type callFunc func(ctx context.Context, c *discourseapi.Client) (*discourseapi.Result, error)

// runCall opens a session, performs one call and prints its result.
func runCall(cmd *cobra.Command, call callFunc) error {
	ctx := cmd.Context()
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	res, err := call(ctx, s.client)
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), res)
	return nil
}

// printResult writes the status line followed by the indented JSON payload
// or the raw body.
func printResult(w io.Writer, res *discourseapi.Result) {
	_, _ = fmt.Fprintf(w, "status: %d\n", res.Status)
	switch res.Kind {
	case discourseapi.PayloadJSON:
		_, _ = fmt.Fprintln(w, strings.TrimRight(gjson.Get(res.Raw, "@pretty").String(), "\n"))
	case discourseapi.PayloadRaw:
		if res.Raw != "" {
			_, _ = fmt.Fprintln(w, res.Raw)
		}
	}
}
