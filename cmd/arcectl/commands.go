package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"revenue_backend/internal/revenue/transport"
	"revenue_backend/platform/httpkit"

	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:8080"

type client struct {
	addr string
	http *http.Client
}

func newRootCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	c := &client{}

	root := &cobra.Command{
		Use:           "arcectl",
		Short:         "Operate a revenue cycle engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.addr = strings.TrimRight(addr, "/")
			c.http = &http.Client{Timeout: timeout}
		},
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "engine base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout")

	root.AddCommand(
		getCmd(c, "status", "Show engine liveness", "/health"),
		getCmd(c, "stats", "Show cumulative engine statistics", "/stats"),
		getCmd(c, "cycles", "List recorded cycle summaries", "/cycles"),
		getCmd(c, "leads", "List recently processed leads", "/leads/recent"),
		runCmd(c),
		postCmd(c, "start", "Resume scheduled cycles", "/start"),
		postCmd(c, "stop", "Halt scheduled cycles", "/stop"),
	)
	return root
}

func getCmd(c *client, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodGet, path, nil)
		},
	}
}

func postCmd(c *client, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, path, nil)
		},
	}
}

func runCmd(c *client) *cobra.Command {
	var (
		leads int
		wait  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger one revenue cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := transport.RunCycleRequest{Wait: wait}
			if cmd.Flags().Changed("leads") {
				req.LeadCount = &leads
			}
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}
			return c.do(cmd.Context(), cmd.OutOrStdout(), http.MethodPost, "/cycle/run", body)
		},
	}
	cmd.Flags().IntVar(&leads, "leads", 0, "lead count for this cycle (engine default when unset)")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until the cycle is sealed")
	return cmd
}

func (c *client) do(ctx context.Context, out io.Writer, method, path string, body []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.addr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr httpkit.ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		_, err = out.Write(raw)
		return err
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}
