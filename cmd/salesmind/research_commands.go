package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"salesmind/internal/ipc"
)

func newResearchCommands(ctx *commandContext) []*cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search <company>",
		Short: "Research a company and build its knowledge graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			company := strings.TrimSpace(strings.Join(args, " "))
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, searchTimeout)
				defer cancel()
				return client.Search(callCtx, company)
			})
		},
	}

	openCmd := &cobra.Command{
		Use:     "open <node>",
		Aliases: []string{"click"},
		Short:   "Open the insight panel for a category node",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, searchTimeout)
				defer cancel()
				return client.Click(callCtx, id)
			})
		},
	}

	tabCmd := &cobra.Command{
		Use:       "tab <opportunity|research>",
		Short:     "Switch the insight panel tab",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"opportunity", "research"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tab := strings.ToLower(strings.TrimSpace(args[0]))
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				return client.SwitchTab(callCtx, tab)
			})
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close the insight panel and stop narration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				return client.ClosePanel(callCtx)
			})
		},
	}

	backCmd := &cobra.Command{
		Use:   "back",
		Short: "Discard the current research and return to search",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				return client.Back(callCtx)
			})
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Show the current workspace view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				return client.View(callCtx)
			})
		},
	}

	resizeCmd := &cobra.Command{
		Use:   "resize <width> <height>",
		Short: "Change the canvas size and recompute the layout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := parseDimension(args[0])
			if err != nil {
				return err
			}
			height, err := parseDimension(args[1])
			if err != nil {
				return err
			}
			return ctx.viewCall(cmd, func(client *ipc.Client) (*ipc.ViewResponse, error) {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				return client.Resize(callCtx, width, height)
			})
		},
	}

	return []*cobra.Command{searchCmd, openCmd, tabCmd, closeCmd, backCmd, viewCmd, resizeCmd, newGraphCommand(ctx)}
}

// viewCall runs a view-returning RPC and prints the resulting view. A
// workspace error still renders the view, then fails the command.
func (c *commandContext) viewCall(cmd *cobra.Command, fn func(*ipc.Client) (*ipc.ViewResponse, error)) error {
	return c.withClient(func(client *ipc.Client) error {
		resp, err := fn(client)
		if err != nil {
			return err
		}
		if resp == nil {
			return errors.New("missing view response")
		}
		if err := emit(cmd, c, resp, func() error {
			renderView(cmd.OutOrStdout(), resp.View, shouldColorize(cmd.OutOrStdout()))
			return nil
		}); err != nil {
			return err
		}
		if resp.Error != "" {
			return errors.New(resp.Error)
		}
		return nil
	})
}

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var svgPath string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the rendered knowledge graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.Graph(callCtx, svgPath != "")
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case svgPath == "-":
					_, err := fmt.Fprint(out, resp.SVG)
					return err
				case svgPath != "":
					if err := os.WriteFile(svgPath, []byte(resp.SVG), 0o644); err != nil {
						return fmt.Errorf("write svg: %w", err)
					}
					fmt.Fprintf(out, "Wrote graph to %s\n", svgPath)
					return nil
				}
				return emit(cmd, ctx, resp.Scene, func() error {
					fmt.Fprint(out, renderGraphTable(resp.Scene))
					fmt.Fprintln(out)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&svgPath, "svg", "", "Write the graph as SVG to this file (- for stdout)")
	return cmd
}

func parseDimension(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid dimension %q: must be a positive number", raw)
	}
	return value, nil
}
