package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salesmind/internal/ipc"
	"salesmind/internal/logging"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or prune past searches",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List past searches grouped by company",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.History(callCtx)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, resp.Items, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Items) == 0 {
						fmt.Fprintln(out, "No search history")
						return nil
					}
					rows := make([][]string, 0, len(resp.Items))
					for _, item := range resp.Items {
						company := item.CompanyName
						if item.Divider {
							company = "• " + company
						}
						rows = append(rows, []string{item.Initials, company, formatTimestamp(item.Timestamp)})
					}
					fmt.Fprint(out, renderTable([]string{"", "Company", "Searched"}, rows, nil))
					fmt.Fprintln(out)
					return nil
				})
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <company>",
		Short: "Delete every history entry for a company",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			company := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.DeleteHistory(callCtx, company)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, resp, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted history for %s\n", company)
					return nil
				})
			})
		},
	}

	historyCmd.AddCommand(listCmd, deleteCmd)
	return historyCmd
}

func newKeysCommand(ctx *commandContext) *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Show or update backend API keys",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show masked API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.Keys(callCtx)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, resp.Keys, func() error {
					out := cmd.OutOrStdout()
					if len(resp.Keys) == 0 {
						fmt.Fprintln(out, "No API keys configured")
						return nil
					}
					names := make([]string, 0, len(resp.Keys))
					for name := range resp.Keys {
						names = append(names, name)
					}
					slices.Sort(names)
					rows := make([][]string, 0, len(names))
					for _, name := range names {
						rows = append(rows, []string{name, resp.Keys[name]})
					}
					fmt.Fprint(out, renderTable([]string{"Key", "Value"}, rows, nil))
					fmt.Fprintln(out)
					return nil
				})
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set name=value...",
		Short: "Update API keys (empty values are ignored)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeyAssignments(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.SaveKeys(callCtx, keys)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, resp, func() error {
					fmt.Fprintln(cmd.OutOrStdout(), "API keys updated successfully")
					return nil
				})
			})
		},
	}

	keysCmd.AddCommand(showCmd, setCmd)
	return keysCmd
}

// parseKeyAssignments reads name=value pairs. Empty values are kept so the
// daemon can apply its own filtering and report "No keys to update".
func parseKeyAssignments(args []string) (map[string]string, error) {
	keys := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid key assignment %q (expected name=value)", arg)
		}
		keys[name] = strings.TrimSpace(value)
	}
	return keys, nil
}

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var company string
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded insight outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.Journal(callCtx, company, limit)
				if err != nil {
					return err
				}
				return emit(cmd, ctx, resp, func() error {
					out := cmd.OutOrStdout()
					s := resp.Stats
					fmt.Fprintf(out, "%d outcomes across %d companies: %d ready, %d failed, %d fallback narrations\n",
						s.Total, s.Companies, s.Ready, s.Failed, s.Fallbacks)
					if len(resp.Entries) == 0 {
						return nil
					}
					rows := make([][]string, 0, len(resp.Entries))
					for _, e := range resp.Entries {
						detail := e.Narration
						if e.Error != "" {
							detail = e.FailureKind + ": " + e.Error
						}
						rows = append(rows, []string{
							strconv.FormatUint(e.Seq, 10),
							formatTimestamp(e.CreatedAt),
							e.Company,
							e.Category,
							string(e.State),
							e.Duration.Round(time.Millisecond).String(),
							detail,
						})
					}
					fmt.Fprint(out, renderTable(
						[]string{"Seq", "When", "Company", "Category", "State", "Took", "Narration"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
					))
					fmt.Fprintln(out)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&company, "company", "", "Only show outcomes for this company")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	return cmd
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var tail int
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				resp, err := client.Logs(callCtx, ipc.LogsRequest{})
				cancel()
				if err != nil {
					return err
				}
				events := filterComponent(resp.Events, component)
				if tail > 0 && len(events) > tail {
					events = events[len(events)-tail:]
				}
				if ctx.jsonOutput() && !follow {
					return writeJSON(cmd, events)
				}
				printEvents(cmd, ctx, events)
				if !follow {
					return nil
				}
				next := resp.Next
				for {
					parent := cmd.Context()
					if parent == nil {
						parent = context.Background()
					}
					if err := parent.Err(); err != nil {
						return nil
					}
					callCtx, cancel := rpcContext(cmd, rpcTimeout)
					resp, err := client.Logs(callCtx, ipc.LogsRequest{Since: next, Follow: true, WaitMillis: 5000})
					cancel()
					if err != nil {
						if errors.Is(err, context.Canceled) {
							return nil
						}
						return err
					}
					printEvents(cmd, ctx, filterComponent(resp.Events, component))
					next = resp.Next
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new events as they arrive")
	cmd.Flags().IntVarP(&tail, "tail", "t", 50, "Number of buffered events to show first (0 for all)")
	cmd.Flags().StringVar(&component, "component", "", "Only show events from this component")
	return cmd
}

func filterComponent(events []logging.LogEvent, component string) []logging.LogEvent {
	component = strings.TrimSpace(component)
	if component == "" {
		return events
	}
	filtered := make([]logging.LogEvent, 0, len(events))
	for _, evt := range events {
		if strings.EqualFold(evt.Component, component) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

func printEvents(cmd *cobra.Command, ctx *commandContext, events []logging.LogEvent) {
	out := cmd.OutOrStdout()
	for _, evt := range events {
		if ctx.jsonOutput() {
			_ = writeJSON(cmd, evt)
			continue
		}
		fmt.Fprintln(out, formatLogEvent(evt))
	}
}

func formatLogEvent(evt logging.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp.Local().Format("15:04:05"))
	b.WriteString(" ")
	b.WriteString(strings.ToUpper(evt.Level))
	if evt.Component != "" {
		b.WriteString(" [" + evt.Component + "]")
	}
	b.WriteString(" ")
	b.WriteString(evt.Message)
	if evt.Company != "" {
		b.WriteString(" company=" + strconv.Quote(evt.Company))
	}
	if evt.Category != "" {
		b.WriteString(" category=" + evt.Category)
	}
	return b.String()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
