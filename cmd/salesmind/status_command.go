package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"salesmind/internal/daemon"
	"salesmind/internal/deps"
	"salesmind/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, backend, and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var status *daemon.Status
			err := ctx.withClient(func(client *ipc.Client) error {
				callCtx, cancel := rpcContext(cmd, rpcTimeout)
				defer cancel()
				resp, err := client.Status(callCtx)
				if err != nil {
					return err
				}
				status = &resp.Status
				return nil
			})
			if ctx.jsonOutput() {
				if status == nil {
					return writeJSON(cmd, daemon.Status{Running: false, SocketPath: ctx.socketPath()})
				}
				return writeJSON(cmd, status)
			}

			printSection(out, "Daemon", colorize)
			if status == nil {
				fmt.Fprintln(out, renderStatusLine("Salesmind", statusError, "Not running", colorize))
				if err != nil {
					fmt.Fprintln(out, renderStatusLine("Detail", statusInfo, err.Error(), colorize))
				}
				fmt.Fprintln(out)
				printSection(out, "Dependencies", colorize)
				for _, line := range dependencyLines(deps.CheckAudio(ctx.configValue()), colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			}
			renderDaemonStatus(out, *status, colorize)
			return nil
		},
	}
}

func renderDaemonStatus(out io.Writer, status daemon.Status, colorize bool) {
	if status.Running {
		running := fmt.Sprintf("Running (pid %d)", status.PID)
		if !status.StartedAt.IsZero() {
			running += ", up " + time.Since(status.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintln(out, renderStatusLine("Salesmind", statusOK, running, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Salesmind", statusWarn, "Starting", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
	if status.APIAddress != "" {
		fmt.Fprintln(out, renderStatusLine("HTTP API", statusInfo, status.APIAddress, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("HTTP API", statusWarn, "disabled", colorize))
	}
	if status.JournalPath != "" {
		fmt.Fprintln(out, renderStatusLine("Journal", statusInfo, status.JournalPath, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Journal", statusWarn, "disabled", colorize))
	}
	mode := string(status.Mode)
	if status.Company != "" {
		mode += " (" + status.Company + ")"
	}
	fmt.Fprintln(out, renderStatusLine("Workspace", statusInfo, mode, colorize))
	fmt.Fprintln(out)

	printSection(out, "Backend", colorize)
	switch {
	case status.Backend == nil:
		detail := status.BackendError
		if detail == "" {
			detail = "status unknown"
		}
		fmt.Fprintln(out, renderStatusLine("Backend", statusError, detail, colorize))
	default:
		db := statusOK
		dbText := "Connected"
		if !status.Backend.Database {
			db, dbText = statusError, "Disconnected"
		}
		fmt.Fprintln(out, renderStatusLine("Database", db, dbText, colorize))
		tts := statusOK
		if !status.Backend.TTSAvailable {
			tts = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Speech", tts, status.Backend.TTSTitle, colorize))
	}
	fmt.Fprintln(out)

	printSection(out, "Dependencies", colorize)
	for _, line := range dependencyLines(status.Dependencies, colorize) {
		fmt.Fprintln(out, line)
	}
}
