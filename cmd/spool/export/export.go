// Package exportcmder provides the export command for printing the exact
// conversation context behind a recorded message.
package exportcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/spool/cmd/spool/storepath"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/session"
	"github.com/papercomputeco/spool/pkg/storage/sqlite"
	"github.com/papercomputeco/spool/pkg/utils"
)

const exportLongDesc string = `Print the linearized conversation behind a message.

Without a node id, exports the current active conversation from root to
frontier. With --node, exports the exact causal chain that produced that
message, which is stable even after later edits fork the conversation.

Stores written by several sessions hold more than one root conversation;
--session picks one by its graph id (see spool sessions).

Examples:
  spool export
  spool export --node 4f1c9a... --recurse
  spool export --session 0b2e... --json`

const exportShortDesc string = "Print a linearized conversation"

func NewExportCmd() *cobra.Command {
	var (
		sqlitePath string
		sessionID  string
		nodeID     string
		recurse    bool
		asJSON     bool
		render     bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), sqlitePath, sessionID, nodeID, recurse, asJSON, render)
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to the spool SQLite database")
	cmd.Flags().StringVar(&sessionID, "session", "", "Graph id of the session to export (default: first in the log)")
	cmd.Flags().StringVar(&nodeID, "node", "", "Export the context behind this node id (default: active frontier)")
	cmd.Flags().BoolVar(&recurse, "recurse", false, "Include embedded subagent conversations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the transcript as JSON")
	cmd.Flags().BoolVar(&render, "render", false, "Render message text as markdown")

	return cmd
}

func runExport(ctx context.Context, sqlitePath, sessionID, nodeID string, recurse, asJSON, render bool) error {
	path, err := storepath.ResolveStorePath(sqlitePath)
	if err != nil {
		return err
	}

	drv, err := sqlite.NewDriver(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	var opts []session.Option
	if sessionID != "" {
		opts = append(opts, session.WithRoot(sessionID))
	}

	sess, err := session.Load(ctx, drv, opts...)
	if err != nil {
		drv.Close()
		return err
	}
	defer sess.Close()

	var transcript *graph.Transcript
	if nodeID == "" {
		transcript, err = sess.ExportActive(recurse)
	} else {
		transcript, err = sess.Export(nodeID, recurse)
	}
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(transcript, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding transcript: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printTranscript(transcript, 0, render)
	return nil
}

func printTranscript(t *graph.Transcript, depth int, render bool) {
	indent := strings.Repeat("  ", depth+1)

	for _, entry := range t.Entries {
		text := entry.Node.Text()
		if render {
			if rendered, err := cliui.RenderMarkdown(text); err == nil {
				text = strings.TrimSpace(rendered)
			}
		} else {
			text = utils.Truncate(text, 96)
		}

		fmt.Printf("%s%s %s %s\n",
			indent,
			cliui.DimStyle.Render(entry.Node.ID[:12]),
			cliui.RoleStyle.Render("["+entry.Node.Role+"]"),
			cliui.PreviewStyle.Render(text),
		)

		if entry.Subgraph != nil {
			fmt.Printf("%s%s\n", indent, cliui.KeyStyle.Render("└ subagent:"))
			printTranscript(entry.Subgraph, depth+2, render)
		}
	}
}
