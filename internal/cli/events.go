package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/store"
)

// EventsResult is a page of the event log.
type EventsResult struct {
	Events []store.EventRecord `json:"events"`
}

// Text implements Texter.
func (r EventsResult) Text() string {
	if len(r.Events) == 0 {
		return "No events."
	}
	var b strings.Builder
	for i, rec := range r.Events {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d  %-14s  %s", rec.Seq, rec.Kind, describeEvent(rec.Event))
	}
	return b.String()
}

func describeEvent(ev ir.Event) string {
	switch e := ev.(type) {
	case ir.ProfileCreated:
		return fmt.Sprintf("profile=%s namespace=%s user=%s bump=%d ts=%d",
			e.Profile.Short(), e.Namespace, e.User.Short(), e.Bump, e.Timestamp)
	case ir.ProfileDeleted:
		return fmt.Sprintf("profile=%s namespace=%s user=%s ts=%d",
			e.Profile.Short(), e.Namespace, e.User.Short(), e.Timestamp)
	default:
		return ""
	}
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		profile string
		after   int64
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List lifecycle events in log order",
		Long: `List ProfileCreated and ProfileDeleted events in commit order.

Example:
  gpl events
  gpl events --profile <profile-address>
  gpl events --after 120 --limit 50 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.EventFilter{AfterSeq: after, Limit: limit}
			if profile != "" {
				addr, err := parseAddressArg("profile", profile)
				if err != nil {
					return err
				}
				filter.Profile = &addr
			}

			st, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer rootOpts.closeStore(st)

			records, err := st.ListEvents(cmd.Context(), filter)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list events", err)
			}
			return rootOpts.formatter(cmd).Success(EventsResult{Events: records})
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "only events for this profile address")
	cmd.Flags().Int64Var(&after, "after", 0, "only events with seq greater than this")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (0 = all)")
	return cmd
}
