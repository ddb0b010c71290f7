package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/auditx/auditx-pipeline/store"
)

func (a *app) openStore() (*store.Store, error) {
	if a.conf.Paths.Store == "" {
		return nil, errors.New("paths.store is not configured")
	}
	return store.NewStore(a.conf.Paths.Store)
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived event sets",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List analyzed calls, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			calls, err := st.ListCalls(cmd.Context(), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CALL ID\tGENERATED\tEVENTS\tHIGH RISK\tLLM\tPOLICY")
			for _, c := range calls {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					c.CallID, c.GeneratedAt.Format("2006-01-02 15:04:05"), c.TotalEvents, c.HighRiskEvents,
					strconv.FormatBool(c.LLMEnabled), c.RulePolicy)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum calls to list (0 for all)")

	var format string
	show := &cobra.Command{
		Use:   "show CALL_ID",
		Short: "Print the archived event set of a call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			payload, err := st.Payload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var doc any
			if err := json.Unmarshal(payload, &doc); err != nil {
				return fmt.Errorf("history decode: %w", err)
			}
			return emit(cmd.OutOrStdout(), "", format, doc)
		},
	}
	show.Flags().StringVar(&format, "format", "json", "json or yaml")

	cmd.AddCommand(list, show)
	return cmd
}
