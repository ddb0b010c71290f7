package main

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/auditx/auditx-pipeline/orchestrator"
	"github.com/auditx/auditx-pipeline/store"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var flags struct {
		in      orchestrator.Inputs
		output  string
		format  string
		metrics string
		noLLM   bool
		persist bool
	}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect and interpret compliance events in a call",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []orchestrator.Option
			if a.conf.Paths.Store != "" {
				st, err := store.NewStore(a.conf.Paths.Store)
				if err != nil {
					return err
				}
				defer st.Close()
				opts = append(opts, orchestrator.WithStore(st))
			}
			p, err := orchestrator.NewPipeline(a.conf, a.log, opts...)
			if err != nil {
				return err
			}

			in := flags.in
			in.NoLLM, in.Persist = flags.noLLM, flags.persist
			res, runErr := p.Run(cmd.Context(), in)
			if res == nil {
				return runErr
			}

			var errs []error
			errs = append(errs, runErr, emit(cmd.OutOrStdout(), flags.output, flags.format, res.Set))
			if flags.metrics != "" {
				if err := prometheus.WriteToTextfile(flags.metrics, prometheus.DefaultGatherer); err != nil {
					errs = append(errs, fmt.Errorf("metrics: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.in.SentencesPath, "sentences", "", "sentence stream JSON file")
	f.StringVar(&flags.in.AudioPath, "audio", "", "audio file, transcribed by the transcription service")
	f.StringVar(&flags.in.MarkersPath, "markers", "", "text marker JSON file (default: extraction service when configured)")
	f.StringVar(&flags.in.ContextPath, "context", "", "financial context JSON file")
	f.StringVar(&flags.in.CallID, "call-id", "", "call id (default: context call_id, else a new UUID)")
	f.BoolVar(&flags.noLLM, "no-llm", false, "skip the explainer and use fallback interpretations")
	f.BoolVar(&flags.persist, "persist", false, "write indicators.json and events.json to a session directory under paths.outputs")
	f.StringVarP(&flags.output, "output", "o", "", "write the event set to file instead of stdout")
	f.StringVar(&flags.format, "format", "json", "json or yaml")
	f.StringVar(&flags.metrics, "metrics-textfile", "", "write Prometheus metrics in text format to this file")
	cmd.MarkFlagsMutuallyExclusive("sentences", "audio")
	return cmd
}
