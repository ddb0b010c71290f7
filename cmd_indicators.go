package main

import (
	"github.com/spf13/cobra"

	"github.com/auditx/auditx-pipeline/orchestrator"
)

func newIndicatorsCmd(a *app) *cobra.Command {
	var flags struct {
		sentences string
		audio     string
		output    string
		format    string
	}
	cmd := &cobra.Command{
		Use:   "indicators",
		Short: "Build the behavioral indicator stream of a call",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := orchestrator.NewPipeline(a.conf, a.log)
			if err != nil {
				return err
			}
			stream, err := p.Indicators(cmd.Context(), orchestrator.Inputs{
				SentencesPath: flags.sentences,
				AudioPath:     flags.audio,
			})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), flags.output, flags.format, stream)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.sentences, "sentences", "", "sentence stream JSON file")
	f.StringVar(&flags.audio, "audio", "", "audio file, transcribed by the transcription service")
	f.StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	f.StringVar(&flags.format, "format", "json", "json or yaml")
	cmd.MarkFlagsMutuallyExclusive("sentences", "audio")
	return cmd
}
