package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/auditx/auditx-pipeline/markers"
	"github.com/auditx/auditx-pipeline/transcript"
)

var ErrNoTranscript = errors.New("either a sentence stream or an audio file is required")

func (p *Pipeline) sentences(ctx context.Context, in Inputs) ([]transcript.Sentence, error) {
	switch {
	case in.SentencesPath != "":
		return transcript.Load(in.SentencesPath)
	case in.AudioPath != "":
		svc := p.cfg.Services.Transcription
		if !svc.Configured() {
			return nil, fmt.Errorf("transcription service not configured for %s", in.AudioPath)
		}
		p.log.WithField("audio", in.AudioPath).Info("transcribing")
		return p.http.Transcribe(ctx, svc.URL, in.AudioPath)
	}
	return nil, ErrNoTranscript
}

// markers reads the marker file, else asks the extraction service, else
// returns an empty index.
func (p *Pipeline) markers(ctx context.Context, in Inputs, sents []transcript.Sentence) (*markers.Index, error) {
	if in.MarkersPath != "" {
		return markers.Load(in.MarkersPath)
	}
	if svc := p.cfg.Services.Markers; svc.Configured() {
		return p.http.ExtractMarkers(ctx, svc.URL, sents)
	}
	p.log.Warn("no markers supplied, marker-based rules will not fire")
	return markers.NewIndex(nil), nil
}

func (p *Pipeline) timeline(in Inputs) (markers.Timeline, error) {
	if in.ContextPath == "" {
		return markers.Timeline{}, nil
	}
	return markers.LoadContext(in.ContextPath)
}

func callID(in Inputs, tl markers.Timeline) string {
	if in.CallID != "" {
		return in.CallID
	}
	if tl.Base.CallID != "" {
		return tl.Base.CallID
	}
	return uuid.NewString()
}
