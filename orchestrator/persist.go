package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manifest describes one persisted session directory.
type Manifest struct {
	SessionID      string    `json:"session_id"`
	CallID         string    `json:"call_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	SentencesPath  string    `json:"sentences_path,omitempty"`
	AudioPath      string    `json:"audio_path,omitempty"`
	MarkersPath    string    `json:"markers_path,omitempty"`
	ContextPath    string    `json:"context_path,omitempty"`
	IndicatorsPath string    `json:"indicators_path"`
	EventsPath     string    `json:"events_path"`
}

// dirSafe maps a call id onto a single path element: anything outside
// [A-Za-z0-9._-] becomes '_', so separators cannot escape outputsRoot.
func dirSafe(callID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, callID)
}

func mkSessionDir(outputsRoot, callID string) (string, string, error) {
	ts := time.Now().Format("20060102-150405")
	sid := "session_" + ts + "_" + dirSafe(callID)
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return sid, dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// persist writes indicators.json, events.json and session.json into a new
// session directory under outputsRoot.
func persist(outputsRoot string, in Inputs, res *Result) error {
	sid, outDir, err := mkSessionDir(outputsRoot, res.Set.CallID)
	if err != nil {
		return err
	}

	indPath := filepath.Join(outDir, "indicators.json")
	evPath := filepath.Join(outDir, "events.json")

	if err = writeJSON(indPath, res.Indicators); err != nil {
		return err
	}
	if err = writeJSON(evPath, res.Set); err != nil {
		return err
	}

	m := Manifest{
		SessionID:      sid,
		CallID:         res.Set.CallID,
		GeneratedAt:    res.Set.GeneratedAt,
		SentencesPath:  in.SentencesPath,
		AudioPath:      in.AudioPath,
		MarkersPath:    in.MarkersPath,
		ContextPath:    in.ContextPath,
		IndicatorsPath: indPath,
		EventsPath:     evPath,
	}
	if err = writeJSON(filepath.Join(outDir, "session.json"), m); err != nil {
		return err
	}

	res.SessionID, res.IndicatorsPath, res.EventsPath = sid, indPath, evPath
	return nil
}
