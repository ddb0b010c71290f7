package clients

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/auditx/auditx-pipeline/transcript"
)

// Transcribe uploads an audio file to the transcription service and returns
// the sentence stream it produces, speech metrics included.
func (h *HTTP) Transcribe(ctx context.Context, url, audioPath string) ([]transcript.Sentence, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/transcribe", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, err := h.do(req, "transcribe")
	if err != nil {
		return nil, err
	}
	return transcript.Parse(body)
}
