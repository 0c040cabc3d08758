package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"ai-interview-engine/internal/domain/ports/adapter"
)

var _ adapter.SpeechService = (*OpenAISpeech)(nil)

// OpenAISpeech transcribes with the audio transcription endpoint through the
// SDK and synthesizes replies with a plain HTTP call to /audio/speech.
type OpenAISpeech struct {
	client     openai.Client
	apiKey     string
	base       string
	sttModel   string
	ttsModel   string
	httpClient *http.Client
}

func NewOpenAISpeech(apiKey, baseURL, sttModel, ttsModel string) (*OpenAISpeech, error) {
	if apiKey == "" {
		return nil, errors.New("speech: api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &OpenAISpeech{
		client:     openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL+"/")),
		apiKey:     apiKey,
		base:       baseURL,
		sttModel:   sttModel,
		ttsModel:   ttsModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (s *OpenAISpeech) Transcribe(ctx context.Context, audio []byte, filename, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	ct := mime.TypeByExtension(filepath.Ext(filename))
	if ct == "" {
		ct = "application/octet-stream"
	}
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filename, ct),
		Model: openai.AudioModel(s.sttModel),
	}
	if languageHint != "" {
		params.Language = openai.String(languageHint)
	}
	resp, err := s.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (s *OpenAISpeech) Synthesize(ctx context.Context, text, voice, format, language string) ([]byte, string, error) {
	reqBody := struct {
		Model          string `json:"model"`
		Input          string `json:"input"`
		Voice          string `json:"voice"`
		ResponseFormat string `json:"response_format,omitempty"`
	}{Model: s.ttsModel, Input: text, Voice: voice, ResponseFormat: format}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/audio/speech", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("speech http %d", resp.StatusCode)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = contentTypeFor(format)
	}
	return audio, ct, nil
}

func contentTypeFor(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	}
	return "application/octet-stream"
}
