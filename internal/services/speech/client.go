package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/editor"
	"redub/internal/services"
	"redub/internal/transcript"
)

// HTTPDoer describes the HTTP client used by the speech service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the speech service REST API.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient constructs a client for the given base URL. A nil doer falls
// back to http.DefaultClient.
func NewClient(baseURL string, doer HTTPDoer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  doer,
	}
}

// Transcribe imports media from a URL or local file and returns the job
// identity, playable media, and the initial transcript.
func (c *Client) Transcribe(ctx context.Context, source Source) (TranscribeResult, error) {
	var result TranscribeResult

	var req *http.Request
	var err error
	switch {
	case source.FilePath != "":
		req, err = c.uploadRequest(ctx, source.FilePath)
	case source.URL != "":
		req, err = c.jsonRequest(ctx, http.MethodPost, "/v1/transcribe", map[string]string{"source": source.URL})
	default:
		return result, services.Wrap(services.ErrValidation, "transcribe", "no source provided", nil)
	}
	if err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "build request", err)
	}

	if err := c.do(req, &result); err != nil {
		return result, services.Wrap(services.ErrTranscription, "transcribe", "source unreachable or unsupported", err)
	}
	return result, nil
}

// EstimateDuration probes the media duration of a URL. Best-effort: callers
// must treat failure as "no estimate", never as fatal.
func (c *Client) EstimateDuration(ctx context.Context, mediaURL string) (float64, error) {
	endpoint := "/v1/duration?url=" + url.QueryEscape(mediaURL)
	req, err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "estimate-duration", "build request", err)
	}
	var payload struct {
		Duration float64 `json:"duration"`
	}
	if err := c.do(req, &payload); err != nil {
		return 0, services.Wrap(services.ErrUnavailable, "estimate-duration", "probe failed", err)
	}
	return payload.Duration, nil
}

// AlignFull re-runs fine alignment over the whole job.
func (c *Client) AlignFull(ctx context.Context, jobID string) (*transcript.Transcript, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/align", struct{}{})
	if err != nil {
		return nil, services.Wrap(services.ErrAlignment, "align-full", "build request", err)
	}
	var payload struct {
		Transcript *transcript.Transcript `json:"transcript"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, services.Wrap(services.ErrAlignment, "align-full", "alignment failed", err)
	}
	return payload.Transcript, nil
}

// AlignRegion re-runs fine alignment restricted to [start, end] plus margin.
func (c *Client) AlignRegion(ctx context.Context, jobID string, start, end, margin float64) (*transcript.Transcript, error) {
	body := map[string]float64{"start": start, "end": end, "margin": margin}
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/align/region", body)
	if err != nil {
		return nil, services.Wrap(services.ErrAlignment, "align-region", "build request", err)
	}
	var payload struct {
		Transcript *transcript.Transcript `json:"transcript"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, services.Wrap(services.ErrAlignment, "align-region", "alignment failed", err)
	}
	return payload.Transcript, nil
}

// ReplacePreview renders synthesized speech over the selected range and
// returns a playable preview URL.
func (c *Client) ReplacePreview(ctx context.Context, r ReplaceRequest) (string, error) {
	if strings.TrimSpace(r.Text) == "" {
		return "", services.Wrap(services.ErrValidation, "replace-preview", "replace text is empty", nil)
	}
	if r.End <= r.Start {
		return "", services.Wrap(services.ErrValidation, "replace-preview", "selection range is empty", nil)
	}
	body := struct {
		Start  float64       `json:"start"`
		End    float64       `json:"end"`
		Text   string        `json:"text"`
		Timing editor.Timing `json:"timing"`
		Voice  VoiceSelector `json:"voice"`
	}{r.Start, r.End, r.Text, r.Timing, r.Voice}

	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(r.JobID)+"/replace", body)
	if err != nil {
		return "", services.Wrap(services.ErrReplace, "replace-preview", "build request", err)
	}
	var payload struct {
		PreviewURL string `json:"previewUrl"`
	}
	if err := c.do(req, &payload); err != nil {
		return "", services.Wrap(services.ErrReplace, "replace-preview", "render failed", err)
	}
	return payload.PreviewURL, nil
}

// ApplyToFinal commits the current preview into the final output.
func (c *Client) ApplyToFinal(ctx context.Context, jobID string) (string, error) {
	req, err := c.jsonRequest(ctx, http.MethodPost, "/v1/jobs/"+url.PathEscape(jobID)+"/apply", struct{}{})
	if err != nil {
		return "", services.Wrap(services.ErrApply, "apply", "build request", err)
	}
	var payload struct {
		FinalURL string `json:"finalUrl"`
	}
	if err := c.do(req, &payload); err != nil {
		return "", services.Wrap(services.ErrApply, "apply", "no preview to apply", err)
	}
	return payload.FinalURL, nil
}

// OperationStats fetches per-kind throughput ratios. Best-effort.
func (c *Client) OperationStats(ctx context.Context) (Stats, error) {
	var stats Stats
	req, err := c.jsonRequest(ctx, http.MethodGet, "/v1/stats", nil)
	if err != nil {
		return stats, services.Wrap(services.ErrUnavailable, "stats", "build request", err)
	}
	if err := c.do(req, &stats); err != nil {
		return stats, services.Wrap(services.ErrUnavailable, "stats", "fetch failed", err)
	}
	return stats, nil
}

// Voices lists selectable voices for a synthesis engine. Best-effort.
func (c *Client) Voices(ctx context.Context, engineID string) ([]Voice, error) {
	endpoint := "/v1/voices"
	if engineID != "" {
		endpoint += "?engine=" + url.QueryEscape(engineID)
	}
	req, err := c.jsonRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "voices", "build request", err)
	}
	var payload struct {
		Voices []Voice `json:"voices"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "voices", "list failed", err)
	}
	return payload.Voices, nil
}

// Favorites lists the user's saved voices. Best-effort.
func (c *Client) Favorites(ctx context.Context) ([]Favorite, error) {
	req, err := c.jsonRequest(ctx, http.MethodGet, "/v1/favorites", nil)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "favorites", "build request", err)
	}
	var payload struct {
		Favorites []Favorite `json:"favorites"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "favorites", "list failed", err)
	}
	return payload.Favorites, nil
}

func (c *Client) jsonRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	return req, nil
}

func (c *Client) uploadRequest(ctx context.Context, path string) (*http.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcribe", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("speech service returned %d: %s", resp.StatusCode, detail)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
