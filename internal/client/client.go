// Package client talks to a running dashboard's JSON API.
package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inflation-dashboard/internal/pipeline"

	"github.com/go-resty/resty/v2"
)

// Prediction is the decoded /api/predict response.
type Prediction struct {
	Name        string    `json:"name"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns"`
	Predictions []float64 `json:"predictions"`
	Download    string    `json:"download,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

// Error is a non-2xx answer from the dashboard.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("dashboard: %d %s", e.Status, e.Message)
}

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// PredictFile uploads a CSV or Excel file for scoring.
func (c *Client) PredictFile(path string) (*Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &Prediction{}
	resp, err := c.rest.R().
		SetFileReader("file", filepath.Base(path), f).
		SetResult(out).
		Post(c.base + "/api/predict")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// Summary fetches the condensed dashboard state.
func (c *Client) Summary() (*pipeline.Summary, error) {
	out := &pipeline.Summary{}
	resp, err := c.rest.R().
		SetResult(out).
		Get(c.base + "/api/summary")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// Download fetches a CSV from a path returned by the dashboard.
func (c *Client) Download(path string) ([]byte, error) {
	resp, err := c.rest.R().Get(c.base + path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &Error{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	return resp.Body(), nil
}

func decodeError(resp *resty.Response) error {
	var body apiError
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Error == "" {
		return &Error{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
	}
	return &Error{Status: resp.StatusCode(), Message: body.Error}
}
