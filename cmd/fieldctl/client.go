package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"field-data-be/internal/pkg/serverutils"
)

// apiClient talks to the REST API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError carries the envelope message of a failed call.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (c *apiClient) raw(method, path string, body interface{}) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode >= 400 {
		var envelope serverutils.BaseResponse[any]
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &envelope) == nil && envelope.Message != "" {
			msg = envelope.Message
		}
		return resp, nil, &apiError{Status: resp.StatusCode, Message: msg}
	}
	return resp, data, nil
}

// call performs a JSON request and decodes the envelope's data into T.
func call[T any](c *apiClient, method, path string, body interface{}) (T, error) {
	var zero T
	_, data, err := c.raw(method, path, body)
	if err != nil {
		return zero, err
	}

	var envelope serverutils.BaseResponse[T]
	if err := json.Unmarshal(data, &envelope); err != nil {
		return zero, fmt.Errorf("decode response: %w", err)
	}
	return envelope.Data, nil
}
