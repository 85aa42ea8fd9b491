package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// HTTPWorkerClient is the coordinator's handle to one remote worker. It
// implements coordinator.WorkerHandle by forwarding fit and evaluate calls
// to the worker's HTTP endpoints.
type HTTPWorkerClient struct {
	workerID   string
	endpoint   string
	httpClient *http.Client
}

// NewHTTPWorkerClient creates a handle for the worker reachable at the
// given base endpoint (e.g. "http://localhost:9101").
func NewHTTPWorkerClient(workerID, endpoint string, httpClient *http.Client) *HTTPWorkerClient {
	if httpClient == nil {
		httpClient = newHTTPClient()
	}
	return &HTTPWorkerClient{
		workerID:   workerID,
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// ID returns the remote worker's identifier.
func (c *HTTPWorkerClient) ID() string { return c.workerID }

// Fit forwards a fit request and returns the worker's training result.
func (c *HTTPWorkerClient) Fit(ctx context.Context, cfg federation.RoundConfig) (*federation.FitResult, error) {
	req := &federation.FitRequest{
		RoundNumber:     cfg.RoundNumber,
		Parameters:      cfg.Parameters,
		Hyperparameters: cfg.Hyperparameters,
	}

	var reply federation.FitReply
	if err := c.post(ctx, "/fit", req, &reply); err != nil {
		return nil, err
	}

	return &federation.FitResult{
		WorkerID:    reply.WorkerID,
		Parameters:  reply.Parameters,
		SampleCount: reply.SampleCount,
		TrainMetric: reply.TrainMetric,
	}, nil
}

// Evaluate forwards an evaluate request and returns the worker's result.
func (c *HTTPWorkerClient) Evaluate(ctx context.Context, round int, params federation.ParameterVector) (*federation.EvalResult, error) {
	req := &federation.EvalRequest{
		RoundNumber: round,
		Parameters:  params,
	}

	var reply federation.EvalReply
	if err := c.post(ctx, "/evaluate", req, &reply); err != nil {
		return nil, err
	}

	return &federation.EvalResult{
		WorkerID:    reply.WorkerID,
		SampleCount: reply.SampleCount,
		Loss:        reply.Loss,
		EvalMetric:  reply.EvalMetric,
	}, nil
}

func (c *HTTPWorkerClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps a worker's ErrorReply back to the protocol error
// taxonomy so the coordinator can distinguish recoverable failures.
func (c *HTTPWorkerClient) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var reply federation.ErrorReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("worker %s returned status %d: %s", c.workerID, resp.StatusCode, string(raw))
	}

	switch reply.Kind {
	case federation.KindLocalTraining:
		return &federation.LocalTrainingError{WorkerID: c.workerID, Err: fmt.Errorf("%s", reply.Message)}
	case federation.KindStaleRound:
		return fmt.Errorf("worker %s: %s: %w", c.workerID, reply.Message, federation.ErrStaleRound)
	default:
		return fmt.Errorf("worker %s: %s: %s", c.workerID, reply.Kind, reply.Message)
	}
}
