package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/testutil"
	"github.com/Bhuvana2605/agrismart-backend/trainer"
	"github.com/Bhuvana2605/agrismart-backend/worker"
)

// testContext is a stand-in for t.Context(), which requires Go 1.24+.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func newCoordinatorServer(t *testing.T) (*HTTPCoordinator, *httptest.Server) {
	t.Helper()

	svc, err := NewHTTPCoordinator(&CoordinatorServiceConfig{
		FederationConfig: testutil.NewTestConfig(),
		Store:            NewInMemoryStore(),
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	svc.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return svc, server
}

func TestCoordinatorConfigEndpoint(t *testing.T) {
	_, server := newCoordinatorServer(t)

	config, err := FetchConfig(server.URL)
	require.NoError(t, err)
	require.Equal(t, testutil.NewTestConfig(), config)
}

func TestCoordinatorRegisterEndpoint(t *testing.T) {
	svc, server := newCoordinatorServer(t)

	body, err := json.Marshal(&federation.RegisterRequest{
		WorkerID:     "w0",
		Endpoint:     "http://localhost:19999",
		TrainSamples: 8,
		EvalSamples:  2,
	})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regResp federation.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	require.True(t, regResp.Accepted)
	require.Equal(t, 0, regResp.AcceptedRoundStart)
	require.Equal(t, 1, svc.Coordinator().ConnectedWorkers())

	workers, err := svc.config.Store.LoadAllWorkers(testContext(t))
	require.NoError(t, err)
	require.Len(t, workers, 1)
	require.Equal(t, "w0", workers[0].WorkerID)
}

func TestCoordinatorRegisterRejectsMissingFields(t *testing.T) {
	_, server := newCoordinatorServer(t)

	resp, err := http.Post(server.URL+"/register", "application/json",
		strings.NewReader(`{"worker_id": "w0"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCoordinatorRunStatusEndpoint(t *testing.T) {
	svc, server := newCoordinatorServer(t)

	resp, err := http.Get(server.URL + "/run")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status RunStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, svc.Coordinator().RunID(), status.RunID)
	require.Equal(t, federation.AwaitingQuorum.String(), status.Phase)
	require.Equal(t, 0, status.CurrentRound)
	require.Equal(t, 2, status.TotalRounds)
	require.False(t, status.Terminated)
}

func TestCoordinatorParametersEndpoint(t *testing.T) {
	svc, server := newCoordinatorServer(t)

	resp, err := http.Get(server.URL + "/run/parameters")
	require.NoError(t, err)
	defer resp.Body.Close()

	var params ParametersResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&params))
	require.Equal(t, svc.Coordinator().RunID(), params.RunID)
	require.Len(t, params.Parameters, testutil.NewTestConfig().ParameterShape())
}

func TestEventStream(t *testing.T) {
	svc, server := newCoordinatorServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	want := federation.RoundSummary{RoundNumber: 1, TrainMetric: 0.9, Loss: 0.1, ParticipantCount: 2}
	svc.events.broadcast(want)

	var got federation.RoundSummary
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, want, got)
}

func newTestHTTPWorker(t *testing.T) (*HTTPWorker, *httptest.Server, *federation.FederationConfig) {
	t.Helper()

	config := testutil.NewTestConfig(testutil.WithWorkerCount(1))
	ds := testutil.DatasetFor(config, 10)

	partition, err := dataset.NewPartition(ds, 0, 1, config.SplitRatio)
	require.NoError(t, err)

	tr, err := trainer.NewCentroidTrainer(config.Classes, len(config.FeatureNames))
	require.NoError(t, err)

	w, err := worker.New("w0", partition, tr, hclog.NewNullLogger())
	require.NoError(t, err)

	svc := NewHTTPWorker(&WorkerServiceConfig{}, w)

	r := chi.NewRouter()
	svc.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return svc, server, config
}

func TestWorkerFitEndpoint(t *testing.T) {
	_, server, config := newTestHTTPWorker(t)

	client := NewHTTPWorkerClient("w0", server.URL, nil)
	result, err := client.Fit(testContext(t), federation.RoundConfig{
		RoundNumber: 0,
		Parameters:  federation.NewParameterVector(config.ParameterShape()),
	})
	require.NoError(t, err)
	require.Equal(t, "w0", result.WorkerID)
	require.Len(t, result.Parameters, config.ParameterShape())
	require.Positive(t, result.SampleCount)
}

func TestWorkerEvaluateEndpoint(t *testing.T) {
	_, server, config := newTestHTTPWorker(t)

	client := NewHTTPWorkerClient("w0", server.URL, nil)
	fit, err := client.Fit(testContext(t), federation.RoundConfig{
		RoundNumber: 0,
		Parameters:  federation.NewParameterVector(config.ParameterShape()),
	})
	require.NoError(t, err)

	eval, err := client.Evaluate(testContext(t), 0, fit.Parameters)
	require.NoError(t, err)
	require.Equal(t, "w0", eval.WorkerID)
	require.Equal(t, 0.0, eval.Loss)
	require.Equal(t, 1.0, eval.EvalMetric)
}

func TestWorkerStaleRoundMapsToConflict(t *testing.T) {
	_, server, config := newTestHTTPWorker(t)

	client := NewHTTPWorkerClient("w0", server.URL, nil)
	params := federation.NewParameterVector(config.ParameterShape())

	_, err := client.Fit(testContext(t), federation.RoundConfig{RoundNumber: 2, Parameters: params})
	require.NoError(t, err)

	_, err = client.Fit(testContext(t), federation.RoundConfig{RoundNumber: 1, Parameters: params})
	require.ErrorIs(t, err, federation.ErrStaleRound)
}

func TestWorkerStatusEndpoint(t *testing.T) {
	_, server, _ := newTestHTTPWorker(t)

	resp, err := http.Get(server.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status WorkerStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Equal(t, "w0", status.WorkerID)
	require.False(t, status.Registered)
	require.Equal(t, -1, status.LastFitRound)
	require.Positive(t, status.TrainSamples)
}
