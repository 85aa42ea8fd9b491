package services

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/testutil"
)

// TestEndToEndTrainingRun deploys a coordinator and three workers over
// loopback HTTP, lets the full run play out, and checks the observable
// results through the coordinator's HTTP surface.
func TestEndToEndTrainingRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	config := testutil.NewTestConfig(
		testutil.WithTotalRounds(3),
		testutil.WithWorkerCount(3),
		testutil.WithMinParticipants(3),
		testutil.WithPerRoundTimeout(10*time.Second),
	)
	ds := testutil.DatasetFor(config, 30)

	orch := NewOrchestrator(&OrchestratorConfig{
		FederationConfig: config,
		Dataset:          ds,
		BasePort:         19300,
	})
	require.NoError(t, orch.Deploy())
	defer orch.Shutdown()

	coord := orch.Coordinator().Coordinator()
	require.Eventually(t, func() bool {
		return coord.Phase() == federation.Terminated
	}, 30*time.Second, 100*time.Millisecond, "run did not terminate")

	require.NoError(t, coord.RunError())
	require.Equal(t, 3, coord.CurrentRound())

	// Workers bootstrapped from the same /config the test started with.
	fetched, err := FetchConfig(orch.CoordinatorURL())
	require.NoError(t, err)
	require.Equal(t, config, fetched)

	resp, err := http.Get(orch.CoordinatorURL() + "/run")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status RunStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.True(t, status.Terminated)
	require.False(t, status.Aborted)
	require.Equal(t, 3, status.ConnectedWorkers)

	historyResp, err := http.Get(orch.CoordinatorURL() + "/run/history")
	require.NoError(t, err)
	defer historyResp.Body.Close()

	var history HistoryResponse
	require.NoError(t, json.NewDecoder(historyResp.Body).Decode(&history))
	require.Len(t, history.History, 3)
	for i, summary := range history.History {
		require.Equal(t, i, summary.RoundNumber)
		require.Equal(t, 3, summary.ParticipantCount)
		require.InDelta(t, 0.0, summary.Loss, 1e-9)
	}

	paramsResp, err := http.Get(orch.CoordinatorURL() + "/run/parameters")
	require.NoError(t, err)
	defer paramsResp.Body.Close()

	var params ParametersResponse
	require.NoError(t, json.NewDecoder(paramsResp.Body).Decode(&params))
	require.Len(t, params.Parameters, config.ParameterShape())
}
