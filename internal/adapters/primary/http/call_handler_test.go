package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/insuredesk-backend/internal/core/domain"
	"github.com/lorrc/insuredesk-backend/internal/core/mocks"
)

func newCallRouter(telephony *mocks.MockTelephonyGateway) *chi.Mux {
	handler := NewCallHandler(telephony, NewErrorHandler(newTestLogger()))

	router := chi.NewRouter()
	router.Get("/calls/queue", handler.HandleQueue)
	router.Get("/calls/agents", handler.HandleAgentActivity)
	router.Get("/calls/tickets/{ticketID}", handler.HandleTicket)
	router.Get("/agents/{agentID}/csat", handler.HandleAgentCSAT)
	return router
}

func getPath(router *chi.Mux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(stdhttp.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleQueue(t *testing.T) {
	telephony := mocks.NewMockTelephonyGateway()
	telephony.On("QueueStats", mock.Anything).Return(&domain.QueueStats{
		Waiting:     4,
		AvgWait:     95,
		ActiveCalls: 7,
	}, nil)

	recorder := getPath(newCallRouter(telephony), "/calls/queue")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var stats domain.QueueStats
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&stats))
	assert.Equal(t, 4, stats.Waiting)
	assert.Equal(t, 7, stats.ActiveCalls)
}

func TestHandleQueue_UpstreamFailure(t *testing.T) {
	telephony := mocks.NewMockTelephonyGateway()
	telephony.On("QueueStats", mock.Anything).Return(nil, errors.New("connection refused"))

	recorder := getPath(newCallRouter(telephony), "/calls/queue")

	require.Equal(t, stdhttp.StatusBadGateway, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "UPSTREAM_ERROR", response.Code)
}

func TestHandleAgentActivity(t *testing.T) {
	telephony := mocks.NewMockTelephonyGateway()
	telephony.On("AgentActivity", mock.Anything).Return([]domain.AgentActivity{
		{AgentID: 1, Name: "Sam Okafor", Status: "on_call"},
		{AgentID: 2, Name: "Dana Whitfield", Status: "online"},
	}, nil)

	recorder := getPath(newCallRouter(telephony), "/calls/agents")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[domain.AgentActivity]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "Sam Okafor", response.Data[0].Name)
}

func TestHandleTicket(t *testing.T) {
	telephony := mocks.NewMockTelephonyGateway()
	telephony.On("Ticket", mock.Anything, int64(512)).Return(&domain.TicketDetails{
		ID:      512,
		Subject: "Windshield claim",
		Status:  "open",
	}, nil)

	recorder := getPath(newCallRouter(telephony), "/calls/tickets/512")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var ticket domain.TicketDetails
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&ticket))
	assert.Equal(t, int64(512), ticket.ID)
}

func TestHandleTicket_InvalidID(t *testing.T) {
	recorder := getPath(newCallRouter(mocks.NewMockTelephonyGateway()), "/calls/tickets/abc")

	require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
}

func TestHandleAgentCSAT(t *testing.T) {
	telephony := mocks.NewMockTelephonyGateway()
	telephony.On("CSATScores", mock.Anything, int64(33)).Return(&domain.CSATSummary{
		Average: 4.2,
		Count:   18,
	}, nil)

	recorder := getPath(newCallRouter(telephony), "/agents/33/csat")

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var summary domain.CSATSummary
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&summary))
	assert.Equal(t, 4.2, summary.Average)
	assert.Equal(t, 18, summary.Count)
}
