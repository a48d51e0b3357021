package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 2*time.Second)
}

func TestListDecodesPageEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/rfqs/r1/quotations", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "awarded", r.URL.Query().Get("status"))
		require.Empty(t, r.URL.Query().Get("search"))

		fmt.Fprint(w, `{"success":true,"data":{"data":[{"id":"q1","status":"awarded","total_amount":"1200.50"}],"total":11,"current_page":2,"last_page":2,"per_page":10}}`)
	})

	page, err := c.As("tok").ListQuotations(context.Background(), "r1", ListParams{
		Page: 2, PerPage: 10, Filters: map[string]string{"status": "awarded", "unused": ""},
	})
	require.NoError(t, err)
	require.Equal(t, int64(11), page.Total)
	require.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 1)
	require.True(t, page.Data[0].TotalAmount.Equal(decimal.RequireFromString("1200.5")))
}

func TestErrorUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"success":false,"message":"invalid transition: cannot award quotation in status \"rejected\""}`)
	})

	_, err := c.As("tok").QuotationAction(context.Background(), "q1", ActionAward)
	require.Error(t, err)
	require.Equal(t, http.StatusConflict, StatusOf(err))
	require.Contains(t, MessageOf(err), "cannot award quotation")
	require.False(t, IsNotFound(err))
}

func TestErrorFallbackMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `<html>bad gateway</html>`)
	})

	_, err := c.As("tok").GetRFQ(context.Background(), "r1")
	require.Equal(t, FallbackMessage, MessageOf(err))
	require.Equal(t, http.StatusBadGateway, StatusOf(err))

	require.Equal(t, FallbackMessage, MessageOf(fmt.Errorf("plain error")))
}

func TestNotFoundAndValidationFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"success":false,"message":"rfq not found"}`)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"success":false,"message":"Validation failed","errors":{"description":"must be at least 10 characters"}}`)
	})

	_, err := c.As("tok").GetRFQ(context.Background(), "missing")
	require.True(t, IsNotFound(err))

	_, err = c.As("tok").CreateRFQ(context.Background(), RFQGeneral{Description: "short"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "must be at least 10 characters", apiErr.Fields["description"])
}

func TestTransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.Login(context.Background(), LoginRequest{Username: "a", Password: "b"})
	require.Error(t, err)
	require.Equal(t, 0, StatusOf(err))
	require.Equal(t, FallbackMessage, MessageOf(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Error(t, apiErr.Unwrap(), "the dial error is kept for logs")
	require.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestEvaluateSendsScores(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/quotations/q1/evaluate", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 80, body["price_score"])
		require.Equal(t, 95, body["compliance_score"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"success":true,"message":"Quotation evaluated","data":{"id":"e1","total_score":"83.75"}}`)
	})

	e, err := c.As("tok").Evaluate(context.Background(), "q1", Scores{
		PriceScore: 80, DeliveryScore: 90, FinancialScore: 70, PerformanceScore: 85, ComplianceScore: 95,
	})
	require.NoError(t, err)
	require.Equal(t, "83.75", e.TotalScore.StringFixed(2))
}

func TestListEvaluationsShortlistedFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("shortlisted"))
		require.Equal(t, "total_score", r.URL.Query().Get("sort_by"))
		fmt.Fprint(w, `{"success":true,"data":{"data":[],"total":0,"current_page":1,"last_page":1,"per_page":10}}`)
	})

	page, err := c.As("tok").ListEvaluations(context.Background(), "r1", true, ListParams{SortBy: "total_score", SortOrder: "desc"})
	require.NoError(t, err)
	require.Empty(t, page.Data)
}

func TestStatisticsOmitsEmptyDates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/statistics", r.URL.Path)
		require.Equal(t, "2026-01-01", r.URL.Query().Get("start_date"))
		_, hasEnd := r.URL.Query()["end_date"]
		require.False(t, hasEnd)
		fmt.Fprint(w, `{"success":true,"data":{"total_rfqs":2,"rfqs_by_status":{"draft":2},"awarded_value":"0"}}`)
	})

	st, err := c.As("tok").Statistics(context.Background(), "2026-01-01", "")
	require.NoError(t, err)
	require.Equal(t, int64(2), st.TotalRFQs)
	require.Equal(t, int64(2), st.RFQsByStatus["draft"])
}
