package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"procurement/internal/access"
	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeRFQService struct {
	service.RFQService
	createFunc  func(req service.RFQGeneralRequest) (service.RFQResponse, error)
	publishFunc func(id string) (service.RFQResponse, error)
	listFunc    func(p pagination.Params, status string) ([]service.RFQResponse, int64, error)
}

func (f *fakeRFQService) CreateRFQ(_ context.Context, req service.RFQGeneralRequest) (service.RFQResponse, error) {
	return f.createFunc(req)
}

func (f *fakeRFQService) Publish(_ context.Context, id string) (service.RFQResponse, error) {
	return f.publishFunc(id)
}

func (f *fakeRFQService) GetRFQ(_ context.Context, id string) (service.RFQResponse, error) {
	return service.RFQResponse{}, fmt.Errorf("rfq %w", service.ErrNotFound)
}

func (f *fakeRFQService) ListRFQs(_ context.Context, p pagination.Params, status string) ([]service.RFQResponse, int64, error) {
	return f.listFunc(p, status)
}

type fakeQuotationService struct {
	service.QuotationService
	awardFunc func(id string) (service.QuotationResponse, error)
}

func (f *fakeQuotationService) Award(_ context.Context, id string) (service.QuotationResponse, error) {
	return f.awardFunc(id)
}

type fakeEvaluationService struct {
	service.EvaluationService
	gotShortlisted bool
}

func (f *fakeEvaluationService) ListByRFQ(_ context.Context, rfqID string, shortlistedOnly bool, p pagination.Params) ([]service.EvaluationResponse, int64, error) {
	f.gotShortlisted = shortlistedOnly
	return []service.EvaluationResponse{{ID: "e1", RFQID: rfqID}}, 1, nil
}

func (f *fakeEvaluationService) Evaluate(_ context.Context, id string, req service.EvaluateRequest) (service.EvaluationResponse, error) {
	if req.PriceScore == nil {
		return service.EvaluationResponse{}, service.ValidationErrors{"price_score": "is required"}
	}
	return service.EvaluationResponse{ID: "e1", QuotationID: id}, nil
}

// newTestRouter mounts handlers on /api behind a fake auth step granting perms
func newTestRouter(perms []string, register func(api *gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set(middleware.ContextPermissions, access.NewSet(perms...))
		c.Next()
	})
	register(api)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRFQHandlerStatusMapping(t *testing.T) {
	svc := &fakeRFQService{
		createFunc: func(req service.RFQGeneralRequest) (service.RFQResponse, error) {
			if len(req.Description) < 10 {
				return service.RFQResponse{}, service.ValidationErrors{"description": "must be at least 10 characters"}
			}
			return service.RFQResponse{ID: "r1", ReferenceNumber: "RFQ-2026-0001", Status: "draft"}, nil
		},
		publishFunc: func(id string) (service.RFQResponse, error) {
			return service.RFQResponse{}, fmt.Errorf("%w: cannot publish rfq in status \"closed\"", service.ErrInvalidTransition)
		},
	}
	all := []string{"read_rfq", "create_rfq", "update_rfq", "publish_rfq"}
	r := newTestRouter(all, NewRFQHandler(svc).RegisterRoutes)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"created", http.MethodPost, "/api/rfqs", service.RFQGeneralRequest{Description: "Need 50 laptops for branch rollout"}, http.StatusCreated},
		{"validation", http.MethodPost, "/api/rfqs", service.RFQGeneralRequest{Description: "short"}, http.StatusUnprocessableEntity},
		{"bad json", http.MethodPost, "/api/rfqs", "not an object", http.StatusBadRequest},
		{"not found", http.MethodGet, "/api/rfqs/missing", nil, http.StatusNotFound},
		{"invalid transition", http.MethodPost, "/api/rfqs/r1/publish", nil, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}

	w := doJSON(r, http.MethodPost, "/api/rfqs", service.RFQGeneralRequest{Description: "short"})
	env := decode(t, w)
	require.False(t, env.Success)
	require.Equal(t, "must be at least 10 characters", env.Errors["description"])
}

func TestRFQHandlerPermissionDenied(t *testing.T) {
	svc := &fakeRFQService{}
	r := newTestRouter([]string{"read_rfq"}, NewRFQHandler(svc).RegisterRoutes)

	w := doJSON(r, http.MethodPost, "/api/rfqs/r1/publish", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRFQHandlerListEnvelope(t *testing.T) {
	var gotStatus string
	var gotParams pagination.Params
	svc := &fakeRFQService{
		listFunc: func(p pagination.Params, status string) ([]service.RFQResponse, int64, error) {
			gotParams, gotStatus = p, status
			return []service.RFQResponse{{ID: "r1"}, {ID: "r2"}}, 12, nil
		},
	}
	r := newTestRouter([]string{"read_rfq"}, NewRFQHandler(svc).RegisterRoutes)

	w := doJSON(r, http.MethodGet, "/api/rfqs?page=2&per_page=5&status=published&sort_by=status&sort_order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "published", gotStatus)
	require.Equal(t, 2, gotParams.Page)
	require.Equal(t, "asc", gotParams.SortOrder)

	var page struct {
		Data        []service.RFQResponse `json:"data"`
		Total       int64                 `json:"total"`
		CurrentPage int                   `json:"current_page"`
		LastPage    int                   `json:"last_page"`
		PerPage     int                   `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	require.Len(t, page.Data, 2)
	require.Equal(t, int64(12), page.Total)
	require.Equal(t, 3, page.LastPage)
	require.Equal(t, 5, page.PerPage)
}

func TestQuotationHandlerAwardConflict(t *testing.T) {
	qs := &fakeQuotationService{awardFunc: func(id string) (service.QuotationResponse, error) {
		if id == "q2" {
			return service.QuotationResponse{}, fmt.Errorf("%w: rfq already has an awarded quotation", service.ErrConflict)
		}
		return service.QuotationResponse{ID: id, Status: "awarded"}, nil
	}}
	h := NewQuotationHandler(qs, &fakeEvaluationService{})
	r := newTestRouter([]string{"award_quotation"}, h.RegisterRoutes)

	w := doJSON(r, http.MethodPost, "/api/quotations/q1/award", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/quotations/q2/award", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, decode(t, w).Message, "already has an awarded quotation")
}

func TestQuotationHandlerEvaluations(t *testing.T) {
	es := &fakeEvaluationService{}
	h := NewQuotationHandler(&fakeQuotationService{}, es)
	r := newTestRouter([]string{"read_evaluation", "evaluate_quotation"}, h.RegisterRoutes)

	w := doJSON(r, http.MethodGet, "/api/rfqs/r1/evaluations?shortlisted=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, es.gotShortlisted)

	w = doJSON(r, http.MethodPost, "/api/quotations/q1/evaluate", map[string]int{"delivery_score": 90})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "is required", decode(t, w).Errors["price_score"])

	price := 80
	w = doJSON(r, http.MethodPost, "/api/quotations/q1/evaluate", service.EvaluateRequest{PriceScore: &price})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, fmt.Errorf("failed to load rfq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Internal server error", decode(t, w).Message)
}
