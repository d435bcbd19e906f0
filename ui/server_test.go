package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timestudy/adapters/excel"
	"timestudy/internal/auth"
	"timestudy/internal/catalog"
	"timestudy/internal/report"
	"timestudy/internal/testkit"
	"timestudy/internal/timestudy"
	"timestudy/models"
	"timestudy/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiHarness struct {
	srv   *Server
	store *testkit.Store
	f     *testkit.Fixture
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	store := testkit.NewStore()
	f, err := store.Seed(context.Background(), "Acme", 2)
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	codec := excel.NewCodec()
	srv := NewServer(Services{
		Auth:     auth.NewService(store.Users(), store.AuthSessions(), time.Hour, nil),
		Users:    auth.NewUserService(store.Users(), store.Processes()),
		Sessions: timestudy.NewSessionManager(store.Users(), store.Processes(), store.Operations(), store.Sessions(), clock),
		Recorder: timestudy.NewRecorder(store.Sessions(), store.Timings(), store.Operations(), clock),
		Catalog:  catalog.NewService(store.Processes(), store.Operations(), codec),
		Reports:  report.NewAggregator(store.Reports(), store.Processes(), codec, time.UTC),
	}, Options{MaxUploadBytes: 1 << 20})

	return &apiHarness{srv: srv, store: store, f: f}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *apiHarness) upload(t *testing.T, path, token string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "operations.xlsx")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *apiHarness) login(t *testing.T, badge string) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"badge_id": badge})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result auth.LoginResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error, body.Code
}

func TestAuthFlow(t *testing.T) {
	h := newAPIHarness(t)

	w := h.do(t, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "UNAUTHORIZED", code)

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"badge_id": "unknown"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"badge_id": "Acme-OP"})
	require.Equal(t, http.StatusOK, w.Code)
	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "ts_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "ts_session", Value: cookie.Value})
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var who models.Identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &who))
	assert.Equal(t, h.f.OperatorIdentity(), who)

	w = h.do(t, http.MethodPost, "/api/auth/logout", cookie.Value, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodGet, "/api/me", cookie.Value, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCapabilityGroups(t *testing.T) {
	h := newAPIHarness(t)
	operator := h.login(t, "Acme-OP")
	admin := h.login(t, "Acme-ADMIN")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"operator reads reports", http.MethodGet, "/api/reports/time-study-data?startDate=2026-03-01&endDate=2026-03-02", operator},
		{"operator lists users", http.MethodGet, "/api/users", operator},
		{"operator lists processes", http.MethodGet, "/api/processes", operator},
		{"admin opens session", http.MethodPost, "/api/time-study/sessions", admin},
		{"admin lists granted processes", http.MethodGet, "/api/operator/processes", admin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, tt.method, tt.path, tt.token, gin.H{"process_id": h.f.Process.ID})
			assert.Equal(t, http.StatusForbidden, w.Code)
			_, code := decodeError(t, w)
			assert.Equal(t, "ACCESS_DENIED", code)
		})
	}
}

func TestTimingCycleAndReport(t *testing.T) {
	h := newAPIHarness(t)
	operator := h.login(t, "Acme-OP")
	admin := h.login(t, "Acme-ADMIN")

	w := h.do(t, http.MethodGet, "/api/operator/processes/"+h.f.Process.ID.String(), operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail models.ProcessDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	require.Len(t, detail.Operations, 2)

	w = h.do(t, http.MethodPost, "/api/time-study/sessions", operator, gin.H{"process_id": h.f.Process.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	for _, op := range detail.Operations {
		ids := gin.H{"session_id": created.SessionID, "operation_id": op.ID}
		w = h.do(t, http.MethodPost, "/api/time-study/operations/start", operator, ids)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = h.do(t, http.MethodPost, "/api/time-study/operations/start", operator, ids)
		assert.Equal(t, http.StatusConflict, w.Code)

		ids["total_time_seconds"] = 4.5
		w = h.do(t, http.MethodPost, "/api/time-study/operations/end", operator, ids)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = h.do(t, http.MethodPost, "/api/time-study/operations/end", operator,
		gin.H{"session_id": created.SessionID, "operation_id": detail.Operations[0].ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/reports/time-study-data?startDate=2026-03-02&endDate=2026-03-02&processId=all", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rows []models.ReportRow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "OP1", rows[0].OperationID)
	assert.Nil(t, rows[0].TimeBetweenOps)
	assert.NotNil(t, rows[1].TimeBetweenOps)
	require.NotNil(t, rows[1].TotalTime)
	assert.Equal(t, "4.5s", *rows[1].TotalTime)
	assert.Equal(t, models.SessionStatusCompleted, rows[1].SessionStatus)

	w = h.do(t, http.MethodGet, "/api/reports/export?startDate=2026-03-02&endDate=2026-03-02&processId="+h.f.Process.ID.String(), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, excel.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="acme_line_time_study_2026-03-02_to_2026-03-02.xlsx"`, w.Header().Get("Content-Disposition"))

	w = h.do(t, http.MethodGet, "/api/reports/summary?startDate=2026-03-02&endDate=2026-03-02", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []models.OperationSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 2)

	w = h.do(t, http.MethodGet, "/api/reports/time-study-data?startDate=2026-03-02", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	_, code := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", code)
}

func TestSessionWithoutGrant(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.login(t, "Acme-ADMIN")

	w := h.do(t, http.MethodPost, "/api/users", admin, gin.H{"badge_id": "B-9", "name": "Sam", "role": "operator"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	operator := h.login(t, "B-9")
	w = h.do(t, http.MethodPost, "/api/time-study/sessions", operator, gin.H{"process_id": h.f.Process.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, h.store.SessionCount())

	w = h.do(t, http.MethodPost, "/api/time-study/sessions", operator, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportAndOperationsAPI(t *testing.T) {
	h := newAPIHarness(t)
	admin := h.login(t, "Acme-ADMIN")

	data, err := excel.NewCodec().Serialize(ports.Sheet{
		Name:    "Template",
		Columns: []string{"Process Name", "Paint Shop"},
		Rows: [][]ports.Cell{
			{catalog.HeaderOperationID, catalog.HeaderDescription, catalog.HeaderStandardTime},
			{"OP10", "Mask", 30.0},
			{"OP20", "Spray", 45.0},
			{"note", "ignored"},
		},
	})
	require.NoError(t, err)

	w := h.upload(t, "/api/processes/extract-name", admin, data, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"process_name":"Paint Shop"}`, w.Body.String())

	w = h.upload(t, "/api/processes/import", admin, data, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var imported catalog.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imported))
	assert.Equal(t, 2, imported.OperationCount)

	w = h.upload(t, "/api/processes/import", admin, data, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg, _ := decodeError(t, w)
	assert.Equal(t, "process name already exists", msg)

	w = h.do(t, http.MethodGet, "/api/processes/check-name?name=Paint%20Shop", admin, nil)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	base := "/api/processes/" + imported.ProcessID.String() + "/operations"
	w = h.do(t, http.MethodPost, base, admin, gin.H{"operation_id": "op30", "description": "Inspect"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var op models.Operation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &op))
	assert.Equal(t, 2, op.SequenceNumber)

	w = h.do(t, http.MethodPost, base, admin, gin.H{"operation_id": "OP10", "description": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodDelete, base+"/"+op.ID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, http.MethodGet, base+"/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload(t, "/api/processes/"+imported.ProcessID.String()+"/replace", admin, []byte("not a workbook"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodGet, "/api/processes/"+imported.ProcessID.String()+"/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "paint_shop_time_study_data.xlsx")

	w = h.do(t, http.MethodDelete, "/api/processes/"+imported.ProcessID.String(), admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = h.do(t, http.MethodGet, "/api/processes/"+imported.ProcessID.String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
