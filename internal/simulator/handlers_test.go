package simulator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-fee-sync/internal/dto"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepository()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.AddUser(User{ID: "user-1", Email: "admin@example.com", PasswordHash: string(hash)})
	repo.AddSchool(School{ID: "school-1", Name: "Greenfield Academy", SubscriptionAmount: 1200})
	repo.AddStudent(Student{ID: "stu-1", SchoolID: "school-1", FullName: "Amara Okafor", StudentClass: "Class 9", Active: true, MonthlyRate: 800})

	svc := NewService(repo, nil, ServiceConfig{})
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }
	auth := NewAuth(repo, AuthConfig{Secret: "test-secret", TokenExpiry: time.Hour})

	router := gin.New()
	NewHandler(svc, auth, nil).Register(router)

	login := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{"email": "admin@example.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, login.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	return router, body.Token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFeesRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/fees?school_id=school-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateSingleEndpointConflictShape(t *testing.T) {
	router, token := newTestRouter(t)

	payload := dto.CreateSingleRequest{StudentID: "stu-1", Month: "Mar-2025", PaidAmount: 200}
	rec := doJSON(t, router, http.MethodPost, "/fees/create-single", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created dto.FeeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 800.0, created.TotalFee)
	assert.Equal(t, 600.0, created.BalanceDue)

	// Same student and month again: the contract names the existing record.
	rec = doJSON(t, router, http.MethodPost, "/fees/create-single", token, payload)
	require.Equal(t, http.StatusConflict, rec.Code)

	var conflict dto.SingleConflict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.Equal(t, created.ID, conflict.ExistingFeeID)
}

func TestCreateBatchEndpointConflictShape(t *testing.T) {
	router, token := newTestRouter(t)

	payload := dto.CreateBatchRequest{SchoolID: "school-1", Month: "Mar-2025"}
	rec := doJSON(t, router, http.MethodPost, "/fees/create", token, payload)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/fees/create", token, payload)
	require.Equal(t, http.StatusConflict, rec.Code)

	var conflict dto.BatchConflict
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.Contains(t, conflict.Warning, "Mar-2025")

	payload.ForceOverwrite = true
	rec = doJSON(t, router, http.MethodPost, "/fees/create", token, payload)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateFeesEndpointEchoesDerivedFields(t *testing.T) {
	router, token := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/fees/create-single", token,
		dto.CreateSingleRequest{StudentID: "stu-1", Month: "Mar-2025"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.FeeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	amount := 800.0
	date := "2025-03-20"
	rec = doJSON(t, router, http.MethodPost, "/fees/update", token, dto.UpdateRequest{
		Fees: []dto.FeeUpdate{{ID: created.ID, PaidAmount: &amount, DateReceived: &date}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.UpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Fees, 1)
	assert.Equal(t, 0.0, resp.Fees[0].BalanceDue)
	assert.Equal(t, "Paid", resp.Fees[0].Status)
	require.NotNil(t, resp.Fees[0].DateReceived)
	assert.Equal(t, "2025-03-20", *resp.Fees[0].DateReceived)
}

func TestUpdateFeesEndpointRejectsBadDate(t *testing.T) {
	router, token := newTestRouter(t)

	amount := 100.0
	date := "20/03/2025"
	rec := doJSON(t, router, http.MethodPost, "/fees/update", token, dto.UpdateRequest{
		Fees: []dto.FeeUpdate{{ID: "fee-1", PaidAmount: &amount, DateReceived: &date}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteFeesEndpoint(t *testing.T) {
	router, token := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/fees/create-single", token,
		dto.CreateSingleRequest{StudentID: "stu-1", Month: "Mar-2025"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created dto.FeeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodPost, "/fees/delete", token, dto.DeleteRequest{FeeIDs: []string{created.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/fees?school_id=school-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fees []dto.FeeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fees))
	assert.Empty(t, fees)
}

func TestListStudentsEndpoint(t *testing.T) {
	router, token := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/students?school_id=school-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var students []dto.Student
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	require.Len(t, students, 1)
	assert.Equal(t, "Amara Okafor", students[0].FullName)
}
