package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustform/assessd/internal/auth"
	"github.com/trustform/assessd/internal/config"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/submission"
)

const testSecret = "test-secret"

type fakeScorer struct {
	mx    sync.Mutex
	calls int
	res   *model.ScoringResult
	err   error
}

func (f *fakeScorer) Score(_ context.Context, _ *model.ScoringRequest) (*model.ScoringResult, error) {
	f.mx.Lock()
	defer f.mx.Unlock()

	f.calls++

	return f.res, f.err
}

type TestApp struct {
	*App
	api    *API
	scorer *fakeScorer
}

func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	cfg := config.NewAppConfig()
	cfg.Set("db", ":memory:")
	cfg.Set("data_dir", t.TempDir())
	cfg.Set("auth.secret", testSecret)

	a, err := NewApp(cfg)
	require.NoError(t, err)

	app := &TestApp{
		App:    a,
		scorer: &fakeScorer{res: &model.ScoringResult{OverallScore: 3.8, Confidence: 0.9, LayerScores: map[string]float64{"L1": 3.8}}},
	}

	app.orchestrator = submission.New(app.store, app.scorer, app.notifier, app.bus)
	app.api = NewAPI(app.App, "localhost:1234")

	return app
}

func token(t *testing.T, org string, roles ...string) string {
	t.Helper()

	tok, err := auth.Sign([]byte(testSecret), "user@"+org, org, roles, time.Hour)
	require.NoError(t, err)

	return tok
}

func (app *TestApp) Req(method, url, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return app.api.f.Test(req, 3000)
}

func (app *TestApp) Do(t *testing.T, method, url, token string, obj any) (int, map[string]any) {
	t.Helper()

	var body io.Reader

	if obj != nil {
		b, err := json.Marshal(obj)
		require.NoError(t, err)

		body = bytes.NewReader(b)
	}

	res, err := app.Req(method, url, token, body)
	require.NoError(t, err)

	defer res.Body.Close()

	m := make(map[string]any)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	if len(b) > 0 && b[0] == '{' {
		require.NoError(t, json.Unmarshal(b, &m))
	}

	return res.StatusCode, m
}

func (app *TestApp) assessment(t *testing.T, tok string) uint {
	t.Helper()

	code, m := app.Do(t, "POST", "/api/v1/assessments", tok, map[string]any{"sector": "healthcare", "partner_org_name": "Acme"})
	require.Equal(t, http.StatusCreated, code)

	return uint(m["id"].(float64))
}

func TestAuth(t *testing.T) {
	app := NewTestApp(t)

	code, _ := app.Do(t, "GET", "/api/v1/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.Do(t, "GET", "/api/v1/projects", "bad", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.Do(t, "GET", "/api/v1/projects", token(t, "org_1"), nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.Do(t, "POST", "/api/v1/credits", token(t, "org_1"), map[string]any{"credit_type": "RC", "amount": 5})
	require.Equal(t, http.StatusForbidden, code)
}

func TestAssessmentFlow(t *testing.T) {
	app := NewTestApp(t)

	admin := token(t, "trustform", auth.RoleAdmin)
	analyst := token(t, "trustform", auth.RoleAnalyst)
	customer := token(t, "org_1", auth.RoleCustomer)

	code, m := app.Do(t, "POST", "/api/v1/credits", admin, map[string]any{"organization_id": "org_1", "credit_type": "RC", "amount": 2})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, 2.0, m["balance"])

	id := app.assessment(t, customer)
	base := "/api/v1/assessments/" + itoa(id)

	var respondentID uint

	for _, email := range []string{"a@acme.io", "b@acme.io"} {
		code, m = app.Do(t, "POST", base+"/respondents", customer, map[string]any{"email": email, "role": "ciso"})
		require.Equal(t, http.StatusCreated, code)

		respondentID = uint(m["id"].(float64))
	}

	code, m = app.Do(t, "POST", base+"/respondents", customer, map[string]any{"email": "c@acme.io", "role": "ciso"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "quota_exceeded", m["kind"])

	code, m = app.Do(t, "GET", "/api/v1/credits/RC", customer, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 0.0, m["balance"])

	code, _ = app.Do(t, "POST", "/api/v1/responses", "", map[string]any{
		"respondent_id": respondentID,
		"question_id":   "L1.1.Q1",
		"answer_value":  map[string]any{"choice": "Yes"},
	})
	require.Equal(t, http.StatusCreated, code)

	code, m = app.Do(t, "POST", base+"/submit", customer, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(model.StatusAnalystReview), m["assessment"].(map[string]any)["status"])
	require.Equal(t, 3.8, m["score"].(map[string]any)["overall_score"])

	code, m = app.Do(t, "POST", base+"/submit", customer, nil)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid_state", m["kind"])
	require.Equal(t, 1, app.scorer.calls)

	code, m = app.Do(t, "GET", base+"/scores", customer, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 3.8, m["overall_score"])

	code, _ = app.Do(t, "POST", base+"/finalize", customer, map[string]any{"status": "COMPLETED"})
	require.Equal(t, http.StatusForbidden, code)

	code, m = app.Do(t, "POST", base+"/finalize", analyst, map[string]any{"status": "COMPLETED", "notes": "ok"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(model.StatusCompleted), m["status"])
}

func TestSubmit_ScoringFailure(t *testing.T) {
	app := NewTestApp(t)
	app.scorer.err = errors.New("engine down")

	customer := token(t, "org_1")
	id := app.assessment(t, customer)

	code, m := app.Do(t, "POST", "/api/v1/assessments/"+itoa(id)+"/submit", customer, nil)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "dependency_failure", m["kind"])
	require.Equal(t, string(model.StatusSubmitted), m["assessment"].(map[string]any)["status"])

	code, m = app.Do(t, "GET", "/api/v1/assessments/"+itoa(id)+"/scores", customer, nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "not_found", m["kind"])

	app.scorer.err = nil

	code, m = app.Do(t, "POST", "/api/v1/assessments/"+itoa(id)+"/rescore", customer, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(model.StatusAnalystReview), m["assessment"].(map[string]any)["status"])
}

func TestOrganizationIsolation(t *testing.T) {
	app := NewTestApp(t)

	id := app.assessment(t, token(t, "org_1"))

	code, m := app.Do(t, "GET", "/api/v1/assessments/"+itoa(id), token(t, "org_2"), nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "not_found", m["kind"])

	code, _ = app.Do(t, "GET", "/api/v1/assessments/"+itoa(id), token(t, "trustform", auth.RoleAnalyst), nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = app.Do(t, "GET", "/api/v1/assessments/abc", token(t, "org_1"), nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestInvitationFlow(t *testing.T) {
	app := NewTestApp(t)

	customer := token(t, "org_1")
	id := app.assessment(t, customer)

	code, m := app.Do(t, "POST", "/api/v1/invitations", customer, map[string]any{
		"assessment_id":    id,
		"partner_email":    "ciso@acme.io",
		"partner_org_name": "Acme",
	})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, true, m["notification"].(map[string]any)["delivered"])

	inv := m["invitation"].(map[string]any)
	tok := inv["token"].(string)
	require.Equal(t, "PENDING", inv["status"])

	code, _ = app.Do(t, "POST", "/api/v1/invitations", token(t, "org_2"), map[string]any{"assessment_id": id, "partner_email": "x@y.z"})
	require.Equal(t, http.StatusNotFound, code)

	code, m = app.Do(t, "GET", "/api/v1/invitations/token/"+tok, "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ciso@acme.io", m["partner_email"])

	code, m = app.Do(t, "POST", "/api/v1/invitations/token/"+tok+"/accept", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ACCEPTED", m["status"])

	code, m = app.Do(t, "POST", "/api/v1/invitations/token/"+tok+"/decline", "", map[string]any{"reason": "late"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid_state", m["kind"])

	code, _ = app.Do(t, "POST", "/api/v1/invitations/token/nope/accept", "", nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestEvidenceUpload(t *testing.T) {
	app := NewTestApp(t)

	admin := token(t, "trustform", auth.RoleAdmin)
	customer := token(t, "org_1")

	code, _ := app.Do(t, "POST", "/api/v1/credits", admin, map[string]any{"organization_id": "org_1", "credit_type": "RC", "amount": 1})
	require.Equal(t, http.StatusCreated, code)

	id := app.assessment(t, customer)

	code, m := app.Do(t, "POST", "/api/v1/assessments/"+itoa(id)+"/respondents", customer, map[string]any{"email": "a@acme.io", "role": "ciso"})
	require.Equal(t, http.StatusCreated, code)
	respondentID := m["id"]

	code, m = app.Do(t, "POST", "/api/v1/responses", "", map[string]any{"respondent_id": respondentID, "question_id": "L1.1.Q1", "answer_value": map[string]any{"choice": "Yes"}})
	require.Equal(t, http.StatusCreated, code)
	responseID := m["id"]

	code, m = app.Do(t, "POST", "/api/v1/evidence/upload-url", "", map[string]any{"assessment_id": id, "evidence_type": "policy", "file_name": "policy.pdf"})
	require.Equal(t, http.StatusOK, code)

	key := m["storage_key"].(string)
	u, err := url.Parse(m["upload_url"].(string))
	require.NoError(t, err)

	res, err := app.Req("PUT", u.RequestURI(), "", bytes.NewBufferString("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// upload tokens do not grant downloads
	res, err = app.Req("GET", u.RequestURI(), "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	code, m = app.Do(t, "POST", "/api/v1/evidence", "", map[string]any{
		"response_id": responseID,
		"file_name":   "policy.pdf",
		"file_type":   "application/pdf",
		"file_size":   8,
		"storage_key": key,
	})
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, string(model.EvidenceScanPending), m["virus_scan_status"])

	evidence := "/api/v1/evidence/" + itoa(uint(m["id"].(float64)))

	code, _ = app.Do(t, "GET", evidence, "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, m = app.Do(t, "GET", evidence, token(t, "org_2"), nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Nil(t, m["download_url"])

	code, _ = app.Do(t, "GET", "/api/v1/responses/"+itoa(uint(responseID.(float64)))+"/evidence", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _ = app.Do(t, "GET", "/api/v1/responses/"+itoa(uint(responseID.(float64)))+"/evidence", token(t, "org_2"), nil)
	require.Equal(t, http.StatusNotFound, code)

	code, m = app.Do(t, "GET", evidence, customer, nil)
	require.Equal(t, http.StatusOK, code)

	d, err := url.Parse(m["download_url"].(string))
	require.NoError(t, err)

	res, err = app.Req("GET", d.RequestURI(), "", nil)
	require.NoError(t, err)

	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(b))
}

func TestMetrics(t *testing.T) {
	app := NewTestApp(t)

	customer := token(t, "org_1")

	for i := 0; i < 3; i++ {
		id := app.assessment(t, customer)

		code, _ := app.Do(t, "GET", "/api/v1/assessments/"+itoa(id), customer, nil)
		require.Equal(t, http.StatusOK, code)
	}

	code, _ := app.Do(t, "GET", "/api/v1/assessments/999", customer, nil)
	require.Equal(t, http.StatusNotFound, code)

	for _, key := range []string{"assessments/1/policy/a_x.pdf", "assessments/2/policy/b_y.pdf"} {
		res, err := app.Req("PUT", "/storage/"+key+"?token=bad", "", bytes.NewBufferString("x"))
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, res.StatusCode)
	}

	res, err := app.Req("GET", "/nowhere/1", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res, err = app.Req("GET", "/metrics", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	body := string(b)
	require.Contains(t, body, `route="/api/v1/assessments/:id"`)
	require.Contains(t, body, `route="/storage/*"`)
	require.Contains(t, body, `code="404"`)
	require.NotContains(t, body, "policy/a_x.pdf")
	require.NotContains(t, body, `route="/nowhere/1"`)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
