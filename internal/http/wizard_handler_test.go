package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uni-wizard/internal/domain"
	"uni-wizard/internal/scoring"
	"uni-wizard/internal/service"
)

func newWizardMockScorer() *scoring.MockClient {
	return &scoring.MockClient{
		Clusters: map[string][]domain.ClusterOption{
			"UK": {
				{SubjectCluster: "data_science", DisplayName: "Data Science", Count: 12},
				{SubjectCluster: "mba", DisplayName: "MBA", Count: 8},
			},
		},
		Response: scoring.RecommendResponse{
			Recommendations: []domain.Recommendation{
				{CourseID: "1", UniversityName: "Uni A", LevelBand: domain.LevelSafe},
				{CourseID: "2", UniversityName: "Uni B", LevelBand: domain.LevelModerate},
				{CourseID: "3", UniversityName: "Uni C", LevelBand: domain.LevelAmbitious},
			},
			GlobalAdvice: &domain.GlobalAdvice{Headline: "Solid profile"},
		},
	}
}

func setupWizardRouter(t *testing.T, scorer scoring.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	advisor := service.NewAdvisor(service.DefaultAdvisoryPolicy())
	registry := service.NewSessionRegistry(func() *service.WizardSession {
		return service.NewWizardSession(scorer, advisor, service.WizardOptions{DefaultCountry: "UK"}, zap.NewNop())
	}, time.Minute, zap.NewNop())
	t.Cleanup(registry.CloseAll)
	return NewRouter(zap.NewNop(), NewWizardHandler(zap.NewNop(), registry))
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type sessionResponse struct {
	Error            string                  `json:"error"`
	AcademicErrors   map[string]string       `json:"academic_errors"`
	PreferenceErrors map[string]string       `json:"preference_errors"`
	Session          service.SessionSnapshot `json:"session"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var out sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func pollSession(t *testing.T, r http.Handler, id string, cond func(service.SessionSnapshot) bool) service.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec := performRequest(r, http.MethodGet, "/sessions/"+id, nil)
		expectStatus(t, rec, http.StatusOK)
		snap := decodeSession(t, rec).Session
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not reached, last snapshot %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/sessions", nil)
	expectStatus(t, rec, http.StatusCreated)
	id := decodeSession(t, rec).Session.ID
	pollSession(t, r, id, func(s service.SessionSnapshot) bool { return len(s.Clusters) > 0 })
	return id
}

func TestWizardHandler_FullFlow(t *testing.T) {
	scorer := newWizardMockScorer()
	r := setupWizardRouter(t, scorer)
	id := createSession(t, r)
	base := "/sessions/" + id

	expectStatus(t, performRequest(r, http.MethodPost, base+"/start", nil), http.StatusOK)

	rec := performRequest(r, http.MethodPost, base+"/next", nil)
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	if resp := decodeSession(t, rec); resp.AcademicErrors["name"] == "" || resp.AcademicErrors["cgpa"] == "" {
		t.Fatalf("expected name and cgpa errors, got %+v", resp.AcademicErrors)
	}

	rec = performRequest(r, http.MethodPatch, base+"/profile", map[string]any{
		"name":               "Asha",
		"cgpa":               "8.4",
		"english_proof_type": "ielts",
		"english_score":      "7",
	})
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, performRequest(r, http.MethodPost, base+"/next", nil), http.StatusOK)

	rec = performRequest(r, http.MethodPost, base+"/clusters/toggle", map[string]string{"subject_cluster": "astrology"})
	expectStatus(t, rec, http.StatusBadRequest)
	for _, cl := range []string{"data_science", "mba"} {
		expectStatus(t, performRequest(r, http.MethodPost, base+"/clusters/toggle", map[string]string{"subject_cluster": cl}), http.StatusOK)
	}

	expectStatus(t, performRequest(r, http.MethodPost, base+"/submit", nil), http.StatusAccepted)
	snap := pollSession(t, r, id, func(s service.SessionSnapshot) bool { return s.View == service.ViewResults })
	if snap.Counts != (domain.BandCounts{Safe: 1, Moderate: 1, Ambitious: 1}) {
		t.Fatalf("unexpected counts %+v", snap.Counts)
	}
	if reqs := scorer.Requests(); len(reqs) != 1 || reqs[0].RequestedCount != 7 || len(reqs[0].SubjectClusters) != 2 {
		t.Fatalf("unexpected scoring requests %+v", reqs)
	}

	rec = performRequest(r, http.MethodPost, base+"/compare/toggle", map[string]any{"course_id": 2})
	expectStatus(t, rec, http.StatusOK)
	if ids := decodeSession(t, rec).Session.CompareIDs; len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("expected compare [2], got %v", ids)
	}
	rec = performRequest(r, http.MethodPost, base+"/recommendations/select", map[string]string{"course_id": "3"})
	expectStatus(t, rec, http.StatusOK)
	if a := decodeSession(t, rec).Session.ActiveRecommendation; a == nil || a.CourseID != "3" {
		t.Fatalf("expected active 3, got %+v", a)
	}
	expectStatus(t, performRequest(r, http.MethodPost, base+"/recommendations/select", map[string]string{"course_id": "99"}), http.StatusBadRequest)
	expectStatus(t, performRequest(r, http.MethodDelete, base+"/compare", nil), http.StatusOK)

	expectStatus(t, performRequest(r, http.MethodPost, base+"/bot/messages", map[string]string{"message": "What about budget?"}), http.StatusAccepted)
	snap = pollSession(t, r, id, func(s service.SessionSnapshot) bool { return len(s.Transcript) == 3 && !s.BotTyping })
	if !snap.BotOpen || !strings.Contains(snap.Transcript[2].Text, "30L") {
		t.Fatalf("unexpected transcript %+v", snap.Transcript)
	}
	expectStatus(t, performRequest(r, http.MethodPost, base+"/bot/close", nil), http.StatusOK)

	expectStatus(t, performRequest(r, http.MethodPost, base+"/form", nil), http.StatusOK)
	rec = performRequest(r, http.MethodPost, base+"/reset", nil)
	expectStatus(t, rec, http.StatusOK)
	snap = decodeSession(t, rec).Session
	if snap.View != service.ViewLanding || len(snap.Recommendations) != 0 || len(snap.Transcript) != 0 || snap.Profile.Name != "" {
		t.Fatalf("expected reset session, got %+v", snap)
	}
}

func TestWizardHandler_Errors(t *testing.T) {
	r := setupWizardRouter(t, newWizardMockScorer())

	expectStatus(t, performRequest(r, http.MethodGet, "/sessions/missing", nil), http.StatusNotFound)
	expectStatus(t, performRequest(r, http.MethodDelete, "/sessions/missing", nil), http.StatusNotFound)

	id := createSession(t, r)
	base := "/sessions/" + id

	expectStatus(t, performRequest(r, http.MethodPost, base+"/submit", nil), http.StatusConflict)
	expectStatus(t, performRequest(r, http.MethodPost, base+"/country", map[string]string{"country_code": "AU"}), http.StatusBadRequest)
	expectStatus(t, performRequest(r, http.MethodPost, base+"/country", map[string]string{}), http.StatusBadRequest)
	expectStatus(t, performRequest(r, http.MethodPost, base+"/bot/messages", map[string]string{"message": "hi"}), http.StatusConflict)
	expectStatus(t, performRequest(r, http.MethodPost, base+"/bot/open", nil), http.StatusConflict)
	if snap := decodeSession(t, performRequest(r, http.MethodGet, base, nil)).Session; snap.BotOpen || len(snap.Transcript) != 0 {
		t.Fatalf("expected bot to stay closed outside results, got %+v", snap.Transcript)
	}

	expectStatus(t, performRequest(r, http.MethodDelete, base, nil), http.StatusNoContent)
	expectStatus(t, performRequest(r, http.MethodGet, base, nil), http.StatusNotFound)
}

func TestWizardHandler_CountriesAndMetrics(t *testing.T) {
	r := setupWizardRouter(t, newWizardMockScorer())

	rec := performRequest(r, http.MethodGet, "/countries", nil)
	expectStatus(t, rec, http.StatusOK)
	var body struct {
		Countries []domain.Country `json:"countries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode countries: %v", err)
	}
	if len(body.Countries) != 4 || !body.Countries[0].Available {
		t.Fatalf("unexpected countries %+v", body.Countries)
	}

	rec = performRequest(r, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "wizard_active_sessions") {
		t.Fatalf("expected wizard metrics in exposition")
	}
}
