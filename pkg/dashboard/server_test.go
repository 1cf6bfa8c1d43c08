package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchpredict/internal/config"
	"github.com/richard-senior/matchpredict/pkg/app"
	"github.com/richard-senior/matchpredict/pkg/predictor"
	"github.com/richard-senior/matchpredict/pkg/sentiment"
)

func testApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Dir = filepath.Join("..", "predictor", "testdata")
	cfg.Data.ModelPath = filepath.Join("..", "model", "testdata", "forest.json")
	cfg.Cache.Backend = config.CacheNone

	a, err := app.LoadWith(context.Background(), cfg, app.Options{
		Sentiment: sentiment.Tallies{"Arsenal": {Team: "Arsenal", Positive: 3, Negative: 1}},
		Cache:     predictor.NopFeatureCache{},
	})
	require.NoError(t, err)
	return a
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestIndexListsTeams(t *testing.T) {
	s := NewServer(testApp(t))
	rec := do(t, s, "GET", "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	doc := document(t, rec)
	var home []string
	doc.Find(`select[name="home"] option`).Each(func(_ int, o *goquery.Selection) {
		if v, _ := o.Attr("value"); v != "" {
			home = append(home, v)
		}
	})
	assert.Equal(t, []string{"Arsenal", "Chelsea", "Spurs"}, home)
	assert.Equal(t, 4, doc.Find(`select[name="away"] option`).Length())
}

func TestPredictPage(t *testing.T) {
	s := NewServer(testApp(t))
	rec := do(t, s, "GET", "/predict?home=Arsenal&away=Chelsea", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc := document(t, rec)
	assert.Contains(t, doc.Find(".outcome").Text(), "Home Win")
	assert.Contains(t, doc.Find(".confidence").Text(), "65.0%")
	assert.Equal(t, 6, doc.Find("table.features tr").Length())
	assert.Equal(t, 3, doc.Find("table.probabilities tr").Length()-1)

	// Arsenal has sentiment, Chelsea shows the no-data state
	assert.Equal(t, 1, doc.Find(".nodata").Length())
	assert.Contains(t, doc.Find(".nodata").Text(), "Chelsea")
	assert.Equal(t, "3", doc.Find(".sentiment tr.positive td").Eq(1).Text())

	selected, _ := doc.Find(`select[name="away"] option[selected]`).Attr("value")
	assert.Equal(t, "Chelsea", selected)
}

func TestPredictPageRejectsBadSelections(t *testing.T) {
	s := NewServer(testApp(t))

	rec := do(t, s, "GET", "/predict?home=Arsenl&away=Chelsea", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	doc := document(t, rec)
	assert.Equal(t, "Arsenal", doc.Find(".suggestion").First().Text())

	rec = do(t, s, "GET", "/predict?home=Spurs&away=Spurs", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, document(t, rec).Find(".error").Length())

	rec = do(t, s, "GET", "/predict?home=Spurs", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIPredict(t *testing.T) {
	s := NewServer(testApp(t))

	rec := do(t, s, "POST", "/api/predict", `{"home":"Arsenal","away":"Chelsea"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		ID         string `json:"id"`
		Prediction struct {
			Outcome     string `json:"outcome"`
			TopFeatures []struct {
				Feature string `json:"feature"`
			} `json:"topFeatures"`
		} `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "home_win", report.Prediction.Outcome)
	assert.Len(t, report.Prediction.TopFeatures, 5)
	_, err := uuid.Parse(report.ID)
	assert.NoError(t, err)
}

func TestAPIPredictErrors(t *testing.T) {
	s := NewServer(testApp(t))
	cases := map[string]int{
		`{"home":"Arsenal","away":"Arsenal"}`: http.StatusBadRequest,
		`{"home":"Leeds","away":"Arsenal"}`:   http.StatusBadRequest,
		`{"home":"Leeds"}`:                    http.StatusBadRequest,
		`not json`:                            http.StatusBadRequest,
	}
	for body, want := range cases {
		rec := do(t, s, "POST", "/api/predict", body)
		assert.Equal(t, want, rec.Code, body)
		var e errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e), body)
		assert.NotEmpty(t, e.Error, body)
		assert.NotEmpty(t, e.RequestID, body)
	}
}

func TestAPITeams(t *testing.T) {
	s := NewServer(testApp(t))

	rec := do(t, s, "GET", "/api/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"teams":["Arsenal","Chelsea","Spurs"]}`, rec.Body.String())

	rec = do(t, s, "GET", "/api/teams/Spurs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary app.TeamSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Features.Matches)

	rec = do(t, s, "GET", "/api/teams/Chelsae", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chelsea")
}

func TestAPISentiment(t *testing.T) {
	s := NewServer(testApp(t))

	rec := do(t, s, "GET", "/api/sentiment/Arsenal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["noData"])
	assert.InDelta(t, 0.75, body["positive"], 1e-9)

	rec = do(t, s, "GET", "/api/sentiment/Spurs", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["noData"])
}

func TestImportanceChart(t *testing.T) {
	s := NewServer(testApp(t))
	rec := do(t, s, "GET", "/charts/importance.svg?home=Arsenal&away=Chelsea", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, 5, strings.Count(rec.Body.String(), "<rect"))
	assert.Contains(t, rec.Body.String(), `id="bar-HS"`)

	rec = do(t, s, "GET", "/charts/importance.svg?home=Arsenal&away=Arsenal", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestIDAndCORS(t *testing.T) {
	s := NewServer(testApp(t))

	rec := do(t, s, "GET", "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/api/teams", nil)
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Origin", "http://example.com")
	out := httptest.NewRecorder()
	s.ServeHTTP(out, req)
	assert.Equal(t, id, out.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", out.Header().Get("Access-Control-Allow-Origin"))
}

func TestRenderMarkdown(t *testing.T) {
	a := testApp(t)
	report, err := a.Predict("Arsenal", "Chelsea")
	require.NoError(t, err)

	md, err := RenderMarkdown(context.Background(), report)
	require.NoError(t, err)
	assert.Contains(t, md, "Arsenal v Chelsea")
	assert.Contains(t, md, "Home Win")
	assert.Contains(t, md, "No sentiment data for Chelsea")
}
