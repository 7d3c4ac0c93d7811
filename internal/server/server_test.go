package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

const uploadCSV = `Name,Email,Company,Position
Jane Doe,jane@acme.com,Acme,Engineer
John Roe,john@globex.com,Globex,Manager
Ada Byron,ada@initech.com,Initech,Analyst
`

func newTestServer(t *testing.T) (*Server, *httptest.Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	s := New(Options{
		Store:  st,
		Scorer: match.NewScorer(match.NewMatcher(match.DefaultVocab()), match.DefaultThresholds()),
		Retry:  resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond},
		OrchCfg: enrich.OrchestratorConfig{
			GroupSize: 5,
			Pacing:    time.Millisecond,
		},
		Source: func(records []model.Record) apollo.Client {
			return enrich.NewStubSource(records)
		},
		StubMode: true,
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, ts, st
}

func uploadFile(t *testing.T, ts *httptest.Server, fileName, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/batches", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func TestHealth(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestSourceStatusStub(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/source/status")
	require.NoError(t, err)

	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "stub", body["mode"])
	assert.Equal(t, true, body["healthy"])
}

func TestUploadCreatesBatch(t *testing.T) {
	_, ts, st := newTestServer(t)

	resp := uploadFile(t, ts, "employees.csv", uploadCSV)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Batch  batchView      `json:"batch"`
		Report *struct {
			TotalRows int `json:"total_rows"`
			Imported  int `json:"imported"`
		} `json:"report"`
	}
	decodeJSON(t, resp, &body)

	assert.NotEmpty(t, body.Batch.ID)
	assert.Equal(t, "uploaded", body.Batch.Status)
	assert.Equal(t, 3, body.Batch.Counts.Total)
	assert.Equal(t, 3, body.Batch.Counts.Pending)
	require.NotNil(t, body.Report)
	assert.Equal(t, 3, body.Report.Imported)

	stored, err := st.GetBatch(context.Background(), body.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BatchStatusUploaded, stored.Status)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := uploadFile(t, ts, "employees.pdf", "not a spreadsheet")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadRejectsEmptySheet(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := uploadFile(t, ts, "employees.csv", "Name,Email\n,missing@name.com\n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeJSON(t, resp, &body)
	assert.Contains(t, body["error"], "no usable rows")
}

func TestUploadRequiresFileField(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/batches", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestGetBatchNotFound(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/batches/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func uploadAndGetID(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := uploadFile(t, ts, "employees.csv", uploadCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Batch batchView `json:"batch"`
	}
	decodeJSON(t, resp, &body)
	return body.Batch.ID
}

func analyzeAndWait(t *testing.T, ts *httptest.Server, st *store.MemoryStore, id string) *model.Batch {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/batches/"+id+"/analyze", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()

	var final *model.Batch
	require.Eventually(t, func() bool {
		b, err := st.GetBatch(context.Background(), id)
		if err != nil || !b.Status.Terminal() {
			return false
		}
		final = b
		return true
	}, 5*time.Second, 10*time.Millisecond)
	return final
}

func TestAnalyzeLifecycle(t *testing.T) {
	_, ts, st := newTestServer(t)
	id := uploadAndGetID(t, ts)

	final := analyzeAndWait(t, ts, st, id)
	assert.Equal(t, model.BatchStatusCompleted, final.Status)
	assert.Zero(t, final.Counts().Pending)

	// The batch view reflects the terminal state with full outcomes.
	resp, err := http.Get(ts.URL + "/api/batches/" + id)
	require.NoError(t, err)
	var view batchView
	decodeJSON(t, resp, &view)
	assert.Equal(t, "completed", view.Status)
	assert.Equal(t, 100, view.Progress)
	assert.Len(t, view.Outcomes, 3)
}

func TestAnalyzeConflictWhenNotUploaded(t *testing.T) {
	_, ts, st := newTestServer(t)
	id := uploadAndGetID(t, ts)
	analyzeAndWait(t, ts, st, id)

	resp, err := http.Post(ts.URL+"/api/batches/"+id+"/analyze", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAnalyzeNotFound(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/batches/nope/analyze", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestExport(t *testing.T) {
	_, ts, st := newTestServer(t)
	id := uploadAndGetID(t, ts)
	analyzeAndWait(t, ts, st, id)

	resp, err := http.Get(ts.URL + "/api/batches/" + id + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "employees_enriched.csv")

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three records")
	assert.Equal(t, "Name", rows[0][0])
}

func TestExportConflictBeforeTerminal(t *testing.T) {
	_, ts, _ := newTestServer(t)
	id := uploadAndGetID(t, ts)

	resp, err := http.Get(ts.URL + "/api/batches/" + id + "/export")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestExportBadTierFilter(t *testing.T) {
	_, ts, st := newTestServer(t)
	id := uploadAndGetID(t, ts)
	analyzeAndWait(t, ts, st, id)

	resp, err := http.Get(ts.URL + "/api/batches/" + id + "/export?tier=excellent")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestListBatches(t *testing.T) {
	_, ts, _ := newTestServer(t)
	uploadAndGetID(t, ts)
	uploadAndGetID(t, ts)

	resp, err := http.Get(ts.URL + "/api/batches")
	require.NoError(t, err)

	var body struct {
		Batches []batchView `json:"batches"`
	}
	decodeJSON(t, resp, &body)
	assert.Len(t, body.Batches, 2)
	for _, v := range body.Batches {
		assert.Empty(t, v.Outcomes, "list view omits outcomes")
	}
}
