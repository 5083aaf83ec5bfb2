package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chrissnell/zhl16/internal/storage"
	"github.com/chrissnell/zhl16/internal/storage/sqlite"
	"github.com/chrissnell/zhl16/pkg/config"
	"github.com/chrissnell/zhl16/pkg/profile"
	"github.com/chrissnell/zhl16/pkg/responseformat"
	"github.com/vmihailenco/msgpack/v5"
)

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()

	var store storage.TimelineStore
	if withStore {
		s, err := sqlite.New(filepath.Join(t.TempDir(), "runs.db"), nil)
		if err != nil {
			t.Fatalf("sqlite.New: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		store = s
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ctrl, err := NewController(ctx, &sync.WaitGroup{}, Config{Port: 1}, store, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	server := httptest.NewServer(ctrl.Router())
	t.Cleanup(server.Close)
	return server
}

// Helper function to make JSON requests against the test server
func makeRequest(t *testing.T, server *httptest.Server, method, endpoint string, body any) *http.Response {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req, err := http.NewRequest(method, server.URL+endpoint, &reqBody)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func parseResponse(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

// bottomDepth is 4.0 bar absolute at the default surface pressure
const bottomDepth = 29.8675

func bottomProfile() config.ProfileData {
	return config.ProfileData{
		Name: "four-bar-twenty",
		Segments: []config.SegmentData{
			{BeginDepth: bottomDepth, EndDepth: bottomDepth, Minutes: 20},
		},
	}
}

func TestGetModels(t *testing.T) {
	server := newTestServer(t, false)

	resp := makeRequest(t, server, http.MethodGet, "/api/v1/models", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var models []ModelInfo
	parseResponse(t, resp, &models)
	if len(models) < 1 {
		t.Fatal("expected at least one model")
	}
	found := false
	for _, m := range models {
		if len(m.Compartments) != 16 {
			t.Errorf("model %s has %d compartments", m.Name, len(m.Compartments))
		}
		if m.Name == "ZHL16c" {
			found = true
			if m.Compartments[0].NitrogenHalfTime != 5 {
				t.Errorf("ZHL16c compartment 1 N2 half-time = %g, expected 5", m.Compartments[0].NitrogenHalfTime)
			}
		}
	}
	if !found {
		t.Error("ZHL16c not listed")
	}
}

func TestPostProfileAndFetchRun(t *testing.T) {
	server := newTestServer(t, true)

	resp := makeRequest(t, server, http.MethodPost, "/api/v1/profiles", bottomProfile())
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}

	var tl profile.Timeline
	parseResponse(t, resp, &tl)
	if tl.ID == "" || len(tl.Samples) != 1 {
		t.Fatalf("unexpected timeline: %+v", tl)
	}

	final := tl.Samples[0]
	if math.Abs(final.Ceiling-0.697) > 0.01 {
		t.Errorf("ceiling = %g, expected about 0.697 m", final.Ceiling)
	}
	if final.ControllingCompartment != 2 {
		t.Errorf("controlling compartment = %d, expected 2", final.ControllingCompartment)
	}
	if final.State.LeadCeilingStop != 3 {
		t.Errorf("lead ceiling stop = %d, expected 3", final.State.LeadCeilingStop)
	}

	resp = makeRequest(t, server, http.MethodGet, "/api/v1/runs/"+tl.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	var stored profile.Timeline
	parseResponse(t, resp, &stored)
	if stored.ID != tl.ID || stored.Samples[0].State != final.State {
		t.Errorf("stored run differs from the posted one")
	}

	resp = makeRequest(t, server, http.MethodGet, "/api/v1/runs?limit=10", nil)
	var runs []storage.RunSummary
	parseResponse(t, resp, &runs)
	if len(runs) != 1 || runs[0].ID != tl.ID || runs[0].Segments != 1 {
		t.Errorf("unexpected run list: %+v", runs)
	}
}

func TestErrorStatus(t *testing.T) {
	server := newTestServer(t, true)

	negative := bottomProfile()
	negative.Segments[0].BeginDepth = -1

	badGF := bottomProfile()
	badGF.GradientFactor = 1.5

	unknownModel := bottomProfile()
	unknownModel.Model = "ZHL8"

	tests := []struct {
		name     string
		method   string
		endpoint string
		body     any
		status   int
	}{
		{"negative depth", http.MethodPost, "/api/v1/profiles", negative, http.StatusBadRequest},
		{"gradient factor", http.MethodPost, "/api/v1/profiles", badGF, http.StatusBadRequest},
		{"unknown model", http.MethodPost, "/api/v1/profiles", unknownModel, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/profiles", map[string]any{"nme": "x"}, http.StatusBadRequest},
		{"no branches", http.MethodPost, "/api/v1/branches", BranchRequest{Profile: bottomProfile()}, http.StatusBadRequest},
		{"missing run", http.MethodGet, "/api/v1/runs/does-not-exist", nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/v1/runs?limit=x", nil, http.StatusBadRequest},
		{"convert without query", http.MethodGet, "/api/v1/convert", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := makeRequest(t, server, tt.method, tt.endpoint, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			var errResp responseformat.ErrorResponse
			parseResponse(t, resp, &errResp)
			if errResp.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

func TestPostBranches(t *testing.T) {
	server := newTestServer(t, false)

	req := BranchRequest{
		Profile: bottomProfile(),
		Branches: [][]config.SegmentData{
			{{BeginDepth: bottomDepth, EndDepth: 0, Minutes: 3}},
			{{BeginDepth: bottomDepth, EndDepth: bottomDepth, Minutes: 10}, {BeginDepth: bottomDepth, EndDepth: 0, Minutes: 3}},
		},
	}

	resp := makeRequest(t, server, http.MethodPost, "/api/v1/branches", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result BranchResponse
	parseResponse(t, resp, &result)
	if result.Base == nil || len(result.Branches) != 2 {
		t.Fatalf("unexpected response: %+v", result)
	}

	for i, br := range result.Branches {
		if br.Branch != i+1 || len(br.Timeline.Samples) != len(req.Branches[i]) {
			t.Errorf("branch %d: unexpected result %+v", i+1, br)
		}
	}

	// The longer bottom time leaves more nitrogen in the slow compartments
	short := result.Branches[0].Timeline.Final().State.Compartments[15]
	long := result.Branches[1].Timeline.Final().State.Compartments[15]
	if long.NitrogenPressure <= short.NitrogenPressure {
		t.Errorf("compartment 16 N2 after longer branch %g, expected more than %g", long.NitrogenPressure, short.NitrogenPressure)
	}
}

func TestConvert(t *testing.T) {
	server := newTestServer(t, false)

	tests := []struct {
		query    string
		depth    float64
		gauge    float64
		absolute float64
	}{
		{"depth=30", 30, 3, 4.01325},
		{"pressure=1.5", 15, 1.5, 2.51325},
		{"depth=0", 0, 0, 1.01325},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := makeRequest(t, server, http.MethodGet, "/api/v1/convert?"+tt.query, nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", resp.StatusCode)
			}
			var got ConversionResponse
			parseResponse(t, resp, &got)
			if math.Abs(got.Depth-tt.depth) > 1e-9 || math.Abs(got.GaugePressure-tt.gauge) > 1e-9 || math.Abs(got.AbsolutePressure-tt.absolute) > 1e-9 {
				t.Errorf("got %+v, expected depth %g gauge %g absolute %g", got, tt.depth, tt.gauge, tt.absolute)
			}
		})
	}
}

func TestMsgPackFormat(t *testing.T) {
	server := newTestServer(t, false)

	resp := makeRequest(t, server, http.MethodGet, "/api/v1/convert?depth=10&format=msgpack", nil)
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-msgpack" {
		t.Fatalf("Content-Type = %q, expected application/x-msgpack", ct)
	}

	decoder := msgpack.NewDecoder(resp.Body)
	decoder.SetCustomStructTag("json")
	var got ConversionResponse
	if err := decoder.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.GaugePressure != 1 {
		t.Errorf("gauge pressure = %g, expected 1", got.GaugePressure)
	}
}
