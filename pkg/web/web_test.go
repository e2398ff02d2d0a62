package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumenlabs/go-lumen/pkg/percept"
	"github.com/lumenlabs/go-lumen/pkg/sign"
)

// fakePipeline implements Pipeline for handler tests.
type fakePipeline struct {
	mode      percept.Mode
	results   []percept.Result
	sequence  string
	static    float64
	dynamic   float64
	adaptive  bool
	alerts    bool
	resets    int
	switchErr error
}

func (f *fakePipeline) Mode() percept.Mode { return f.mode }

func (f *fakePipeline) SwitchMode(m percept.Mode) error {
	if f.switchErr != nil {
		return f.switchErr
	}
	f.mode = m
	return nil
}

func (f *fakePipeline) SetConfidenceThresholds(static, dynamic float64) error {
	if static < 0 || static > 1 || dynamic < 0 || dynamic > 1 {
		return percept.ErrInvalidConfig
	}
	f.static, f.dynamic = static, dynamic
	return nil
}

func (f *fakePipeline) SetAdaptiveInference(enabled bool) { f.adaptive = enabled }
func (f *fakePipeline) SetAudioAlerts(enabled bool)       { f.alerts = enabled }

func (f *fakePipeline) RecentResults(n int) []percept.Result {
	if n <= 0 || n > len(f.results) {
		n = len(f.results)
	}
	return f.results[:n]
}

func (f *fakePipeline) ASLSequence() string     { return f.sequence }
func (f *fakePipeline) Metrics() map[string]any { return map[string]any{"total_frames": 7} }
func (f *fakePipeline) ResetModeState()         { f.resets++ }

func request(t *testing.T, s *Server, method, path string, body any) *http.Response {
	t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		payload = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestStatusEndpoint(t *testing.T) {
	p := &fakePipeline{mode: percept.ModeTranslation}
	s := NewServer("0", p)

	resp := request(t, s, "GET", "/api/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["mode"] != "translation" {
		t.Errorf("expected translation mode, got %v", body["mode"])
	}
	metrics, ok := body["metrics"].(map[string]any)
	if !ok || metrics["total_frames"] != float64(7) {
		t.Errorf("unexpected metrics: %v", body["metrics"])
	}
}

func TestResultsEndpoint(t *testing.T) {
	p := &fakePipeline{
		mode: percept.ModeTranslation,
		results: []percept.Result{
			{
				ID:             "r1",
				Kind:           percept.KindSign,
				Mode:           percept.ModeTranslation,
				Sign:           &sign.StableSign{Label: "Hello", Confidence: 0.9, Kind: sign.Static},
				ProcessingTime: 42 * time.Millisecond,
				Timestamp:      time.Now(),
			},
			{ID: "r2", Kind: percept.KindSign, Mode: percept.ModeTranslation},
		},
	}
	s := NewServer("0", p)

	resp := request(t, s, "GET", "/api/results?limit=1", nil)
	results := decode[[]resultJSON](t, resp)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "r1" || results[0].Kind != "sign" {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if results[0].Sign == nil || results[0].Sign.Label != "Hello" {
		t.Errorf("sign payload missing: %+v", results[0].Sign)
	}
	if results[0].ProcessingMs != 42 {
		t.Errorf("expected 42ms, got %d", results[0].ProcessingMs)
	}
}

func TestSequenceEndpoint(t *testing.T) {
	p := &fakePipeline{sequence: "Hello A B"}
	s := NewServer("0", p)

	resp := request(t, s, "GET", "/api/sequence", nil)
	body := decode[map[string]string](t, resp)
	if body["sequence"] != "Hello A B" {
		t.Errorf("unexpected sequence: %q", body["sequence"])
	}
}

func TestSwitchModeEndpoint(t *testing.T) {
	p := &fakePipeline{mode: percept.ModeDashboard}
	s := NewServer("0", p)

	resp := request(t, s, "POST", "/api/mode/detection", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p.mode != percept.ModeDetection {
		t.Errorf("mode not switched, still %s", p.mode)
	}

	resp = request(t, s, "POST", "/api/mode/bogus", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown mode should 400, got %d", resp.StatusCode)
	}
}

func TestThresholdsEndpoint(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer("0", p)

	resp := request(t, s, "POST", "/api/thresholds", thresholdsRequest{Static: 0.9, Dynamic: 0.8})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p.static != 0.9 || p.dynamic != 0.8 {
		t.Errorf("thresholds not applied: %f %f", p.static, p.dynamic)
	}

	resp = request(t, s, "POST", "/api/thresholds", thresholdsRequest{Static: 1.5, Dynamic: 0.8})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid threshold should 400, got %d", resp.StatusCode)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	p := &fakePipeline{adaptive: true, alerts: true}
	s := NewServer("0", p)

	off := false
	resp := request(t, s, "POST", "/api/settings", settingsRequest{AudioAlerts: &off})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if p.alerts {
		t.Error("audio alerts should be off")
	}
	if !p.adaptive {
		t.Error("absent field must not touch adaptive inference")
	}
}

func TestResetEndpoint(t *testing.T) {
	p := &fakePipeline{}
	s := NewServer("0", p)

	request(t, s, "POST", "/api/reset", nil)
	if p.resets != 1 {
		t.Errorf("expected 1 reset, got %d", p.resets)
	}
}
