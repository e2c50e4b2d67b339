package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shinyhunt/encounterd/internal/engine"
)

// mockTracker for testing.
type mockTracker struct {
	state *engine.State
}

func newMockTracker() *mockTracker {
	st := engine.NewState()
	st.Mode = engine.ModeWalk
	return &mockTracker{state: st}
}

func (m *mockTracker) Snapshot() *engine.State  { return m.state.Clone() }
func (m *mockTracker) Mode() engine.Mode        { return m.state.Mode }
func (m *mockTracker) SetMode(mode engine.Mode) { m.state.Mode = mode }

// mockPreviewer for testing.
type mockPreviewer struct {
	img *image.RGBA
}

func (m *mockPreviewer) Preview() *image.RGBA { return m.img }

func newTestServer(prev *mockPreviewer) (*Server, *mockTracker) {
	tracker := newMockTracker()
	s := New(tracker, prev, engine.NewHistory(10), engine.NewAlerter(nil, time.Minute), 480)
	return s, tracker
}

func TestCORSMiddleware(t *testing.T) {
	handler := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Test OPTIONS request
	req := httptest.NewRequest("OPTIONS", "/test", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("OPTIONS status = %d, want %d", rec.Code, http.StatusOK)
	}
	if v := rec.Header().Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("CORS origin = %q, want %q", v, "*")
	}

	// Test regular request
	req = httptest.NewRequest("GET", "/test", http.NoBody)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestHandleState(t *testing.T) {
	s, _ := newTestServer(&mockPreviewer{})

	req := httptest.NewRequest("GET", "/api/state", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		State engine.State `json:"state"`
		Label string       `json:"label"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.State.Mode != engine.ModeWalk {
		t.Errorf("mode = %v, want Walk", body.State.Mode)
	}
	if body.Label != "Walk" {
		t.Errorf("label = %q", body.Label)
	}
}

func TestHandleMode(t *testing.T) {
	s, tracker := newTestServer(&mockPreviewer{})

	req := httptest.NewRequest("POST", "/api/mode", strings.NewReader(`{"mode":"Pause"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if tracker.Mode() != engine.ModePause {
		t.Errorf("tracker mode = %v, want Pause", tracker.Mode())
	}
}

func TestHandleModeRejectsUnknown(t *testing.T) {
	s, tracker := newTestServer(&mockPreviewer{})

	req := httptest.NewRequest("POST", "/api/mode", strings.NewReader(`{"mode":"Sprint"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if tracker.Mode() != engine.ModeWalk {
		t.Error("rejected mode should not change tracker")
	}
}

func TestHandleHistory(t *testing.T) {
	s, _ := newTestServer(&mockPreviewer{})
	s.history.Emit([]string{"eevee"}, 1)
	s.history.Emit([]string{"pidgey"}, 2)

	req := httptest.NewRequest("GET", "/api/history", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body struct {
		Events []engine.Event `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(body.Events))
	}
	if body.Events[1].Total != 2 {
		t.Errorf("events = %+v", body.Events)
	}
}

func TestHandleFrameNoCapture(t *testing.T) {
	s, _ := newTestServer(&mockPreviewer{})

	req := httptest.NewRequest("GET", "/api/frame", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 before first capture", rec.Code)
	}
}

func TestHandleFrameServesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 400))
	s, _ := newTestServer(&mockPreviewer{img: img})

	req := httptest.NewRequest("GET", "/api/frame", http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	decoded, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("body is not PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 480 {
		t.Errorf("preview width = %d, want downscaled to 480", decoded.Bounds().Dx())
	}
}

func TestEncodePreviewKeepsSmallFrames(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 200))
	data, err := encodePreview(img, 480)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 320 {
		t.Error("frames narrower than the target should not be upscaled")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &rateLimiter{}
	for i := 0; i < RateLimitMessages; i++ {
		if !rl.allow() {
			t.Fatalf("message %d should be allowed", i)
		}
	}
	if rl.allow() {
		t.Error("message over the limit should be rejected")
	}
}

func TestMessageTypes(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{}
		typeVal string
	}{
		{
			"state",
			StateMessage{Type: "state", State: engine.NewState(), Label: "Walk"},
			"state",
		},
		{
			"encounter",
			EncounterMessage{Type: "encounter", Seq: 1, Timestamp: time.Now(), Mons: []string{"eevee"}, Total: 1},
			"encounter",
		},
		{
			"error",
			ErrorMessage{Type: "error", Message: "rate limit exceeded"},
			"error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("json.Marshal error: %v", err)
			}

			var base Message
			if err := json.Unmarshal(data, &base); err != nil {
				t.Fatalf("json.Unmarshal error: %v", err)
			}

			if base.Type != tt.typeVal {
				t.Errorf("type = %q, want %q", base.Type, tt.typeVal)
			}
		})
	}
}

func TestModeMessageParsing(t *testing.T) {
	input := `{"type": "mode", "mode": "Encounter"}`

	var mm ModeMessage
	if err := json.Unmarshal([]byte(input), &mm); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}

	if mm.Type != "mode" {
		t.Errorf("type = %q, want %q", mm.Type, "mode")
	}
	if mm.Mode != "Encounter" {
		t.Errorf("mode = %q, want %q", mm.Mode, "Encounter")
	}
}
