package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"growbridge/internal/bridge"
)

type stubAttr struct {
	name        string
	uuid        string
	description string
	flags       []string
	value       []byte
	display     any
	readErr     error
	reads       int
}

func (s *stubAttr) UUID() string           { return s.uuid }
func (s *stubAttr) Name() string           { return s.name }
func (s *stubAttr) Description() string    { return s.description }
func (s *stubAttr) Flags() []string        { return s.flags }
func (s *stubAttr) Value() []byte          { return s.value }
func (s *stubAttr) Display(raw []byte) any { return s.display }

func (s *stubAttr) Read(ctx context.Context) ([]byte, error) {
	s.reads++
	return s.value, s.readErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, attrs []bridge.Attribute, opts ...ServerOption) (*Server, *bridge.EventBus) {
	t.Helper()
	events := bridge.NewEventBus(testLogger())
	svc := &bridge.Service{UUID: bridge.ServiceUUID, Attributes: attrs}
	s := NewServer(svc, events, testLogger(), opts...)
	t.Cleanup(s.Stop)
	return s, events
}

func testAttrs() []bridge.Attribute {
	return []bridge.Attribute{
		&stubAttr{
			name:        "temperature",
			uuid:        bridge.UUIDTemperature,
			description: "Get temperature",
			flags:       []string{"read"},
			value:       []byte{1, 2, 3, 4, 5, 6, 7, 8},
			display:     21.5,
		},
		&stubAttr{
			name:        "humidity",
			uuid:        bridge.UUIDHumidity,
			description: "Get humidity",
			flags:       []string{"read"},
			value:       []byte{8, 7, 6, 5, 4, 3, 2, 1},
			display:     60.0,
		},
	}
}

func TestListAttributes(t *testing.T) {
	s, _ := newTestServer(t, testAttrs())

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/attributes", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var views []AttributeView
	if err := json.Unmarshal(rr.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("attributes = %d, want 2", len(views))
	}
	if views[0].Name != "temperature" || views[0].Value != 21.5 {
		t.Errorf("view[0] = %+v", views[0])
	}
	if views[1].UUID != bridge.UUIDHumidity {
		t.Errorf("view[1].UUID = %s", views[1].UUID)
	}
}

func TestGetAttributeDoesLiveRead(t *testing.T) {
	attrs := testAttrs()
	s, _ := newTestServer(t, attrs)

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/attributes/temperature", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if attrs[0].(*stubAttr).reads != 1 {
		t.Errorf("reads = %d, want 1", attrs[0].(*stubAttr).reads)
	}
	var view AttributeView
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Value != 21.5 {
		t.Errorf("value = %v", view.Value)
	}
}

func TestGetAttributeNotFound(t *testing.T) {
	s, _ := newTestServer(t, testAttrs())

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/attributes/nope", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestGetAttributeReadError(t *testing.T) {
	attrs := testAttrs()
	attrs[0].(*stubAttr).readErr = errors.New("backend gone")
	s, _ := newTestServer(t, attrs)

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/attributes/temperature", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testAttrs(), WithStateFunc(func() string { return "running" }))

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["state"] != "running" {
		t.Errorf("state = %v", body["state"])
	}
	if body["attributes"] != 2.0 {
		t.Errorf("attributes = %v", body["attributes"])
	}
}

func TestVersionEndpoint(t *testing.T) {
	s, _ := newTestServer(t, testAttrs(), WithVersion("1.2.3"))

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["version"] != "1.2.3" {
		t.Errorf("version = %q", body["version"])
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, testAttrs(), WithAPIKey("secret"))

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/attributes", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/attributes", nil)
	req.Header.Set("X-API-Key", "wrong")
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/attributes", nil)
	req.Header.Set("X-API-Key", "secret")
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("right key: status = %d, want 200", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, testAttrs())

	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/attributes", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rr.Code)
	}
}
