package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/cache"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/database/mock"
	"github.com/Pinkesh2905/FaceTrace/internal/encodings"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
	"github.com/Pinkesh2905/FaceTrace/internal/registration"
	"github.com/Pinkesh2905/FaceTrace/internal/web/middleware"
)

const testTenant = "acme"

var ist = time.FixedZone("IST", 5*3600+1800)

func at(hour, minute int) time.Time {
	return time.Date(2026, time.March, 2, hour, minute, 0, 0, ist)
}

// stubExtractor returns fixed faces for any image
type stubExtractor struct {
	faces []recognition.Face
	err   error
}

func (s *stubExtractor) Extract(ctx context.Context, image []byte) ([]recognition.Face, error) {
	return s.faces, s.err
}

// testEnv wires handlers to the in-memory backend
type testEnv struct {
	directory  *mock.MockEmployeeDirectory
	store      *mock.MockAttendanceStore
	encodings  *encodings.MemoryStore
	cache      *cache.Cache
	extractor  *stubExtractor
	service    *attendance.Service
	registrar  *registration.Registrar
	recognize  *RecognizeHandler
	faces      *FacesHandler
	attendance *AttendanceHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{
		directory: mock.NewMockEmployeeDirectory(),
		store:     mock.NewMockAttendanceStore(),
		encodings: encodings.NewMemoryStore(),
		extractor: &stubExtractor{},
	}
	env.directory.AddEmployee(database.Employee{TenantID: testTenant, EmployeeID: "EMP001", FirstName: "Asha", LastName: "Rao", Status: database.StatusActive, FaceRegistered: true})
	env.directory.AddEmployee(database.Employee{TenantID: testTenant, EmployeeID: "EMP002", FirstName: "Vik", Status: database.StatusActive, FaceRegistered: true})
	env.directory.AddEmployee(database.Employee{TenantID: testTenant, EmployeeID: "EMP003", FirstName: "New", Status: database.StatusActive})
	if err := env.encodings.Save(ctx, testTenant, "EMP001", facematch.Encoding{0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := env.encodings.Save(ctx, testTenant, "EMP002", facematch.Encoding{1, 1, 1}); err != nil {
		t.Fatal(err)
	}

	env.cache = cache.New(cache.NewStoreLoader(env.directory, env.encodings, 3, nil))
	if err := env.cache.Refresh(ctx, ""); err != nil {
		t.Fatal(err)
	}

	policy := attendance.DefaultPolicy()
	policy.Location = ist
	env.service = attendance.NewService(env.store, env.directory, policy,
		attendance.WithClock(func() time.Time { return at(12, 0) }))
	env.registrar = registration.New(env.extractor, env.encodings, env.directory, env.cache, 3, nil)

	env.recognize = NewRecognizeHandler(env.cache, env.extractor, env.service, env.directory, 0.6, nil, nil)
	env.faces = NewFacesHandler(env.registrar, env.cache, nil)
	env.attendance = NewAttendanceHandler(env.service, env.directory, nil)
	return env
}

// tenantRequest creates a request with the test tenant in context
func tenantRequest(method, path string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.SetTenantInContext(req.Context(), testTenant))
}

// jsonBody marshals v or fails the test
func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// multipartImageRequest creates a tenant request with an "image" file part
func multipartImageRequest(t *testing.T, method, path string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "face.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(image)
	mw.WriteField("camera_id", "gate-1")
	mw.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(middleware.SetTenantInContext(req.Context(), testTenant))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses JSON response body into the target
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}
