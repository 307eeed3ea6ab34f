package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
	"github.com/Pinkesh2905/FaceTrace/internal/web/middleware"
)

func TestRecognizeHandler_JSONEncodings(t *testing.T) {
	env := newTestEnv(t)
	ts := at(9, 5)

	body := jsonBody(t, map[string]any{
		"camera_id": "gate-1",
		"timestamp": ts,
		"encodings": [][]float64{{0.1, 0, 0}, {0.3, 0, 0}, {5, 5, 5}},
	})
	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, tenantRequest("POST", "/api/v1/recognize", body))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)

	if resp.KnownEncodings != 2 {
		t.Errorf("known_encodings = %d, want 2", resp.KnownEncodings)
	}
	if len(resp.Faces) != 3 {
		t.Fatalf("expected 3 faces, got %d", len(resp.Faces))
	}

	confident := resp.Faces[0]
	if !confident.Matched || confident.EmployeeID != "EMP001" || confident.Name != "Asha Rao" {
		t.Errorf("unexpected first face %+v", confident)
	}
	if confident.Attendance == nil || !confident.Attendance.Accepted || confident.Attendance.Punch.Type != "IN" {
		t.Errorf("expected accepted IN punch, got %+v", confident.Attendance)
	}

	weak := resp.Faces[1]
	if !weak.Matched || weak.Attendance == nil || weak.Attendance.Accepted {
		t.Errorf("weak match should be matched but not accepted: %+v", weak)
	}
	if weak.Attendance != nil && weak.Attendance.Reason != "below_confidence_threshold" {
		t.Errorf("reason = %q", weak.Attendance.Reason)
	}

	stranger := resp.Faces[2]
	if stranger.Matched || stranger.Attendance != nil || stranger.Distance != facematch.NoMatch.Distance {
		t.Errorf("unexpected stranger result %+v", stranger)
	}

	if env.store.PunchCount() != 1 {
		t.Errorf("expected 1 punch, got %d", env.store.PunchCount())
	}
}

func TestRecognizeHandler_CooldownRejection(t *testing.T) {
	env := newTestEnv(t)

	for i, ts := range []any{at(9, 0), at(9, 2)} {
		body := jsonBody(t, map[string]any{"timestamp": ts, "encodings": [][]float64{{0, 0, 0}}})
		recorder := httptest.NewRecorder()
		env.recognize.Recognize(recorder, tenantRequest("POST", "/api/v1/recognize", body))
		assertStatusCode(t, recorder, http.StatusOK)

		var resp RecognizeResponse
		parseJSONResponse(t, recorder, &resp)
		got := resp.Faces[0].Attendance
		if i == 0 && !got.Accepted {
			t.Errorf("first observation should be accepted: %+v", got)
		}
		if i == 1 && (got.Accepted || got.Reason != "too_soon_since_last_punch") {
			t.Errorf("second observation should be rejected as too soon: %+v", got)
		}
	}
	if env.store.PunchCount() != 1 {
		t.Errorf("expected 1 punch, got %d", env.store.PunchCount())
	}
}

func TestRecognizeHandler_NoCommit(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{"encodings": [][]float64{{0, 0, 0}}})
	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, tenantRequest("POST", "/api/v1/recognize?commit=false", body))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Faces[0].Matched || resp.Faces[0].Attendance != nil {
		t.Errorf("expected match without attendance, got %+v", resp.Faces[0])
	}
	if env.store.PunchCount() != 0 {
		t.Error("commit=false must not write punches")
	}
}

func TestRecognizeHandler_ShapeMismatch(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{"encodings": [][]float64{{0, 0}}})
	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, tenantRequest("POST", "/api/v1/recognize", body))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Faces[0].Matched || resp.Faces[0].Error == "" {
		t.Errorf("expected a per-face error, got %+v", resp.Faces[0])
	}
}

func TestRecognizeHandler_Multipart(t *testing.T) {
	env := newTestEnv(t)
	env.extractor.faces = []recognition.Face{{Encoding: facematch.Encoding{1, 1, 0.95}, Box: []float64{10, 20, 110, 140}}}

	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, multipartImageRequest(t, "POST", "/api/v1/recognize", []byte("jpeg-bytes")))

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if len(resp.Faces) != 1 || resp.Faces[0].EmployeeID != "EMP002" {
		t.Fatalf("unexpected faces %+v", resp.Faces)
	}
	if len(resp.Faces[0].Box) != 4 {
		t.Errorf("box not returned: %+v", resp.Faces[0])
	}
	if p := resp.Faces[0].Attendance.Punch; p == nil || p.CameraID != "gate-1" {
		t.Errorf("expected punch from gate-1, got %+v", p)
	}
}

func TestRecognizeHandler_ExtractorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.extractor.err = errors.New("connection refused")

	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, multipartImageRequest(t, "POST", "/api/v1/recognize", []byte("jpeg-bytes")))

	assertStatusCode(t, recorder, http.StatusBadGateway)
}

func TestRecognizeHandler_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, tenantRequest("POST", "/api/v1/recognize", []byte("{not json")))

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestRecognizeHandler_NoTenant(t *testing.T) {
	env := newTestEnv(t)

	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, httptest.NewRequest("POST", "/api/v1/recognize", nil))

	assertStatusCode(t, recorder, http.StatusUnauthorized)
}

func TestRecognizeHandler_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]any{"encodings": [][]float64{{0, 0, 0}}})
	req := tenantRequest("POST", "/api/v1/recognize", body)
	req = req.WithContext(middleware.SetTenantInContext(req.Context(), "globex"))

	recorder := httptest.NewRecorder()
	env.recognize.Recognize(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var resp RecognizeResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.KnownEncodings != 0 || resp.Faces[0].Matched {
		t.Errorf("another tenant's encodings must not match: %+v", resp)
	}
}
