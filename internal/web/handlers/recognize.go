package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Pinkesh2905/FaceTrace/internal/attendance"
	"github.com/Pinkesh2905/FaceTrace/internal/database"
	"github.com/Pinkesh2905/FaceTrace/internal/facematch"
	"github.com/Pinkesh2905/FaceTrace/internal/recognition"
)

// PunchDecision is the attendance outcome of one observation.
type PunchDecision struct {
	Accepted bool            `json:"accepted"`
	Reason   string          `json:"reason,omitempty"`
	Punch    *database.Punch `json:"punch,omitempty"`
}

// FaceResult is one recognized face.
type FaceResult struct {
	EmployeeID string         `json:"employee_id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Matched    bool           `json:"matched"`
	Confidence float64        `json:"confidence"`
	Distance   float64        `json:"distance"`
	Box        []float64      `json:"box,omitempty"`
	Error      string         `json:"error,omitempty"`
	Attendance *PunchDecision `json:"attendance,omitempty"`
}

// RecognizeResponse is the response of a recognition request.
type RecognizeResponse struct {
	Faces          []FaceResult `json:"faces"`
	KnownEncodings int          `json:"known_encodings"`
}

// recognizeRequest is the JSON form of a recognition request and of a
// websocket observation message.
type recognizeRequest struct {
	CameraID  string      `json:"camera_id"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
	Encodings [][]float64 `json:"encodings"`
	Commit    *bool       `json:"commit,omitempty"`
}

// RecognizeHandler matches faces against the tenant's known encodings and
// marks attendance for confident matches.
type RecognizeHandler struct {
	snapshots recognition.SnapshotSource
	extractor recognition.Extractor
	service   *attendance.Service
	employees database.EmployeeReader
	tolerance float64
	origins   []string
	logger    *slog.Logger
}

// NewRecognizeHandler creates a new recognize handler
func NewRecognizeHandler(snapshots recognition.SnapshotSource, extractor recognition.Extractor, service *attendance.Service,
	employees database.EmployeeReader, tolerance float64, origins []string, logger *slog.Logger) *RecognizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecognizeHandler{
		snapshots: snapshots,
		extractor: extractor,
		service:   service,
		employees: employees,
		tolerance: tolerance,
		origins:   origins,
		logger:    logger,
	}
}

// Recognize handles POST /api/v1/recognize. The body is either a multipart
// form with an "image" file or JSON with precomputed encodings. Punches are
// committed unless commit=false.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req recognizeRequest
	var faces []recognition.Face
	if isMultipart(r) {
		image, err := readImage(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if h.extractor == nil {
			respondError(w, http.StatusServiceUnavailable, "face extractor not configured")
			return
		}
		faces, err = h.extractor.Extract(r.Context(), image)
		if err != nil {
			h.logger.Error("face extraction failed", "tenant", tenant, "error", err)
			respondError(w, http.StatusBadGateway, "face extraction failed")
			return
		}
		req.CameraID = r.FormValue("camera_id")
		if v := r.FormValue("commit"); v != "" {
			commit, err := strconv.ParseBool(v)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid commit flag")
				return
			}
			req.Commit = &commit
		}
	} else {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		faces = facesFromEncodings(req.Encodings)
	}
	if v := r.URL.Query().Get("commit"); v != "" {
		commit, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid commit flag")
			return
		}
		req.Commit = &commit
	}

	resp, err := h.process(r.Context(), tenant, req, faces)
	if err != nil {
		h.logger.Error("recognition failed", "tenant", tenant, "error", err)
		respondError(w, http.StatusInternalServerError, "recognition failed")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func facesFromEncodings(encs [][]float64) []recognition.Face {
	faces := make([]recognition.Face, len(encs))
	for i, e := range encs {
		faces[i] = recognition.Face{Encoding: facematch.Encoding(e)}
	}
	return faces
}

// process matches faces as one batch and, when committing, decides attendance
// for every matched face. Only store failures are returned as errors.
func (h *RecognizeHandler) process(ctx context.Context, tenant string, req recognizeRequest, faces []recognition.Face) (*RecognizeResponse, error) {
	snapshot := h.snapshots.Get(tenant)
	detections := recognition.MatchFaces(snapshot, faces, h.tolerance)
	commit := req.Commit == nil || *req.Commit

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	resp := &RecognizeResponse{Faces: make([]FaceResult, 0, len(detections)), KnownEncodings: snapshot.Len()}
	for _, d := range detections {
		fr := FaceResult{
			Matched:    d.Err == nil && d.Result.Matched(),
			Confidence: d.Result.Confidence,
			Distance:   d.Result.Distance,
			Box:        d.Face.Box,
		}
		if d.Err != nil {
			fr.Error = d.Err.Error()
			resp.Faces = append(resp.Faces, fr)
			continue
		}
		if !fr.Matched {
			resp.Faces = append(resp.Faces, fr)
			continue
		}
		fr.EmployeeID = d.Result.EmployeeID

		emp, err := h.employees.GetEmployee(ctx, tenant, d.Result.EmployeeID)
		if err != nil {
			return nil, fmt.Errorf("get employee: %w", err)
		}
		if emp == nil {
			fr.Error = recognition.ErrUnknownEmployee.Error()
			resp.Faces = append(resp.Faces, fr)
			continue
		}
		fr.Name = emp.FullName()

		if commit {
			decision, err := markAttendance(ctx, h.service, attendance.Observation{
				Employee:   *emp,
				Confidence: d.Result.Confidence,
				Distance:   d.Result.Distance,
				CameraID:   req.CameraID,
				Timestamp:  ts,
			})
			if err != nil {
				return nil, err
			}
			fr.Attendance = decision
		}
		resp.Faces = append(resp.Faces, fr)
	}
	return resp, nil
}

// markAttendance runs MarkAttendance and converts rejections into a decision.
func markAttendance(ctx context.Context, service *attendance.Service, obs attendance.Observation) (*PunchDecision, error) {
	punch, err := service.MarkAttendance(ctx, obs)
	switch {
	case err == nil:
		return &PunchDecision{Accepted: true, Punch: punch}, nil
	case attendance.IsRejection(err):
		return &PunchDecision{Reason: attendance.RejectionReason(err)}, nil
	default:
		return nil, fmt.Errorf("mark attendance: %w", err)
	}
}
