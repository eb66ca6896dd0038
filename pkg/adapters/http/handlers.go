package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/export"
	"github.com/aretw0/elementx/pkg/sanitize"
	"github.com/go-chi/chi/v5"
)

var (
	errBadBody   = errors.New("invalid request body")
	errNoFile    = errors.New("no file uploaded")
	errBadUpload = errors.New("invalid multipart upload")
	errTooLarge  = errors.New("file too large")
)

// massInput accepts the target mass as a JSON number or a numeric string.
type massInput float64

func (m *massInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := chem.ParseMass(raw)
		if err != nil {
			return err
		}
		*m = massInput(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return &chem.Error{Err: chem.ErrInvalidTargetMass, Input: string(data)}
	}
	*m = massInput(v)
	return nil
}

type calculationRequest struct {
	Name          string    `json:"name,omitempty"`
	Formula       string    `json:"formula"`
	TargetElement string    `json:"target_element"`
	TargetMass    massInput `json:"target_mass_g"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, int64(s.maxInputSize)*4+1024)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var chemErr *chem.Error
		if errors.As(err, &chemErr) {
			return chemErr
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func (s *Server) clean(fields ...*string) error {
	for _, f := range fields {
		v, err := sanitize.InputLimit(*f, s.maxInputSize)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) (chem.Result, string, error) {
	var req calculationRequest
	if err := s.decode(w, r, &req); err != nil {
		return chem.Result{}, "", err
	}
	if err := s.clean(&req.Name, &req.Formula, &req.TargetElement); err != nil {
		return chem.Result{}, "", err
	}
	res, err := s.lab.Calculate(req.Formula, req.TargetElement, float64(req.TargetMass))
	return res, req.Name, err
}

// Calculate handles POST /api/calculate.
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	res, _, err := s.calculate(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type sessionResponse struct {
	Message string `json:"message"`
	auth.Session
}

// Register handles POST /api/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.Registration
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.clean(&req.Name, &req.Institution, &req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.auth.Register(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Message: "User registered successfully", Session: sess})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse{Message: "Login successful", Session: sess})
}

// Me handles GET /api/auth/me.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, userFrom(r.Context()).Profile())
}

// ListSamples handles GET /api/samples.
func (s *Server) ListSamples(w http.ResponseWriter, r *http.Request) {
	samples, err := s.lab.ListSamples(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if samples == nil {
		samples = []domain.Sample{}
	}
	s.writeJSON(w, http.StatusOK, samples)
}

// CreateSample handles POST /api/samples. The result is recomputed
// server-side rather than trusted from the client.
func (s *Server) CreateSample(w http.ResponseWriter, r *http.Request) {
	res, name, err := s.calculate(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sample, err := s.lab.SaveSample(r.Context(), userFrom(r.Context()).ID, name, res)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sample)
}

// GetSample handles GET /api/samples/{id}.
func (s *Server) GetSample(w http.ResponseWriter, r *http.Request) {
	sample, err := s.lab.GetSample(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sample)
}

// DeleteSample handles DELETE /api/samples/{id}.
func (s *Server) DeleteSample(w http.ResponseWriter, r *http.Request) {
	if err := s.lab.DeleteSample(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSample handles GET /api/samples/{id}/export.csv.
func (s *Server) ExportSample(w http.ResponseWriter, r *http.Request) {
	sample, err := s.lab.GetSample(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sample.Result); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(sample.DisplayName())))
	_, _ = w.Write(buf.Bytes())
}

// upload reads the multipart form shared by both instrument endpoints.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) (elementx.Upload, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return elementx.Upload{}, nil, fmt.Errorf("%w: limit is %d bytes", errTooLarge, s.maxUploadBytes)
		}
		return elementx.Upload{}, nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return elementx.Upload{}, nil, errNoFile
	}
	up := elementx.Upload{
		UserID:          userFrom(r.Context()).ID,
		SampleID:        r.FormValue("sampleId"),
		Filename:        header.Filename,
		Notes:           r.FormValue("notes"),
		MeasurementType: r.FormValue("measurementType"),
		Data:            file,
	}
	if err := s.clean(&up.SampleID, &up.Filename, &up.Notes, &up.MeasurementType); err != nil {
		_ = file.Close()
		return elementx.Upload{}, nil, err
	}
	return up, func() {
		_ = file.Close()
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}, nil
}

// UploadXRD handles POST /api/xrd/upload.
func (s *Server) UploadXRD(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.upload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	m, err := s.lab.ImportXRD(r.Context(), up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"id":        m.ID,
		"points":    len(m.Points),
		"peaks":     len(m.Peaks),
		"peak_list": m.Peaks,
	})
}

// UploadMagnetic handles POST /api/magnetic/upload.
func (s *Server) UploadMagnetic(w http.ResponseWriter, r *http.Request) {
	up, done, err := s.upload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer done()

	m, err := s.lab.ImportMagnetic(r.Context(), up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"id":               m.ID,
		"points":           len(m.Points),
		"measurement_type": m.MeasurementType,
		"properties":       m.Properties,
	})
}

// ListMeasurements handles GET /api/measurements.
func (s *Server) ListMeasurements(w http.ResponseWriter, r *http.Request) {
	list, err := s.lab.ListMeasurements(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Measurement{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// GetMeasurement handles GET /api/measurements/{id}.
func (s *Server) GetMeasurement(w http.ResponseWriter, r *http.Request) {
	m, err := s.lab.GetMeasurement(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

// statusFor maps domain, auth and input errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSampleNotFound),
		errors.Is(err, domain.ErrMeasurementNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case elementx.IsInputError(err),
		errors.Is(err, auth.ErrInvalidRegistration),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8),
		errors.Is(err, errBadBody),
		errors.Is(err, errBadUpload),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		detail = http.StatusText(status)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
