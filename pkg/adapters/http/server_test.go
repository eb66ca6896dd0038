package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/adapters/memory"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/domain"
	"github.com/aretw0/elementx/pkg/observability"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixed = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	handler http.Handler
	metrics *observability.Metrics
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	seq := 0
	lab := elementx.New(
		elementx.WithClock(func() time.Time { return fixed }),
		elementx.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	authSvc, err := auth.NewService(memory.NewUserStore(), []byte("test-secret-0123456789"),
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	handler, err := NewHandler(lab, authSvc, append([]Option{WithMetrics(metrics)}, opts...)...)
	require.NoError(t, err)
	return &harness{t: t, handler: handler, metrics: metrics}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) json(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.do(req)
}

func (h *harness) upload(path, token, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(h.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(h.t, err)
	}
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return h.do(req)
}

// register creates an account and returns its bearer token.
func (h *harness) register(email string) string {
	h.t.Helper()
	w := h.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":        "Marie Curie",
		"institution": "Sorbonne",
		"email":       email,
		"password":    "polonium",
	})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Message string         `json:"message"`
		Token   string         `json:"token"`
		User    domain.Profile `json:"user"`
	}
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Detail
}

func xrdScan() string {
	y := make([]float64, 100)
	bump := func(c int, h float64, width int) {
		for k := -width + 1; k < width; k++ {
			d := k
			if d < 0 {
				d = -d
			}
			y[c+k] += h * float64(width-d) / float64(width)
		}
	}
	bump(20, 100, 4)
	bump(50, 40, 4)

	var b strings.Builder
	b.WriteString("# 2theta intensity\n")
	for i, v := range y {
		fmt.Fprintf(&b, "%g\t%g\n", 10+0.5*float64(i), v)
	}
	return b.String()
}

const hysteresis = `Field (Oe), Moment (emu)
-2, -3
-1, -2.5
0, -1
1, 2
2, 3
1, 2.5
0, 1
-1, -2
-2, -3
`

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Equal(t, "ElementX API", doc.Info.Title)
}

func TestRoutesAreDocumented(t *testing.T) {
	lab := elementx.New()
	authSvc, err := auth.NewService(memory.NewUserStore(), []byte("secret"))
	require.NoError(t, err)
	s, r, err := newServer(lab, authSvc, WithMetrics(observability.NewMetrics()))
	require.NoError(t, err)

	err = chi.Walk(r, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		item := s.spec.Paths.Value(route)
		if item == nil {
			return fmt.Errorf("route %s is not documented", route)
		}
		if item.GetOperation(method) == nil {
			return fmt.Errorf("%s %s is not documented", method, route)
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestMeta(t *testing.T) {
	h := newHarness(t)

	w := h.json(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = h.json(http.MethodGet, "/info", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "ElementX", info["app"])
	assert.Equal(t, strings.TrimSpace(elementx.Version), info["version"])
	assert.Equal(t, "1.2.0", info["api_version"])

	w = h.json(http.MethodGet, "/openapi.yaml", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	req := httptest.NewRequest(http.MethodOptions, "/api/calculate", nil)
	w = h.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestListElements(t *testing.T) {
	h := newHarness(t)
	w := h.json(http.MethodGet, "/api/elements", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var elements []chem.Element
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &elements))
	assert.Equal(t, chem.Elements(), elements)
}

func TestCalculate(t *testing.T) {
	h := newHarness(t)

	for name, mass := range map[string]any{"number": 1, "string": " 1.0 "} {
		t.Run(name, func(t *testing.T) {
			w := h.json(http.MethodPost, "/api/calculate", "", map[string]any{
				"formula":        "Fe2MoGe",
				"target_element": "germanium",
				"target_mass_g":  mass,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var res chem.Result
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, "Ge", res.Target)
			require.Len(t, res.Components, 3)
			assert.Equal(t, "Fe", res.Components[0].Element)
			assert.InDelta(t, 1.537794, res.Components[0].Mass, 1e-6)
			assert.InDelta(t, 3.858874, res.Total, 1e-6)
		})
	}
}

func TestCalculate_Rejections(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty formula", `{"formula":"","target_element":"Fe","target_mass_g":1}`, "formula cannot be empty"},
		{"no recognized elements", `{"formula":"123","target_element":"Fe","target_mass_g":1}`, "no recognized elements"},
		{"unknown element", `{"formula":"Xx2O","target_element":"O","target_mass_g":1}`, "Xx"},
		{"target not in formula", `{"formula":"Fe2O3","target_element":"Ge","target_mass_g":1}`, "not found in formula"},
		{"negative mass", `{"formula":"Fe2O3","target_element":"Fe","target_mass_g":-1}`, "positive number"},
		{"text mass", `{"formula":"Fe2O3","target_element":"Fe","target_mass_g":"abc"}`, "positive number"},
		{"malformed", `{"formula":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(tt.body))
			w := h.do(req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, detail(t, w), tt.want)
		})
	}
}

func TestCalculate_InputTooLarge(t *testing.T) {
	h := newHarness(t, WithMaxInputSize(16))
	w := h.json(http.MethodPost, "/api/calculate", "", map[string]any{
		"formula":        strings.Repeat("Fe", 20),
		"target_element": "Fe",
		"target_mass_g":  1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, detail(t, w), "maximum allowed size")
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	token := h.register("marie@example.org")

	w := h.json(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "marie@example.org", me.Email)
	assert.Equal(t, "Sorbonne", me.Institution)
	assert.NotContains(t, w.Body.String(), "password")

	w = h.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "MARIE@example.org", "password": "polonium"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Login successful"`)

	w = h.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "marie@example.org", "password": "radium"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid credentials", detail(t, w))

	w = h.json(http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Other", "email": "marie@example.org", "password": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.json(http.MethodPost, "/api/auth/register", "", map[string]string{"name": "No Mail", "email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/api/auth/me", "/api/samples", "/api/measurements"} {
		w := h.json(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)

		w = h.json(http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSamples(t *testing.T) {
	h := newHarness(t)
	token := h.register("marie@example.org")
	other := h.register("pierre@example.org")

	w := h.json(http.MethodPost, "/api/samples", token, map[string]any{
		"name":           "Heusler batch 1",
		"formula":        "Fe2MoGe",
		"target_element": "Ge",
		"target_mass_g":  1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Sample
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Heusler batch 1", created.Name)
	assert.InDelta(t, 3.858874, created.Result.Total, 1e-6)

	w = h.json(http.MethodGet, "/api/samples", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Sample
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = h.json(http.MethodGet, "/api/samples", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = h.json(http.MethodGet, "/api/samples/"+created.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "samples are private")

	w = h.json(http.MethodGet, "/api/samples/"+created.ID+"/export.csv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="Heusler_batch_1_calculation.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "Element,"))
	assert.Contains(t, w.Body.String(), "Total Mass,,,3.858874,100.00")

	w = h.json(http.MethodDelete, "/api/samples/"+created.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.json(http.MethodDelete, "/api/samples/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.json(http.MethodGet, "/api/samples/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadXRD(t *testing.T) {
	h := newHarness(t)
	token := h.register("marie@example.org")

	w := h.upload("/api/xrd/upload", token, "scan.xy", xrdScan(), map[string]string{"notes": "Cu Ka"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool          `json:"success"`
		ID      string        `json:"id"`
		Points  int           `json:"points"`
		Peaks   int           `json:"peaks"`
		List    []domain.Peak `json:"peak_list"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 100, resp.Points)
	assert.Equal(t, 2, resp.Peaks)
	require.Len(t, resp.List, 2)
	assert.Equal(t, 20.0, resp.List[0].Angle)
	assert.Equal(t, 35.0, resp.List[1].Angle)

	w = h.json(http.MethodGet, "/api/measurements/"+resp.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var m domain.Measurement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, domain.KindXRD, m.Kind)
	assert.Equal(t, "scan.xy", m.Filename)
	assert.Equal(t, "Cu Ka", m.Notes)
	assert.Len(t, m.Points, 100)
}

func TestUploadMagnetic(t *testing.T) {
	h := newHarness(t)
	token := h.register("marie@example.org")

	w := h.upload("/api/magnetic/upload", token, "loop.csv", hysteresis, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success         bool                      `json:"success"`
		ID              string                    `json:"id"`
		Points          int                       `json:"points"`
		MeasurementType string                    `json:"measurement_type"`
		Properties      domain.MagneticProperties `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 9, resp.Points)
	assert.Equal(t, domain.SweepFieldM, resp.MeasurementType)
	assert.Equal(t, 3.0, resp.Properties.Ms)
	assert.Equal(t, 1.0, resp.Properties.Mr)
	assert.InDelta(t, 1.0/3.0, resp.Properties.Hc, 1e-12)

	w = h.json(http.MethodGet, "/api/measurements", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Measurement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, resp.ID, list[0].ID)
}

func TestUpload_Rejections(t *testing.T) {
	h := newHarness(t, WithMaxUploadBytes(4096))
	token := h.register("marie@example.org")

	w := h.upload("/api/xrd/upload", token, "", "", map[string]string{"notes": "nothing attached"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no file uploaded", detail(t, w))

	w = h.upload("/api/xrd/upload", token, "empty.xy", "# header only\n1 2\n", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload("/api/magnetic/upload", token, "loop.csv", hysteresis, map[string]string{"measurementType": "ZFC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload("/api/xrd/upload", token, "scan.xy", xrdScan(), map[string]string{"sampleId": "someone-elses"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.upload("/api/xrd/upload", token, "huge.xy", strings.Repeat("1 2\n", 4096), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestMetrics(t *testing.T) {
	h := newHarness(t)
	h.json(http.MethodGet, "/health", "", nil)
	h.json(http.MethodGet, "/api/samples/abc", "", nil)

	families, err := h.metrics.Registry().Gather()
	require.NoError(t, err)

	routes := map[string]bool{}
	for _, f := range families {
		if f.GetName() != "elementx_http_request_duration_seconds" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "route" {
					routes[l.GetValue()] = true
				}
			}
		}
	}
	assert.True(t, routes["/health"])
	assert.True(t, routes["/api/samples/{id}"])

	w := h.json(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "elementx_http_request_duration_seconds")
}
