package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
	"github.com/cityassist/cityassist/go-web/internal/reports/service"
	"github.com/cityassist/cityassist/go-web/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// asUser stands in for AuthMiddleware.
func asUser(id string, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rs := make([]interface{}, len(roles))
		for i, r := range roles {
			rs[i] = r
		}
		c.Set(middleware.ClaimsKey, map[string]interface{}{"sub": id, "roles": rs})
		c.Set(middleware.UserIDKey, id)
	}
}

func newRouter(svc service.Service, user gin.HandlerFunc) *gin.Engine {
	g := gin.New()
	grp := g.Group("/api", user)
	RegisterRoutes(grp, svc, middleware.RequireRole("operator"))
	return g
}

func multipartReport(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.jpg")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postReport(g http.Handler, body *bytes.Buffer, ct string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", ct)
	g.ServeHTTP(w, req)
	return w
}

func TestReportHandler_CreateGetTimeline(t *testing.T) {
	svc := service.NewMemoryService()
	g := newRouter(svc, asUser("u1"))

	body, ct := multipartReport(t, map[string]string{
		"category":    "Streetlight Outage",
		"description": "Lamp post 14 has been dark for a week",
		"latitude":    "40.7",
		"longitude":   "-74.01",
	}, []byte("img"))
	w := postReport(g, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.True(t, reports.IsTicketID(created.TicketID))
	require.Equal(t, -74.01, created.Location.Lng)
	require.NotContains(t, w.Body.String(), "userId")

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+created.TicketID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+created.ID+"/timeline", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var tl []models.TimelineEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tl))
	require.Len(t, tl, 1)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports?size=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestReportHandler_Rejects(t *testing.T) {
	g := newRouter(service.NewMemoryService(), asUser("u1"))

	body, ct := multipartReport(t, map[string]string{"category": "Pothole", "description": "short"}, nil)
	require.Equal(t, http.StatusBadRequest, postReport(g, body, ct).Code)

	body, ct = multipartReport(t, map[string]string{"category": "Pothole", "description": "long enough text here", "latitude": "north"}, nil)
	require.Equal(t, http.StatusBadRequest, postReport(g, body, ct).Code)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{"category":"Pothole"}`))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/TKT-000000000", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportHandler_StatusRequiresOperator(t *testing.T) {
	svc := service.NewMemoryService()
	citizen := newRouter(svc, asUser("u1"))
	operator := newRouter(svc, asUser("op", "operator"))

	body, ct := multipartReport(t, map[string]string{"category": "Water Leak", "description": "Hydrant leaking onto the road"}, nil)
	w := postReport(citizen, body, ct)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	patch := func(g http.Handler, status string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/api/reports/"+created.TicketID+"/status", strings.NewReader(`{"status":"`+status+`"}`))
		req.Header.Set("Content-Type", "application/json")
		g.ServeHTTP(w, req)
		return w.Code
	}
	require.Equal(t, http.StatusForbidden, patch(citizen, models.ReportInProgress))
	require.Equal(t, http.StatusOK, patch(operator, models.ReportInProgress))
	require.Equal(t, http.StatusConflict, patch(operator, models.ReportPending))
}
