package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/cityassist/cityassist/go-web/internal/models"
)

// ReportsAPI groups /reports endpoints.
type ReportsAPI struct{ c *Client }

// ImageUpload is an optional photo attached to a report.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

// ReportInput is the multipart payload of a new report. Location may be nil
// when the browser did not share coordinates.
type ReportInput struct {
	Category    string
	Description string
	Location    *models.Location
	Image       *ImageUpload
}

// ListParams filters list endpoints. Zero values are omitted.
type ListParams struct {
	Page       int
	Size       int
	Status     string
	UnreadOnly bool
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		q.Set("size", strconv.Itoa(p.Size))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.UnreadOnly {
		q.Set("unread", "true")
	}
	return q
}

// Create submits a report as multipart/form-data. The returned report carries
// the server-issued ticket id.
func (r *ReportsAPI) Create(ctx context.Context, in ReportInput) (*models.Report, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"category", in.Category},
		{"description", in.Description},
		{"latitude", ""},
		{"longitude", ""},
	}
	if in.Location != nil {
		fields[2][1] = strconv.FormatFloat(in.Location.Lat, 'f', -1, 64)
		fields[3][1] = strconv.FormatFloat(in.Location.Lng, 'f', -1, 64)
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if in.Image != nil && in.Image.Data != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, in.Image.Filename))
		ct := in.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, in.Image.Data); err != nil {
			return nil, fmt.Errorf("copy image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var out models.Report
	if err := r.c.do(ctx, http.MethodPost, "/reports", nil, &buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReportsAPI) List(ctx context.Context, params ListParams) ([]models.Report, error) {
	var out []models.Report
	if err := r.c.doJSON(ctx, http.MethodGet, "/reports", params.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportsAPI) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var out models.Report
	if err := r.c.doJSON(ctx, http.MethodGet, "/reports/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReportsAPI) GetTimeline(ctx context.Context, id string) ([]models.TimelineEvent, error) {
	var out []models.TimelineEvent
	if err := r.c.doJSON(ctx, http.MethodGet, "/reports/"+url.PathEscape(id)+"/timeline", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
