package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/models"
	"github.com/cityassist/cityassist/go-web/internal/reports"
	"github.com/stretchr/testify/require"
)

type fakeImages struct {
	keys    []string
	data    [][]byte
	failPut bool
}

func (f *fakeImages) UploadFile(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.failPut {
		return errors.New("bucket offline")
	}
	b, _ := io.ReadAll(r)
	f.keys = append(f.keys, key)
	f.data = append(f.data, b)
	return nil
}

func (f *fakeImages) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://minio.local/cityassist/" + key + "?sig=1", nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]models.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, userID string, n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string][]models.Notification{}
	}
	f.sent[userID] = append(f.sent[userID], n)
	return nil
}

func validInput() Input {
	return Input{
		Category:    "Pothole",
		Description: "Deep pothole at the corner of 5th and Main",
		Location:    &models.Location{Lat: 40.71, Lng: -74.0},
	}
}

func TestCreate_IssuesTicketAndTimeline(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewMemoryService(WithNotifier(n))
	ctx := context.Background()

	r, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	require.True(t, reports.IsTicketID(r.TicketID), r.TicketID)
	require.Equal(t, models.ReportPending, r.Status)
	require.Len(t, r.Timeline, 1)
	require.Equal(t, 40.71, r.Location.Lat)

	require.Len(t, n.sent["u1"], 1)
	require.Contains(t, n.sent["u1"][0].Message, r.TicketID)

	got, err := svc.Get(ctx, "u1", r.TicketID)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewMemoryService()
	for name, mutate := range map[string]func(*Input){
		"unknown category":  func(in *Input) { in.Category = "Aliens" },
		"short description": func(in *Input) { in.Description = "  too short " },
		"bad latitude":      func(in *Input) { in.Location = &models.Location{Lat: 91} },
	} {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), "u1", in)
			require.ErrorIs(t, err, reports.ErrInvalidInput)
		})
	}
}

func TestCreate_StoresImage(t *testing.T) {
	imgs := &fakeImages{}
	svc := NewMemoryService(WithImageStore(imgs))
	in := validInput()
	in.Image = &Image{Filename: "hole.JPG", ContentType: "image/jpeg", Data: bytes.NewReader([]byte("jpegdata"))}

	r, err := svc.Create(context.Background(), "u1", in)
	require.NoError(t, err)
	require.Len(t, imgs.keys, 1)
	require.True(t, strings.HasPrefix(imgs.keys[0], "reports/"+r.TicketID+"/"))
	require.True(t, strings.HasSuffix(imgs.keys[0], ".jpg"))
	require.Equal(t, []byte("jpegdata"), imgs.data[0])
	require.Contains(t, r.ImageURL, imgs.keys[0])
}

func TestCreate_ImageFailureFailsReport(t *testing.T) {
	svc := NewMemoryService(WithImageStore(&fakeImages{failPut: true}))
	in := validInput()
	in.Image = &Image{Filename: "a.png", Data: strings.NewReader("x")}

	_, err := svc.Create(context.Background(), "u1", in)
	require.Error(t, err)

	list, err := svc.List(context.Background(), "u1", reports.Filter{})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestGet_OtherUsersReportIsNotFound(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	r, err := svc.Create(ctx, "owner", validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, "intruder", r.ID)
	require.ErrorIs(t, err, reports.ErrNotFound)
	_, err = svc.Timeline(ctx, "intruder", r.TicketID)
	require.ErrorIs(t, err, reports.ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	n := &fakeNotifier{}
	svc := NewMemoryService(WithNotifier(n))
	ctx := context.Background()
	r, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, r.TicketID, models.ReportInProgress, "")
	require.NoError(t, err)
	require.Equal(t, models.ReportInProgress, updated.Status)

	tl, err := svc.Timeline(ctx, "u1", r.ID)
	require.NoError(t, err)
	require.Len(t, tl, 2)
	require.Equal(t, "Status changed to in progress", tl[1].Message)
	require.Len(t, n.sent["u1"], 2)

	_, err = svc.UpdateStatus(ctx, r.ID, models.ReportPending, "")
	require.ErrorIs(t, err, reports.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, "TKT-NOPE00000", models.ReportClosed, "")
	require.ErrorIs(t, err, reports.ErrNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()
	a, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, a.ID, models.ReportResolved, "Filled")
	require.NoError(t, err)

	all, err := svc.List(ctx, "u1", reports.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	resolved, err := svc.List(ctx, "u1", reports.Filter{Status: models.ReportResolved})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	require.Equal(t, a.ID, resolved[0].ID)
}
