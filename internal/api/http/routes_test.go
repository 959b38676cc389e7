package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/KirGorbunov/weather-test-task/internal/weather"
)

type fakeStore struct {
	records []weather.Record
	limit   int
}

func (f *fakeStore) InsertRecord(ctx context.Context, rec weather.Record) (int64, error) {
	f.records = append(f.records, rec)
	return int64(len(f.records)), nil
}

func (f *fakeStore) RecentRecords(ctx context.Context, limit int) ([]weather.Record, error) {
	f.limit = limit
	if limit > len(f.records) {
		limit = len(f.records)
	}
	return f.records[:limit], nil
}

func newTestApp(st *fakeStore) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, st, 10)
	return app
}

func TestLatestEndpoint(t *testing.T) {
	st := &fakeStore{}
	for i := 0; i < 3; i++ {
		st.records = append(st.records, weather.Record{
			ID:        int64(i + 1),
			Timestamp: time.Date(2025, 8, 26, 12, i, 0, 0, time.UTC),
			Latitude:  55.7,
			Longitude: 37.36,
		})
	}
	app := newTestApp(st)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d; want %d", resp.StatusCode, http.StatusOK)
	}
	if st.limit != 10 {
		t.Errorf("store queried with limit %d; want default 10", st.limit)
	}

	var body struct {
		Count   int              `json:"count"`
		Records []weather.Record `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Count != 3 || len(body.Records) != 3 {
		t.Errorf("count = %d, records = %d; want 3 and 3", body.Count, len(body.Records))
	}
}

func TestLatestEndpointLimitValidation(t *testing.T) {
	app := newTestApp(&fakeStore{})

	for _, limit := range []string{"0", "-5", "1001", "ten"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest?limit="+limit, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d; want %d", limit, resp.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestLatestEndpointEmptyStore(t *testing.T) {
	app := newTestApp(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d; want %d", resp.StatusCode, http.StatusNotFound)
	}
}
