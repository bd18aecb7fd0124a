package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	adsvc "github.com/greenbuddy/greenbuddy-backend/internal/ads"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
)

type stubAdService struct {
	ad   *adsvc.AdDTO
	list []adsvc.AdDTO
	err  error
}

func (s stubAdService) Create(ctx context.Context, ownerID uuid.UUID, req adsvc.CreateAdRequest, filename string, image io.Reader) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) Search(ctx context.Context, params adsvc.SearchParams) ([]adsvc.AdDTO, error) {
	return s.list, s.err
}

func (s stubAdService) GetByID(ctx context.Context, adID uuid.UUID) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) ListByUser(ctx context.Context, userID uuid.UUID) ([]adsvc.AdDTO, error) {
	return s.list, s.err
}

func (s stubAdService) Update(ctx context.Context, actorID, adID uuid.UUID, req adsvc.UpdateAdRequest) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) Delete(ctx context.Context, actorID, adID uuid.UUID) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) SaveAd(ctx context.Context, actorID, adID uuid.UUID) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) UnsaveAd(ctx context.Context, actorID, adID uuid.UUID) (*adsvc.AdDTO, error) {
	return s.ad, s.err
}

func (s stubAdService) ListSaved(ctx context.Context, userID uuid.UUID) ([]adsvc.AdDTO, error) {
	return s.list, s.err
}

type recordingAdService struct {
	stubAdService
	created *adsvc.CreateAdRequest
}

func (s *recordingAdService) Create(ctx context.Context, ownerID uuid.UUID, req adsvc.CreateAdRequest, filename string, image io.Reader) (*adsvc.AdDTO, error) {
	s.created = &req
	return s.stubAdService.Create(ctx, ownerID, req, filename, image)
}

func newAdRouter(svc adsvc.Service) chi.Router {
	r := chi.NewRouter()
	r.Post("/api/ads", CreateAd(svc, config.MediaConfig{MaxUploadMB: 1}, nil))
	r.Get("/api/ads", ListAds(svc, nil))
	r.Get("/api/ads/{adId}", GetAd(svc, nil))
	r.Get("/api/users/{userId}/ads", ListUserAds(svc, nil))
	r.Put("/api/ads/{adId}", UpdateAd(svc, nil))
	r.Delete("/api/ads/{adId}", DeleteAd(svc, nil))
	r.Post("/api/ads/{adId}/save", SaveAd(svc, nil))
	r.Delete("/api/ads/{adId}/save", UnsaveAd(svc, nil))
	r.Get("/api/saved-ads", ListSavedAds(svc, nil))
	return r
}

func adForm(t *testing.T, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":       "Fresh tomatoes",
		"description": "Homegrown",
		"product":     "Tomatoes",
		"quantity":    "2.5",
		"unit":        "kg",
		"address":     "Gartenstr. 1, Berlin",
		"pickupDate":  "2026-09-12T16:00",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if withImage {
		part, err := writer.CreateFormFile("image", "tomatoes.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte("bytes"))
	}
	writer.Close()
	return &body, writer.FormDataContentType()
}

func TestCreateAdHandler(t *testing.T) {
	adID := uuid.New()
	router := newAdRouter(stubAdService{ad: &adsvc.AdDTO{ID: adID, Title: "Fresh tomatoes"}})

	body, contentType := adForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/ads", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authenticate(req, uuid.New()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}

	var envelope struct {
		Success  bool        `json:"success"`
		Response adsvc.AdDTO `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Response.ID != adID {
		t.Fatalf("unexpected ad %+v", envelope.Response)
	}
}

func TestCreateAdHandlerSanitizesFreeText(t *testing.T) {
	svc := &recordingAdService{stubAdService: stubAdService{ad: &adsvc.AdDTO{ID: uuid.New()}}}
	router := newAdRouter(svc)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"title":       "  Fresh tomatoes  ",
		"description": "\tHomegrown\n",
		"product":     " Tomatoes ",
		"quantity":    "2.5",
		"unit":        " kg ",
		"address":     "  Gartenstr. 1, Berlin  ",
		"pickupDate":  "2026-09-12T16:00",
		"observation": "  ring the bell  ",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	part, err := writer.CreateFormFile("image", "tomatoes.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("bytes"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ads", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authenticate(req, uuid.New()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.created == nil {
		t.Fatal("service never received the request")
	}
	if svc.created.Title != "Fresh tomatoes" {
		t.Fatalf("title not trimmed: %q", svc.created.Title)
	}
	if svc.created.Description != "Homegrown" {
		t.Fatalf("description not trimmed: %q", svc.created.Description)
	}
	if svc.created.Address != "Gartenstr. 1, Berlin" {
		t.Fatalf("address not trimmed: %q", svc.created.Address)
	}
	if svc.created.Observation == nil || *svc.created.Observation != "ring the bell" {
		t.Fatalf("observation not trimmed: %v", svc.created.Observation)
	}
}

func TestCreateAdHandlerRequiresImage(t *testing.T) {
	router := newAdRouter(stubAdService{})

	body, contentType := adForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/ads", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authenticate(req, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateAdHandlerRequiresAuthContext(t *testing.T) {
	router := newAdRouter(stubAdService{})

	body, contentType := adForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/ads", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetAdUnknownIsUnauthorized(t *testing.T) {
	router := newAdRouter(stubAdService{err: pkgerrors.New(pkgerrors.CodeNotFound, "ad not found")})

	req := httptest.NewRequest(http.MethodGet, "/api/ads/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListAdsPassesFilters(t *testing.T) {
	router := newAdRouter(stubAdService{list: []adsvc.AdDTO{}})

	req := httptest.NewRequest(http.MethodGet, "/api/ads?q=tomato&product=Tomatoes&limit=10", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestUpdateAdForbidden(t *testing.T) {
	router := newAdRouter(stubAdService{err: pkgerrors.New(pkgerrors.CodeForbidden, "you can only update your own ads")})

	req := httptest.NewRequest(http.MethodPut, "/api/ads/"+uuid.NewString(), bytes.NewReader([]byte(`{"title":"New"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authenticate(req, uuid.New()))

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestSaveAdHandler(t *testing.T) {
	adID := uuid.New()
	reader := uuid.New()
	router := newAdRouter(stubAdService{ad: &adsvc.AdDTO{ID: adID, SavedBy: []uuid.UUID{reader}}})

	req := httptest.NewRequest(http.MethodPost, "/api/ads/"+adID.String()+"/save", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, authenticate(req, reader))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Response adsvc.AdDTO `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Response.SavedBy) != 1 || envelope.Response.SavedBy[0] != reader {
		t.Fatalf("unexpected savedBy %v", envelope.Response.SavedBy)
	}
}

func TestListSavedAdsRequiresAuthContext(t *testing.T) {
	router := newAdRouter(stubAdService{})

	req := httptest.NewRequest(http.MethodGet, "/api/saved-ads", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
