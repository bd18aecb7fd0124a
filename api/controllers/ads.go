package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greenbuddy/greenbuddy-backend/api/responses"
	"github.com/greenbuddy/greenbuddy-backend/api/validators"
	adsvc "github.com/greenbuddy/greenbuddy-backend/internal/ads"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	pkgerrors "github.com/greenbuddy/greenbuddy-backend/pkg/errors"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
)

// CreateAd handles the multipart listing form, image included.
func CreateAd(svc adsvc.Service, mediaCfg config.MediaConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := validators.ParseMultipartForm(r, mediaCfg.MaxUploadBytes()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := adsvc.CreateAdRequest{
			Title:       validators.SanitizeString(r.FormValue("title"), 120),
			Description: validators.SanitizeString(r.FormValue("description"), 4000),
			Product:     validators.SanitizeString(r.FormValue("product"), 120),
			Quantity:    strings.TrimSpace(r.FormValue("quantity")),
			Unit:        validators.SanitizeString(r.FormValue("unit"), 30),
			Address:     validators.SanitizeString(r.FormValue("address"), 300),
			PickupDate:  strings.TrimSpace(r.FormValue("pickupDate")),
		}
		if observation := validators.SanitizeString(r.FormValue("observation"), 2000); observation != "" {
			body.Observation = &observation
		}
		if err := validators.ValidateStruct(&body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		file, header, err := validators.FormFile(r, "image")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer file.Close()

		ad, err := svc.Create(r.Context(), actorID, body, header.Filename, file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, ad)
	}
}

// ListAds returns the listing feed with optional text and product filters.
func ListAds(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		pageParams, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := adsvc.SearchParams{
			Query:   r.URL.Query().Get("q"),
			Product: r.URL.Query().Get("product"),
			Limit:   pageParams.Limit,
			Offset:  pageParams.Offset,
		}

		list, err := svc.Search(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetAd returns a single listing.
func GetAd(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		adID, err := validators.ParseUUID(chi.URLParam(r, "adId"), "adId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ad, err := svc.GetByID(r.Context(), adID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ad)
	}
}

// ListUserAds returns the listings owned by the given member.
func ListUserAds(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		userID, err := validators.ParseUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// UpdateAd handles partial listing updates for the owner.
func UpdateAd(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adID, err := validators.ParseUUID(chi.URLParam(r, "adId"), "adId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adsvc.UpdateAdRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ad, err := svc.Update(r.Context(), actorID, adID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ad)
	}
}

// DeleteAd removes a listing owned by the caller.
func DeleteAd(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adID, err := validators.ParseUUID(chi.URLParam(r, "adId"), "adId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ad, err := svc.Delete(r.Context(), actorID, adID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ad)
	}
}

// SaveAd bookmarks a listing for the caller.
func SaveAd(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adID, err := validators.ParseUUID(chi.URLParam(r, "adId"), "adId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ad, err := svc.SaveAd(r.Context(), actorID, adID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ad)
	}
}

// UnsaveAd drops the caller's bookmark on a listing.
func UnsaveAd(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adID, err := validators.ParseUUID(chi.URLParam(r, "adId"), "adId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ad, err := svc.UnsaveAd(r.Context(), actorID, adID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ad)
	}
}

// ListSavedAds returns the caller's bookmarked listings.
func ListSavedAds(svc adsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ad service unavailable"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListSaved(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
