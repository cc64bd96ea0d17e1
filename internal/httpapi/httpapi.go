// Package httpapi is the thin read-only HTTP boundary the external
// dashboard consumes: a chi router over internal/queryapi, plus
// thumbnail byte serving and the Prometheus /metrics endpoint.
// Grounded on the teacher's cmd/hlsd/main.go router assembly
// (chi + chi middleware stack) and internal/api's respondJSON/respondError
// handler convention, pared down to a read-only surface with no auth
// layer.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mikesvoboda/foscam-ingest/internal/data"
	"github.com/mikesvoboda/foscam-ingest/internal/metrics"
	"github.com/mikesvoboda/foscam-ingest/internal/queryapi"
)

// NewRouter assembles the dashboard-facing router.
func NewRouter(api *queryapi.API) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Get("/api/v1/detections", listDetections(api))
	r.Get("/api/v1/cameras", listCameras(api))
	r.Get("/api/v1/stats", stats(api))
	r.Get("/api/v1/heatmap/daily", heatmapDaily(api))
	r.Get("/api/v1/heatmap/hourly", heatmapHourly(api))
	r.Get("/api/v1/detections/{id}/thumbnail", thumbnailFor(api))

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func listDetections(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		perPage := atoiDefault(q.Get("per_page"), 50)
		onlyAlerts := q.Get("only_alerts") == "true"

		start, err := parseTimeParam(q.Get("start"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start")
			return
		}
		end, err := parseTimeParam(q.Get("end"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid end")
			return
		}
		cameraIDs, err := parseUUIDList(q["camera_id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid camera_id")
			return
		}

		result, err := api.ListDetections(r.Context(), page, perPage, start, end, cameraIDs, onlyAlerts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func listCameras(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cameras, err := api.ListCameras(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, cameras)
	}
}

func stats(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := api.Stats(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, s)
	}
}

func heatmapDaily(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		days := atoiDefault(q.Get("days"), 30)
		perCamera := q.Get("per_camera") == "true"
		cameraIDs, err := parseUUIDList(q["camera_id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid camera_id")
			return
		}

		buckets, err := api.HeatmapDaily(r.Context(), days, cameraIDs, perCamera)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, buckets)
	}
}

func heatmapHourly(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		perCamera := q.Get("per_camera") == "true"
		cameraIDs, err := parseUUIDList(q["camera_id"])
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid camera_id")
			return
		}

		buckets, err := api.HeatmapHourly(r.Context(), cameraIDs, perCamera)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, buckets)
	}
}

func thumbnailFor(api *queryapi.API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid detection id")
			return
		}

		contentType, content, err := api.ThumbnailFor(r.Context(), id, os.ReadFile)
		if err != nil {
			if errors.Is(err, data.ErrRecordNotFound) || errors.Is(err, queryapi.ErrNoThumbnail) {
				respondError(w, http.StatusNotFound, "no thumbnail")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		w.Write(content)
	}
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseTimeParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseUUIDList(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
