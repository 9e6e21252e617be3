package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openfleet/fleetcore/internal/fault"
	"github.com/openfleet/fleetcore/internal/model"
	"github.com/openfleet/fleetcore/internal/store"
)

type zoneRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (req zoneRequest) builder() *model.ZoneBuilder {
	b := model.NewZoneBuilder()
	if req.Name != nil {
		b = b.WithName(*req.Name)
	}
	if req.Description != nil {
		b = b.WithDescription(*req.Description)
	}
	return b
}

type zoneResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toZoneResponse(z model.Zone) zoneResponse {
	return zoneResponse{ID: z.ID, Name: z.Name, Description: z.Description}
}

type zonePageResponse struct {
	Items []zoneResponse `json:"items"`
	Total int64          `json:"total"`
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	size := queryInt(r, "size", 50)

	var result store.Page[model.Zone]
	err := s.inUnitOfWork(r.Context(), func(ctx context.Context) error {
		var err error
		result, err = s.services.Zones.List(ctx, page, size, store.QuerySpec{
			OrderBy: []store.OrderByClause{{Column: "zone.name"}},
		})
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := zonePageResponse{Items: make([]zoneResponse, 0, len(result.Items)), Total: result.Total}
	for _, z := range result.Items {
		resp.Items = append(resp.Items, toZoneResponse(z))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation(err, "invalid request body"))
		return
	}

	var created model.Zone
	err := s.inUnitOfWork(r.Context(), func(ctx context.Context) error {
		var err error
		created, err = s.services.Zones.Create(ctx, req.builder())
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("ETag", created.Etag())
	writeJSON(w, http.StatusCreated, toZoneResponse(created))
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var zone model.Zone
	err = s.inUnitOfWork(r.Context(), func(ctx context.Context) error {
		var err error
		zone, err = s.services.Zones.GetByID(ctx, id)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("ETag", zone.Etag())
	writeJSON(w, http.StatusOK, toZoneResponse(zone))
}

func (s *Server) handleUpdateZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req zoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fault.Validation(err, "invalid request body"))
		return
	}

	var updated model.Zone
	err = s.inUnitOfWork(r.Context(), func(ctx context.Context) error {
		var err error
		updated, err = s.services.Zones.Update(ctx, id, r.Header.Get("If-Match"), req.builder())
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("ETag", updated.Etag())
	writeJSON(w, http.StatusOK, toZoneResponse(updated))
}

func (s *Server) handleDeleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.inUnitOfWork(r.Context(), func(ctx context.Context) error {
		return s.services.Zones.Delete(ctx, id, r.Header.Get("If-Match"))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fault.Validation(err, "invalid id")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}
