package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domaincatalog "appcatalog/internal/domain/catalog"
)

func (s *Server) appRoutes(r chi.Router) {
	r.Get("/", s.handleListApps)
	r.Get("/{id}", s.handleGetApp)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(accessEditor))
		r.Post("/", s.handleCreateApp)
		r.Post("/bulk", s.handleBulkCreateApps)
		r.Patch("/{id}", s.handlePatchApp)
		r.Delete("/{id}", s.handleDeleteApp)
	})
}

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	apps, err := s.catalog.ListApps(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newAppViews(apps))
}

func (s *Server) handleGetApp(w http.ResponseWriter, r *http.Request) {
	app, err := s.catalog.GetApp(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newAppView(app))
}

func (s *Server) handleCreateApp(w http.ResponseWriter, r *http.Request) {
	var input domaincatalog.Input
	if err := decodeBody(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.catalog.CreateApp(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newAppView(created))
}

func (s *Server) handleBulkCreateApps(w http.ResponseWriter, r *http.Request) {
	var inputs []domaincatalog.Input
	if err := decodeBody(w, r, &inputs); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.catalog.BulkCreateApps(r.Context(), inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newAppViews(created))
}

func (s *Server) handlePatchApp(w http.ResponseWriter, r *http.Request) {
	var patch domaincatalog.PatchInput
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.catalog.PatchApp(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, newAppView(updated))
}

func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteApp(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w)
}
