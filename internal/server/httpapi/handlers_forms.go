package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/pagekeeper/internal/server/services"
)

type formBody struct {
	FormName string          `json:"formName"`
	FormData json.RawMessage `json:"formData"`
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var body formBody
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "invalid form request", err)
		return
	}

	form, err := s.forms.Create(r.Context(), services.FormInput{FormName: body.FormName, FormData: body.FormData})
	if err != nil {
		s.writeError(w, r, "error saving form", err)
		return
	}
	writeOK(w, http.StatusCreated, "Form submitted successfully", form)
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	list, err := s.forms.List(r.Context())
	if err != nil {
		s.writeError(w, r, "error retrieving forms", err)
		return
	}
	writeList(w, "Forms retrieved successfully", list)
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "form not found", err)
		return
	}
	writeOK(w, http.StatusOK, "Form retrieved successfully", form)
}

func (s *Server) handleGetFormByName(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, "form not found", err)
		return
	}
	writeOK(w, http.StatusOK, "Form retrieved successfully", form)
}

func (s *Server) handleUpdateForm(w http.ResponseWriter, r *http.Request) {
	var body formBody
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, "invalid form request", err)
		return
	}

	form, err := s.forms.Update(r.Context(), chi.URLParam(r, "id"), services.FormInput{FormName: body.FormName, FormData: body.FormData})
	if err != nil {
		s.writeError(w, r, "error updating form", err)
		return
	}
	writeOK(w, http.StatusOK, "Form updated successfully", form)
}

func (s *Server) handleUpdateFormField(w http.ResponseWriter, r *http.Request) {
	field, value, err := readFieldBody(r)
	if err != nil {
		s.writeError(w, r, "invalid field update", err)
		return
	}

	form, err := s.forms.UpdateField(r.Context(), chi.URLParam(r, "id"), field, value)
	if err != nil {
		s.writeError(w, r, "error updating form field", err)
		return
	}
	writeOK(w, http.StatusOK, "Field updated successfully", form)
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "error deleting form", err)
		return
	}
	writeOK(w, http.StatusOK, "Form deleted successfully", form)
}
