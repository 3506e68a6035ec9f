// people.go — обработчики /api/v1/people (списки памяти и исцеления).
package handlers

import (
	"net/http"

	"github.com/bigkaa/goartstore/archive/internal/api/openapi"
)

// ListPeople — GET /api/v1/people.
func (h *APIHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.people.List(r.Context()))
}

// AddPerson — POST /api/v1/people/{kind}.
func (h *APIHandler) AddPerson(w http.ResponseWriter, r *http.Request, kind openapi.PersonKind) {
	var req openapi.PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	person, err := h.people.Add(r.Context(), kind, req.Name)
	if err != nil {
		h.serviceError(w, r, "add_person", err)
		return
	}
	writeJSON(w, http.StatusCreated, openapi.PersonResponse{
		Person:  person,
		Message: h.msg.T(r.Context(), "person.added", person.Name),
	})
}

// UpdatePerson — PUT /api/v1/people/{kind}/{id}.
func (h *APIHandler) UpdatePerson(w http.ResponseWriter, r *http.Request, kind openapi.PersonKind, id string) {
	var req openapi.PersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	person, err := h.people.Update(r.Context(), kind, id, req.Name)
	if err != nil {
		h.serviceError(w, r, "update_person", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.PersonResponse{
		Person:  person,
		Message: h.msg.T(r.Context(), "person.updated", person.Name),
	})
}

// DeletePerson — DELETE /api/v1/people/{kind}/{id}.
func (h *APIHandler) DeletePerson(w http.ResponseWriter, r *http.Request, kind openapi.PersonKind, id string) {
	if err := h.people.Delete(r.Context(), kind, id); err != nil {
		h.serviceError(w, r, "delete_person", err)
		return
	}
	writeJSON(w, http.StatusOK, openapi.MessageResponse{Message: h.msg.T(r.Context(), "person.deleted")})
}
