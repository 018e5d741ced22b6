package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/models"
)

type createGroupRequest struct {
	Name    string   `json:"name" validate:"required"`
	Members []string `json:"members"`
}

type addMembersRequest struct {
	Members []string `json:"members" validate:"required,min=1"`
}

type groupResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{ID: g.ID, Name: g.Name, Members: g.Members, CreatedAt: g.CreatedAt}
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	group, err := s.groups.Create(r.Context(), actorID, req.Name, req.Members)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toGroupResponse(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	group, err := s.groups.Get(r.Context(), actorID, chi.URLParam(r, "groupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toGroupResponse(group))
}

func (s *Server) handleAddGroupMembers(w http.ResponseWriter, r *http.Request) {
	var req addMembersRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	if err := s.groups.AddMembers(r.Context(), actorID, chi.URLParam(r, "groupID"), req.Members); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
