package http

import (
	"net/http"

	"paytrack/internal/profile"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string       `json:"token"`
	User  profile.User `json:"user"`
}

// updateProfileRequest changes whichever fields are present.
type updateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	OldPassword string  `json:"old_password,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.profiles.Register(r.Context(), sanitizeInput(req.Email), sanitizeInput(req.DisplayName), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(u).Write(w)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, u, err := s.profiles.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(signInResponse{Token: token, User: u}).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.profiles.Get(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DisplayName == nil && req.NewPassword == nil {
		BadRequestError("nothing to update: send display_name and/or new_password").Write(w)
		return
	}

	if req.NewPassword != nil {
		if err := s.profiles.ChangePassword(r.Context(), userID, req.OldPassword, *req.NewPassword); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.DisplayName != nil {
		if _, err := s.profiles.UpdateDisplayName(r.Context(), userID, sanitizeInput(*req.DisplayName)); err != nil {
			writeError(w, r, err)
			return
		}
	}

	u, err := s.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(u).Write(w)
}
