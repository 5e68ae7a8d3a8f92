package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safar/vintagebikes/internal/auth"
)

const refreshCookie = "refreshToken"

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	_, err := s.deps.Auth.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully. Please verify your email.")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginUser struct {
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type loginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"accessToken"`
	User        loginUser `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.deps.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.deps.RefreshTokenTTL.Seconds()),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		AccessToken: session.AccessToken,
		User: loginUser{
			UserID:    session.User.ID,
			UserName:  session.User.Name,
			UserEmail: session.User.Email,
		},
	})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = chi.URLParam(r, "token")
	}

	if err := s.deps.Auth.VerifyEmail(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshCookie); err == nil {
		token = c.Value
	}

	access, err := s.deps.Auth.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}
