package handlers

import (
	"net/http"
	"strings"
	"time"

	"taskpay/internal/app"
	"taskpay/internal/common"
	"taskpay/internal/domain/auth"
	"taskpay/internal/domain/user"
	"taskpay/internal/http/middleware"
	"taskpay/internal/http/response"
)

type AuthHandler struct {
	auth    *app.AuthService
	limiter middleware.Limiter
}

func NewAuthHandler(auth *app.AuthService, limiter middleware.Limiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	SelectedRole string `json:"selected_role"`
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	LoginRole string `json:"login_role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role,omitempty"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	// All revokes every session the token's owner holds, not just this one.
	All bool `json:"all,omitempty"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresAt    string   `json:"expires_at"`
	UserID       string   `json:"user_id"`
	Role         string   `json:"role"`
	Roles        []string `json:"roles"`
}

func newTokenResponse(pair *auth.TokenPair, account *user.User, activeRole string) tokenResponse {
	roles := []string{}
	for _, item := range account.Roles {
		roles = append(roles, string(item))
	}
	if activeRole == "" && len(roles) == 1 {
		activeRole = roles[0]
	}
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt.Format(time.RFC3339),
		UserID:       account.ID.String(),
		Role:         activeRole,
		Roles:        roles,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if h.limiter != nil {
		key := "register:ip:" + middleware.ClientIP(r)
		if !h.limiter.Allow(key, 10, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "registration rate limit exceeded", nil))
			return
		}
	}
	pair, account, err := h.auth.Register(r.Context(), req.Email, req.Password, user.Role(req.SelectedRole))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, newTokenResponse(pair, account, strings.ToLower(strings.TrimSpace(req.SelectedRole))))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if h.limiter != nil {
		key := "login:ip:" + middleware.ClientIP(r)
		if !h.limiter.Allow(key, 20, time.Minute) {
			response.Error(w, common.NewError(common.CodeRateLimited, "login rate limit exceeded", nil))
			return
		}
	}
	pair, account, err := h.auth.Login(r.Context(), req.Email, req.Password, user.Role(req.LoginRole))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newTokenResponse(pair, account, strings.ToLower(strings.TrimSpace(req.LoginRole))))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		response.Error(w, common.NewValidationError("invalid request", map[string]string{"refresh_token": "refresh_token is required"}))
		return
	}
	pair, account, err := h.auth.Refresh(r.Context(), req.RefreshToken, user.Role(req.Role))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newTokenResponse(pair, account, strings.ToLower(strings.TrimSpace(req.Role))))
}

func (h *AuthHandler) SwitchRole(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.RefreshToken) == "" {
		fields["refresh_token"] = "refresh_token is required"
	}
	if strings.TrimSpace(req.Role) == "" {
		fields["role"] = "role is required"
	}
	if len(fields) > 0 {
		response.Error(w, common.NewValidationError("invalid request", fields))
		return
	}
	pair, account, err := h.auth.Refresh(r.Context(), req.RefreshToken, user.Role(req.Role))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, newTokenResponse(pair, account, strings.ToLower(strings.TrimSpace(req.Role))))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	var err error
	if req.All {
		err = h.auth.LogoutAll(r.Context(), req.RefreshToken)
	} else {
		err = h.auth.Logout(r.Context(), req.RefreshToken)
	}
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
