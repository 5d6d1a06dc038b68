package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

func setCookies(w http.ResponseWriter, cookies []*http.Cookie) {
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	user, err := h.identity.Register(r.Context(), req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, userResponse{Email: user.Email})
	return nil
}

// login answers every credential problem with the same message.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	user, err := h.identity.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if user == nil {
		h.metrics.loginResult(false)
		return errInvalidCredentials
	}

	cookies, err := h.sessions.Login(user)
	if err != nil {
		return err
	}
	h.metrics.loginResult(true)

	setCookies(w, cookies)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(common.RefreshTokenCookieName)
	if err != nil || c.Value == "" {
		return common.ErrInvalidToken
	}

	cookies, err := h.sessions.Refresh(r.Context(), c.Value)
	if err != nil {
		return err
	}

	setCookies(w, cookies)
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	setCookies(w, h.sessions.Logout())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, userResponse{Email: CurrentUser(r.Context()).Email})
	return nil
}
