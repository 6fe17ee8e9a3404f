package handlers

import (
	"log"
	"net/http"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/authz"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/middleware"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// stateLength is the hex length of the OAuth state parameter.
const stateLength = 48

// Session keys for the browser-redirect connect flow. The state value
// doubles as CSRF protection on the callback.
const (
	sessionKeyState    = "link_state"
	sessionKeyProvider = "link_provider"
	sessionKeyUserID   = "link_user_id"
	sessionKeyUserRole = "link_user_role"
	sessionKeyRedirect = "link_redirect"
)

// RideshareHandler serves the provider link endpoints: the redirect
// connect flow for browsers, the direct code exchange for mobile
// clients, and disconnect/status.
type RideshareHandler struct {
	links   *services.LinkService
	baseURL string
}

func NewRideshareHandler(links *services.LinkService, baseURL string) *RideshareHandler {
	return &RideshareHandler{links: links, baseURL: baseURL}
}

type connectRequest struct {
	Code string `json:"code" binding:"required"`
}

// parseProvider maps the :provider path segment to an account type.
func parseProvider(raw string) (models.AccountType, error) {
	t := models.AccountType(raw)
	if !t.IsRideshare() {
		return "", services.ErrUnsupportedProvider
	}
	return t, nil
}

// ConnectRedirect handles GET /rideshare/:provider/connect. It parks
// the OAuth state and the caller identity in the cookie session and
// sends the browser to the provider. The callback arrives without a
// bearer token, so the session is the only carrier of who initiated
// the flow.
func (h *RideshareHandler) ConnectRedirect(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	state, err := util.CryptoRandomString(stateLength)
	if err != nil {
		log.Printf("[Link] Failed to generate state: %v", err)
		respondError(c, http.StatusInternalServerError, "internal_error",
			"Failed to initiate provider connect")
		return
	}

	authURL, err := h.links.AuthURL(provider, state)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyState, state)
	session.Set(sessionKeyProvider, string(provider))
	session.Set(sessionKeyUserID, caller.UserID)
	session.Set(sessionKeyUserRole, caller.Role)
	if redirect := c.Query("redirect"); redirect != "" &&
		util.IsRedirectSafe(redirect, h.baseURL) {
		session.Set(sessionKeyRedirect, redirect)
	}
	if err := session.Save(); err != nil {
		log.Printf("[Link] Failed to save session: %v", err)
		respondError(c, http.StatusInternalServerError, "internal_error",
			"Failed to initiate provider connect")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback handles GET /rideshare/:provider/callback. The state must
// match the one parked at redirect time; the session is cleared either
// way so a state value is never accepted twice.
func (h *RideshareHandler) Callback(c *gin.Context) {
	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	storedState, _ := session.Get(sessionKeyState).(string)
	storedProvider, _ := session.Get(sessionKeyProvider).(string)
	userID, _ := session.Get(sessionKeyUserID).(string)
	role, _ := session.Get(sessionKeyUserRole).(string)
	redirect, _ := session.Get(sessionKeyRedirect).(string)

	session.Delete(sessionKeyState)
	session.Delete(sessionKeyProvider)
	session.Delete(sessionKeyUserID)
	session.Delete(sessionKeyUserRole)
	session.Delete(sessionKeyRedirect)
	if err := session.Save(); err != nil {
		log.Printf("[Link] Failed to clear session: %v", err)
	}

	if storedState == "" || storedState != c.Query("state") {
		respondError(c, http.StatusBadRequest, "invalid_state",
			"OAuth state mismatch")
		return
	}
	if storedProvider != string(provider) || userID == "" {
		respondError(c, http.StatusBadRequest, "invalid_state",
			"OAuth session does not match this callback")
		return
	}

	if errMsg := c.Query("error"); errMsg != "" {
		respondError(c, http.StatusBadGateway, "upstream_auth_failure",
			"Provider returned an error: "+errMsg)
		return
	}

	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "invalid_request",
			"Missing authorization code")
		return
	}

	caller := authz.Caller{UserID: userID, Role: role}
	account, err := h.links.Connect(c.Request.Context(), caller, provider, code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Redirect validity was checked when the flow started; check again
	// in case the base URL changed between the two requests.
	if redirect != "" && util.IsRedirectSafe(redirect, h.baseURL) {
		c.Redirect(http.StatusFound, redirect)
		return
	}

	c.JSON(http.StatusOK, account)
}

// ConnectDirect handles POST /rideshare/:provider/connect for clients
// that ran the authorization redirect natively and already hold a code.
func (h *RideshareHandler) ConnectDirect(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.links.Connect(c.Request.Context(), caller, provider, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Disconnect handles POST /rideshare/:provider/:id/disconnect.
func (h *RideshareHandler) Disconnect(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	account, err := h.links.Disconnect(c.Request.Context(), caller, provider, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Status handles GET /rideshare/:provider/:id/status.
func (h *RideshareHandler) Status(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	provider, err := parseProvider(c.Param("provider"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status, err := h.links.Status(c.Request.Context(), caller, provider, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

