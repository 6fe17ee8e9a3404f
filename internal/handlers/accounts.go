package handlers

import (
	"net/http"
	"strconv"

	"github.com/GigFlow-MobileApp/gigflow-server/internal/middleware"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/models"
	"github.com/GigFlow-MobileApp/gigflow-server/internal/services"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves the account CRUD endpoints. The owner of every
// created account is the authenticated caller; nothing in the payload
// can assign an account to someone else.
type AccountHandler struct {
	accounts *services.AccountService
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type createAccountRequest struct {
	Type        models.AccountType `json:"type" binding:"required"`
	Balance     float64            `json:"balance"`
	Description string             `json:"description"`
}

type updateAccountRequest struct {
	Balance     *float64 `json:"balance"`
	Description *string  `json:"description"`
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accounts.Create(c.Request.Context(), caller, services.CreateAccountInput{
		Type:        req.Type,
		Balance:     req.Balance,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// List handles GET /accounts. Regular callers see their own accounts;
// elevated callers can pass ?all=true to page through everyone's.
func (h *AccountHandler) List(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", 0)

	var (
		accounts []models.Account
		err      error
	)
	if c.Query("all") == "true" {
		accounts, err = h.accounts.ListAll(c.Request.Context(), caller, skip, limit)
	} else {
		accounts, err = h.accounts.List(c.Request.Context(), caller, skip, limit)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

// ListAll handles GET /admin/accounts. The route sits behind the admin
// middleware; the service re-checks the caller's role.
func (h *AccountHandler) ListAll(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	accounts, err := h.accounts.ListAll(
		c.Request.Context(),
		caller,
		queryInt(c, "skip", 0),
		queryInt(c, "limit", 0),
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

// Update handles PUT /accounts/:id. Absent fields stay unchanged.
func (h *AccountHandler) Update(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accounts.Update(
		c.Request.Context(),
		caller,
		c.Param("id"),
		services.UpdateAccountInput{
			Balance:     req.Balance,
			Description: req.Description,
		},
	)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Delete handles DELETE /accounts/:id.
func (h *AccountHandler) Delete(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if err := h.accounts.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// queryInt parses an integer query parameter, falling back on absence
// or garbage.
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
