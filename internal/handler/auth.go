package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dernsupport/service-desk/internal/config"
	"github.com/dernsupport/service-desk/internal/model"
	"github.com/dernsupport/service-desk/internal/repository"
	"github.com/dernsupport/service-desk/internal/utils"
)

// AuthHandler bundles dependencies for auth and profile endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Notifier *Notifier
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, n *Notifier) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Notifier: n}
}

// ----- DTOs -----

type registerReq struct {
	Email         string  `json:"email"`
	Password      string  `json:"password"`
	UserType      string  `json:"userType"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	CompanyName   *string `json:"companyName"`
	INN           *string `json:"inn"`
	ContactPerson *string `json:"contactPerson"`
	Website       *string `json:"website"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Register creates a customer account and returns a token immediately.
// Self-registered accounts always get the user role; staff roles are
// granted later by a manager.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "password must be at least 6 characters"})
	}

	u := model.User{
		UserType:      req.UserType,
		Role:          model.RoleUser,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		CompanyName:   req.CompanyName,
		INN:           req.INN,
		ContactPerson: req.ContactPerson,
		Website:       req.Website,
		IsActive:      true,
	}
	if missing := u.ValidateProfile(); missing != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": missing + " is required"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "hash password failed"})
	}
	u.PasswordHash = hash

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, u)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
	}
	u.ID = uid

	h.Notifier.Emit(ctx, model.Notification{
		Type:         model.NotifyUserRegistration,
		Title:        "New customer registered",
		Message:      u.DisplayName() + " (" + u.Email + ") created an account",
		RelatedID:    uid,
		RelatedModel: model.RelatedUser,
		TargetRoles:  []string{model.RoleManager},
	})

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, u.Email, u.Role, u.UserType, h.Cfg.AccessTTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, authResp{Token: access.Token, User: u})
}

// Login verifies credentials and returns a fresh token.  Unknown email
// and wrong password are indistinguishable to the caller.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "email and password are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
	}

	_ = h.Users.TouchLastLogin(ctx, u.ID)

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, u.UserType, h.Cfg.AccessTTLHours)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue token failed"})
	}
	return c.JSON(http.StatusOK, authResp{Token: access.Token, User: u})
}

// GetProfile returns the caller's own account.
func (h *AuthHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}

type profileUpdateReq struct {
	Email         *string `json:"email"`
	Password      *string `json:"password"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	CompanyName   *string `json:"companyName"`
	INN           *string `json:"inn"`
	ContactPerson *string `json:"contactPerson"`
	Website       *string `json:"website"`
}

// UpdateProfile applies a partial edit to the caller's own account.
// Role and user type are not editable here.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
	}

	upd := repository.UserUpdate{
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		CompanyName:   req.CompanyName,
		INN:           req.INN,
		ContactPerson: req.ContactPerson,
		Website:       req.Website,
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "password must be at least 6 characters"})
		}
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "hash password failed"})
		}
		upd.PasswordHash = &hash
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Update(ctx, uid, upd); err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "update failed"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, u)
}
