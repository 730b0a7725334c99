package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/theatre-reservation/internal/model"
    "github.com/iliyamo/theatre-reservation/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth *service.AuthService
    Log  logrus.FieldLogger
}

func NewAuthHandler(auth *service.AuthService, log logrus.FieldLogger) *AuthHandler {
    return &AuthHandler{Auth: auth, Log: log}
}

// ----- DTOs -----

type credentialsReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID        uint64    `json:"id"`
    Email     string    `json:"email"`
    Role      string    `json:"role"`
    CreatedAt time.Time `json:"created_at"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u *model.User) userPart {
    return userPart{ID: u.ID, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func toAuthResp(u *model.User, p service.TokenPair) authResp {
    return authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: p.Access.Token, Expires: p.Access.Exp},
        Refresh: tokenPart{Token: p.Refresh.Raw, Expires: p.Refresh.Exp}, // raw back to client
    }
}

// Register: create a customer and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, pair, err := h.Auth.Register(ctx, req.Email, req.Password)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, toAuthResp(u, pair))
}

// Login: verify credentials through the throttle and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req credentialsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, pair, err := h.Auth.Login(ctx, req.Email, req.Password)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(u, pair))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, pair, err := h.Auth.Refresh(ctx, req.RefreshToken)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toAuthResp(u, pair))
}

// Logout revokes the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "", "invalid body")
    }
    if err := h.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
        return respondError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    u, err := h.Auth.Me(c.Request().Context(), uid)
    if err != nil {
        return respondError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
