package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/middleware/auth"
	"github.com/Skotchmaster/inventory/internal/service"
	"github.com/Skotchmaster/inventory/internal/transport"
)

// APIHTTP is the JSON surface. Every route except login and sign-up sits
// behind the bearer gate.
type APIHTTP struct {
	Auth *service.AuthService
	Inv  *service.InventoryService
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, transport.ErrorResponse{Erro: msg})
}

func messageResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, transport.MessageResponse{Mensagem: msg})
}

// fail maps a service error to its status and envelope. notFound is the
// message used for ErrNotFound.
func fail(c echo.Context, l *slog.Logger, event string, err error, notFound string) error {
	var code int
	var msg string
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		code, msg = http.StatusUnauthorized, auth.MsgInvalidToken
	case errors.Is(err, service.ErrForbidden):
		code, msg = http.StatusForbidden, msgForbidden
	case errors.Is(err, service.ErrProductLimit):
		code, msg = http.StatusForbidden, msgProductLimit
	case errors.Is(err, service.ErrNotFound):
		code, msg = http.StatusNotFound, notFound
	case errors.Is(err, service.ErrConflict):
		code, msg = http.StatusBadRequest, msgLoginTaken
	case errors.Is(err, service.ErrValidation):
		code, msg = http.StatusBadRequest, msgInvalidData
	default:
		l.Error(event, "status", 500, "error", err)
		return errorResponse(c, http.StatusInternalServerError, msgInternal)
	}
	l.Warn(event, "status", code, "reason", msg, "error", err)
	return errorResponse(c, code, msg)
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *APIHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}

	res, err := h.Auth.Login(ctx, req.Login, req.Senha)
	if err != nil {
		if errors.Is(err, service.ErrUnauthenticated) {
			l.Warn("login_failed", "status", 401, "reason", "bad credentials", "login", req.Login)
			return errorResponse(c, http.StatusUnauthorized, msgBadCredentials)
		}
		return fail(c, l, "login_failed", err, msgUserNotFound)
	}

	l.Info("login_success", "login", req.Login)
	return c.JSON(http.StatusOK, transport.TokenResponse{AccessToken: res.AccessToken})
}

func (h *APIHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}

	if _, err := h.Auth.Register(ctx, req.Login, req.Senha, req.Super); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			l.Warn("register_failed", "status", 400, "reason", "incomplete body")
			return errorResponse(c, http.StatusBadRequest, msgIncompleteUser)
		case errors.Is(err, service.ErrForbidden):
			l.Warn("register_failed", "status", 403, "reason", "super sign-up disabled")
			return errorResponse(c, http.StatusForbidden, msgSuperDisabled)
		}
		return fail(c, l, "register_failed", err, msgUserNotFound)
	}

	return messageResponse(c, http.StatusCreated, msgUserCreated)
}

func (h *APIHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.list_products")

	prods, err := h.Inv.ListProducts(ctx)
	if err != nil {
		return fail(c, l, "list_products_failed", err, msgProductNotFound)
	}
	return c.JSON(http.StatusOK, prods)
}

func (h *APIHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.search_products")

	prods, err := h.Inv.SearchProducts(ctx, c.QueryParam("q"))
	if err != nil {
		return fail(c, l, "search_products_failed", err, msgProductNotFound)
	}
	return c.JSON(http.StatusOK, prods)
}

func (h *APIHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.get_product")

	id, ok := parseID(c)
	if !ok {
		l.Warn("get_product_failed", "status", 404, "reason", "id is not a positive integer", "id", c.Param("id"))
		return errorResponse(c, http.StatusNotFound, msgProductNotFound)
	}

	prod, err := h.Inv.GetProduct(ctx, id)
	if err != nil {
		return fail(c, l, "get_product_failed", err, msgProductNotFound)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *APIHTTP) GetProductByName(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "api.get_product_by_name")

	name := c.Param("nome")
	if c.Request().URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	prod, err := h.Inv.GetProductByName(ctx, name)
	if err != nil {
		return fail(c, l, "get_product_failed", err, msgProductNotFound)
	}
	return c.JSON(http.StatusOK, prod)
}

func (h *APIHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.create_product", "actor", actor)

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}
	if !req.Complete() {
		l.Warn("create_product_failed", "status", 400, "reason", "incomplete body")
		return errorResponse(c, http.StatusBadRequest, msgIncompleteProduct)
	}

	prod, err := h.Inv.CreateProduct(ctx, actor, service.ProductInput{
		Name:     *req.Nome,
		Owner:    req.Loginuser,
		Quantity: *req.Qtde,
		Price:    *req.Preco,
	})
	if err != nil {
		return fail(c, l, "create_product_failed", err, msgProductNotFound)
	}

	return c.JSON(http.StatusCreated, transport.ProductCreatedResponse{Mensagem: msgProductCreated, ID: prod.ID})
}

func (h *APIHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.update_product", "actor", actor)

	id, ok := parseID(c)
	if !ok {
		l.Warn("update_product_failed", "status", 404, "reason", "id is not a positive integer", "id", c.Param("id"))
		return errorResponse(c, http.StatusNotFound, msgProductNotFound)
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_product_failed", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}
	if !req.Complete() {
		l.Warn("update_product_failed", "status", 400, "reason", "incomplete body")
		return errorResponse(c, http.StatusBadRequest, msgIncompleteProduct)
	}

	_, err := h.Inv.UpdateProduct(ctx, actor, id, service.ProductInput{
		Name:     *req.Nome,
		Quantity: *req.Qtde,
		Price:    *req.Preco,
	})
	if err != nil {
		return fail(c, l, "update_product_failed", err, msgProductNotFound)
	}
	return messageResponse(c, http.StatusOK, msgProductUpdated)
}

func (h *APIHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.delete_product", "actor", actor)

	id, ok := parseID(c)
	if !ok {
		l.Warn("delete_product_failed", "status", 404, "reason", "id is not a positive integer", "id", c.Param("id"))
		return errorResponse(c, http.StatusNotFound, msgProductNotFound)
	}

	if err := h.Inv.DeleteProduct(ctx, actor, id); err != nil {
		return fail(c, l, "delete_product_failed", err, msgProductNotFound)
	}
	return messageResponse(c, http.StatusOK, msgProductDeleted)
}

func (h *APIHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.list_users", "actor", actor)

	users, err := h.Inv.ListUsers(ctx, actor)
	if err != nil {
		return fail(c, l, "list_users_failed", err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *APIHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.get_user", "actor", actor)

	user, err := h.Inv.GetUser(ctx, actor, c.Param("login"))
	if err != nil {
		return fail(c, l, "get_user_failed", err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *APIHTTP) UpdateUserRole(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "api.update_user_role", "actor", actor)

	var req transport.RoleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_role_failed", "status", 400, "reason", "invalid body", "error", err)
		return errorResponse(c, http.StatusBadRequest, msgInvalidBody)
	}

	_, err := h.Inv.UpdateUserRole(ctx, actor, c.Param("login"), req.Tipouser)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("update_user_role_failed", "status", 400, "reason", "unknown role", "role", req.Tipouser)
			return errorResponse(c, http.StatusBadRequest, msgInvalidRole)
		}
		return fail(c, l, "update_user_role_failed", err, msgUserNotFound)
	}
	return messageResponse(c, http.StatusOK, msgUserUpdated)
}
