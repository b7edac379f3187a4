package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/inventory/internal/flash"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/middleware/auth"
	"github.com/Skotchmaster/inventory/internal/middleware/csrf"
	"github.com/Skotchmaster/inventory/internal/service"
)

// PagesHTTP is the server-rendered surface. Failures become a flash message
// and a redirect.
type PagesHTTP struct {
	Auth *service.AuthService
	Inv  *service.InventoryService

	CookieSecure bool
}

func (h *PagesHTTP) render(c echo.Context, code int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	login := auth.LoginFrom(c)
	data["Login"] = login
	token, _ := c.Get(csrf.ContextKey).(string)
	data["CSRF"] = token
	if _, ok := data["Role"]; !ok {
		role := ""
		if login != "" {
			role, _ = h.Inv.ActorRole(c.Request().Context(), login)
		}
		data["Role"] = role
	}
	data["Flashes"] = flash.Pop(c)
	return c.Render(code, name, data)
}

func redirectWith(c echo.Context, to, msg string) error {
	flash.Add(c, msg)
	return c.Redirect(http.StatusSeeOther, to)
}

// fail maps service errors the way every page does: unknown identity goes
// back to login, missing permission back to the product list.
func (h *PagesHTTP) fail(c echo.Context, l *slog.Logger, event string, err error, notFoundTo, notFoundMsg string) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		l.Warn(event, "status", 303, "reason", "user not found")
		return redirectWith(c, "/", msgUserNotFound)
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 303, "reason", "forbidden")
		return redirectWith(c, "/listarProdutos", msgForbidden)
	case errors.Is(err, service.ErrProductLimit):
		l.Warn(event, "status", 303, "reason", "product limit")
		return redirectWith(c, "/listarProdutos", msgProductLimit)
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 303, "reason", "not found")
		return redirectWith(c, notFoundTo, notFoundMsg)
	}
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}

func (h *PagesHTTP) LoginForm(c echo.Context) error {
	if auth.CurrentSession(c, h.Auth) != "" {
		return c.Redirect(http.StatusSeeOther, "/listarProdutos")
	}
	return h.render(c, http.StatusOK, "index", nil)
}

func (h *PagesHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	login := c.FormValue("login")
	l := logging.FromContext(ctx).With("handler", "pages.login", "login", login)

	if _, err := h.Auth.Authenticate(ctx, login, c.FormValue("senha")); err != nil {
		if !errors.Is(err, service.ErrUnauthenticated) {
			l.Error("login_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
		}
		l.Warn("login_failed", "status", 401, "reason", "bad credentials")
		flash.Add(c, msgBadCredentials+".")
		return h.render(c, http.StatusUnauthorized, "index", nil)
	}

	token, exp, err := h.Auth.StartSession(ctx, login)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot start session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}
	c.SetCookie(CreateCookie(auth.SessionCookie, token, "/", exp, h.CookieSecure))

	l.Info("login_success")
	return c.Redirect(http.StatusSeeOther, "/listarProdutos")
}

func (h *PagesHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.logout")

	if ck, err := c.Cookie(auth.SessionCookie); err == nil {
		if err := h.Auth.EndSession(ctx, ck.Value); err != nil {
			l.Error("logout_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
		}
	}
	c.SetCookie(DeleteCookie(auth.SessionCookie, "/", h.CookieSecure))
	return redirectWith(c, "/", msgLoggedOut)
}

func (h *PagesHTTP) RegisterForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "cadastrarUsuario", echo.Map{"AllowSuper": h.Auth.AllowSuperSignup})
}

func (h *PagesHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	login := c.FormValue("login")
	l := logging.FromContext(ctx).With("handler", "pages.register", "login", login)

	super := c.FormValue("super") != ""
	if _, err := h.Auth.Register(ctx, login, c.FormValue("senha"), super); err != nil {
		var msg string
		switch {
		case errors.Is(err, service.ErrConflict):
			msg = msgLoginTaken
		case errors.Is(err, service.ErrValidation):
			msg = msgIncompleteUser
		case errors.Is(err, service.ErrForbidden):
			msg = msgSuperDisabled
		default:
			l.Error("register_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
		}
		l.Warn("register_failed", "status", 400, "reason", msg)
		flash.Add(c, msg)
		return h.render(c, http.StatusBadRequest, "cadastrarUsuario", echo.Map{"AllowSuper": h.Auth.AllowSuperSignup})
	}

	return redirectWith(c, "/", msgSignedUp)
}

func (h *PagesHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.list_products", "actor", actor)

	role, err := h.Inv.ActorRole(ctx, actor)
	if err != nil {
		return h.fail(c, l, "list_products_failed", err, "/", msgUserNotFound)
	}

	q := c.QueryParam("q")
	prods, err := h.Inv.SearchProducts(ctx, q)
	if err != nil {
		return h.fail(c, l, "list_products_failed", err, "/", msgProductNotFound)
	}

	return h.render(c, http.StatusOK, "listarProdutos", echo.Map{
		"Produtos": prods,
		"Role":     role,
		"Query":    q,
	})
}

func (h *PagesHTTP) ProductDetails(c echo.Context) error {
	return h.showProduct(c, "detalhesProduto", false)
}

func (h *PagesHTTP) DeleteProductForm(c echo.Context) error {
	return h.showProduct(c, "detalhesProduto", true)
}

func (h *PagesHTTP) EditProductForm(c echo.Context) error {
	return h.showProduct(c, "editarProduto", false)
}

func (h *PagesHTTP) showProduct(c echo.Context, page string, confirmDelete bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages."+page)

	id, ok := parseID(c)
	if !ok {
		return h.fail(c, l, "show_product_failed", service.ErrNotFound, "/listarProdutos", msgProductNotFound+".")
	}
	prod, err := h.Inv.GetProduct(ctx, id)
	if err != nil {
		return h.fail(c, l, "show_product_failed", err, "/listarProdutos", msgProductNotFound+".")
	}

	return h.render(c, http.StatusOK, page, echo.Map{"Produto": prod, "ConfirmDelete": confirmDelete})
}

func (h *PagesHTTP) AddProductForm(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.add_product_form", "actor", actor)

	if err := h.Inv.CanAddProduct(ctx, actor); err != nil {
		return h.fail(c, l, "add_product_form_failed", err, "/listarProdutos", msgProductNotFound)
	}
	return h.render(c, http.StatusOK, "adicionarProduto", nil)
}

// parseProductForm reads nome, qtde and preco. Prices accept a decimal comma.
func parseProductForm(c echo.Context) (service.ProductInput, bool) {
	name := strings.TrimSpace(c.FormValue("nome"))
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qtde")))
	if err != nil || name == "" {
		return service.ProductInput{}, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(c.FormValue("preco")), ",", "."), 64)
	if err != nil {
		return service.ProductInput{}, false
	}
	return service.ProductInput{
		Name:     name,
		Owner:    strings.TrimSpace(c.FormValue("loginuser")),
		Quantity: qty,
		Price:    price,
	}, true
}

func (h *PagesHTTP) AddProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.add_product", "actor", actor)

	in, ok := parseProductForm(c)
	if !ok {
		l.Warn("add_product_failed", "status", 303, "reason", "incomplete form")
		return redirectWith(c, "/adicionarProduto", msgIncompleteProduct)
	}

	if _, err := h.Inv.CreateProduct(ctx, actor, in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("add_product_failed", "status", 303, "reason", "invalid form", "error", err)
			return redirectWith(c, "/adicionarProduto", msgInvalidData)
		}
		return h.fail(c, l, "add_product_failed", err, "/listarProdutos", msgProductNotFound)
	}
	return redirectWith(c, "/listarProdutos", msgProductAdded)
}

func (h *PagesHTTP) EditProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.edit_product", "actor", actor)

	id, ok := parseID(c)
	if !ok {
		return h.fail(c, l, "edit_product_failed", service.ErrNotFound, "/listarProdutos", msgProductNotFound+".")
	}
	in, ok := parseProductForm(c)
	if !ok {
		l.Warn("edit_product_failed", "status", 303, "reason", "incomplete form")
		return redirectWith(c, "/editarProduto/"+c.Param("id"), msgIncompleteProduct)
	}
	in.Owner = ""

	if _, err := h.Inv.UpdateProduct(ctx, actor, id, in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("edit_product_failed", "status", 303, "reason", "invalid form", "error", err)
			return redirectWith(c, "/editarProduto/"+c.Param("id"), msgInvalidData)
		}
		return h.fail(c, l, "edit_product_failed", err, "/listarProdutos", msgProductNotFound+".")
	}
	return redirectWith(c, "/listarProdutos", msgProductUpdated)
}

func (h *PagesHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.delete_product", "actor", actor)

	id, ok := parseID(c)
	if !ok {
		return h.fail(c, l, "delete_product_failed", service.ErrNotFound, "/listarProdutos", msgProductNotFound+".")
	}
	if err := h.Inv.DeleteProduct(ctx, actor, id); err != nil {
		return h.fail(c, l, "delete_product_failed", err, "/listarProdutos", msgProductNotFound+".")
	}
	return redirectWith(c, "/listarProdutos", msgProductDeleted)
}

func (h *PagesHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.list_users", "actor", actor)

	users, err := h.Inv.ListUsers(ctx, actor)
	if err != nil {
		return h.fail(c, l, "list_users_failed", err, "/", msgUserNotFound+".")
	}
	return h.render(c, http.StatusOK, "listarUsuarios", echo.Map{"Usuarios": users})
}

func (h *PagesHTTP) EditUserForm(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	l := logging.FromContext(ctx).With("handler", "pages.edit_user_form", "actor", actor)

	user, err := h.Inv.GetUser(ctx, actor, c.Param("login"))
	if err != nil {
		return h.fail(c, l, "edit_user_form_failed", err, "/listarUsuarios", msgUserNotFound+".")
	}
	return h.render(c, http.StatusOK, "editarUsuario", echo.Map{"Usuario": user})
}

func (h *PagesHTTP) EditUser(c echo.Context) error {
	ctx := c.Request().Context()
	actor := auth.LoginFrom(c)
	target := c.Param("login")
	l := logging.FromContext(ctx).With("handler", "pages.edit_user", "actor", actor, "login", target)

	if _, err := h.Inv.UpdateUserRole(ctx, actor, target, c.FormValue("tipo")); err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("edit_user_failed", "status", 303, "reason", "unknown role")
			return redirectWith(c, "/editar/"+target, msgInvalidRole)
		}
		return h.fail(c, l, "edit_user_failed", err, "/listarUsuarios", msgUserNotFound+".")
	}
	return redirectWith(c, "/listarUsuarios", msgUserUpdated)
}

func (h *PagesHTTP) Chart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "pages.chart")

	bars, err := h.Inv.QuantityChart(ctx)
	if err != nil {
		return h.fail(c, l, "chart_failed", err, "/listarProdutos", msgProductNotFound)
	}
	return h.render(c, http.StatusOK, "grafico", echo.Map{"Barras": bars})
}
