package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/inventory/internal/db"
	"github.com/Skotchmaster/inventory/internal/logging"
	"github.com/Skotchmaster/inventory/internal/middleware/auth"
	"github.com/Skotchmaster/inventory/internal/middleware/csrf"
	"github.com/Skotchmaster/inventory/internal/service"
)

type Deps struct {
	DB   *gorm.DB
	Auth *service.AuthService
	Inv  *service.InventoryService

	JWTSecret    []byte
	CookieSecure bool
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("ready_check_failed", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	registerAPI(e, &APIHTTP{Auth: d.Auth, Inv: d.Inv}, d.JWTSecret)
	registerPages(e, &PagesHTTP{Auth: d.Auth, Inv: d.Inv, CookieSecure: d.CookieSecure}, d.CookieSecure)
}

func registerAPI(e *echo.Echo, h *APIHTTP, secret []byte) {
	api := e.Group("/api")
	api.POST("/login", h.Login)
	api.POST("/cadastrarUsuario", h.Register)

	protected := api.Group("", auth.BearerGate(secret))

	protected.GET("/produtos", h.ListProducts)
	protected.GET("/produtos/busca", h.SearchProducts)
	protected.GET("/produtos/nome/:nome", h.GetProductByName)
	protected.GET("/produtos/:id", h.GetProduct)
	protected.POST("/produtos", h.CreateProduct)
	protected.PUT("/produtos/:id", h.UpdateProduct)
	protected.DELETE("/produtos/:id", h.DeleteProduct)

	protected.GET("/usuarios", h.ListUsers)
	protected.GET("/usuarios/:login", h.GetUser)
	protected.PUT("/usuarios/:login", h.UpdateUserRole)
}

func registerPages(e *echo.Echo, h *PagesHTTP, secure bool) {
	xsrf := csrf.Middleware(csrf.Config{Secure: secure})
	gate := auth.SessionGate(h.Auth)

	e.GET("/", h.LoginForm, xsrf)
	e.POST("/", h.Login, xsrf)
	e.GET("/cadastrarUsuario", h.RegisterForm, xsrf)
	e.POST("/cadastrarUsuario", h.Register, xsrf)
	e.GET("/logout", h.Logout)

	e.GET("/listarProdutos", h.ListProducts, xsrf, gate)
	e.GET("/detalhesProduto/:id", h.ProductDetails, xsrf, gate)
	e.GET("/adicionarProduto", h.AddProductForm, xsrf, gate)
	e.POST("/adicionarProduto", h.AddProduct, xsrf, gate)
	e.GET("/editarProduto/:id", h.EditProductForm, xsrf, gate)
	e.POST("/editarProduto/:id", h.EditProduct, xsrf, gate)
	e.GET("/excluirProduto/:id", h.DeleteProductForm, xsrf, gate)
	e.POST("/excluirProduto/:id", h.DeleteProduct, xsrf, gate)
	e.GET("/listarUsuarios", h.ListUsers, xsrf, gate)
	e.GET("/editar/:login", h.EditUserForm, xsrf, gate)
	e.POST("/editar/:login", h.EditUser, xsrf, gate)
	e.GET("/grafico", h.Chart, xsrf, gate)
}
