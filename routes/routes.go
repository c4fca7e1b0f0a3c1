package routes

import (
	"fmt"
	"net/http"

	"babumoshai/cart"
	"babumoshai/idempotency"
	"babumoshai/middleware"
	"babumoshai/orderfeed"
	"babumoshai/orders"
	"babumoshai/products"
	"babumoshai/ratelim"
	"babumoshai/settings"
	"babumoshai/users"

	"github.com/julienschmidt/httprouter"
)

// Deps are the handlers and middleware the routes are built from.
type Deps struct {
	Auth        *middleware.Authenticator
	Limiter     *ratelim.RateLimiter
	Idempotency *idempotency.Middleware

	Users    *users.Handler
	Products *products.Handler
	Cart     *cart.Handler
	Orders   *orders.Handler
	Settings *settings.Handler
	Feed     *orderfeed.Handler
}

func Index(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddHealthRoutes(router *httprouter.Router) {
	router.GET("/health", Index)
}

func AddUserRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/users/login", d.Limiter.Limit(d.Users.Login))
	router.POST("/api/users", d.Limiter.Limit(d.Users.Register))
	router.GET("/api/users/profile", d.Auth.Authenticate(d.Users.GetProfile))
	router.GET("/api/users", d.Auth.Admin(d.Users.ListUsers))
	router.PUT("/api/users/:id", d.Auth.Admin(d.Users.UpdateUser))
	router.DELETE("/api/users/:id", d.Auth.Admin(d.Users.DeleteUser))
}

func AddProductRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/products", d.Products.GetProducts)
	router.GET("/api/products/:id", d.Products.GetProduct)
	router.POST("/api/products", d.Auth.Admin(d.Products.CreateProduct))
	router.PUT("/api/products/:id", d.Auth.Admin(d.Products.UpdateProduct))
	router.DELETE("/api/products/:id", d.Auth.Admin(d.Products.DeleteProduct))
}

func AddCartRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/cart", d.Auth.Authenticate(d.Cart.GetCart))
	router.POST("/api/cart", d.Auth.Authenticate(d.Cart.AddToCart))
	router.DELETE("/api/cart", d.Auth.Authenticate(d.Cart.ClearCart))
	router.PUT("/api/cart/items/:productId", d.Auth.Authenticate(d.Cart.UpdateQuantity))
	router.DELETE("/api/cart/items/:productId", d.Auth.Authenticate(d.Cart.RemoveFromCart))
	router.PUT("/api/cart/shipping", d.Auth.Authenticate(d.Cart.SaveShippingAddress))
	router.PUT("/api/cart/payment", d.Auth.Authenticate(d.Cart.SavePaymentMethod))
	router.GET("/api/cart/summary", d.Auth.Authenticate(d.Cart.Summary))
}

// orderByID routes GET /api/orders/:id. httprouter cannot register the static
// /api/orders/myorders and /api/orders/feed next to the :id wildcard, so they are
// dispatched here.
func orderByID(get, mine, feed httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("id") {
		case "myorders":
			mine(w, r, ps)
		case "feed":
			feed(w, r, ps)
		default:
			get(w, r, ps)
		}
	}
}

func AddOrderRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/orders", middleware.Chain(d.Orders.PlaceOrder, d.Auth.Authenticate, d.Idempotency.Wrap))
	router.GET("/api/orders", d.Auth.Admin(d.Orders.ListOrders))
	router.GET("/api/orders/:id", orderByID(
		d.Auth.Authenticate(d.Orders.GetOrder),
		d.Auth.Authenticate(d.Orders.MyOrders),
		d.Auth.Admin(d.Feed.Serve),
	))
	router.GET("/api/orders/:id/invoice", d.Auth.Authenticate(d.Orders.Invoice))
	router.PUT("/api/orders/:id/deliver", d.Auth.Admin(d.Orders.MarkDelivered))
	router.PUT("/api/orders/:id/pay", d.Auth.Admin(d.Orders.MarkPaid))
}

func AddSettingsRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/settings", d.Settings.GetSettings)
	router.POST("/api/settings", d.Auth.Admin(d.Settings.UpdateSettings))
}

// RoutesWrapper registers every API route on router.
func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddHealthRoutes(router)
	AddUserRoutes(router, d)
	AddProductRoutes(router, d)
	AddCartRoutes(router, d)
	AddOrderRoutes(router, d)
	AddSettingsRoutes(router, d)
}
