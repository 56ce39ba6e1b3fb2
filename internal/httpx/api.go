package httpx

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type API struct {
	Orders   *OrdersHandler
	Products *ProductsHandler
	Auth     *AuthHandler
}

// Mount wires every route under /api/v1. Order and catalog write routes
// require a bearer token.
func (a API) Mount(r chi.Router, authn Authenticator) {
	r.Route("/api/v1", func(r chi.Router) {
		a.Auth.RegisterPublic(r)
		a.Products.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authn))
			a.Auth.RegisterPrivate(r)
			a.Products.RegisterAdmin(r)
			a.Orders.Register(r)
		})
	})
}

// NewHandler builds the full router.
func NewHandler(a API, authn Authenticator, log zerolog.Logger) *chi.Mux {
	r := NewRouter(log)
	a.Mount(r, authn)
	return r
}
