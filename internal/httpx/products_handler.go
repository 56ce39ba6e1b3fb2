package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-stockorders/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type CatalogService interface {
	Create(ctx context.Context, p catalog.NewProduct) (catalog.Product, error)
	Get(ctx context.Context, id int64) (catalog.Product, error)
	List(ctx context.Context, q catalog.ListQuery) ([]catalog.Product, error)
	Update(ctx context.Context, id int64, u catalog.ProductUpdate) (catalog.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductsHandler struct {
	Service CatalogService
	Log     zerolog.Logger
}

// RegisterPublic mounts the read-only catalog routes.
func (h *ProductsHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
}

func (h *ProductsHandler) RegisterAdmin(r chi.Router) {
	r.Post("/products", h.create)
	r.Patch("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	qs := r.URL.Query()
	q := catalog.ListQuery{Offset: offset, Limit: limit, Search: qs.Get("search"), SortBy: qs.Get("sort_by")}
	switch qs.Get("sort_order") {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		writeMsg(w, http.StatusBadRequest, "sort_order must be asc or desc")
		return
	}
	out, err := h.Service.List(r.Context(), q)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var np catalog.NewProduct
	if err := decode(r, &np); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Service.Create(r.Context(), np)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var u catalog.ProductUpdate
	if err := decode(r, &u); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.Service.Update(r.Context(), id, u)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeMsg(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
