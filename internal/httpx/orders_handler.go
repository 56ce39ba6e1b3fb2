package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-stockorders/internal/auth"
	"github.com/ariefcatur/go-stockorders/internal/orders"
	"github.com/ariefcatur/go-stockorders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, req orders.PlaceOrderRequest) (orders.Order, error)
	CancelOrder(ctx context.Context, id string) (orders.Order, error)
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]orders.Order, error)
}

type IdempotencyGuard interface {
	Begin(ctx context.Context, userID int64, key string) (string, error)
	Complete(ctx context.Context, userID int64, key, orderID string) error
	Abort(ctx context.Context, userID int64, key string) error
}

type OrdersHandler struct {
	Service OrderService
	Idem    IdempotencyGuard // nil disables Idempotency-Key support
	Log     zerolog.Logger
}

// Register mounts the order routes. Fulfilment has no route; it only arrives
// as a confirmation event through cmd/fulfillment.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/cancel", h.cancelOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.PlaceOrderRequest
	if err := decode(r, &req); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID <= 0 {
		writeMsg(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if p, ok := auth.FromContext(r.Context()); ok {
		req.UserID = p.UserID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	key := r.Header.Get("Idempotency-Key")
	useIdem := h.Idem != nil && key != ""
	if useIdem {
		existing, err := h.Idem.Begin(ctx, req.UserID, key)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			writeError(w, h.Log, err)
			return
		case err != nil:
			// Redis down: place the order without replay protection
			h.Log.Warn().Err(err).Msg("idempotency check failed")
			useIdem = false
		case existing != "":
			o, err := h.Service.GetOrder(ctx, existing)
			if err != nil {
				writeError(w, h.Log, err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	}

	o, err := h.Service.PlaceOrder(ctx, req)
	if err != nil {
		if useIdem {
			if aerr := h.Idem.Abort(context.WithoutCancel(ctx), req.UserID, key); aerr != nil {
				h.Log.Warn().Err(aerr).Msg("idempotency abort")
			}
		}
		writeError(w, h.Log, err)
		return
	}
	if useIdem {
		if cerr := h.Idem.Complete(context.WithoutCancel(ctx), req.UserID, key, o.ID); cerr != nil {
			h.Log.Warn().Err(cerr).Str("order_id", o.ID).Msg("idempotency complete")
		}
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	offset, limit := pagination(r)
	out, err := h.Service.ListOrders(ctx, offset, limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CancelOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
