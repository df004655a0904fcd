package httpapi

import (
	"net/http"

	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/utils"

	"github.com/gorilla/mux"
)

type orderHandler struct {
	svc order.Service
}

func (h *orderHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var params order.CreateParams
	if err := utils.DecodeJSON(r, &params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	o, err := h.svc.Create(r.Context(), caller, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

func (h *orderHandler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	v, err := h.svc.GetByID(r.Context(), caller, mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}

func (h *orderHandler) listMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	orders, err := h.svc.ListMine(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *orderHandler) listAll(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAll(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, views)
}

func (h *orderHandler) pay(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var receipt payment.Receipt
	if err := utils.DecodeJSON(r, &receipt); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	o, err := h.svc.Pay(r.Context(), caller, mux.Vars(r)["id"], receipt)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *orderHandler) deliver(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Deliver(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}
