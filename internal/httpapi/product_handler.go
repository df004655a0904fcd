package httpapi

import (
	"net/http"

	"storefront-be/internal/product"
	"storefront-be/internal/utils"

	"github.com/gorilla/mux"
)

type productHandler struct {
	svc product.Service
}

func (h *productHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.List(r.Context(), q.Get("keyword"), utils.ParsePage(q.Get("pageNumber")))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *productHandler) all(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.All(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *productHandler) top(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Top(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

func (h *productHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *productHandler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Create(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, p)
}

func (h *productHandler) update(w http.ResponseWriter, r *http.Request) {
	var params product.UpdateParams
	if err := utils.DecodeJSON(r, &params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	p, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *productHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Product removed")
}

func (h *productHandler) createReview(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var params product.ReviewParams
	if err := utils.DecodeJSON(r, &params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := h.svc.CreateReview(r.Context(), caller, mux.Vars(r)["id"], params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusCreated, "Review added")
}
