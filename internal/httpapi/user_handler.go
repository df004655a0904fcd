package httpapi

import (
	"net/http"

	"storefront-be/internal/user"
	"storefront-be/internal/utils"

	"github.com/gorilla/mux"
)

type userHandler struct {
	svc user.Service
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *userHandler) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	res, err := h.svc.Register(r.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, res)
}

func (h *userHandler) profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	u, err := h.svc.GetProfile(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *userHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var params user.UpdateProfileParams
	if err := utils.DecodeJSON(r, &params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	res, err := h.svc.UpdateProfile(r.Context(), caller, params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, users)
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	var params user.AdminUpdateParams
	if err := utils.DecodeJSON(r, &params); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	u, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], params)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, u)
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "User removed")
}
