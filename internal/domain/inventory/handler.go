package inventory

import (
	"encoding/json"
	"net/http"
	"time"

	"vet-clinic/internal/domain/permissions"
	"vet-clinic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, require permissions.RequireFunc) {
	r.With(require(permissions.ResourceInventory, permissions.ActionCreate)).Post("/inventory", createHandler(svc))
	r.With(require(permissions.ResourceInventory, permissions.ActionRead)).Get("/inventory", listHandler(svc))
	r.With(require(permissions.ResourceInventory, permissions.ActionRead)).Get("/inventory/{itemID}", getHandler(svc))
	r.With(require(permissions.ResourceInventory, permissions.ActionUpdate)).Patch("/inventory/{itemID}", updateHandler(svc))
	r.With(require(permissions.ResourceInventory, permissions.ActionUpdate)).Post("/inventory/{itemID}/adjust", adjustHandler(svc))
	r.With(require(permissions.ResourceInventory, permissions.ActionDelete)).Delete("/inventory/{itemID}", deleteHandler(svc))
}

type itemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"minQuantity"`
	Price       float64   `json:"price"`
	Unit        string    `json:"unit"`
	Supplier    string    `json:"supplier"`
	Low         bool      `json:"low"`
	Out         bool      `json:"out"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type adjustRequest struct {
	Delta int `json:"delta"`
}

func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CreateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("inventory.create", "invalid json"))
			return
		}

		it, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toItemResponse(it))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), ListFilter{LowOnly: r.URL.Query().Get("low") == "true"})
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]itemResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toItemResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		it, err := svc.Get(r.Context(), chi.URLParam(r, "itemID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in UpdateInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, apperr.Validation("inventory.update", "invalid json"))
			return
		}

		it, err := svc.Update(r.Context(), chi.URLParam(r, "itemID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func adjustHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req adjustRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Validation("inventory.adjust", "invalid json"))
			return
		}

		it, err := svc.Adjust(r.Context(), chi.URLParam(r, "itemID"), req.Delta)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toItemResponse(it))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(r.Context(), chi.URLParam(r, "itemID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toItemResponse(it Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Category:    it.Category,
		Quantity:    it.Quantity,
		MinQuantity: it.MinQuantity,
		Price:       it.Price,
		Unit:        it.Unit,
		Supplier:    it.Supplier,
		Low:         IsLow(it),
		Out:         IsOut(it),
		CreatedAt:   it.CreatedAt,
		UpdatedAt:   it.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.HTTPStatus(err), apperr.Body(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
