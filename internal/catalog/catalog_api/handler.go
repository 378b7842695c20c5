package catalog_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-catalog/internal/catalog"
	"ms-catalog/internal/catalog/label"
	"ms-catalog/internal/models"
	"ms-catalog/internal/utils"
)

// MaxImportBytes caps the CSV upload size at 5MB.
const MaxImportBytes = 5 << 20

type Handler struct {
	Service *catalog.Service
	Labels  *label.Generator
}

func NewHandler(service *catalog.Service, labels *label.Generator) *Handler {
	return &Handler{Service: service, Labels: labels}
}

// Routes builds the catalog router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/auctions", func(r chi.Router) {
		r.Post("/", h.CreateAuction)
		r.Get("/", h.ListAuctions)
		r.Get("/slug/{slug}", h.GetAuctionBySlug)
		r.Route("/{auctionID}", func(r chi.Router) {
			r.Get("/", h.GetAuction)
			r.Put("/", h.UpdateAuction)
			r.Delete("/", h.DeleteAuction)
			r.Post("/lots", h.CreateLot)
			r.Get("/lots", h.ListLots)
		})
	})
	r.Route("/lots", func(r chi.Router) {
		r.Post("/reorder", h.ReorderLots)
		r.Post("/bulk", h.BulkAction)
		r.Post("/import", h.ImportLots)
		r.Get("/export", h.ExportLots)
		r.Route("/{lotID}", func(r chi.Router) {
			r.Get("/", h.GetLot)
			r.Put("/", h.UpdateLot)
			r.Delete("/", h.DeleteLot)
			r.Get("/label", h.LotLabel)
		})
	})
	r.Get("/events/{entityType}/{entityID}", h.ListEvents)
	return r
}

// writeError maps engine error kinds onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *catalog.ValidationError
	var notFoundErr *catalog.NotFoundError
	var conflictErr *catalog.ConflictError
	var partialErr *catalog.PartialBatchError

	switch {
	case errors.As(err, &validationErr):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("validation failed", err.Error()))
	case errors.As(err, &notFoundErr):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("not found", err.Error()))
	case errors.As(err, &conflictErr):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("conflict", err.Error()))
	case errors.As(err, &partialErr):
		resp := utils.ErrorResponse("batch partially applied", err.Error())
		resp.Data = partialErr
		utils.WriteJSON(w, http.StatusInternalServerError, resp)
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("internal error", err.Error()))
	}
}

// --- Auctions ---

func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		models.Auction
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	auction, err := h.Service.CreateAuction(body.Auction, body.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("auction created", auction))
}

func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	auctions, err := h.Service.ListAuctions()
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("auctions", auctions))
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auction, err := h.Service.GetAuction(chi.URLParam(r, "auctionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("auction", auction))
}

func (h *Handler) GetAuctionBySlug(w http.ResponseWriter, r *http.Request) {
	auction, err := h.Service.GetAuctionBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("auction", auction))
}

func (h *Handler) UpdateAuction(w http.ResponseWriter, r *http.Request) {
	var upd catalog.AuctionUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	auction, err := h.Service.UpdateAuction(chi.URLParam(r, "auctionID"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("auction updated", auction))
}

func (h *Handler) DeleteAuction(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAuction(chi.URLParam(r, "auctionID"), r.URL.Query().Get("userId")); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("auction deleted", nil))
}

// --- Lots ---

func (h *Handler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var lot models.Lot
	if err := json.NewDecoder(r.Body).Decode(&lot); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	created, err := h.Service.CreateLot(chi.URLParam(r, "auctionID"), lot)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("lot created", created))
}

func (h *Handler) ListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Service.ListLots(chi.URLParam(r, "auctionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("lots", lots))
}

func (h *Handler) GetLot(w http.ResponseWriter, r *http.Request) {
	lot, err := h.Service.GetLot(chi.URLParam(r, "lotID"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("lot", lot))
}

func (h *Handler) UpdateLot(w http.ResponseWriter, r *http.Request) {
	var upd catalog.LotUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	lot, err := h.Service.UpdateLot(chi.URLParam(r, "lotID"), upd)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("lot updated", lot))
}

func (h *Handler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteLot(chi.URLParam(r, "lotID"), r.URL.Query().Get("userId")); err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("lot deleted", nil))
}

func (h *Handler) ReorderLots(w http.ResponseWriter, r *http.Request) {
	var req catalog.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	applied, err := h.Service.Reorder(req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("lots reordered", map[string]int{"updated": applied}))
}

func (h *Handler) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req catalog.BulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	result, err := h.Service.ApplyBulkAction(req)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bulk action applied", result))
}

// ImportLots accepts a multipart CSV upload ("file" field) plus auctionId
// and dryRun form values. Dry run is the default; it is disabled only by an
// explicit dryRun=false.
func (h *Handler) ImportLots(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
	if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid upload", err.Error()))
		return
	}
	auctionID := r.FormValue("auctionId")
	if auctionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("validation failed", "auctionId is required"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("validation failed", "file is required"))
		return
	}
	defer file.Close()

	result, err := h.Service.ImportLotsCSV(file, catalog.ImportOptions{
		AuctionID: auctionID,
		DryRun:    r.FormValue("dryRun") != "false",
		UserID:    r.FormValue("userId"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("import processed", result))
}

func (h *Handler) ExportLots(w http.ResponseWriter, r *http.Request) {
	auctionID := r.URL.Query().Get("auctionId")
	if auctionID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("validation failed", "auctionId is required"))
		return
	}
	lots, err := h.Service.ListLots(auctionID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="auction-%s-lots.csv"`, auctionID))
	w.WriteHeader(http.StatusOK)
	w.Write(catalog.ExportLotsCSV(lots))
}

func (h *Handler) LotLabel(w http.ResponseWriter, r *http.Request) {
	lot, err := h.Service.GetLot(chi.URLParam(r, "lotID"))
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := h.Labels.LotLabelPNG(lot)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ListEvents(chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", entries))
}
