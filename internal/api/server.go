package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crypto-tracker/internal/db"
	"crypto-tracker/internal/market"
	"crypto-tracker/internal/providers"
)

type Server struct {
	Market Market
	DB     Store
}

type Market interface {
	ListAssets(ctx context.Context, page, perPage int) (market.AssetPage, error)
	GetAssetDetail(ctx context.Context, id string) (market.AssetDetail, error)
	GetAssetHistory(ctx context.Context, id string) ([]market.PricePoint, error)
	HistoryDays() int
}

type Store interface {
	ListFavorites(ctx context.Context) ([]db.Favorite, error)
	AddFavorite(ctx context.Context, assetID string) (bool, error)
	RemoveFavorite(ctx context.Context, assetID string) error
}

func NewServer(marketSvc Market, store Store) *Server {
	return &Server{Market: marketSvc, DB: store}
}

func (s *Server) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/assets", s.handleListAssets)
		r.Get("/assets/{assetID}", s.handleGetAsset)
		r.Get("/assets/{assetID}/history", s.handleGetAssetHistory)
		r.Get("/favorites", s.handleListFavorites)
		r.Post("/favorites", s.handleAddFavorite)
		r.Delete("/favorites/{assetID}", s.handleRemoveFavorite)
	})
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiError{Error: message})
}

func decodeJSONBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

// writeFetchError maps market-layer failures onto the wire: the provider's
// rate-limit signal stays distinguishable as 429, everything else collapses
// to 502.
func writeFetchError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, providers.ErrRateLimited) {
		writeError(w, http.StatusTooManyRequests, "rate limited by market-data provider")
		return
	}
	writeError(w, http.StatusBadGateway, message)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	page := market.ParsePage(r.URL.Query().Get("page"))
	perPage := market.ParsePerPage(r.URL.Query().Get("per_page"))

	assetPage, err := s.Market.ListAssets(r.Context(), page, perPage)
	if err != nil {
		writeFetchError(w, err, "failed to fetch assets")
		return
	}

	writeJSON(w, http.StatusOK, assetPage)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimSpace(chi.URLParam(r, "assetID"))
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	detail, err := s.Market.GetAssetDetail(r.Context(), assetID)
	if err != nil {
		writeFetchError(w, err, "failed to fetch asset detail")
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

type historyResponse struct {
	AssetID string              `json:"asset_id"`
	Days    int                 `json:"days"`
	Points  []market.PricePoint `json:"points"`
}

func (s *Server) handleGetAssetHistory(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimSpace(chi.URLParam(r, "assetID"))
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	points, err := s.Market.GetAssetHistory(r.Context(), assetID)
	if err != nil {
		writeFetchError(w, err, "failed to fetch asset history")
		return
	}
	if points == nil {
		points = []market.PricePoint{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		AssetID: assetID,
		Days:    s.Market.HistoryDays(),
		Points:  points,
	})
}

type favoriteResponse struct {
	ID        int64  `json:"id"`
	AssetID   string `json:"asset_id"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.DB.ListFavorites(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	response := make([]favoriteResponse, 0, len(favorites))
	for _, favorite := range favorites {
		response = append(response, favoriteResponse{
			ID:        favorite.ID,
			AssetID:   favorite.AssetID,
			CreatedAt: favorite.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

type addFavoriteRequest struct {
	AssetID string `json:"asset_id"`
}

type addFavoriteResponse struct {
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assetID := strings.TrimSpace(req.AssetID)
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}

	created, err := s.DB.AddFavorite(r.Context(), assetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, addFavoriteResponse{AssetID: assetID, Status: "already_exists"})
		return
	}
	writeJSON(w, http.StatusCreated, addFavoriteResponse{AssetID: assetID, Status: "created"})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	assetID := strings.TrimSpace(chi.URLParam(r, "assetID"))
	if assetID == "" {
		writeError(w, http.StatusBadRequest, "asset id is required")
		return
	}

	if err := s.DB.RemoveFavorite(r.Context(), assetID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
