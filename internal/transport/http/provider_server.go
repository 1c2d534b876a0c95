package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ham-practice/internal/app"
	"ham-practice/internal/domain"
)

// ProviderHandler serves the bank provider API read by remote practice clients.
type ProviderHandler struct {
	banks app.BankRepository
}

func NewProviderHandler(banks app.BankRepository) *ProviderHandler {
	return &ProviderHandler{banks: banks}
}

// Routes returns a router exposing GET /banks and GET /banks/{bankID}.
func (h *ProviderHandler) Routes(allowedOrigins []string) chi.Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Get("/banks", h.listBanks)
	r.Get("/banks/{bankID}", h.getBank)
	return r
}

func (h *ProviderHandler) listBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.banks.ListBanks(r.Context())
	if err != nil {
		log.Printf("list banks failed: %v", err)
		writeErr(w, statusFor(err), "bank list unavailable")
		return
	}
	if banks == nil {
		banks = []domain.BankSummary{}
	}
	writeJSON(w, http.StatusOK, banks)
}

func (h *ProviderHandler) getBank(w http.ResponseWriter, r *http.Request) {
	bankID := chi.URLParam(r, "bankID")
	bank, err := h.banks.GetBank(r.Context(), bankID)
	if err != nil {
		if errors.Is(err, domain.ErrBankNotFound) {
			writeErr(w, http.StatusNotFound, "bank not found")
			return
		}
		log.Printf("bank %s fetch failed: %v", bankID, err)
		writeErr(w, statusFor(err), "bank unavailable")
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// statusFor maps a fetch failure onto the response status: upstream statuses pass
// through, unknown failures become 502.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrBankNotFound) {
		return http.StatusNotFound
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) && fe.Status >= 400 {
		return fe.Status
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errResp struct {
	Error string `json:"error"`
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errResp{Error: msg})
}
