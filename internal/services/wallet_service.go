package services

import (
	"bytes"
	"image/png"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/skip2/go-qrcode"
)

// WalletService exposes the configured payment methods and their
// display wallet addresses. The crypto flow only shows a static
// address; no on-chain verification happens anywhere.
type WalletService struct {
	config *config.DonationConfig
}

type PaymentMethod struct {
	Name          string `json:"name"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

func NewWalletService(cfg *config.DonationConfig) *WalletService {
	return &WalletService{config: cfg}
}

// GetPaymentMethods lists supported methods with wallet addresses
// @Summary List payment methods
// @Tags payments
// @Produce json
// @Success 200 {object} object{success=bool,methods=[]PaymentMethod}
// @Router /payment-methods [get]
func (s *WalletService) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods := make([]PaymentMethod, 0, len(s.config.SupportedMethods))
	for _, m := range s.config.SupportedMethods {
		methods = append(methods, PaymentMethod{
			Name:          m,
			WalletAddress: s.config.WalletAddress(m),
		})
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	SendJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"methods": methods,
	})
}

// GetWalletQR renders the wallet address for a method as a QR PNG
// @Summary Wallet address QR code
// @Tags payments
// @Produce png
// @Param method path string true "Payment method"
// @Success 200 {file} png
// @Failure 404 {object} ErrorResponse
// @Router /payment-methods/{method}/qr [get]
func (s *WalletService) GetWalletQR(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	address := s.config.WalletAddress(method)
	if address == "" {
		SendErrorResponse(w, "No wallet address for this payment method", http.StatusNotFound, nil)
		return
	}

	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		log.Printf("[WALLET] Failed to build QR for %s: %v", method, err)
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		log.Printf("[WALLET] Failed to encode QR for %s: %v", method, err)
		SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(buf.Bytes())
}
