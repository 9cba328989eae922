package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/lekhsewa/payment-service/internal/adapters/ports"
	"github.com/lekhsewa/payment-service/internal/domain"
	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/lekhsewa/payment-service/pkg/observability"
	"go.uber.org/zap"
)

// PaymentService defines the operations the HTTP layer needs
type PaymentService interface {
	InitiatePayment(ctx context.Context, amount, productID string) (*ports.CheckoutForm, error)
	VerifyPayment(ctx context.Context, encodedReceipt, userID string) (*domain.VerificationResult, error)
}

// Handler serves the payment protocol endpoints consumed by the frontend
type Handler struct {
	service PaymentService
	logger  *zap.Logger
}

// NewHandler creates a new payment handler
func NewHandler(service PaymentService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// initiateRequest mirrors the frontend's JSON body. json.Number keeps "200"
// and 200 identical on the wire.
type initiateRequest struct {
	Amount    json.Number `json:"amount"`
	ProductID string      `json:"productId"`
}

// initiateResponse is the ready-to-post checkout field set
type initiateResponse struct {
	FormURL string            `json:"form_url"`
	Fields  map[string]string `json:"fields"`
}

// errorResponse is the uniform error body for payment endpoints
type errorResponse struct {
	Error string `json:"error"`
}

// HandleInitiate processes POST /payment/initiate
func (h *Handler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req initiateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body"})
		return
	}

	if req.Amount.String() == "" || req.ProductID == "" {
		observability.RecordInitiation(req.ProductID, "invalid_request")
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount and productId are required"})
		return
	}

	form, err := h.service.InitiatePayment(r.Context(), req.Amount.String(), req.ProductID)
	if err != nil {
		h.writeInitiateError(w, req.ProductID, err)
		return
	}

	observability.RecordInitiation(req.ProductID, "initiated")
	h.writeJSON(w, http.StatusOK, initiateResponse{
		FormURL: form.PostURL,
		Fields:  form.Fields,
	})
}

func (h *Handler) writeInitiateError(w http.ResponseWriter, productID string, err error) {
	if perr, ok := apperrors.AsPaymentError(err); ok {
		switch perr.Category {
		case apperrors.CategoryInvalidRequest:
			observability.RecordInitiation(productID, "invalid_request")
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Message})
			return
		case apperrors.CategoryConfiguration:
			// Misconfiguration is a server fault. The response must not leak
			// which secret is missing, let alone its value.
			h.logger.Error("payment initiation misconfigured", zap.Error(err))
			observability.RecordInitiation(productID, "error")
			h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "server misconfigured"})
			return
		}
	}

	h.logger.Error("payment initiation failed", zap.Error(err))
	observability.RecordInitiation(productID, "error")
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error initiating payment"})
}

// verifyResponse is the definitive verification outcome for the client.
// verified is always present; the rest only when known.
type verifyResponse struct {
	Verified        bool   `json:"verified"`
	Status          string `json:"status,omitempty"`
	TransactionUUID string `json:"transaction_uuid,omitempty"`
	TotalAmount     string `json:"total_amount,omitempty"`
	RefID           string `json:"ref_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// HandleVerify processes GET /payment/verify?data=<base64>&sub=<user>
// invoked when the gateway redirects the user back after checkout
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	query := r.URL.Query()
	data := query.Get("data")
	if data == "" {
		observability.RecordVerification(string(apperrors.CategoryDecode))
		h.writeJSON(w, http.StatusBadRequest, verifyResponse{
			Verified: false,
			Error:    "missing data parameter from gateway redirect",
		})
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), data, query.Get("sub"))
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}

	if result.Verified {
		observability.RecordVerification("verified")
	} else {
		observability.RecordVerification("not_verified")
	}

	h.writeJSON(w, http.StatusOK, verifyResponse{
		Verified:        result.Verified,
		Status:          result.Status,
		TransactionUUID: result.TransactionUUID,
		TotalAmount:     result.TotalAmount,
		RefID:           result.RefID,
	})
}

func (h *Handler) writeVerifyError(w http.ResponseWriter, err error) {
	if perr, ok := apperrors.AsPaymentError(err); ok {
		observability.RecordVerification(string(perr.Category))
		if perr.IsReceiptFailure() {
			// Expected adversarial or garbage input: a negative answer, not a
			// server fault. Details are logged by the adapter, not echoed.
			observability.RecordReceiptFailure(string(perr.Category))
			h.writeJSON(w, http.StatusBadRequest, verifyResponse{
				Verified: false,
				Error:    perr.Message,
			})
			return
		}
		if perr.Category == apperrors.CategoryConfiguration {
			h.logger.Error("payment verification misconfigured", zap.Error(err))
			h.writeJSON(w, http.StatusInternalServerError, verifyResponse{
				Verified: false,
				Error:    "server misconfigured",
			})
			return
		}
	}

	h.logger.Error("payment verification failed", zap.Error(err))
	observability.RecordVerification("error")
	h.writeJSON(w, http.StatusInternalServerError, verifyResponse{
		Verified: false,
		Error:    "verification error",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
