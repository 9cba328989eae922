package payment

import (
	"fmt"
	"html/template"
	"net/http"

	apperrors "github.com/lekhsewa/payment-service/pkg/errors"
	"github.com/lekhsewa/payment-service/pkg/observability"
	"go.uber.org/zap"
)

// checkoutFieldOrder fixes the hidden-input order on the rendered form so
// the page is stable across requests
var checkoutFieldOrder = []string{
	"amount",
	"tax_amount",
	"product_service_charge",
	"product_delivery_charge",
	"total_amount",
	"transaction_uuid",
	"product_code",
	"success_url",
	"failure_url",
	"signed_field_names",
	"signature",
}

var checkoutPageTemplate = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>Redirecting to eSewa</title>
	<style>
		body {
			font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
			display: flex;
			align-items: center;
			justify-content: center;
			height: 100vh;
			margin: 0;
			background: #f5f5f5;
		}
		.container {
			text-align: center;
			padding: 2rem;
			background: white;
			border-radius: 8px;
			box-shadow: 0 2px 8px rgba(0,0,0,0.1);
		}
		.spinner {
			border: 4px solid #f3f3f3;
			border-top: 4px solid #60bb46;
			border-radius: 50%;
			width: 40px;
			height: 40px;
			animation: spin 1s linear infinite;
			margin: 0 auto 1rem;
		}
		@keyframes spin {
			0% { transform: rotate(0deg); }
			100% { transform: rotate(360deg); }
		}
	</style>
</head>
<body>
	<div class="container">
		<div class="spinner"></div>
		<h2>Redirecting to eSewa</h2>
		<p>Please wait while we take you to the payment page...</p>
		<form id="esewa-checkout" method="POST" action="{{.PostURL}}">
			{{- range .Fields}}
			<input type="hidden" name="{{.Name}}" value="{{.Value}}">
			{{- end}}
			<noscript><button type="submit">Continue to eSewa</button></noscript>
		</form>
	</div>
	<script>
		document.getElementById("esewa-checkout").submit();
	</script>
</body>
</html>`))

type checkoutField struct {
	Name  string
	Value string
}

type checkoutPageData struct {
	PostURL string
	Fields  []checkoutField
}

// HandleCheckoutPage serves GET /payment/checkout?amount=&product_id= as a
// server-rendered page that immediately posts the signed field set to eSewa.
// Browser-only fallback for clients that cannot build the form themselves.
func (h *Handler) HandleCheckoutPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.renderErrorPage(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	amount := query.Get("amount")
	productID := query.Get("product_id")
	if amount == "" || productID == "" {
		h.renderErrorPage(w, http.StatusBadRequest, "amount and product_id are required")
		return
	}

	form, err := h.service.InitiatePayment(r.Context(), amount, productID)
	if err != nil {
		if perr, ok := apperrors.AsPaymentError(err); ok && perr.Category == apperrors.CategoryInvalidRequest {
			observability.RecordInitiation(productID, "invalid_request")
			h.renderErrorPage(w, http.StatusBadRequest, perr.Message)
			return
		}
		h.logger.Error("checkout page initiation failed", zap.Error(err))
		observability.RecordInitiation(productID, "error")
		h.renderErrorPage(w, http.StatusInternalServerError, "Unable to start payment. Please try again.")
		return
	}

	data := checkoutPageData{PostURL: form.PostURL}
	for _, name := range checkoutFieldOrder {
		value, ok := form.Fields[name]
		if !ok || value == "" {
			h.logger.Error("checkout form missing required field", zap.String("field", name))
			observability.RecordInitiation(productID, "error")
			h.renderErrorPage(w, http.StatusInternalServerError, "Unable to start payment. Please try again.")
			return
		}
		data.Fields = append(data.Fields, checkoutField{Name: name, Value: value})
	}

	observability.RecordInitiation(productID, "initiated")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := checkoutPageTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render checkout page", zap.Error(err))
	}
}

// renderErrorPage renders an error page
func (h *Handler) renderErrorPage(w http.ResponseWriter, status int, message string) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<title>Payment Error</title>
	<style>
		body {
			font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
			display: flex;
			align-items: center;
			justify-content: center;
			height: 100vh;
			margin: 0;
			background: #f5f5f5;
		}
		.container {
			text-align: center;
			padding: 2rem;
			background: white;
			border-radius: 8px;
			box-shadow: 0 2px 8px rgba(0,0,0,0.1);
		}
		.error { color: #e74c3c; }
	</style>
</head>
<body>
	<div class="container">
		<h2 class="error">Payment Error</h2>
		<p>%s</p>
	</div>
</body>
</html>`, template.HTMLEscapeString(message))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(html))
}
