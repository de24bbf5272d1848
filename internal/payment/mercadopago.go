package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const defaultMercadoPagoURL = "https://api.mercadopago.com"

type MercadoPago struct {
	BaseURL string
	HTTP    *http.Client
}

func NewMercadoPago() *MercadoPago {
	return &MercadoPago{
		BaseURL: defaultMercadoPagoURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type mpItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPreferenceBody struct {
	Items   []mpItem `json:"items"`
	Payer   struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"payer"`
	BackURLs struct {
		Success string `json:"success"`
		Failure string `json:"failure"`
		Pending string `json:"pending"`
	} `json:"back_urls"`
	AutoReturn        string `json:"auto_return"`
	ExternalReference string `json:"external_reference"`
}

func (m *MercadoPago) CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (*Preference, error) {
	body := mpPreferenceBody{
		Items: []mpItem{{
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  req.Amount,
			CurrencyID: "BRL",
		}},
		AutoReturn:        "approved",
		ExternalReference: strconv.FormatUint(uint64(req.OrderID), 10),
	}
	body.Payer.Email = req.PayerEmail
	body.Payer.Name = req.PayerName
	body.BackURLs.Success = req.SuccessURL
	body.BackURLs.Failure = req.FailureURL
	body.BackURLs.Pending = req.PendingURL

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal preference: %v", ErrExternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/checkout/preferences", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrExternal, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	// The provider dedupes on this key should the request ever be resent.
	httpReq.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := m.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrExternal, resp.Status)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExternal, err)
	}
	return &pref, nil
}
