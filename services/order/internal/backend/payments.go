package backend

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/restaurant/services/order/internal/domain"
)

type BillingDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// PaymentResult is the processor's verdict on a confirmation. A declined card
// is a result, not an error.
type PaymentResult struct {
	Succeeded    bool
	ErrorMessage string
}

type createIntentRequest struct {
	OrderID string `json:"order_id"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type confirmRequest struct {
	ClientSecret   string         `json:"client_secret"`
	PaymentMethod  string         `json:"payment_method"`
	BillingDetails BillingDetails `json:"billing_details"`
}

type confirmResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type PaymentClient struct {
	*Client
}

func NewPaymentClient(baseURL string) *PaymentClient {
	return &PaymentClient{Client: NewClient(baseURL)}
}

// CreatePaymentIntent asks the processor to prepare a charge for the order's
// total and returns the client secret used to confirm it.
func (c *PaymentClient) CreatePaymentIntent(ctx context.Context, orderID string) (string, error) {
	const op = "create payment intent"

	var resp createIntentResponse
	status, raw, err := c.postJSON(ctx, op, "/payments/create-intent/", createIntentRequest{OrderID: orderID}, &resp)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", &RemoteError{Op: op, Status: status, Message: errorMessage(raw)}
	}
	if resp.ClientSecret == "" {
		return "", &RemoteError{Op: op, Status: status, Message: "no client secret in response"}
	}
	return resp.ClientSecret, nil
}

func (c *PaymentClient) ConfirmCardPayment(ctx context.Context, clientSecret string, card domain.CardDetails, billing BillingDetails) (PaymentResult, error) {
	const op = "confirm card payment"

	req := confirmRequest{
		ClientSecret:   clientSecret,
		PaymentMethod:  card.Token,
		BillingDetails: billing,
	}

	var resp confirmResponse
	status, raw, err := c.postJSON(ctx, op, "/payments/confirm/", req, &resp)
	if err != nil {
		return PaymentResult{}, err
	}
	if !isSuccess(status) {
		// 4xx with an error body is a decline; anything else is a processor failure
		if status >= 400 && status < 500 {
			if msg := errorMessage(raw); msg != "" {
				return PaymentResult{ErrorMessage: msg}, nil
			}
		}
		return PaymentResult{}, &RemoteError{Op: op, Status: status, Message: errorMessage(raw)}
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return PaymentResult{ErrorMessage: resp.Error.Message}, nil
	}
	if resp.Status != "succeeded" {
		return PaymentResult{ErrorMessage: "payment " + orUnknown(resp.Status)}, nil
	}
	return PaymentResult{Succeeded: true}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "was not completed"
	}
	return s
}

var (
	errCardToken = errors.New("card details are incomplete")
	errCardLast4 = errors.New("card number ending is invalid")
)

// ValidateCard checks that the card element produced a usable token.
func (c *PaymentClient) ValidateCard(card domain.CardDetails) error {
	if strings.TrimSpace(card.Token) == "" {
		return errCardToken
	}
	if card.Last4 != "" {
		if len(card.Last4) != 4 {
			return errCardLast4
		}
		for _, r := range card.Last4 {
			if r < '0' || r > '9' {
				return errCardLast4
			}
		}
	}
	return nil
}
