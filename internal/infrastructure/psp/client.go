package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nopayn/psp-bridge/internal/config"
	"github.com/nopayn/psp-bridge/internal/core/domain"
	"github.com/nopayn/psp-bridge/internal/core/ports"
)

// HTTPPSPClient talks to the provider's order API. Authentication is HTTP
// basic with the API key as username and an empty password.
type HTTPPSPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewPSPClient(cfg config.PSPConfig) ports.PSPClient {
	return &HTTPPSPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
}

func (c *HTTPPSPClient) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.OrderSnapshot, error) {
	url := fmt.Sprintf("%s/orders", c.baseURL)
	return sendRequest[domain.CreateOrderRequest, domain.OrderSnapshot](c, ctx, http.MethodPost, url, &req)
}

func (c *HTTPPSPClient) GetOrder(ctx context.Context, orderID string) (*domain.OrderSnapshot, error) {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)
	return sendRequest[any, domain.OrderSnapshot](c, ctx, http.MethodGet, url, nil)
}

func (c *HTTPPSPClient) UpdateOrder(ctx context.Context, orderID string, req domain.UpdateOrderRequest) error {
	url := fmt.Sprintf("%s/orders/%s", c.baseURL, orderID)
	_, err := sendRequest[domain.UpdateOrderRequest, domain.OrderSnapshot](c, ctx, http.MethodPut, url, &req)
	return err
}

func (c *HTTPPSPClient) CaptureOrderTransaction(ctx context.Context, orderID, transactionID string) error {
	url := fmt.Sprintf("%s/orders/%s/transactions/%s/captures", c.baseURL, orderID, transactionID)
	_, err := sendRequest[struct{}, json.RawMessage](c, ctx, http.MethodPost, url, &struct{}{})
	return err
}

func (c *HTTPPSPClient) VoidOrderTransaction(ctx context.Context, orderID, transactionID string, req domain.VoidTransactionRequest) error {
	url := fmt.Sprintf("%s/orders/%s/transactions/%s/voids", c.baseURL, orderID, transactionID)
	_, err := sendRequest[domain.VoidTransactionRequest, json.RawMessage](c, ctx, http.MethodPost, url, &req)
	return err
}

func (c *HTTPPSPClient) RefundOrder(ctx context.Context, orderID string, req domain.RefundOrderRequest) (*domain.OrderSnapshot, error) {
	url := fmt.Sprintf("%s/orders/%s/refunds", c.baseURL, orderID)
	return sendRequest[domain.RefundOrderRequest, domain.OrderSnapshot](c, ctx, http.MethodPost, url, &req)
}

func (c *HTTPPSPClient) GetCurrencyList(ctx context.Context) (*domain.CurrencyList, error) {
	url := fmt.Sprintf("%s/merchants/self/projects/self/currencies", c.baseURL)
	return sendRequest[any, domain.CurrencyList](c, ctx, http.MethodGet, url, nil)
}

func sendRequest[Req any, Resp any](c *HTTPPSPClient, ctx context.Context, method, url string, reqBody *Req) (*Resp, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		var errResp pspErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Err.Value == "" {
			return nil, fmt.Errorf("psp returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, &PSPError{
			Code:       errResp.Err.Type,
			Message:    errResp.Err.Value,
			StatusCode: resp.StatusCode,
		}
	}

	var pspResp Resp
	if err := json.NewDecoder(resp.Body).Decode(&pspResp); err != nil {
		// Capture and void endpoints respond with an empty body.
		if err == io.EOF {
			return &pspResp, nil
		}
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &pspResp, nil
}
