package ndax

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/chimera/config"
	"github.com/alejandrodnm/chimera/internal/domain"
	"golang.org/x/time/rate"
)

// NDAX wire constants. Side and order type are numeric codes on the API.
const (
	omsID = 1

	sideBuy  = 0
	sideSell = 1

	orderTypeLimit = 2
	timeInForceGTC = 1
)

// instrumentIDs maps trading pair symbols to NDAX instrument IDs.
var instrumentIDs = map[string]int{
	"BTC/CAD": 1,
	"ETH/CAD": 2,
	"BTC/USD": 3,
}

// Live is the real NDAX platform adapter. Two independent guards sit in front
// of every order: the safety lock, which must be explicitly disabled in
// configuration, and a client-side rate limiter sized well below the
// exchange's documented limits. Construction fails without a complete
// credential set — a half-configured live adapter must never exist.
type Live struct {
	cfg     config.PlatformConfig
	http    *http.Client
	limiter *rate.Limiter
	nonce   atomic.Int64
}

// NewLive builds the live adapter. Returns ErrMissingCredentials unless all
// four credentials are present.
func NewLive(cfg config.PlatformConfig) (*Live, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("ndax.NewLive: %w", domain.ErrMissingCredentials)
	}
	l := &Live{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout()},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.OrdersPerMinute)), cfg.OrdersPerMinute),
	}
	l.nonce.Store(time.Now().UnixNano())
	return l, nil
}

type orderPayload struct {
	OMSID        int     `json:"OMSId"`
	AccountID    string  `json:"AccountId"`
	InstrumentID int     `json:"InstrumentId"`
	Side         int     `json:"Side"`
	OrderType    int     `json:"OrderType"`
	TimeInForce  int     `json:"TimeInForce"`
	Quantity     float64 `json:"Quantity"`
	LimitPrice   float64 `json:"LimitPrice"`
}

type orderResponse struct {
	OrderID int64  `json:"OrderId"`
	Status  string `json:"Status"`
	Detail  string `json:"Detail"`
}

// PlaceOrder submits a limit order. The safety lock is checked before
// anything else; a locked adapter does not even consume a rate limit token.
func (l *Live) PlaceOrder(ctx context.Context, order domain.Order) (domain.Fill, error) {
	if l.cfg.SafetyLocked() {
		return domain.Fill{}, fmt.Errorf("ndax.Live.PlaceOrder: %w", domain.ErrSafetyLocked)
	}
	if !l.limiter.Allow() {
		return domain.Fill{}, &domain.PlatformError{
			Op:        "PlaceOrder",
			Retryable: true,
			Err:       domain.ErrRateLimited,
		}
	}

	instrument, ok := instrumentIDs[order.Symbol]
	if !ok {
		return domain.Fill{}, &domain.ValidationError{Field: "symbol", Reason: fmt.Sprintf("no NDAX instrument for %q", order.Symbol)}
	}
	side := sideBuy
	if order.Side == domain.ActionSell {
		side = sideSell
	}

	payload := orderPayload{
		OMSID:        omsID,
		AccountID:    l.cfg.AccountID,
		InstrumentID: instrument,
		Side:         side,
		OrderType:    orderTypeLimit,
		TimeInForce:  timeInForceGTC,
		Quantity:     order.Quantity,
		LimitPrice:   order.Price,
	}

	var resp orderResponse
	if err := l.post(ctx, "PlaceOrder", "/orders", payload, &resp); err != nil {
		return domain.Fill{}, err
	}
	return domain.Fill{
		OrderID:        strconv.FormatInt(resp.OrderID, 10),
		Status:         mapStatus(resp.Status),
		FilledPrice:    order.Price,
		FilledQuantity: order.Quantity,
	}, nil
}

// CancelOrder cancels an open order. Honors the safety lock the same way
// PlaceOrder does.
func (l *Live) CancelOrder(ctx context.Context, orderID string) error {
	if l.cfg.SafetyLocked() {
		return fmt.Errorf("ndax.Live.CancelOrder: %w", domain.ErrSafetyLocked)
	}
	body := map[string]any{"OMSId": omsID, "AccountId": l.cfg.AccountID, "OrderId": orderID}
	var resp orderResponse
	return l.post(ctx, "CancelOrder", "/orders/cancel", body, &resp)
}

type balanceResponse struct {
	Available float64 `json:"Available"`
}

// Balance returns the available quote-currency balance on the account.
func (l *Live) Balance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/accounts/%s/balance", l.cfg.AccountID)
	if err := l.get(ctx, "Balance", path, &resp); err != nil {
		return 0, err
	}
	return resp.Available, nil
}

type positionResponse struct {
	Quantity float64 `json:"Quantity"`
}

// Position returns the base units held for a symbol.
func (l *Live) Position(ctx context.Context, symbol string) (float64, error) {
	instrument, ok := instrumentIDs[symbol]
	if !ok {
		return 0, &domain.ValidationError{Field: "symbol", Reason: fmt.Sprintf("no NDAX instrument for %q", symbol)}
	}
	var resp positionResponse
	path := fmt.Sprintf("/accounts/%s/positions/%d", l.cfg.AccountID, instrument)
	if err := l.get(ctx, "Position", path, &resp); err != nil {
		return 0, err
	}
	return resp.Quantity, nil
}

// Status reports the adapter condition, including whether the safety lock is
// still engaged.
func (l *Live) Status(context.Context) domain.PlatformStatus {
	return domain.PlatformStatus{
		Connected:  true,
		SafetyLock: l.cfg.SafetyLocked(),
		Testnet:    false,
	}
}

func (l *Live) post(ctx context.Context, op, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("ndax: %s: marshal payload: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.cfg.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("ndax: %s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	l.sign(req, b)
	return l.do(op, req, out)
}

func (l *Live) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("ndax: %s: build request: %w", op, err)
	}
	l.sign(req, nil)
	return l.do(op, req, out)
}

// sign attaches the NDAX authentication headers: a monotonic nonce and an
// HMAC-SHA256 of nonce+payload keyed with the API secret.
func (l *Live) sign(req *http.Request, payload []byte) {
	nonce := strconv.FormatInt(l.nonce.Add(1), 10)
	mac := hmac.New(sha256.New, []byte(l.cfg.APISecret))
	mac.Write([]byte(nonce))
	mac.Write(payload)

	req.Header.Set("NDAX-API-KEY", l.cfg.APIKey)
	req.Header.Set("NDAX-USER-ID", l.cfg.UserID)
	req.Header.Set("NDAX-NONCE", nonce)
	req.Header.Set("NDAX-SIGNATURE", hex.EncodeToString(mac.Sum(nil)))
}

func (l *Live) do(op string, req *http.Request, out any) error {
	resp, err := l.http.Do(req)
	if err != nil {
		return &domain.PlatformError{Op: op, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.PlatformError{Op: op, Retryable: false, Err: fmt.Errorf("auth rejected (%d)", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.PlatformError{Op: op, Retryable: true, Err: domain.ErrRateLimited}
	case resp.StatusCode >= 500:
		return &domain.PlatformError{Op: op, Retryable: true, Err: fmt.Errorf("server error (%d)", resp.StatusCode)}
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &domain.PlatformError{Op: op, Retryable: false, Err: fmt.Errorf("rejected (%d): %s", resp.StatusCode, msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.PlatformError{Op: op, Retryable: false, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func mapStatus(s string) domain.OrderStatus {
	switch s {
	case "FullyExecuted", "Filled":
		return domain.OrderStatusFilled
	case "Canceled", "Cancelled":
		return domain.OrderStatusCancelled
	case "Rejected":
		return domain.OrderStatusRejected
	default:
		return domain.OrderStatusOpen
	}
}
