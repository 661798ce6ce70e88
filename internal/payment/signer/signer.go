package signer

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var (
	ErrConfigInvalid    = errors.New("signer config invalid")
	ErrRequestFailed    = errors.New("signer request failed")
	ErrResponseInvalid  = errors.New("signer response invalid")
	ErrSignatureInvalid = errors.New("signer signature invalid")
	ErrRequestRejected  = errors.New("signer request rejected")
	ErrRequestNotFound  = errors.New("signer request not found")
)

// 归一化后的网关状态
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
	StatusUnknown   = "unknown"
)

const (
	// SignatureHeader 回调签名头，格式 t=<unix>,v1=<hex>
	SignatureHeader = "X-Signer-Signature"

	defaultTimeout           = 15 * time.Second
	defaultQueryMaxRetries   = 3
	defaultCallbackTolerance = 300
	defaultRetryInterval     = 200 * time.Millisecond
)

// Config 签名网关配置
type Config struct {
	GatewayURL               string        `json:"gateway_url"`     // 网关地址，如 https://signer.example.com
	AuthToken                string        `json:"auth_token"`      // Bearer Token
	CallbackSecret           string        `json:"callback_secret"` // 回调 HMAC 密钥
	NotifyURL                string        `json:"notify_url"`      // 回调地址
	ChainID                  int64         `json:"chain_id"`
	Timeout                  time.Duration `json:"-"`
	RatePerSecond            float64       `json:"rate_per_second"`
	RateBurst                int           `json:"rate_burst"`
	QueryMaxRetries          int           `json:"query_max_retries"`
	RetryInitialInterval     time.Duration `json:"-"`
	CallbackToleranceSeconds int           `json:"callback_tolerance_seconds"`
}

// SubmitInput 提交签名请求输入
type SubmitInput struct {
	Reference       string   // 业务关联 ID（支付意图 ID）
	ContractAddress string   // 目标合约
	Method          string   // 合约方法
	Recipients      []string // 收款地址
	Amounts         []string // 最小单位金额（十进制整数字符串）
	GasLimit        uint64
	Token           string
}

// SubmitResult 提交结果
type SubmitResult struct {
	RequestID       string
	Status          string
	TransactionHash string
	Raw             map[string]interface{}
}

// QueryResult 查询结果
type QueryResult struct {
	RequestID       string
	Reference       string
	Status          string
	TransactionHash string
	Reason          string
	Raw             map[string]interface{}
}

// CallbackData 回调数据
type CallbackData struct {
	RequestID       string `json:"request_id"`
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
	Reason          string `json:"reason"`
}

type requestView struct {
	RequestID       string `json:"request_id"`
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	TransactionHash string `json:"transaction_hash"`
	Reason          string `json:"reason"`
	Error           string `json:"error"`
}

// Client 签名网关客户端
type Client struct {
	cfg        *Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.GatewayURL)); err != nil {
		return fmt.Errorf("%w: gateway_url is invalid", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return fmt.Errorf("%w: auth_token is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.CallbackSecret) == "" {
		return fmt.Errorf("%w: callback_secret is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.GatewayURL = strings.TrimRight(strings.TrimSpace(c.GatewayURL), "/")
	c.AuthToken = strings.TrimSpace(c.AuthToken)
	c.CallbackSecret = strings.TrimSpace(c.CallbackSecret)
	c.NotifyURL = strings.TrimSpace(c.NotifyURL)
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.QueryMaxRetries < 0 {
		c.QueryMaxRetries = 0
	}
	if c.QueryMaxRetries == 0 {
		c.QueryMaxRetries = defaultQueryMaxRetries
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = defaultRetryInterval
	}
	if c.CallbackToleranceSeconds <= 0 {
		c.CallbackToleranceSeconds = defaultCallbackTolerance
	}
}

// NewClient 创建签名网关客户端
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	normalized := *cfg
	normalized.normalize()
	if err := ValidateConfig(&normalized); err != nil {
		return nil, err
	}
	limit := rate.Inf
	if normalized.RatePerSecond > 0 {
		limit = rate.Limit(normalized.RatePerSecond)
	}
	burst := normalized.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		cfg:        &normalized,
		httpClient: &http.Client{Timeout: normalized.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// Config 返回归一化后的配置
func (c *Client) Config() Config {
	return *c.cfg
}

// Submit 提交签名请求；网关明确拒绝时返回 ErrRequestRejected
func (c *Client) Submit(ctx context.Context, input SubmitInput) (*SubmitResult, error) {
	if strings.TrimSpace(input.Reference) == "" || strings.TrimSpace(input.ContractAddress) == "" {
		return nil, fmt.Errorf("%w: reference and contract address are required", ErrConfigInvalid)
	}
	if len(input.Recipients) == 0 || len(input.Recipients) != len(input.Amounts) {
		return nil, fmt.Errorf("%w: recipients and amounts must be non-empty and aligned", ErrConfigInvalid)
	}
	params := map[string]interface{}{
		"reference":        input.Reference,
		"chain_id":         c.cfg.ChainID,
		"contract_address": input.ContractAddress,
		"method":           input.Method,
		"args": map[string]interface{}{
			"recipients": input.Recipients,
			"amounts":    input.Amounts,
		},
		"gas_limit":  input.GasLimit,
		"token":      input.Token,
		"notify_url": c.cfg.NotifyURL,
	}
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	headers := map[string]string{
		"Idempotency-Key": input.Reference,
		"X-Request-Nonce": uuid.NewString(),
	}
	respBytes, status, err := c.do(ctx, http.MethodPost, "/v1/requests", body, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var view requestView
	if len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, &view); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
	}
	switch {
	case status == http.StatusForbidden || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrRequestRejected, firstNonEmpty(view.Reason, view.Error, http.StatusText(status)))
	case status < 200 || status >= 300:
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, status)
	}
	normalized := NormalizeStatus(view.Status)
	if normalized == StatusRejected {
		return nil, fmt.Errorf("%w: %s", ErrRequestRejected, firstNonEmpty(view.Reason, "declined"))
	}
	if strings.TrimSpace(view.RequestID) == "" {
		return nil, fmt.Errorf("%w: missing request_id", ErrResponseInvalid)
	}
	return &SubmitResult{
		RequestID:       strings.TrimSpace(view.RequestID),
		Status:          normalized,
		TransactionHash: strings.TrimSpace(view.TransactionHash),
		Raw:             decodeRawMap(respBytes),
	}, nil
}

// Query 查询签名请求当前状态，requestID 为空时按业务关联 ID 查询
// 网络错误与 5xx 按指数退避重试，404 返回 ErrRequestNotFound
func (c *Client) Query(ctx context.Context, requestID, reference string) (*QueryResult, error) {
	requestID = strings.TrimSpace(requestID)
	reference = strings.TrimSpace(reference)
	var path string
	switch {
	case requestID != "":
		path = "/v1/requests/" + url.PathEscape(requestID)
	case reference != "":
		path = "/v1/requests?reference=" + url.QueryEscape(reference)
	default:
		return nil, fmt.Errorf("%w: request id or reference is required", ErrConfigInvalid)
	}

	var respBytes []byte
	operation := func() error {
		body, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		switch {
		case status == http.StatusNotFound:
			return backoff.Permanent(ErrRequestNotFound)
		case status >= 500:
			return fmt.Errorf("%w: http status %d", ErrRequestFailed, status)
		case status < 200 || status >= 300:
			return backoff.Permanent(fmt.Errorf("%w: http status %d", ErrRequestFailed, status))
		}
		respBytes = body
		return nil
	}
	if err := backoff.Retry(operation, c.newBackOff(ctx)); err != nil {
		return nil, err
	}

	var view requestView
	if err := json.Unmarshal(respBytes, &view); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &QueryResult{
		RequestID:       strings.TrimSpace(view.RequestID),
		Reference:       strings.TrimSpace(view.Reference),
		Status:          NormalizeStatus(view.Status),
		TransactionHash: strings.TrimSpace(view.TransactionHash),
		Reason:          firstNonEmpty(view.Reason, view.Error),
		Raw:             decodeRawMap(respBytes),
	}, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.RetryInitialInterval
	exp.MaxInterval = 5 * c.cfg.RetryInitialInterval
	exp.MaxElapsedTime = 2 * c.cfg.Timeout
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.QueryMaxRetries)), ctx)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.GatewayURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return respBytes, resp.StatusCode, nil
}

// VerifyCallback 校验回调签名与时间窗口
func VerifyCallback(secret string, toleranceSeconds int, signatureHeader string, body []byte, now time.Time) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("%w: callback_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return err
	}
	if toleranceSeconds <= 0 {
		toleranceSeconds = defaultCallbackTolerance
	}
	if math.Abs(float64(now.Unix()-timestamp)) > float64(toleranceSeconds) {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}
	expected := ComputeSignature(secret, timestamp, body)
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
}

// ParseCallback 解析回调数据
func ParseCallback(body []byte) (*CallbackData, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var data CallbackData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	data.RequestID = strings.TrimSpace(data.RequestID)
	data.Reference = strings.TrimSpace(data.Reference)
	data.TransactionHash = strings.TrimSpace(data.TransactionHash)
	data.Status = NormalizeStatus(data.Status)
	if data.Reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrResponseInvalid)
	}
	return &data, nil
}

// ComputeSignature 计算 HMAC-SHA256 签名：hex(hmac(secret, "<t>.<body>"))
func ComputeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return strings.ToLower(hex.EncodeToString(h.Sum(nil)))
}

// NormalizeStatus 将网关原始状态映射为归一化状态
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "awaiting_signature", "signed", "submitted", "broadcast", "pending":
		return StatusPending
	case "mined", "confirmed", "success", "succeeded":
		return StatusConfirmed
	case "rejected", "declined", "cancelled", "canceled":
		return StatusRejected
	case "failed", "reverted", "dropped", "expired":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

func parseSignatureHeader(header string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0, 1)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}

func decodeRawMap(body []byte) map[string]interface{} {
	if len(body) == 0 {
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
