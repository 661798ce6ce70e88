package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/payment/signer"
	"github.com/employer-pool/internal/provider"
	"github.com/employer-pool/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	testOwnerWallet     = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	testContractAddress = "0x8888888888888888888888888888888888888888"
	testCallbackSecret  = "cb-secret"
	testPassword        = "Str0ng!Pass"
)

type routerTestEnv struct {
	engine    *gin.Engine
	container *provider.Container
	db        *gorm.DB
}

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func corsConfigForTest() config.CORSConfig {
	return config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
}

func setupRouterTest(t *testing.T) *routerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{SecretKey: "router-test-secret", ExpireHours: 1},
		CORS:   corsConfigForTest(),
		Signer: config.SignerConfig{
			CallbackSecret:  testCallbackSecret,
			ContractAddress: testContractAddress,
			DefaultGasLimit: 300000,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	container := provider.NewContainerWithDB(cfg, db)
	return &routerTestEnv{
		engine:    SetupRouter(cfg, container),
		container: container,
		db:        db,
	}
}

func (e *routerTestEnv) do(t *testing.T, method, path, token string, body interface{}, headers map[string]string) apiResponse {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: unmarshal response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func (e *routerTestEnv) registerAndLogin(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/public/auth/register", "", map[string]interface{}{
		"business_name":  "Acme Payroll",
		"email":          "owner@acme.test",
		"wallet_address": testOwnerWallet,
		"password":       testPassword,
	}, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("register want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	return e.login(t, "owner@acme.test")
}

func (e *routerTestEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/v1/public/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": testPassword,
	}, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("login want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login token missing: %v %s", err, string(resp.Data))
	}
	return data.Token
}

func (e *routerTestEnv) createOperator(t *testing.T, email, role string) {
	t.Helper()
	owner, err := e.container.OperatorRepo.GetByEmail("owner@acme.test")
	if err != nil || owner == nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	hash, err := e.container.AuthService.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := e.container.OperatorRepo.Create(&models.Operator{
		BusinessID:   owner.BusinessID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}); err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
}

func walletHeader(wallet string) map[string]string {
	return map[string]string{ConnectedWalletHeader: wallet}
}

func TestRouterRegisterLoginAndProfile(t *testing.T) {
	env := setupRouterTest(t)
	token := env.registerAndLogin(t)

	resp := env.do(t, http.MethodGet, "/api/v1/account/me", token, nil, walletHeader(strings.ToLower(testOwnerWallet)))
	if resp.StatusCode != 0 {
		t.Fatalf("profile want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var profile struct {
		Role          string `json:"role"`
		WalletMatches bool   `json:"wallet_matches"`
	}
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		t.Fatalf("decode profile failed: %v", err)
	}
	if profile.Role != constants.OperatorRoleOwner || !profile.WalletMatches {
		t.Fatalf("unexpected profile %+v", profile)
	}

	bad := env.do(t, http.MethodPost, "/api/v1/public/auth/login", "", map[string]interface{}{
		"email":    "owner@acme.test",
		"password": "wrong",
	}, nil)
	if bad.StatusCode != 401 {
		t.Fatalf("wrong password want 401 got %d", bad.StatusCode)
	}
}

func TestRouterRBACMatrix(t *testing.T) {
	env := setupRouterTest(t)
	env.registerAndLogin(t)
	env.createOperator(t, "viewer@acme.test", constants.OperatorRoleViewer)
	env.createOperator(t, "manager@acme.test", constants.OperatorRolePayrollManager)
	viewer := env.login(t, "viewer@acme.test")
	manager := env.login(t, "manager@acme.test")

	if resp := env.do(t, http.MethodGet, "/api/v1/business/intents", viewer, nil, nil); resp.StatusCode != 0 {
		t.Fatalf("viewer list intents want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/business/payments/deposit", viewer, map[string]string{"amount": "10"}, walletHeader(testOwnerWallet)); resp.StatusCode != 403 {
		t.Fatalf("viewer deposit want 403 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/business/payments/withdrawal", manager, map[string]string{"amount": "10"}, walletHeader(testOwnerWallet)); resp.StatusCode != 403 {
		t.Fatalf("manager withdrawal want 403 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/business/workers", manager, map[string]string{
		"name":   "Grace",
		"email":  "grace@acme.test",
		"salary": "1200",
	}, nil); resp.StatusCode != 0 {
		t.Fatalf("manager add worker want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
}

func TestRouterDepositRequiresMatchingWallet(t *testing.T) {
	env := setupRouterTest(t)
	token := env.registerAndLogin(t)

	resp := env.do(t, http.MethodPost, "/api/v1/business/payments/deposit", token, map[string]string{"amount": "10"}, nil)
	if resp.StatusCode != 403 {
		t.Fatalf("no wallet want 403 got %d", resp.StatusCode)
	}
	resp = env.do(t, http.MethodPost, "/api/v1/business/payments/deposit", token, map[string]string{"amount": "10"},
		walletHeader("0x1111111111111111111111111111111111111111"))
	if resp.StatusCode != 403 {
		t.Fatalf("mismatched wallet want 403 got %d", resp.StatusCode)
	}

	var count int64
	if err := env.db.Model(&models.PaymentIntent{}).Count(&count).Error; err != nil {
		t.Fatalf("count intents failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected session must not write intents, got %d", count)
	}
}

func TestRouterDepositWithoutSignerSettlesFailed(t *testing.T) {
	env := setupRouterTest(t)
	token := env.registerAndLogin(t)

	resp := env.do(t, http.MethodPost, "/api/v1/business/payments/deposit", token, map[string]string{"amount": "10.5"},
		walletHeader(strings.ToLower(testOwnerWallet)))
	if resp.StatusCode != 422 {
		t.Fatalf("deposit without signer want 422 got %d (%s)", resp.StatusCode, resp.Msg)
	}

	var intents []models.PaymentIntent
	if err := env.db.Find(&intents).Error; err != nil {
		t.Fatalf("load intents failed: %v", err)
	}
	if len(intents) != 1 {
		t.Fatalf("want one intent got %d", len(intents))
	}
	if intents[0].Status != constants.IntentStatusFailed {
		t.Fatalf("status want Failed got %s", intents[0].Status)
	}
	if intents[0].ErrorDetails == nil || !strings.HasPrefix(*intents[0].ErrorDetails, "rejected: ") {
		t.Fatalf("unexpected error details %v", intents[0].ErrorDetails)
	}
}

func TestRouterSignerCallbackSettlesPendingIntent(t *testing.T) {
	env := setupRouterTest(t)
	env.registerAndLogin(t)
	owner, _ := env.container.OperatorRepo.GetByEmail("owner@acme.test")

	amount := models.NewTokenAmount(decimal.RequireFromString("40"))
	intent := &models.PaymentIntent{
		ID:          "dep_1700000000000_8888",
		BusinessID:  owner.BusinessID,
		Flow:        constants.FlowDeposit,
		Status:      constants.IntentStatusPending,
		Token:       constants.TokenUSDC,
		TotalAmount: amount,
		Category:    constants.DepositCategoryRevenue,
		Recipients: []models.IntentRecipient{{
			RecipientID:   testContractAddress,
			WalletAddress: testContractAddress,
			Amount:        amount,
			MinorAmount:   amount.MinorUnits().String(),
		}},
	}
	if err := env.container.IntentRepo.Create(intent); err != nil {
		t.Fatalf("seed intent failed: %v", err)
	}

	body := []byte(`{"request_id":"req-9","reference":"dep_1700000000000_8888","status":"mined","transaction_hash":"0xfeed"}`)
	send := func(signature string) apiResponse {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/public/signer/callback", bytes.NewReader(body))
		req.Header.Set(signer.SignatureHeader, signature)
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		var resp apiResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal callback response failed: %v", err)
		}
		return resp
	}

	if resp := send("t=1,v1=deadbeef"); resp.StatusCode != 401 {
		t.Fatalf("bad signature want 401 got %d", resp.StatusCode)
	}

	ts := time.Now().Unix()
	signature := "t=" + strconv.FormatInt(ts, 10) + ",v1=" + signer.ComputeSignature(testCallbackSecret, ts, body)
	for i := 0; i < 2; i++ {
		if resp := send(signature); resp.StatusCode != 0 {
			t.Fatalf("callback %d want 0 got %d (%s)", i, resp.StatusCode, resp.Msg)
		}
	}

	stored, err := env.container.IntentRepo.GetByID(intent.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload intent failed: %v", err)
	}
	if stored.Status != constants.IntentStatusSuccess {
		t.Fatalf("status want Success got %s", stored.Status)
	}
	if stored.TransactionHash == nil || *stored.TransactionHash != "0xfeed" {
		t.Fatalf("transaction hash not stored: %v", stored.TransactionHash)
	}
	_, total, err := env.container.HistoryRepo.List(repository.HistoryListFilter{BusinessID: owner.BusinessID, Direction: constants.DirectionIn})
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("duplicate callbacks must yield one history entry, got %d", total)
	}
}

func TestRouterWorkerConnectFlow(t *testing.T) {
	env := setupRouterTest(t)
	token := env.registerAndLogin(t)

	resp := env.do(t, http.MethodPost, "/api/v1/business/workers", token, map[string]string{
		"name":   "Linus",
		"email":  "linus@acme.test",
		"salary": "900.25",
	}, nil)
	if resp.StatusCode != 0 {
		t.Fatalf("add worker want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var added struct {
		ConnectCode string `json:"connect_code"`
	}
	if err := json.Unmarshal(resp.Data, &added); err != nil || added.ConnectCode == "" {
		t.Fatalf("connect code missing: %v", err)
	}

	connect := map[string]string{"code": added.ConnectCode, "wallet_address": "0x2222222222222222222222222222222222222222"}
	if resp := env.do(t, http.MethodPost, "/api/v1/public/workers/connect", "", connect, nil); resp.StatusCode != 0 {
		t.Fatalf("connect want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/public/workers/connect", "", connect, nil); resp.StatusCode != 409 {
		t.Fatalf("second connect want 409 got %d", resp.StatusCode)
	}
	if resp := env.do(t, http.MethodPost, "/api/v1/public/workers/connect", "", map[string]string{
		"code": "nope", "wallet_address": "0x2222222222222222222222222222222222222222",
	}, nil); resp.StatusCode != 404 {
		t.Fatalf("unknown code want 404 got %d", resp.StatusCode)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	env := setupRouterTest(t)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing go collector")
	}
}
