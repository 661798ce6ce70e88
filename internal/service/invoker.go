package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/payment/signer"
)

// InvocationRequest 外部签名调用请求
type InvocationRequest struct {
	IntentID        string
	Flow            string
	ContractAddress string
	ContractMethod  string
	Recipients      []string
	Amounts         []*big.Int
	GasLimit        uint64
	Token           string
}

// Submission 网关受理结果，终态稍后异步到达
type Submission struct {
	RequestID       string
	TransactionHash string
}

// InvocationQuery 状态查询条件
type InvocationQuery struct {
	IntentID  string
	RequestID string
}

// GatewayStatus 网关视角的请求状态
type GatewayStatus struct {
	State           string
	RequestID       string
	TransactionHash string
	Reason          string
	Payload         map[string]interface{}
}

// Invoker 外部支付执行边界
//
// Submit 在网关拒绝时返回 ErrInvocationRejected，提交后立即执行失败时返回
// ErrInvocationFailed，结果不确定时返回 ErrInvocationUnknown。
type Invoker interface {
	Submit(ctx context.Context, req InvocationRequest) (*Submission, error)
	Query(ctx context.Context, query InvocationQuery) (*GatewayStatus, error)
}

// BuildInvocationRequest 由意图构造调用请求，金额使用意图中已持久化的最小单位
func BuildInvocationRequest(intent *models.PaymentIntent, contractAddress string) (InvocationRequest, error) {
	req := InvocationRequest{
		IntentID:        intent.ID,
		Flow:            intent.Flow,
		ContractAddress: strings.TrimSpace(contractAddress),
		ContractMethod:  intent.ContractMethod,
		GasLimit:        intent.GasLimit,
		Token:           intent.Token,
		Recipients:      make([]string, 0, len(intent.Recipients)),
		Amounts:         make([]*big.Int, 0, len(intent.Recipients)),
	}
	for _, recipient := range intent.Recipients {
		minor, ok := new(big.Int).SetString(recipient.MinorAmount, 10)
		if !ok || !FromMinorUnits(minor).Equal(recipient.Amount.Decimal) {
			return InvocationRequest{}, fmt.Errorf("%w: minor amount of %s", ErrIntentMalformed, recipient.RecipientID)
		}
		req.Recipients = append(req.Recipients, recipient.WalletAddress)
		req.Amounts = append(req.Amounts, minor)
	}
	return req, nil
}

// Outcome 根据网关状态推导结算结果，非终态返回 false
func (s *GatewayStatus) Outcome() (Outcome, bool) {
	if s == nil {
		return Outcome{}, false
	}
	switch s.State {
	case constants.GatewayStateConfirmed:
		return Outcome{Kind: constants.OutcomeConfirmed, TransactionHash: s.TransactionHash, Payload: s.Payload}, true
	case constants.GatewayStateRejected:
		return Outcome{Kind: constants.OutcomeRejected, TransactionHash: s.TransactionHash, Reason: s.Reason, Payload: s.Payload}, true
	case constants.GatewayStateFailed:
		return Outcome{Kind: constants.OutcomeExecutionFailed, TransactionHash: s.TransactionHash, Reason: s.Reason, Payload: s.Payload}, true
	default:
		return Outcome{}, false
	}
}

// SignerInvoker 基于签名网关客户端的 Invoker 实现
type SignerInvoker struct {
	client *signer.Client
}

// NewSignerInvoker 创建签名网关调用器
func NewSignerInvoker(client *signer.Client) *SignerInvoker {
	return &SignerInvoker{client: client}
}

// Submit 提交签名请求
func (i *SignerInvoker) Submit(ctx context.Context, req InvocationRequest) (*Submission, error) {
	if i == nil || i.client == nil {
		return nil, fmt.Errorf("%w: signer is not configured", ErrInvocationRejected)
	}
	amounts := make([]string, 0, len(req.Amounts))
	for _, amount := range req.Amounts {
		amounts = append(amounts, amount.String())
	}
	result, err := i.client.Submit(ctx, signer.SubmitInput{
		Reference:       req.IntentID,
		ContractAddress: req.ContractAddress,
		Method:          req.ContractMethod,
		Recipients:      req.Recipients,
		Amounts:         amounts,
		GasLimit:        req.GasLimit,
		Token:           req.Token,
	})
	if err != nil {
		switch {
		case errors.Is(err, signer.ErrRequestRejected), errors.Is(err, signer.ErrConfigInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvocationRejected, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvocationUnknown, err)
		}
	}
	if result.Status == signer.StatusFailed {
		return &Submission{RequestID: result.RequestID, TransactionHash: result.TransactionHash},
			fmt.Errorf("%w: gateway reported failure on submission", ErrInvocationFailed)
	}
	return &Submission{RequestID: result.RequestID, TransactionHash: result.TransactionHash}, nil
}

// Query 查询签名请求状态，网关无记录时返回 unknown 状态
func (i *SignerInvoker) Query(ctx context.Context, query InvocationQuery) (*GatewayStatus, error) {
	if i == nil || i.client == nil {
		return nil, fmt.Errorf("%w: signer is not configured", ErrInvocationUnknown)
	}
	result, err := i.client.Query(ctx, query.RequestID, query.IntentID)
	if err != nil {
		if errors.Is(err, signer.ErrRequestNotFound) {
			return &GatewayStatus{State: constants.GatewayStateUnknown, RequestID: query.RequestID}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvocationUnknown, err)
	}
	return &GatewayStatus{
		State:           result.Status,
		RequestID:       result.RequestID,
		TransactionHash: result.TransactionHash,
		Reason:          result.Reason,
		Payload:         result.Raw,
	}, nil
}
