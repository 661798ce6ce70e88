package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/employer-pool/internal/models"
)

// GateMode 收款方校验模式
type GateMode int

const (
	// GateStrict 任一收款方不合规即整体失败（单收款方流程）
	GateStrict GateMode = iota
	// GateFilter 剔除不合规收款方，剩余为空时失败（批量流程）
	GateFilter
)

// RecipientCandidate 待校验的收款方
type RecipientCandidate struct {
	RecipientID   string
	Name          string
	Email         string
	WalletAddress string
	Amount        string
	// Ineligible 非空时表示业务规则判定不可付款
	Ineligible string
}

// SkippedRecipient 被剔除的收款方
type SkippedRecipient struct {
	RecipientID string `json:"recipient_id"`
	Name        string `json:"name"`
	Reason      string `json:"reason"`
}

// GateResult 校验结果，金额已换算为最小单位
type GateResult struct {
	Recipients []models.IntentRecipient
	Skipped    []SkippedRecipient
	Total      models.TokenAmount
}

// ValidateRecipients 在写入意图前校验收款方并计算金额
func ValidateRecipients(mode GateMode, candidates []RecipientCandidate) (*GateResult, error) {
	if len(candidates) == 0 {
		if mode == GateFilter {
			return nil, ErrNoEligibleRecipients
		}
		return nil, ErrNoRecipients
	}

	result := &GateResult{Recipients: make([]models.IntentRecipient, 0, len(candidates))}
	for _, candidate := range candidates {
		recipient, err := checkCandidate(candidate)
		if err != nil {
			if mode == GateStrict {
				return nil, fmt.Errorf("%w (recipient %s)", err, strings.TrimSpace(candidate.RecipientID))
			}
			result.Skipped = append(result.Skipped, SkippedRecipient{
				RecipientID: strings.TrimSpace(candidate.RecipientID),
				Name:        strings.TrimSpace(candidate.Name),
				Reason:      skipReason(err, candidate),
			})
			continue
		}
		result.Recipients = append(result.Recipients, recipient)
	}

	if len(result.Recipients) == 0 {
		return nil, ErrNoEligibleRecipients
	}
	result.Total = SumRecipientAmounts(result.Recipients)
	return result, nil
}

func checkCandidate(candidate RecipientCandidate) (models.IntentRecipient, error) {
	if strings.TrimSpace(candidate.RecipientID) == "" {
		return models.IntentRecipient{}, fmt.Errorf("%w: recipient id is empty", ErrValidation)
	}
	if strings.TrimSpace(candidate.Ineligible) != "" {
		return models.IntentRecipient{}, fmt.Errorf("%w: %s", ErrRecipientIneligible, candidate.Ineligible)
	}
	if err := ValidateWalletAddress(candidate.WalletAddress); err != nil {
		return models.IntentRecipient{}, err
	}
	amount, err := ParseAmount(candidate.Amount)
	if err != nil {
		return models.IntentRecipient{}, err
	}
	return models.IntentRecipient{
		RecipientID:    strings.TrimSpace(candidate.RecipientID),
		RecipientName:  strings.TrimSpace(candidate.Name),
		RecipientEmail: strings.TrimSpace(candidate.Email),
		WalletAddress:  strings.TrimSpace(candidate.WalletAddress),
		Amount:         amount,
		MinorAmount:    ToMinorUnits(amount).String(),
	}, nil
}

func skipReason(err error, candidate RecipientCandidate) string {
	switch {
	case errors.Is(err, ErrRecipientIneligible):
		return strings.TrimSpace(candidate.Ineligible)
	case errors.Is(err, ErrInvalidWalletAddress):
		if strings.TrimSpace(candidate.WalletAddress) == "" {
			return "wallet not connected"
		}
		return "invalid wallet address"
	case errors.Is(err, ErrAmountPrecision):
		return "amount exceeds 6 decimal places"
	case errors.Is(err, ErrInvalidAmount):
		return "amount must be positive"
	default:
		return err.Error()
	}
}
