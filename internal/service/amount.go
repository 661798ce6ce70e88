package service

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/employer-pool/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateWalletAddress 校验钱包地址（0x + 40 位十六进制，大小写不敏感）
func ValidateWalletAddress(address string) error {
	if !IsWalletAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidWalletAddress, strings.TrimSpace(address))
	}
	return nil
}

// ParseAmount 解析展示金额：必须为正数且最多 6 位小数
func ParseAmount(raw string) (models.TokenAmount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.TokenAmount{}, ErrInvalidAmount
	}
	amount, err := models.ParseTokenAmount(raw)
	if err != nil {
		if errors.Is(err, models.ErrTokenAmountPrecision) {
			return models.TokenAmount{}, ErrAmountPrecision
		}
		return models.TokenAmount{}, ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return models.TokenAmount{}, ErrInvalidAmount
	}
	return amount, nil
}

// ToMinorUnits 转换为 6 位精度最小单位整数
func ToMinorUnits(amount models.TokenAmount) *big.Int {
	return amount.MinorUnits()
}

// FromMinorUnits 由最小单位整数还原展示金额
func FromMinorUnits(minor *big.Int) models.TokenAmount {
	return models.TokenAmountFromMinor(minor)
}

// SumRecipientAmounts 汇总收款方金额
func SumRecipientAmounts(recipients []models.IntentRecipient) models.TokenAmount {
	sum := decimal.Zero
	for _, recipient := range recipients {
		sum = sum.Add(recipient.Amount.Decimal)
	}
	return models.NewTokenAmount(sum)
}
