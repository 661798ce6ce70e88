package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenAmountPlaces 稳定币精度（USDC 为 6 位小数）
const TokenAmountPlaces = 6

// ErrTokenAmountPrecision 金额小数位超过资产精度
var ErrTokenAmountPrecision = errors.New("token amount exceeds 6 decimal places")

// TokenAmount 稳定币金额（固定 6 位小数）
type TokenAmount struct {
	decimal.Decimal
}

// NewTokenAmount 从 decimal 创建金额
func NewTokenAmount(amount decimal.Decimal) TokenAmount {
	return TokenAmount{Decimal: amount.Round(TokenAmountPlaces)}
}

// ParseTokenAmount 严格解析金额字符串，拒绝超出精度的输入
func ParseTokenAmount(raw string) (TokenAmount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return TokenAmount{}, err
	}
	if !d.Equal(d.Round(TokenAmountPlaces)) {
		return TokenAmount{}, ErrTokenAmountPrecision
	}
	return TokenAmount{Decimal: d}, nil
}

// TokenAmountFromMinor 由最小单位整数还原金额
func TokenAmountFromMinor(minor *big.Int) TokenAmount {
	if minor == nil {
		return TokenAmount{}
	}
	return TokenAmount{Decimal: decimal.NewFromBigInt(minor, -TokenAmountPlaces)}
}

// MinorUnits 转换为链上最小单位整数
func (a TokenAmount) MinorUnits() *big.Int {
	return a.Decimal.Round(TokenAmountPlaces).Shift(TokenAmountPlaces).BigInt()
}

// IsPositive 金额是否严格大于 0
func (a TokenAmount) IsPositive() bool {
	return a.Decimal.GreaterThan(decimal.Zero)
}

// MarshalJSON 输出 6 位小数字符串
func (a TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON 解析金额（字符串或数字）
func (a *TokenAmount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseTokenAmount(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	parsed, err := ParseTokenAmount(num.String())
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value 用于数据库写入
func (a TokenAmount) Value() (driver.Value, error) {
	return a.Decimal.Round(TokenAmountPlaces).StringFixed(TokenAmountPlaces), nil
}

// Scan 用于数据库读取
func (a *TokenAmount) Scan(value interface{}) error {
	if err := a.Decimal.Scan(value); err != nil {
		return err
	}
	a.Decimal = a.Decimal.Round(TokenAmountPlaces)
	return nil
}

// String 返回 6 位小数格式
func (a TokenAmount) String() string {
	return a.Decimal.Round(TokenAmountPlaces).StringFixed(TokenAmountPlaces)
}
