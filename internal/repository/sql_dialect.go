package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// textExprByDialect 将列转为可模糊匹配的文本，postgres 下 JSON 列需显式转换
func textExprByDialect(dialect, column string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return fmt.Sprintf("CAST(%s AS TEXT)", column)
	default:
		return column
	}
}

// buildSearchCondition 构建多列 OR 模糊匹配条件，并返回参数数量。
func buildSearchCondition(db *gorm.DB, plainColumns, jsonColumns []string) (string, int) {
	return buildSearchConditionByDialect(dbDialectName(db), plainColumns, jsonColumns)
}

func buildSearchConditionByDialect(dialect string, plainColumns, jsonColumns []string) (string, int) {
	parts := make([]string, 0, len(plainColumns)+len(jsonColumns))
	operator := likeOperatorByDialect(dialect)

	for _, column := range plainColumns {
		if trimmed := strings.TrimSpace(column); trimmed != "" {
			parts = append(parts, fmt.Sprintf("%s %s ?", trimmed, operator))
		}
	}
	// 收款人列表整体序列化为文本，按名称、邮箱、钱包均可命中
	for _, column := range jsonColumns {
		if trimmed := strings.TrimSpace(column); trimmed != "" {
			parts = append(parts, fmt.Sprintf("%s %s ?", textExprByDialect(dialect, trimmed), operator))
		}
	}
	if len(parts) == 0 {
		return "", 0
	}
	return "(" + strings.Join(parts, " OR ") + ")", len(parts)
}

// applySearch 对查询追加模糊搜索，关键字为空时原样返回
func applySearch(query *gorm.DB, keyword string, plainColumns, jsonColumns []string) *gorm.DB {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return query
	}
	condition, argCount := buildSearchCondition(query, plainColumns, jsonColumns)
	if argCount == 0 {
		return query
	}
	return query.Where(condition, repeatLikeArgs("%"+keyword+"%", argCount)...)
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
