package authz

import (
	"fmt"

	"github.com/employer-pool/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 操作员角色矩阵：viewer 只读，payroll_manager 可发起付款但不可提现，owner 全部权限
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.OperatorRoleViewer,
			Policies: []Policy{
				{Object: "/business/*", Action: "GET"},
			},
		},
		{
			Role:     constants.OperatorRolePayrollManager,
			Inherits: []string{constants.OperatorRoleViewer},
			Policies: []Policy{
				{Object: "/business/payments/contractor", Action: "POST"},
				{Object: "/business/payments/payroll", Action: "POST"},
				{Object: "/business/payments/deposit", Action: "POST"},
				{Object: "/business/intents/:id/outcome", Action: "POST"},
				{Object: "/business/intents/:id/check", Action: "POST"},
				{Object: "/business/workers", Action: "POST"},
				{Object: "/business/contractors", Action: "POST"},
				{Object: "/business/contractors/:id/activate", Action: "POST"},
			},
		},
		{
			Role:     constants.OperatorRoleOwner,
			Inherits: []string{constants.OperatorRolePayrollManager},
			Policies: []Policy{
				{Object: "/business/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("seed %s policy %s %s: %w", role, policy.Action, policy.Object, err)
			}
		}
	}
	return nil
}
