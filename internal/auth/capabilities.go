package auth

// Capability names consumed by the workflow definitions. The workflow core
// only ever asks has_capability(actor, name); the storage and grouping of
// these stays inside this package.
const (
	CapAdmin           = "admin"
	CapManageAssets    = "manage_assets"
	CapManageTeam      = "manage_team"
	CapManageLoans     = "manage_loans"
	CapApproveLoansGM  = "loan_approve_gm"
	CapApproveLoansFin = "loan_approve_finance"
	CapHRManage        = "hr_manage"
	CapFinanceManage   = "finance_manage"
)

// ManagerCapabilities are the umbrella capabilities accepted wherever the
// action surface says "manager/admin".
var ManagerCapabilities = []string{CapManageTeam, CapManageAssets, CapAdmin}

// CapabilityChecker is the authorization collaborator contract:
// has_capability(actor_identity, capability_name) -> bool.
type CapabilityChecker interface {
	HasCapability(userCapabilities []string, capability string) bool
	HasAnyCapability(userCapabilities []string, required []string) bool
}

type DefaultCapabilityChecker struct{}

func NewCapabilityChecker() CapabilityChecker {
	return &DefaultCapabilityChecker{}
}

func (c *DefaultCapabilityChecker) HasCapability(userCapabilities []string, capability string) bool {
	return c.HasAnyCapability(userCapabilities, []string{capability, CapAdmin})
}

func (c *DefaultCapabilityChecker) HasAnyCapability(userCapabilities []string, required []string) bool {
	for _, have := range userCapabilities {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}
