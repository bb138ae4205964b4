//go:build enterprise
// +build enterprise

package rbac

// Enterprise build uses real RBAC implementation
// This file would be replaced in enterprise builds

// import "lumen/internal/ee-real/rbac"

// func New() RBACManager {
//     return rbac.NewEnterpriseRBACManager()
// }

// Note: Real implementation would support:
// - Custom roles and permissions
// - Fine-grained resource access control
// - Hierarchical permission inheritance
// - Integration with SSO role mapping
