package organization

import (
	"context"
	"time"

	"lumen/pkg/pagination"
	"lumen/pkg/ulid"
)

// OrganizationRepository defines the interface for organization data access.
type OrganizationRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id ulid.ULID) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	Delete(ctx context.Context, id ulid.ULID) error
	List(ctx context.Context, filters *OrganizationFilters) ([]*Organization, error)

	// User context
	GetOrganizationsByUserID(ctx context.Context, userID ulid.ULID) ([]*Organization, error)

	// Batch operations for workspace context
	GetUserOrganizationsWithProjectsBatch(ctx context.Context, userID ulid.ULID) ([]*OrganizationWithProjectsAndRole, error)
}

// MemberRepository defines the interface for organization member data access.
type MemberRepository interface {
	// Member management
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id ulid.ULID) (*Member, error)
	GetByUserAndOrg(ctx context.Context, userID, orgID ulid.ULID) (*Member, error)
	GetByUserAndOrganization(ctx context.Context, userID, orgID ulid.ULID) (*Member, error) // Alias for GetByUserAndOrg
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id ulid.ULID) error
	DeleteByUserAndOrg(ctx context.Context, orgID, userID ulid.ULID) error

	// Organization members
	GetMembersByOrganizationID(ctx context.Context, orgID ulid.ULID) ([]*Member, error)
	GetByOrganizationID(ctx context.Context, orgID ulid.ULID) ([]*Member, error) // Alias for GetMembersByOrganizationID
	GetMembersByUserID(ctx context.Context, userID ulid.ULID) ([]*Member, error)

	// Role operations
	UpdateMemberRole(ctx context.Context, orgID, userID, roleID ulid.ULID) error
	GetMemberRole(ctx context.Context, userID, orgID ulid.ULID) (ulid.ULID, error)
	CountByOrganizationAndRole(ctx context.Context, orgID, roleID ulid.ULID) (int, error)

	// Membership validation
	IsMember(ctx context.Context, userID, orgID ulid.ULID) (bool, error)
	GetMemberCount(ctx context.Context, orgID ulid.ULID) (int, error)
}

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id ulid.ULID) (*Project, error)
	GetBySlug(ctx context.Context, orgID ulid.ULID, slug string) (*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id ulid.ULID) error

	// Organization scoped
	GetByOrganizationID(ctx context.Context, orgID ulid.ULID) ([]*Project, error)
	GetProjectCount(ctx context.Context, orgID ulid.ULID) (int, error)

	// Access validation
	CanUserAccessProject(ctx context.Context, userID, projectID ulid.ULID) (bool, error)
}

// InvitationRepository defines the interface for user invitation data access.
type InvitationRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, invitation *Invitation) error
	GetByID(ctx context.Context, id ulid.ULID) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)         // Deprecated: use GetByTokenHash
	GetByTokenHash(ctx context.Context, tokenHash string) (*Invitation, error) // Secure token lookup
	Update(ctx context.Context, invitation *Invitation) error
	Delete(ctx context.Context, id ulid.ULID) error

	// Organization invitations
	GetByOrganizationID(ctx context.Context, orgID ulid.ULID) ([]*Invitation, error)
	GetByEmail(ctx context.Context, email string) ([]*Invitation, error)
	GetPendingByEmail(ctx context.Context, orgID ulid.ULID, email string) (*Invitation, error)
	GetPendingInvitations(ctx context.Context, orgID ulid.ULID) ([]*Invitation, error)

	// Invitation management
	MarkAccepted(ctx context.Context, id ulid.ULID, acceptedByID ulid.ULID) error
	MarkExpired(ctx context.Context, id ulid.ULID) error
	RevokeInvitation(ctx context.Context, id ulid.ULID, revokedByID ulid.ULID) error
	MarkResent(ctx context.Context, id ulid.ULID, newExpiresAt time.Time) error
	CleanupExpiredInvitations(ctx context.Context) error

	// Validation
	IsEmailAlreadyInvited(ctx context.Context, email string, orgID ulid.ULID) (bool, error)

	// Audit logging
	CreateAuditEvent(ctx context.Context, event *InvitationAuditEvent) error
	GetAuditEventsByInvitationID(ctx context.Context, invitationID ulid.ULID) ([]*InvitationAuditEvent, error)
}

// OrganizationFilters represents filters for organization queries.
type OrganizationFilters struct {
	// Domain filters
	Name   *string
	Plan   *string
	Status *string

	// Pagination (embedded for DRY)
	pagination.Params
}

// MemberFilters represents filters for member queries.
type MemberFilters struct {
	// Domain filters
	OrganizationID *ulid.ULID
	UserID         *ulid.ULID
	RoleID         *ulid.ULID

	// Pagination (embedded for DRY)
	pagination.Params
}

// ProjectFilters represents filters for project queries.
type ProjectFilters struct {
	// Domain filters
	OrganizationID *ulid.ULID
	Name           *string

	// Pagination (embedded for DRY)
	pagination.Params
}

// InvitationFilters represents filters for invitation queries.
type InvitationFilters struct {
	// Domain filters
	OrganizationID *ulid.ULID
	Status         *string
	Email          *string

	// Pagination (embedded for DRY)
	pagination.Params
}

// OrganizationSettingsRepository defines the interface for organization settings data access.
type OrganizationSettingsRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, setting *OrganizationSettings) error
	GetByID(ctx context.Context, id ulid.ULID) (*OrganizationSettings, error)
	GetByKey(ctx context.Context, orgID ulid.ULID, key string) (*OrganizationSettings, error)
	Update(ctx context.Context, setting *OrganizationSettings) error
	Delete(ctx context.Context, id ulid.ULID) error

	// Organization scoped operations
	GetAllByOrganizationID(ctx context.Context, orgID ulid.ULID) ([]*OrganizationSettings, error)
	GetSettingsMap(ctx context.Context, orgID ulid.ULID) (map[string]interface{}, error)
	DeleteByKey(ctx context.Context, orgID ulid.ULID, key string) error
	UpsertSetting(ctx context.Context, orgID ulid.ULID, key string, value interface{}) (*OrganizationSettings, error)

	// Bulk operations
	CreateMultiple(ctx context.Context, settings []*OrganizationSettings) error
	GetByKeys(ctx context.Context, orgID ulid.ULID, keys []string) ([]*OrganizationSettings, error)
	DeleteMultiple(ctx context.Context, orgID ulid.ULID, keys []string) error
}

// Repository aggregates all organization-related repositories.
type Repository interface {
	Organizations() OrganizationRepository
	Members() MemberRepository
	Projects() ProjectRepository
	Invitations() InvitationRepository
	Settings() OrganizationSettingsRepository
}
