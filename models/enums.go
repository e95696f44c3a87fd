package models

import (
	"fmt"
	"strings"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleUser   UserRole = "user"
	RoleViewer UserRole = "viewer"
)

type FolderType string

const (
	FolderStandard FolderType = "standard"
	FolderSmart    FolderType = "smart"
	FolderSecure   FolderType = "secure"
)

type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusPending   DocumentStatus = "pending"
	StatusApproved  DocumentStatus = "approved"
	StatusExpired   DocumentStatus = "expired"
	StatusCancelled DocumentStatus = "cancelled"
)

// Capability is one entry of a document permission set.
type Capability string

const (
	CapRead   Capability = "read"
	CapWrite  Capability = "write"
	CapShare  Capability = "share"
	CapDelete Capability = "delete"
)

var (
	userRoles    = []UserRole{RoleAdmin, RoleUser, RoleViewer}
	folderTypes  = []FolderType{FolderStandard, FolderSmart, FolderSecure}
	statuses     = []DocumentStatus{StatusDraft, StatusPending, StatusApproved, StatusExpired, StatusCancelled}
	capabilities = []Capability{CapRead, CapWrite, CapShare, CapDelete}
)

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	v := T(strings.ToLower(strings.TrimSpace(raw)))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}

func ParseUserRole(raw string) (UserRole, error) {
	return parseEnum("role", raw, userRoles)
}

func ParseFolderType(raw string) (FolderType, error) {
	return parseEnum("folder type", raw, folderTypes)
}

func ParseDocumentStatus(raw string) (DocumentStatus, error) {
	return parseEnum("status", raw, statuses)
}

func ParseCapability(raw string) (Capability, error) {
	return parseEnum("permission", raw, capabilities)
}

// DocumentStatuses lists every status in declaration order.
func DocumentStatuses() []DocumentStatus {
	return append([]DocumentStatus(nil), statuses...)
}
