package auth

import (
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/apierror"
)

// CheckOwnership decides whether caller may act on a fetched resource. A missing
// resource is always reported as not found before ownership is considered.
func CheckOwnership(callerID, ownerID string, exists bool, kind, action string) error {
	if !exists {
		return apierror.NotFound(fmt.Sprintf("%s not found", capitalize(kind)))
	}
	if callerID == "" || ownerID != callerID {
		return apierror.Forbidden(fmt.Sprintf("You are not authorized to %s this %s", action, strings.ToLower(kind)))
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
