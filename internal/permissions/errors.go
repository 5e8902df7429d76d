package permissions

import (
	"fmt"
	"net/http"

	"github.com/philly/edge-permissions/internal/platform/apperror"
)

// newConfigError reports a grant/role record that failed to decode
// (unknown role kind, empty privilege set). This is a configuration
// error, not a per-transaction error: it is surfaced to whoever supplied
// the configuration, never to an edge client.
func newConfigError(message string) *apperror.AppError {
	return apperror.New(apperror.CodeBadRequest, apperror.BusinessCodeInvalidGrant, message, http.StatusBadRequest)
}

// newDeniedError reports that no role-grant admitted a write, naming the
// offending privilege and relation using the stable, user-visible
// message format.
func newDeniedError(privilege Privilege, relation Relation) *apperror.AppError {
	verb := writeVerb(privilege)
	message := fmt.Sprintf("user does not have permission to %s %s", verb, relation.String())
	return apperror.New(apperror.CodeUnauthorized, apperror.BusinessCodePermissionDenied, message, http.StatusForbidden)
}

// newResolverError wraps a transport-level failure from the scope
// resolver or transient lookup (e.g. a Postgres query failure), kept
// distinguishable from a plain denial.
func newResolverError(inner error, relation Relation) *apperror.AppError {
	message := fmt.Sprintf("failed to resolve scope for %s", relation.String())
	return apperror.Wrap(inner, apperror.CodeInternalError, apperror.BusinessCodeResolverFailure, message, http.StatusInternalServerError)
}

// writeVerb renders the SQL verb used in the stable write-rejection
// message for a privilege. INSERT and DELETE are phrased with their
// preposition ("INSERT INTO", "DELETE FROM"); UPDATE stands alone.
func writeVerb(p Privilege) string {
	switch p {
	case PrivilegeInsert:
		return "INSERT INTO"
	case PrivilegeDelete:
		return "DELETE FROM"
	case PrivilegeUpdate:
		return "UPDATE"
	default:
		return string(p)
	}
}
