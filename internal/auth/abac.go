package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/authz"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
)

// OwnerLookup returns the creator of a request.
type OwnerLookup func(ctx context.Context, requestID int64) (int64, error)

// SQLOwnerLookup reads created_by_id with a plain sqlx query.
func SQLOwnerLookup(db *sqlx.DB) OwnerLookup {
	return func(ctx context.Context, requestID int64) (int64, error) {
		var ownerID int64
		err := db.GetContext(ctx, &ownerID, db.Rebind("SELECT created_by_id FROM maintenance_requests WHERE id = ?"), requestID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, internal.ErrRequestNotFound
			}
			return 0, err
		}
		return ownerID, nil
	}
}

// RequireRequestAccess rejects requests for /requests/{id} the caller may
// not see before the handler runs. Hidden and missing ids both answer 404.
func (ra *RBACAuthorization) RequireRequestAccess(lookup OwnerLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.HandleServiceError(w, internal.ErrAuthRequired)
				return
			}

			scope, err := authz.ForIdentity(user.Identity())
			if err != nil {
				ra.HandleServiceError(w, err)
				return
			}
			if scope.Unscoped() {
				next.ServeHTTP(w, r)
				return
			}

			id, err := coerce.ParseID(chi.URLParam(r, "id"))
			if err != nil {
				ra.HandleServiceError(w, internal.NewValidationFieldError("id", "invalid request id", internal.ErrCodeInvalidReference))
				return
			}

			ownerID, err := lookup(r.Context(), id)
			if err != nil {
				if !internal.IsNotFound(err) {
					ra.logger.ErrorContext(r.Context(), "ownership lookup failed", "error", err, "request_id", id)
				}
				ra.HandleServiceError(w, err)
				return
			}

			if !scope.CanSeeRequest(ownerID) {
				ra.logger.WarnContext(r.Context(), "request outside caller scope",
					"user_id", user.ID,
					"request_id", id)
				ra.HandleServiceError(w, internal.ErrRequestNotFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
