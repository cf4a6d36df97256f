package v1

import (
	"net/http"
	"strings"

	"github.com/yomuhub/yomu/api/auth"
	"github.com/yomuhub/yomu/http/request"
	"github.com/yomuhub/yomu/http/response"
	"github.com/yomuhub/yomu/log"
	"github.com/yomuhub/yomu/model"
	"github.com/yomuhub/yomu/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type AuthInterceptor struct {
	store  *store.Store
	secret string
}

func NewAuthInterceptor(store *store.Store, secret string) *AuthInterceptor {
	return &AuthInterceptor{store: store, secret: secret}
}

func (m *AuthInterceptor) AuthenticationInterceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := request.ClientIP(r)
		accessToken := getAccessToken(r)

		if accessToken == "" {
			if isUnauthorizeAllowed(r) {
				next.ServeHTTP(w, r)
				return
			}
			log.Debug("Failed to authenticate because no access token provided",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", r.UserAgent()),
			)
			response.Unauthorized(w, r)
			return
		}

		user, err := m.authenticate(accessToken)
		if err != nil {
			log.Debug("Failed to authenticate user",
				zap.String("client_ip", clientIP),
				zap.String("user_agent", r.UserAgent()),
				zap.Error(err),
			)
			// A stale token must not lock clients out of public pages.
			if isUnauthorizeAllowed(r) {
				next.ServeHTTP(w, r)
				return
			}
			response.Unauthorized(w, r)
			return
		}

		if isOnlyForAdminAllowedPath(r.URL.Path) && user.Role != model.RoleHost && user.Role != model.RoleAdmin {
			response.Forbidden(w, r)
			return
		}

		if err := m.store.TouchUserLastLogin(user.ID); err != nil {
			log.Warn("Failed to update last login", zap.Int32("user_id", user.ID), zap.Error(err))
		}

		next.ServeHTTP(w, request.WithUser(r, user.ID, user.Role))
	})
}

func (m *AuthInterceptor) authenticate(accessToken string) (*model.User, error) {
	userID, _, err := auth.ParseAccessToken(accessToken, []byte(m.secret))
	if err != nil {
		return nil, errors.Wrap(err, "invalid or expired access token")
	}

	user, err := m.store.GetUser(&model.FindUser{ID: &userID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	if user == nil {
		return nil, errors.Errorf("user not found with ID: %d", userID)
	}
	if user.RowStatus == model.Archived {
		return nil, errors.Errorf("user is archived with ID: %d", userID)
	}
	return user, nil
}

func getAccessToken(r *http.Request) string {
	// Check the HTTP Authorization header first
	authorizationHeaders := r.Header.Get("Authorization")
	// Check bearer token
	if authorizationHeaders != "" {
		splitToken := strings.Split(authorizationHeaders, "Bearer ")
		if len(splitToken) == 2 {
			return splitToken[1]
		}
	}

	// Check the cookie header
	var accessToken string
	for cookie := range r.Cookies() {
		if r.Cookies()[cookie].Name == auth.AccessTokenCookieName {
			accessToken = r.Cookies()[cookie].Value
		}
	}
	return accessToken
}
