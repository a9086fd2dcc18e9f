package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
)

// UserLookup resolves a user by id; satisfied by users.Repository.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Gateway turns an Authorization header into an Identity:
// extract the bearer token, verify it, then confirm the user still exists.
type Gateway struct {
	tokens *TokenService
	users  UserLookup
}

func NewGateway(tokens *TokenService, users UserLookup) *Gateway {
	return &Gateway{tokens: tokens, users: users}
}

// Authenticate runs the whole check for one request. It performs exactly one
// user lookup, and only after the token has verified.
//
// Errors: common.ErrMissingToken, common.ErrTokenInvalid,
// common.ErrUserNotFound, or a wrapped storage error.
func (g *Gateway) Authenticate(ctx context.Context, authorization string) (Identity, error) {
	token, err := BearerToken(authorization)
	if err != nil {
		return Identity{}, err
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return Identity{}, common.ErrUserNotFound
		}
		return Identity{}, err
	}

	return Identity{UserID: user.ID}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. A blank header is common.ErrMissingToken; any other shape is
// common.ErrTokenInvalid.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", common.ErrMissingToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", common.ErrTokenInvalid
	}
	return parts[1], nil
}
