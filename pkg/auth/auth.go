package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const actorContextKey contextKey = "actor_context"

// ActorContext identifies the authenticated actor behind one conversational
// turn. Every bulk session is keyed by ActorID.
type ActorContext struct {
	ActorID string
	Roles   []string
}

// ContextWithActor adds the actor context to the context.
func ContextWithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the actor context from the context.
func ActorFromContext(ctx context.Context) (*ActorContext, error) {
	actor, ok := ctx.Value(actorContextKey).(*ActorContext)
	if !ok {
		return nil, errors.New("actor context not found")
	}
	return actor, nil
}

// ParseToken validates an HS256 JWT and extracts the actor identity from its
// claims.
func ParseToken(secret, tokenString string) (*ActorContext, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected token signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	actorID, ok := claims["actor_id"].(string)
	if !ok || actorID == "" {
		return nil, errors.New("token missing actor_id claim")
	}

	return &ActorContext{
		ActorID: actorID,
		Roles:   extractRoles(claims["roles"]),
	}, nil
}

func extractRoles(rolesInterface any) []string {
	if rolesInterface == nil {
		return []string{}
	}

	rolesSlice, ok := rolesInterface.([]any)
	if !ok {
		return []string{}
	}

	roles := make([]string, 0, len(rolesSlice))
	for _, role := range rolesSlice {
		if roleStr, ok := role.(string); ok {
			roles = append(roles, roleStr)
		}
	}

	return roles
}

type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

// CanRunBulk reports whether the actor may start or drive bulk operations.
func (a *Authorizer) CanRunBulk(actor *ActorContext) bool {
	return hasRole(actor, "user") || hasRole(actor, "admin")
}

func hasRole(actor *ActorContext, role string) bool {
	return slices.Contains(actor.Roles, role)
}
