// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity represents the authenticated vendor's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access vendor information without depending on Gin.
type Identity interface {
	// VendorID returns the authenticated vendor's email address.
	VendorID() string
	// Roles returns the vendor's assigned roles.
	Roles() []string
	// IsAdmin checks if the vendor carries the admin role.
	IsAdmin() bool
	// IsAuthenticated returns true if the vendor is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	vendorID      string
	roles         []string
	authenticated bool
}

func (i *identity) VendorID() string {
	return i.vendorID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) IsAdmin() bool {
	for _, r := range i.roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if vendor info is not present.
func GetIdentity(c *gin.Context) Identity {
	vendorID, vendorOK := c.Get(ContextVendorIDKey)
	roles, rolesOK := c.Get(ContextRolesKey)

	if !vendorOK {
		return &identity{authenticated: false}
	}

	id, ok := vendorID.(string)
	if !ok || id == "" {
		return &identity{authenticated: false}
	}

	var roleList []string
	if rolesOK {
		roleList, _ = roles.([]string)
	}

	return &identity{
		vendorID:      id,
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the vendor is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
