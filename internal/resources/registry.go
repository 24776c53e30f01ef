package resources

import (
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/auth"
)

// NewRegistry registers every resource type served by the API.
func NewRegistry(hasher auth.PasswordHasher) (*resource.Registry, error) {
	return resource.NewRegistry(Users(hasher), Roles())
}
