package store

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Collection roles. Each tenant owns one collection per role, named
// "{tenant}_{role}".
const (
	roleCatalog = "catalog"
	roleChunks  = "chunks"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateTenantName rejects tenant names that cannot serve as collection
// name prefixes. Config validation applies the same rule, so this only fires
// for programmatic callers bypassing config.
func ValidateTenantName(tenant string) error {
	if !identifierPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant name: %q", tenant)
	}
	return nil
}

// CatalogCollection returns the tenant's catalog collection name.
func CatalogCollection(tenant string) string {
	return tenant + "_" + roleCatalog
}

// ChunkCollection returns the tenant's chunk collection name.
func ChunkCollection(tenant string) string {
	return tenant + "_" + roleChunks
}

// Point IDs are name-based UUIDs over a docdex-prefixed key, so they cannot
// collide with IDs minted by other tools sharing the store.
var pointNamespace = uuid.NameSpaceDNS

// CatalogPointID derives the stable point ID for a tenant's document. The
// same tenant and path always map to the same ID, so an upsert after a
// content change overwrites the previous point.
func CatalogPointID(tenant, path string) string {
	return uuid.NewSHA1(pointNamespace, []byte("docdex:"+tenant+":"+path)).String()
}

// ChunkPointID derives the stable point ID for one chunk of a document.
func ChunkPointID(tenant, path string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("docdex:%s:%s:%d", tenant, path, chunkIndex))).String()
}
