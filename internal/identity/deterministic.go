package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
// Keys are normalized, so case and surrounding whitespace do not matter.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	return derive(key, true)
}

// ExactUUID is UUID without normalization, for case-sensitive natural keys.
func ExactUUID(key string) uuid.UUID {
	return derive(key, false)
}

func derive(key string, normalize bool) uuid.UUID {
	if strings.TrimSpace(key) == "" {
		return uuid.Nil
	}
	if normalize {
		key = strings.TrimSpace(key)
	}
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(normalize))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// PageUUID identifies a page document. Titles are document ids, so they are
// case-sensitive and scoped per collection.
func PageUUID(collection, title string) uuid.UUID {
	return ExactUUID("stagecms:page:" + strings.TrimSpace(collection) + ":" + title)
}

// TagUUID identifies a tag by its exact name.
func TagUUID(name string) uuid.UUID {
	return ExactUUID("stagecms:tag:" + name)
}

// EmailUUID identifies an allow-list entry or user by email address.
func EmailUUID(kind, email string) uuid.UUID {
	return UUID("stagecms:" + kind + ":" + strings.ToLower(strings.TrimSpace(email)))
}
