// Package util provides small shared helpers.
package util

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
)

// GenUUID generates a random UUID string.
func GenUUID() string {
	return uuid.NewString()
}

// GenShortUID generates a short, URL-safe unique identifier.
// Used as the public uid of plugin chain records.
func GenShortUID() string {
	return shortuuid.New()
}
