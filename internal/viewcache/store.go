package viewcache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

const keyPrefix = "calendar:view:"

// Store holds serialized fetch results. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key builds the cache key for one resource family and its range parameters.
func Key(res calendar.Resource, parts ...string) string {
	return FamilyPrefix(res) + strings.Join(parts, ":")
}

func FamilyPrefix(res calendar.Resource) string {
	return keyPrefix + string(res) + ":"
}

// Invalidate drops every cached entry of the given families.
func Invalidate(ctx context.Context, store Store, resources ...calendar.Resource) error {
	var errs []error
	for _, res := range resources {
		if err := store.DeletePrefix(ctx, FamilyPrefix(res)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
