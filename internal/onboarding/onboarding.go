// internal/onboarding/onboarding.go
package onboarding

import (
	"context"
	"errors"

	"healthai/internal/storage"
)

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Flag records whether the onboarding screens have been shown once.
type Flag struct {
	kv KV
}

func NewFlag(kv KV) *Flag {
	return &Flag{kv: kv}
}

// Completed reports whether onboarding finished. Read failures count as not
// completed so the user sees the screens again rather than nothing.
func (f *Flag) Completed(ctx context.Context) (bool, error) {
	v, err := f.kv.Get(ctx, storage.KeyHasLaunched)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v == "true", nil
}

func (f *Flag) Complete(ctx context.Context) error {
	return f.kv.Set(ctx, storage.KeyHasLaunched, "true")
}
