package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Resolution describes which identity keys a turn reads from and writes to.
type Resolution struct {
	// SessionKey is the ephemeral key the transport supplied for this turn.
	SessionKey string
	// ReadKey is where this turn's state must be loaded from.
	ReadKey string
	// WriteKey is where this turn's state must be persisted.
	WriteKey string
	// VerifiedPhone is the phone considered verified after this turn,
	// empty when the caller is still anonymous.
	VerifiedPhone string
	// MigrationRequired is set when state accumulated under SessionKey must
	// be carried over to WriteKey before the turn proceeds.
	MigrationRequired bool
}

// Resolver maps the (session key, extracted phone, previously verified
// phone) triple onto the identity a turn tracks, and moves accumulated
// state when an anonymous session upgrades to a verified phone.
type Resolver struct {
	store SessionStore
	log   zerolog.Logger
}

// NewResolver creates an identity resolver over the given session store.
func NewResolver(store SessionStore, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.With().Str("component", "identity-resolver").Logger(),
	}
}

// CandidateWriteKey computes the write key without touching the store. It
// is used to pick the lock key before the turn's critical section begins;
// Resolve re-derives the full resolution under that lock.
func CandidateWriteKey(sessionKey, extractedPhone, priorPhone string) string {
	if priorPhone == "" && extractedPhone != "" && IsValidPhone(extractedPhone) {
		return StripPhoneSeparators(extractedPhone)
	}
	if priorPhone != "" {
		return priorPhone
	}
	return sessionKey
}

// Resolve decides the read and write keys for this turn.
//
// A phone extracted this turn becomes the verified identity only when it
// passes validation and no phone was verified before; in that case state
// accumulated under the session key must migrate to the phone key. Once the
// identity has stabilized (same keys, or nothing left under the old key)
// migration degrades to a no-op, so re-resolving every turn is safe.
func (r *Resolver) Resolve(ctx context.Context, sessionKey, extractedPhone, priorPhone string) (Resolution, error) {
	res := Resolution{SessionKey: sessionKey, VerifiedPhone: priorPhone}

	if priorPhone == "" && extractedPhone != "" && IsValidPhone(extractedPhone) {
		phone := StripPhoneSeparators(extractedPhone)
		res.WriteKey = phone
		res.VerifiedPhone = phone
		if sessionKey != "" && sessionKey != phone {
			exists, err := r.exists(ctx, sessionKey)
			if err != nil {
				return Resolution{}, fmt.Errorf("probe session key: %w", err)
			}
			res.MigrationRequired = exists
		}
	} else if priorPhone != "" {
		res.WriteKey = priorPhone
	} else {
		res.WriteKey = sessionKey
	}

	existsAtWrite, err := r.exists(ctx, res.WriteKey)
	if err != nil {
		return Resolution{}, fmt.Errorf("probe write key: %w", err)
	}
	if existsAtWrite {
		res.ReadKey = res.WriteKey
	} else {
		res.ReadKey = sessionKey
	}
	if res.ReadKey == "" {
		res.ReadKey = res.WriteKey
	}
	return res, nil
}

// Migrate carries state accumulated under the old session key over to the
// write key and deletes the old record. On field conflicts the write key's
// own data wins. Running it again after the old record is gone is a no-op,
// which keeps the procedure idempotent across retried turns.
func (r *Resolver) Migrate(ctx context.Context, res Resolution) error {
	if !res.MigrationRequired || res.SessionKey == res.WriteKey {
		return nil
	}

	old, err := r.store.Get(ctx, res.SessionKey)
	if errors.Is(err, ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load old session %q: %w", res.SessionKey, err)
	}

	target, err := r.store.Get(ctx, res.WriteKey)
	if errors.Is(err, ErrStateNotFound) {
		target = NewState(res.WriteKey)
	} else if err != nil {
		return fmt.Errorf("load target session %q: %w", res.WriteKey, err)
	}

	merged := mergeStates(old, target)
	merged.IdentityKey = res.WriteKey

	if err := r.store.Upsert(ctx, res.WriteKey, merged); err != nil {
		return fmt.Errorf("persist migrated session: %w", err)
	}
	if err := r.store.Delete(ctx, res.SessionKey); err != nil {
		return fmt.Errorf("delete old session %q: %w", res.SessionKey, err)
	}

	r.log.Info().
		Str("from", res.SessionKey).
		Str("to", res.WriteKey).
		Int("fields", len(merged.Collected)).
		Msg("session identity migrated")
	return nil
}

// mergeStates folds old into target, preferring target's own values on
// conflicts. History is concatenated oldest-first and re-truncated.
func mergeStates(old, target *State) *State {
	out := target.Clone()
	for f, v := range old.Collected {
		if _, taken := out.Collected[f]; !taken {
			out.Collected[f] = v
		}
	}
	for f, n := range old.RetryCount {
		if _, taken := out.RetryCount[f]; !taken {
			out.RetryCount[f] = n
		}
	}
	history := append(append([]string(nil), old.History...), target.History...)
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	out.History = history
	if out.CurrentStep == "" {
		out.CurrentStep = old.CurrentStep
	}
	if out.LastInteraction.Before(old.LastInteraction) {
		out.LastInteraction = old.LastInteraction
	}
	return out
}

func (r *Resolver) exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	_, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrStateNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
