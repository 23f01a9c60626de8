package conversation

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gurukitchen/hostess-api/internal/domain/booking"
)

// Extractor turns a raw utterance into a structured partial record. It may
// return an all-nil record on failure; the phone field is never
// pre-validated, the core always re-validates.
type Extractor interface {
	Extract(ctx context.Context, utterance string) (ExtractedRecord, error)
}

// TurnResult is what one processed turn hands back to the transport layer.
type TurnResult struct {
	Intent Intent
	// VerifiedPhone is the phone the transport should carry into the next
	// turn, empty while the caller is anonymous.
	VerifiedPhone string
	// SessionKey echoes the ephemeral key so the transport can keep using
	// it until a phone is verified.
	SessionKey string
	// Collected is a snapshot of the accepted fields after this turn, for
	// the phrasing generator.
	Collected map[Field]string
	// History is the recent utterance window, for prompt context.
	History []string
	// Forced marks a confirmation that used auto-filled defaults.
	Forced bool
	// Migrated is set when this turn moved anonymous state onto a newly
	// verified phone identity.
	Migrated bool
	// Booking is set when this turn committed a reservation.
	Booking *booking.Record
}

var greetingPattern = regexp.MustCompile(`(?i)^\s*(hi|hiya|hello|hey|yo|good\s+(morning|afternoon|evening)|namaste)[\s!,.?]*$`)

var resetPhrases = []string{"new booking", "start over", "book again"}

// Orchestrator composes identity resolution, slot filling and booking
// commit into the per-turn pipeline. One instance serves all identities;
// per-identity serialization comes from the TurnLocker.
type Orchestrator struct {
	sessions  SessionStore
	bookings  booking.Store
	extractor Extractor
	resolver  *Resolver
	engine    *Engine
	committer *Committer
	locker    TurnLocker
	log       zerolog.Logger
}

// NewOrchestrator wires the conversation pipeline.
func NewOrchestrator(
	sessions SessionStore,
	bookings booking.Store,
	extractor Extractor,
	resolver *Resolver,
	engine *Engine,
	committer *Committer,
	locker TurnLocker,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions:  sessions,
		bookings:  bookings,
		extractor: extractor,
		resolver:  resolver,
		engine:    engine,
		committer: committer,
		locker:    locker,
		log:       log.With().Str("component", "conversation-orchestrator").Logger(),
	}
}

// HandleTurn processes one caller utterance end to end and returns the
// response intent plus the identity the transport should track. It is the
// single public entry point of the conversation core.
//
// Collaborator failures degrade, they never escape: a dead extractor means
// an empty record this turn, a failed store write means a retryable
// trouble intent. Nothing here is fatal to the session except exhausting
// the phone retries, and even that yields a repeatable prompt.
func (o *Orchestrator) HandleTurn(ctx context.Context, utterance, sessionKey, verifiedPhone string) (*TurnResult, error) {
	rec, err := o.extractor.Extract(ctx, utterance)
	if err != nil {
		// Treated as "nothing extracted this turn": the pending field is
		// simply re-asked.
		o.log.Warn().Err(err).Msg("extraction failed, proceeding with empty record")
		rec = ExtractedRecord{}
	}

	extractedPhone := ""
	if rec.Phone != nil {
		extractedPhone = *rec.Phone
	}

	// Serialize against every key this turn may touch. The old session key
	// is included so migration is a critical section relative to reads of
	// that key.
	lockKeys := []string{CandidateWriteKey(sessionKey, extractedPhone, verifiedPhone)}
	if sessionKey != "" && sessionKey != lockKeys[0] {
		lockKeys = append(lockKeys, sessionKey)
	}
	unlock, err := o.lockAll(ctx, lockKeys)
	if err != nil {
		o.log.Error().Err(err).Msg("turn lock acquisition failed")
		return o.troubleResult(sessionKey, verifiedPhone), nil
	}
	defer unlock()

	res, err := o.resolver.Resolve(ctx, sessionKey, extractedPhone, verifiedPhone)
	if err != nil {
		o.log.Error().Err(err).Msg("identity resolution failed")
		return o.troubleResult(sessionKey, verifiedPhone), nil
	}
	if err := o.resolver.Migrate(ctx, res); err != nil {
		o.log.Error().Err(err).Msg("session migration failed")
		return o.troubleResult(sessionKey, verifiedPhone), nil
	}
	if res.MigrationRequired {
		// The migrated record now lives at the write key; the read key
		// computed before migration points at the deleted session record.
		res.ReadKey = res.WriteKey
	}

	state, fresh, err := o.loadState(ctx, res)
	if err != nil {
		o.log.Error().Err(err).Msg("session load failed")
		return o.troubleResult(sessionKey, verifiedPhone), nil
	}

	// A returning verified caller with a live upcoming reservation gets a
	// welcome-back instead of a slot-filling turn, unless they ask to start
	// a new booking.
	if res.VerifiedPhone != "" && !containsResetPhrase(utterance) {
		if upcoming, err := o.bookings.GetUpcoming(ctx, res.VerifiedPhone); err == nil && upcoming != nil {
			return &TurnResult{
				Intent:        IntentWelcomeBack,
				VerifiedPhone: res.VerifiedPhone,
				SessionKey:    sessionKey,
				Collected:     snapshotFromBooking(upcoming),
				History:       state.History,
				Migrated:      res.MigrationRequired,
				Booking:       upcoming,
			}, nil
		}
	}

	// A bare greeting on a brand-new conversation does not consume a
	// slot-filling turn.
	if fresh && greetingPattern.MatchString(utterance) {
		return &TurnResult{
			Intent:        IntentWelcome,
			VerifiedPhone: res.VerifiedPhone,
			SessionKey:    sessionKey,
		}, nil
	}

	merged := o.engine.Merge(state, rec, utterance)
	advanced, action := o.engine.Advance(merged)

	var out *TurnResult
	switch action.Kind {
	case ActionAsk:
		advanced.CurrentStep = AskIntent(action.Field)
		if err := o.persist(ctx, res.WriteKey, advanced); err != nil {
			return o.troubleResult(sessionKey, res.VerifiedPhone), nil
		}
		out = o.result(AskIntent(action.Field), res, advanced, false, nil)

	case ActionNeedValidPhone:
		advanced.CurrentStep = IntentNeedValidPhone
		if err := o.persist(ctx, res.WriteKey, advanced); err != nil {
			return o.troubleResult(sessionKey, res.VerifiedPhone), nil
		}
		out = o.result(IntentNeedValidPhone, res, advanced, false, nil)

	case ActionReadyToBook:
		var err error
		out, err = o.commit(ctx, res, advanced, action.Forced)
		if err != nil {
			return nil, err
		}

	default:
		o.log.Error().Str("kind", string(action.Kind)).Msg("unknown next action")
		return o.troubleResult(sessionKey, res.VerifiedPhone), nil
	}

	out.Migrated = res.MigrationRequired
	return out, nil
}

func (o *Orchestrator) commit(ctx context.Context, res Resolution, state *State, forced bool) (*TurnResult, error) {
	result := o.committer.Attempt(ctx, state)

	switch result.Outcome {
	case OutcomeBooked:
		intent := IntentConfirmBooking
		if forced {
			intent = IntentForceComplete
		}
		return o.result(intent, res, state, forced, result.Record), nil

	case OutcomeSlotUnavailable:
		next := result.State
		next.CurrentStep = IntentAskTime
		if err := o.persist(ctx, res.WriteKey, next); err != nil {
			return o.troubleResult(res.SessionKey, res.VerifiedPhone), nil
		}
		return o.result(IntentUnavailable, res, next, forced, nil), nil

	case OutcomeNeedValidPhone:
		next := result.State
		next.CurrentStep = IntentAskPhone
		if err := o.persist(ctx, res.WriteKey, next); err != nil {
			return o.troubleResult(res.SessionKey, res.VerifiedPhone), nil
		}
		return o.result(IntentAskPhone, res, next, forced, nil), nil

	default: // OutcomePersistFailure
		// Keep the merged fields safe so next turn retries the same
		// commit instead of re-collecting everything.
		preserved := state.Clone()
		preserved.CurrentStep = IntentConfirmBooking
		if err := o.persist(ctx, res.WriteKey, preserved); err != nil {
			o.log.Error().Err(err).Msg("state preservation after commit failure also failed")
		}
		return o.troubleResult(res.SessionKey, res.VerifiedPhone), nil
	}
}

func (o *Orchestrator) loadState(ctx context.Context, res Resolution) (*State, bool, error) {
	state, err := o.sessions.Get(ctx, res.ReadKey)
	if errors.Is(err, ErrStateNotFound) {
		return NewState(res.WriteKey), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	state = state.Clone()
	state.IdentityKey = res.WriteKey
	return state, false, nil
}

func (o *Orchestrator) persist(ctx context.Context, key string, state *State) error {
	if err := o.sessions.Upsert(ctx, key, state); err != nil {
		o.log.Error().Err(err).Str("key", key).Msg("session persist failed")
		return err
	}
	return nil
}

func (o *Orchestrator) lockAll(ctx context.Context, keys []string) (func(), error) {
	// Deterministic order so two turns touching the same pair of keys
	// cannot deadlock.
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var unlocks []func()
	for _, k := range sorted {
		if k == "" {
			continue
		}
		unlock, err := o.locker.Lock(ctx, k)
		if err != nil {
			for i := len(unlocks) - 1; i >= 0; i-- {
				unlocks[i]()
			}
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}, nil
}

func (o *Orchestrator) result(intent Intent, res Resolution, state *State, forced bool, rec *booking.Record) *TurnResult {
	out := &TurnResult{
		Intent:        intent,
		VerifiedPhone: res.VerifiedPhone,
		SessionKey:    res.SessionKey,
		Collected:     make(map[Field]string, len(state.Collected)),
		History:       append([]string(nil), state.History...),
		Forced:        forced,
		Booking:       rec,
	}
	for f, v := range state.Collected {
		out.Collected[f] = v
	}
	return out
}

func (o *Orchestrator) troubleResult(sessionKey, verifiedPhone string) *TurnResult {
	return &TurnResult{
		Intent:        IntentTrouble,
		VerifiedPhone: verifiedPhone,
		SessionKey:    sessionKey,
	}
}

func containsResetPhrase(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, phrase := range resetPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func snapshotFromBooking(rec *booking.Record) map[Field]string {
	return map[Field]string{
		FieldName:      rec.Name,
		FieldPhone:     rec.Phone,
		FieldPartySize: strconv.Itoa(rec.PartySize),
		FieldDate:      rec.BookingDate,
		FieldTime:      rec.BookingTime,
	}
}
