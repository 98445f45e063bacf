/* socketapi/subscription.go */

package socketapi

import (
	"context"
	"reflect"
	"sync"

	"github.com/brightloop/socketapi/internal/logging"
)

// subscriptionEngine is component D. It tracks, per channel, the ordered
// set of subscriber sessions and fans out invocation results to them.
//
// Grounded on tomtom215-cartographus's Hub (register/unregister under a
// RWMutex, snapshot-before-fan-out, deterministic iteration order) and on
// the pre-distillation SocketManager's subscribe/unsubscribe/send shape.
type subscriptionEngine struct {
	mu        sync.RWMutex
	byChannel map[string][]*subscriptionRecord
	bySession map[*Session]map[string]*subscriptionRecord

	seqMu sync.Mutex
	seq   uint64

	chanLocksMu sync.Mutex
	chanLocks   map[string]*sync.Mutex
}

func newSubscriptionEngine() *subscriptionEngine {
	return &subscriptionEngine{
		byChannel: make(map[string][]*subscriptionRecord),
		bySession: make(map[*Session]map[string]*subscriptionRecord),
		chanLocks: make(map[string]*sync.Mutex),
	}
}

func (e *subscriptionEngine) nextSeq() uint64 {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	e.seq++
	return e.seq
}

// channelLock serializes broadcasts for one channel against each other so
// the order a subscriber observes multiple broadcasts in reflects the order
// the engine processed them (§5), while fan-out to distinct subscribers
// within one broadcast may still proceed concurrently.
func (e *subscriptionEngine) channelLock(channel string) *sync.Mutex {
	e.chanLocksMu.Lock()
	defer e.chanLocksMu.Unlock()
	l, ok := e.chanLocks[channel]
	if !ok {
		l = &sync.Mutex{}
		e.chanLocks[channel] = l
	}
	return l
}

// subscribe resolves the channel's required-on-subscribe parameters from
// payload, records the subscription (replacing any existing one for this
// session/channel pair), and — if defaultResponse is set — self-primes the
// new subscriber with one additional invocation (§4.D).
func (e *subscriptionEngine) subscribe(ctx context.Context, app *App, s *Session, desc *endpointDescriptor, payload map[string]any) error {
	boundArgs, err := captureBoundArgs(ctx, app, desc, payload)
	if err != nil {
		return err
	}

	rec := &subscriptionRecord{session: s, boundArgs: boundArgs, created: e.nextSeq()}

	e.mu.Lock()
	e.replaceLocked(desc.name, s, rec)
	e.mu.Unlock()

	s.enqueue(subscribedFrame(desc.name))

	if desc.defaultResponse {
		e.selfPrime(ctx, app, s, desc, boundArgs)
	}
	return nil
}

// replaceLocked must be called with e.mu held for writing.
func (e *subscriptionEngine) replaceLocked(channel string, s *Session, rec *subscriptionRecord) {
	list := e.byChannel[channel]
	replaced := false
	for i, existing := range list {
		if existing.session == s {
			list[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		e.byChannel[channel] = append(list, rec)
	}

	bySession, ok := e.bySession[s]
	if !ok {
		bySession = make(map[string]*subscriptionRecord)
		e.bySession[s] = bySession
	}
	bySession[channel] = rec
}

// captureBoundArgs resolves only the required-on-subscribe parameters
// against payload, through the same coercion/assignment/validate-tag path
// as an ordinary value parameter (resolveArgs's ParamValue, ParamSubscribe
// case) so an invalid value is rejected at subscribe time rather than
// silently bound and only surfacing later as a fault confined to one
// subscriber. Value and dependency parameters are resolved lazily at
// broadcast time against callArgs, not bound here (§4.B, §4.D).
func captureBoundArgs(ctx context.Context, app *App, desc *endpointDescriptor, payload map[string]any) (map[string]any, error) {
	bound := make(map[string]any)
	scratch := reflect.New(desc.inType).Elem()
	for _, p := range desc.params {
		if p.kind != ParamSubscribe {
			continue
		}
		raw, present := payload[p.name]
		if !present {
			if p.hasDefault {
				bound[p.name] = p.defaultVal.Interface()
				continue
			}
			return nil, &validationFailure{detail: "missing required-on-subscribe parameter " + p.name}
		}
		raw = coerceScalar(raw, p.goType)
		fv := scratch.Field(p.fieldIndex)
		if err := assignAny(app.codec, raw, fv); err != nil {
			return nil, &validationFailure{detail: err.Error()}
		}
		if p.validate != "" {
			if err := validateField(app.validator, p.validate, fv); err != nil {
				return nil, &validationFailure{detail: err.Error()}
			}
		}
		bound[p.name] = fv.Interface()
	}
	return bound, nil
}

// selfPrime invokes the channel's handler once, targeted only at s, exactly
// as in the pre-distillation send_initial_data: a fault here is reported as
// an ordinary error frame to s and does not unwind the subscription
// (§9 open question #1).
func (e *subscriptionEngine) selfPrime(ctx context.Context, app *App, s *Session, desc *endpointDescriptor, boundArgs map[string]any) {
	in, err := resolveBroadcastArgs(ctx, app.codec, app.validator, desc, boundArgs, nil)
	if err != nil {
		s.enqueue(errorFrame(invalidParametersMessage(desc.name)))
		return
	}
	out, err := desc.invoke(withSession(ctx, s), in)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("channel", desc.name).Msg("channel self-prime handler fault")
		s.enqueue(errorFrame(asError(err).Message))
		return
	}
	if out != nil {
		s.enqueue(dataFrame(desc.name, out))
	}
}

// unsubscribe removes s's record for channel, if any, and always emits
// unsubscribed (idempotent — §4.D, §8).
func (e *subscriptionEngine) unsubscribe(s *Session, channel string) {
	e.mu.Lock()
	e.removeLocked(s, channel)
	e.mu.Unlock()
	s.enqueue(unsubscribedFrame(channel))
}

func (e *subscriptionEngine) removeLocked(s *Session, channel string) {
	list := e.byChannel[channel]
	for i, rec := range list {
		if rec.session == s {
			e.byChannel[channel] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if bySession, ok := e.bySession[s]; ok {
		delete(bySession, channel)
		if len(bySession) == 0 {
			delete(e.bySession, s)
		}
	}
}

// broadcast is component D's fan-out primitive, reachable both from a
// handler call bound to a session, from the out-of-context client (G), and
// from the ingress (F). It snapshots the subscriber list before iterating
// so concurrent subscribe/unsubscribe cannot corrupt the in-flight pass, and
// a subscriber added mid-broadcast is not observed by it (§4.D, invariant
// 3).
func (e *subscriptionEngine) broadcast(ctx context.Context, app *App, desc *endpointDescriptor, callArgs map[string]any) {
	lock := e.channelLock(desc.name)
	lock.Lock()
	defer lock.Unlock()

	e.mu.RLock()
	snapshot := make([]*subscriptionRecord, len(e.byChannel[desc.name]))
	copy(snapshot, e.byChannel[desc.name])
	e.mu.RUnlock()

	var wg sync.WaitGroup
	for _, rec := range snapshot {
		rec := rec
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.invokeForSubscriber(ctx, app, desc, rec, callArgs)
		}()
	}
	wg.Wait()
}

func (e *subscriptionEngine) invokeForSubscriber(ctx context.Context, app *App, desc *endpointDescriptor, rec *subscriptionRecord, callArgs map[string]any) {
	if rec.session.isClosing() {
		return
	}
	in, err := resolveBroadcastArgs(ctx, app.codec, app.validator, desc, rec.boundArgs, callArgs)
	if err != nil {
		// A broadcast-time validation failure is a fault confined to this
		// subscriber only (§7: "drop the frame for the affected subscriber
		// only; they do not propagate to the initiator").
		logging.FromContext(ctx).Warn().Str("channel", desc.name).Msg("broadcast argument resolution failed for one subscriber")
		return
	}
	out, err := desc.invoke(withSession(ctx, rec.session), in)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("channel", desc.name).Msg("channel handler fault during broadcast")
		return
	}
	if out == nil {
		return
	}
	rec.session.enqueue(dataFrame(desc.name, out))
}

// detach removes every subscription record belonging to s, emitting no
// frames — the session is already closing (§4.D, invariant 5).
func (e *subscriptionEngine) detach(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for channel := range e.bySession[s] {
		list := e.byChannel[channel]
		for i, rec := range list {
			if rec.session == s {
				e.byChannel[channel] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	delete(e.bySession, s)
}
