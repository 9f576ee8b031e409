// Package blackboard implements the shared, typed, thread-safe key-value
// store nodes use to communicate through ports. A Blackboard owns a
// local key->Entry map plus a remapping table
// that redirects a subtree's internal key names onto its parent's keys,
// so a tree of nested subtrees can share state without every node
// agreeing on global key names.
package blackboard

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
)

// Error is the sentinel family returned by Blackboard operations.
type Error struct {
	Kind Kind
	Key  string
	msg  string
}

// Kind enumerates blackboard.Error's failure modes.
type Kind uint8

const (
	KeyNotFound Kind = iota
	TypeMismatch
	ConverterMissing
	EmptyEntry
	CastOutOfRange
)

func (k Kind) String() string {
	switch k {
	case KeyNotFound:
		return "key not found"
	case TypeMismatch:
		return "type mismatch"
	case ConverterMissing:
		return "converter missing"
	case EmptyEntry:
		return "empty entry"
	case CastOutOfRange:
		return "cast out of range"
	default:
		return "unknown blackboard error"
	}
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("blackboard: %s %q: %s", e.Kind, e.Key, e.msg)
	}
	return fmt.Sprintf("blackboard: %s: %q", e.Kind, e.Key)
}

func newErr(kind Kind, key, msg string) error {
	return thicket.WithStack(&Error{Kind: kind, Key: key, msg: msg})
}

// Entry is a single blackboard slot: a value, its declared type, and the
// sequence/timestamp metadata used to detect updates. Each entry carries
// its own mutex so readers/writers of distinct keys never contend.
type Entry struct {
	mutex      sync.RWMutex
	value      anyvalue.Any
	typeInfo   *anyvalue.TypeInfo
	sequenceID uint64
	stamp      time.Duration
}

// Stamped bundles a value with the write metadata observed alongside it,
// the return shape of get_stamped<T>.
type Stamped[T any] struct {
	Value      T
	SequenceID uint64
	Stamp      time.Duration
}

var startTime = time.Now()

func monotonicStamp() time.Duration {
	return time.Since(startTime)
}

// Blackboard is a hierarchical, concurrency-safe key-value store. A
// subtree's blackboard holds a non-owning pointer to its parent; the Tree
// that creates these blackboards owns all of them, forbidding cycles by
// construction.
type Blackboard struct {
	mutex      sync.RWMutex
	entries    map[string]*Entry
	remap      map[string]string // internal key -> external (parent) key
	parent     *Blackboard
	autoRemap  bool
	sequenceGen uint64
}

// New creates a blackboard with the given optional parent.
func New(parent *Blackboard) *Blackboard {
	return &Blackboard{
		entries: map[string]*Entry{},
		remap:   map[string]string{},
		parent:  parent,
	}
}

// Root walks parent links to the top of the hierarchy.
func (b *Blackboard) Root() *Blackboard {
	cur := b
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// EnableAutoRemapping toggles the subtree auto-remap flag:
// when on, a local key miss falls through to the parent's same-named key
// without an explicit add_subtree_remapping call.
func (b *Blackboard) EnableAutoRemapping(on bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.autoRemap = on
}

// AddSubtreeRemapping records that reads/writes of internal on this
// blackboard should redirect to external on the parent.
func (b *Blackboard) AddSubtreeRemapping(internal, external string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.remap[internal] = external
}

// stripRoot reports whether key is root-prefixed and
// returns the key with the prefix removed.
func stripRoot(key string) (string, bool) {
	if strings.HasPrefix(key, "@") {
		return key[1:], true
	}
	return key, false
}

// resolve walks remappings (and, if enabled, auto-remap) up the parent
// chain until it finds the blackboard that actually owns key, returning
// that blackboard and the key as seen by it. It does not look at whether
// an entry exists yet; callers decide what "not found" means.
func (b *Blackboard) resolve(key string) (*Blackboard, string) {
	if root, isRoot := stripRoot(key); isRoot {
		rootBoard := b.Root()
		if rootBoard == b {
			return b, root
		}
		return rootBoard.resolve(root)
	}

	b.mutex.RLock()
	external, remapped := b.remap[key]
	autoRemap := b.autoRemap
	_, hasLocal := b.entries[key]
	parent := b.parent
	b.mutex.RUnlock()

	if hasLocal {
		return b, key
	}
	if remapped && parent != nil {
		return parent.resolve(external)
	}
	if autoRemap && parent != nil {
		return parent.resolve(key)
	}
	return b, key
}

func (b *Blackboard) getEntryLocked(key string) (*Entry, bool) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	e, found := b.entries[key]
	return e, found
}

// Set writes v under key, creating the entry on first write. A key
// prefixed with `@` redirects to the root blackboard. Once an entry is
// strongly typed, subsequent writes must be type-compatible.
func (b *Blackboard) Set(key string, v any) error {
	target, resolvedKey := b.resolve(key)
	return target.setLocal(resolvedKey, anyvalue.New(v))
}

// SetAny is Set for callers that already hold a typed anyvalue.Any (the
// script evaluator's assignment handling, port resolution's literal
// writes), avoiding a New() round-trip that would otherwise re-box an
// already-typed value as KindCustom.
func (b *Blackboard) SetAny(key string, value anyvalue.Any) error {
	target, resolvedKey := b.resolve(key)
	return target.setLocal(resolvedKey, value)
}

// GetAny resolves key and returns its raw Any without casting, for
// callers (the script evaluator, debug dumps) that want the value as
// stored rather than narrowed to a specific T.
func (b *Blackboard) GetAny(key string) (anyvalue.Any, error) {
	target, resolvedKey := b.resolve(key)
	e, found := target.getEntryLocked(resolvedKey)
	if !found {
		return anyvalue.Any{}, newErr(KeyNotFound, key, "")
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.value, nil
}

func (b *Blackboard) setLocal(key string, value anyvalue.Any) error {
	b.mutex.Lock()
	e, found := b.entries[key]
	if !found {
		e = &Entry{}
		b.entries[key] = e
	}
	b.mutex.Unlock()

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.typeInfo != nil && e.typeInfo.Strong() {
		if err := checkCompatible(*e.typeInfo, e.value, value); err != nil {
			return err
		}
	}
	if err := e.value.CopyInto(value); err != nil {
		// Either the entry was never written (CopyInto adopts wholesale)
		// or it genuinely can't be reconciled; CopyInto on an empty Any
		// always succeeds, so only the second case reaches here.
		return thicket.WithStack(fmt.Errorf("blackboard: set %q: %w", key, err))
	}
	if e.typeInfo == nil {
		info := anyvalue.TypeInfoFor(e.value.Type())
		e.typeInfo = &info
	}
	b.bumpLocked(e)
	return nil
}

func (b *Blackboard) bumpLocked(e *Entry) {
	b.mutex.Lock()
	b.sequenceGen++
	seq := b.sequenceGen
	b.mutex.Unlock()
	e.sequenceID = seq
	e.stamp = monotonicStamp()
}

func checkCompatible(info anyvalue.TypeInfo, existing, incoming anyvalue.Any) error {
	if incoming.Empty() {
		return nil
	}
	if existing.Empty() {
		return nil
	}
	if anyvalue.IsCastingSafe(existing.Type(), incoming) {
		return nil
	}
	if incoming.Kind() == anyvalue.KindString {
		if info.Converter != nil {
			return nil
		}
		return newErr(ConverterMissing, "", "no string converter registered for "+info.Name)
	}
	return newErr(TypeMismatch, "", fmt.Sprintf("cannot write %s into %s entry", incoming.TypeName(), info.Name))
}

// Get resolves key through remappings and casts/parses the stored value
// into T.
func Get[T any](b *Blackboard, key string) (T, error) {
	var zero T
	target, resolvedKey := b.resolve(key)
	e, found := target.getEntryLocked(resolvedKey)
	if !found {
		return zero, newErr(KeyNotFound, key, "")
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if e.value.Empty() {
		return zero, newErr(EmptyEntry, key, "")
	}
	v, err := anyvalue.TryCast[T](e.value)
	if err != nil {
		return zero, newErr(TypeMismatch, key, err.Error())
	}
	return v, nil
}

// GetStamped is Get plus the write metadata observed alongside the value.
func GetStamped[T any](b *Blackboard, key string) (Stamped[T], error) {
	var zero Stamped[T]
	target, resolvedKey := b.resolve(key)
	e, found := target.getEntryLocked(resolvedKey)
	if !found {
		return zero, newErr(KeyNotFound, key, "")
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	if e.value.Empty() {
		return zero, newErr(EmptyEntry, key, "")
	}
	v, err := anyvalue.TryCast[T](e.value)
	if err != nil {
		return zero, newErr(TypeMismatch, key, err.Error())
	}
	return Stamped[T]{Value: v, SequenceID: e.sequenceID, Stamp: e.stamp}, nil
}

// SequenceID returns the monotonic write counter of the entry at key
// without requiring a declared Go type, for callers (e.g. the
// EntryUpdated decorator family) that only need to detect whether a key
// changed, not read its value.
func (b *Blackboard) SequenceID(key string) (uint64, error) {
	target, resolvedKey := b.resolve(key)
	e, found := target.getEntryLocked(resolvedKey)
	if !found {
		return 0, newErr(KeyNotFound, key, "")
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.sequenceID, nil
}

// Unset removes key from local storage only; parent entries are
// untouched.
func (b *Blackboard) Unset(key string) {
	key, _ = stripRoot(key)
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.entries, key)
}

// CreateEntry declares key with the given type, idempotently if the
// existing declaration matches, erroring on conflict.
func (b *Blackboard) CreateEntry(key string, info anyvalue.TypeInfo) error {
	target, resolvedKey := b.resolve(key)
	target.mutex.Lock()
	e, found := target.entries[resolvedKey]
	if !found {
		e = &Entry{typeInfo: &info}
		target.entries[resolvedKey] = e
		target.mutex.Unlock()
		return nil
	}
	target.mutex.Unlock()

	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.typeInfo == nil {
		e.typeInfo = &info
		return nil
	}
	if e.typeInfo.Name != info.Name {
		return newErr(TypeMismatch, key, fmt.Sprintf("entry already declared as %s", e.typeInfo.Name))
	}
	return nil
}

// CloneInto copies the values of all local entries into dst. Remappings
// and the parent link are not copied.
func (b *Blackboard) CloneInto(dst *Blackboard) error {
	b.mutex.RLock()
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	b.mutex.RUnlock()

	for _, k := range keys {
		b.mutex.RLock()
		e := b.entries[k]
		b.mutex.RUnlock()

		e.mutex.RLock()
		val := e.value
		info := e.typeInfo
		e.mutex.RUnlock()

		dst.mutex.Lock()
		dstEntry, found := dst.entries[k]
		if !found {
			dstEntry = &Entry{}
			dst.entries[k] = dstEntry
		}
		dst.mutex.Unlock()

		dstEntry.mutex.Lock()
		dstEntry.value = val
		dstEntry.typeInfo = info
		dstEntry.sequenceID = dst.nextSeq()
		dstEntry.stamp = monotonicStamp()
		dstEntry.mutex.Unlock()
	}
	return nil
}

func (b *Blackboard) nextSeq() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.sequenceGen++
	return b.sequenceGen
}

// Keys returns the current local keys; order is unspecified.
func (b *Blackboard) Keys() []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	keys := make([]string, 0, len(b.entries))
	for k := range b.entries {
		keys = append(keys, k)
	}
	return keys
}

// Locked is a scoped acquisition of an Entry's underlying Any, released by
// calling Unlock. Used by callers needing atomic read-modify-write over a
// shared referent.
type Locked struct {
	entry *Entry
	value *anyvalue.Any
}

// Value returns the live pointer to the locked Any; mutations through
// CopyInto are visible to subsequent readers once Unlock is called.
func (l *Locked) Value() *anyvalue.Any {
	return l.value
}

// Unlock releases the scoped acquisition, bumping sequence/stamp metadata
// to reflect a potential mutation.
func (l *Locked) Unlock(b *Blackboard) {
	l.entry.sequenceID = b.nextSeq()
	l.entry.stamp = monotonicStamp()
	l.entry.mutex.Unlock()
}

// GetAnyLocked resolves key and returns a Locked handle over its Any,
// with the entry's mutex held until Unlock is called. Callers must always
// call Unlock, ideally via defer, to avoid deadlocking later readers.
func (b *Blackboard) GetAnyLocked(key string) (*Locked, error) {
	target, resolvedKey := b.resolve(key)
	e, found := target.getEntryLocked(resolvedKey)
	if !found {
		return nil, newErr(KeyNotFound, key, "")
	}
	e.mutex.Lock()
	return &Locked{entry: e, value: &e.value}, nil
}
