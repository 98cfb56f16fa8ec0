package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// CodeTTL is how long an issued login code stays valid.
const CodeTTL = 10 * time.Minute

// Clock abstracts wall-clock reads so expiry is testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Scheduler runs fn after d. The production scheduler is time.AfterFunc;
// tests substitute a no-op or a manual trigger.
type Scheduler func(d time.Duration, fn func())

// CodeStore holds at most one live login code per email. State is
// process-local and intentionally not persisted: a restart invalidates all
// outstanding codes, which is acceptable at a 10 minute TTL.
type CodeStore struct {
	mu       sync.Mutex
	entries  map[string]codeEntry
	ttl      time.Duration
	clock    Clock
	schedule Scheduler
}

type codeEntry struct {
	code      string
	expiresAt time.Time
}

// NewCodeStore creates a store backed by the system clock and real timers.
func NewCodeStore() *CodeStore {
	return NewCodeStoreWithClock(systemClock{}, func(d time.Duration, fn func()) {
		time.AfterFunc(d, fn)
	}, CodeTTL)
}

// NewCodeStoreWithClock creates a store with injected time sources.
func NewCodeStoreWithClock(clock Clock, schedule Scheduler, ttl time.Duration) *CodeStore {
	return &CodeStore{
		entries:  make(map[string]codeEntry),
		ttl:      ttl,
		clock:    clock,
		schedule: schedule,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode returns a uniformly random 6-digit code. The range starts at
// 100000 so the leading digit is never zero.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue generates and stores a code for the email, unconditionally replacing
// any code issued earlier: only the most recent code is ever valid. A cleanup
// is scheduled at the TTL so abandoned requests do not accumulate.
func (s *CodeStore) Issue(email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	key := normalizeEmail(email)

	s.mu.Lock()
	s.entries[key] = codeEntry{code: code, expiresAt: s.clock.Now().Add(s.ttl)}
	s.mu.Unlock()

	// The cleanup rechecks the stored code before deleting: if the entry was
	// consumed, or replaced by a newer issue for the same email, it must not
	// remove the newer entry.
	s.schedule(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if stored, ok := s.entries[key]; ok && stored.code == code {
			delete(s.entries, key)
		}
	})

	return code, nil
}

// Verify checks a submitted code. A match consumes the entry, so verification
// succeeds at most once per issued code. An expired entry is deleted and never
// matched. A wrong guess leaves a still-valid code in place, allowing retries
// until expiry or success.
func (s *CodeStore) Verify(email, code string) bool {
	key := normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[key]
	if !ok {
		return false
	}

	if s.clock.Now().After(stored.expiresAt) {
		delete(s.entries, key)
		return false
	}

	if stored.code == code {
		delete(s.entries, key)
		return true
	}

	return false
}

// Len reports the number of live entries.
func (s *CodeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
