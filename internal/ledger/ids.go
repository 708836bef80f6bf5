package ledger

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// IDSource hands out transaction identifiers. Every call must return a value
// not previously returned by the same source.
type IDSource interface {
	NewID() string
}

// Clock supplies the current time used for timestamps and month scoping.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ULIDSource produces lexically sortable ids. Ids created within the same
// millisecond stay strictly increasing.
type ULIDSource struct {
	mu      sync.Mutex
	clock   Clock
	entropy *ulid.MonotonicEntropy
}

func NewULIDSource(clock Clock) *ULIDSource {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ULIDSource{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *ULIDSource) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.clock.Now()), s.entropy).String()
}

// NewAccountID returns a random identifier for a new account.
func NewAccountID() string {
	return uuid.NewString()
}
