package workflow

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/entregaszap/portaria/internal/notify"
)

// ErrCodeSpaceExhausted is returned when the generator cannot find an
// unused retrieval code. With a 5-digit space this only happens when
// nearly all codes are pending simultaneously.
var ErrCodeSpaceExhausted = errors.New("could not allocate an unused retrieval code")

const maxCodeAttempts = 50

// CodeChecker reports whether a retrieval code is already carried by a
// pending delivery.
type CodeChecker interface {
	CodeInUse(ctx context.Context, code string) (bool, error)
}

// newCode draws a random 5-digit code (10000-99999).
func newCode(rng *rand.Rand) string {
	return fmt.Sprintf("%d", 10000+rng.Intn(90000))
}

// uniqueCode draws codes until one is free among pending deliveries.
// Uniqueness among concurrently pending codes is enforced here rather
// than trusted to collision probability.
func uniqueCode(ctx context.Context, rng *rand.Rand, store CodeChecker) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := newCode(rng)
		inUse, err := store.CodeInUse(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// FormSession tracks one registration form's service selection and its
// retrieval code. The code is assigned exactly once when the package
// service is first selected and survives unrelated form changes; it is
// cleared when the service changes away from packages, and selecting
// packages again draws a fresh code. Re-generating on every interaction
// would invalidate codes already shown or sent.
type FormSession struct {
	mu        sync.Mutex
	registrar *Registrar
	service   string
	code      string
}

// NewFormSession starts a blank registration form.
func (r *Registrar) NewFormSession() *FormSession {
	return &FormSession{registrar: r}
}

// SelectService records the service choice and returns the retrieval
// code for it: a stable code for packages, empty otherwise.
func (s *FormSession) SelectService(ctx context.Context, service string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.service = service
	if service != notify.ServicePackage {
		s.code = ""
		return "", nil
	}
	if s.code != "" {
		return s.code, nil
	}
	code, err := uniqueCode(ctx, s.registrar.rng, s.registrar.deliveries)
	if err != nil {
		return "", err
	}
	s.code = code
	return code, nil
}

// Code returns the code currently held by the form, if any.
func (s *FormSession) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Reset clears the form, dropping any assigned code.
func (s *FormSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.service = ""
	s.code = ""
}
