package proxy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
)

// CircuitBreakerConfig holds configuration for circuit breakers
type CircuitBreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit breaker is half-open
	MaxRequests uint32
	// Interval is the cyclic period of the closed state
	// for the circuit breaker to clear the internal counts
	Interval time.Duration
	// Timeout is the period of the open state,
	// after which the state of the circuit breaker becomes half-open
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures before opening the circuit
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns default circuit breaker configuration
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreakerConfigFrom builds a breaker configuration from the service config
func CircuitBreakerConfigFrom(cfg *config.CircuitBreakerConfig) *CircuitBreakerConfig {
	out := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold > 0 {
		out.FailureThreshold = uint32(cfg.FailureThreshold)
	}
	if cfg.OpenTimeout > 0 {
		out.Timeout = cfg.OpenTimeout
	}
	return out
}

// CircuitBreakerManager manages circuit breakers for different upstreams
type CircuitBreakerManager struct {
	breakers map[string]*gobreaker.CircuitBreaker
	config   *CircuitBreakerConfig
	mu       sync.RWMutex
}

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState string

const (
	CircuitBreakerStateClosed   CircuitBreakerState = "closed"
	CircuitBreakerStateOpen     CircuitBreakerState = "open"
	CircuitBreakerStateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerStatus contains status information about a circuit breaker
type CircuitBreakerStatus struct {
	Name         string              `json:"name"`
	State        CircuitBreakerState `json:"state"`
	Requests     uint32              `json:"requests"`
	TotalSuccess uint32              `json:"total_success"`
	TotalFailure uint32              `json:"total_failure"`
}

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// NewCircuitBreakerManager creates a new circuit breaker manager
func NewCircuitBreakerManager(config *CircuitBreakerConfig) *CircuitBreakerManager {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreakerManager{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		config:   config,
	}
}

// GetBreaker returns or creates a circuit breaker for the given upstream
func (m *CircuitBreakerManager) GetBreaker(upstream string) *gobreaker.CircuitBreaker {
	m.mu.RLock()
	cb, exists := m.breakers[upstream]
	m.mu.RUnlock()

	if exists {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if cb, exists = m.breakers[upstream]; exists {
		return cb
	}

	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        upstream,
		MaxRequests: m.config.MaxRequests,
		Interval:    m.config.Interval,
		Timeout:     m.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info().
				Str("circuit_breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state changed")
			monitoring.SetCircuitBreakerState(name, stateToMetric(to))
		},
		IsSuccessful: isSuccessful,
	})

	monitoring.SetCircuitBreakerState(upstream, 0)
	m.breakers[upstream] = cb
	return cb
}

// isSuccessful decides which errors count against the breaker. Only backend
// health failures do: timeouts, network errors and non-2xx answers. A
// non-zero tikwm code or a post without media is a per-URL answer.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, scraper.ErrTimeout) || errors.Is(err, scraper.ErrNetwork) {
		return false
	}
	var se *scraper.Error
	if errors.As(err, &se) && errors.Is(se.Kind, scraper.ErrUpstream) && se.Status != 0 {
		return false
	}
	return true
}

// Execute executes a function with circuit breaker protection
func (m *CircuitBreakerManager) Execute(ctx context.Context, upstream string, fn func() (interface{}, error)) (interface{}, error) {
	cb := m.GetBreaker(upstream)

	result, err := cb.Execute(func() (interface{}, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn()
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn().
				Str("upstream", upstream).
				Msg("Circuit breaker is open, rejecting request")
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	return result, nil
}

// GetStatus returns the status of a circuit breaker
func (m *CircuitBreakerManager) GetStatus(upstream string) *CircuitBreakerStatus {
	m.mu.RLock()
	cb, exists := m.breakers[upstream]
	m.mu.RUnlock()

	if !exists {
		return nil
	}
	return status(upstream, cb)
}

// GetAllStatus returns status of all circuit breakers
func (m *CircuitBreakerManager) GetAllStatus() []*CircuitBreakerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]*CircuitBreakerStatus, 0, len(m.breakers))
	for upstream, cb := range m.breakers {
		statuses = append(statuses, status(upstream, cb))
	}
	return statuses
}

// Reset resets a circuit breaker (for testing or admin purposes)
func (m *CircuitBreakerManager) Reset(upstream string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakers, upstream)
	monitoring.SetCircuitBreakerState(upstream, 0)
}

// IsOpen checks if the circuit breaker for an upstream is open
func (m *CircuitBreakerManager) IsOpen(upstream string) bool {
	m.mu.RLock()
	cb, exists := m.breakers[upstream]
	m.mu.RUnlock()

	if !exists {
		return false
	}
	return cb.State() == gobreaker.StateOpen
}

func status(name string, cb *gobreaker.CircuitBreaker) *CircuitBreakerStatus {
	counts := cb.Counts()
	return &CircuitBreakerStatus{
		Name:         name,
		State:        CircuitBreakerState(stateToString(cb.State())),
		Requests:     counts.Requests,
		TotalSuccess: counts.TotalSuccesses,
		TotalFailure: counts.TotalFailures,
	}
}

// stateToString converts gobreaker.State to string
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return string(CircuitBreakerStateClosed)
	case gobreaker.StateOpen:
		return string(CircuitBreakerStateOpen)
	case gobreaker.StateHalfOpen:
		return string(CircuitBreakerStateHalfOpen)
	default:
		return "unknown"
	}
}

func stateToMetric(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 0.5
	default:
		return 0
	}
}
