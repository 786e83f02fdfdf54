package redlock

import (
	"time"

	"github.com/mirkobrombin/redlock/v1/broker"
	"github.com/mirkobrombin/redlock/v1/notify"
)

const (
	defaultDriftFactor              = 0.01
	defaultRetryCount               = 10
	defaultRetryDelay               = 200 * time.Millisecond
	defaultRetryJitter              = 100 * time.Millisecond
	defaultAutomaticExtensionThresh = 500 * time.Millisecond
	defaultDB                       = 0
	clockResolutionAllowance        = 2 * time.Millisecond
)

// Config holds the tunables recognized by New and, per call, by Acquire,
// Extend and Using.
type Config struct {
	driftFactor float64
	retryCount  int
	retryDelay  time.Duration
	retryJitter time.Duration
	autoExtend  time.Duration
	db          int

	broker *broker.Broker
	bus    notify.Bus
}

func defaultConfig() Config {
	return Config{
		driftFactor: defaultDriftFactor,
		retryCount:  defaultRetryCount,
		retryDelay:  defaultRetryDelay,
		retryJitter: defaultRetryJitter,
		autoExtend:  defaultAutomaticExtensionThresh,
		db:          defaultDB,
	}
}

// Option configures a Coordinator at construction time, or overrides a
// single tunable for one Acquire/Extend/Using call.
type Option func(*Config)

// WithDriftFactor sets the fraction of the requested duration subtracted as
// clock-drift allowance. Default 0.01.
func WithDriftFactor(f float64) Option {
	return func(c *Config) { c.driftFactor = f }
}

// WithRetryCount sets the maximum number of retries after the initial
// attempt; total attempts = retryCount + 1. A negative value means
// unbounded retries. Default 10.
func WithRetryCount(n int) Option {
	return func(c *Config) { c.retryCount = n }
}

// WithRetryDelay sets the nominal backoff between attempts. Default 200ms.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.retryDelay = d }
}

// WithRetryJitter sets the uniform jitter range added to backoff. Default 100ms.
func WithRetryJitter(d time.Duration) Option {
	return func(c *Config) { c.retryJitter = d }
}

// WithAutomaticExtensionThreshold sets the remaining-validity floor below
// which Using's keep-alive timer attempts an extension. Default 500ms.
func WithAutomaticExtensionThreshold(d time.Duration) Option {
	return func(c *Config) { c.autoExtend = d }
}

// WithDB sets the logical database index passed to the script broker.
// Default 0.
func WithDB(db int) Option {
	return func(c *Config) { c.db = db }
}

// WithBroker overrides the Script Broker used to dispatch operations. The
// default is a fresh broker.New() shared by the whole Coordinator.
func WithBroker(b *broker.Broker) Option {
	return func(c *Config) { c.broker = b }
}

// WithNotifyBus attaches a release-notification bus. When set, the
// Coordinator publishes an Event after every acquire/extend/release outcome
// and races a release notification against its retry backoff for a faster
// reacquire. Unset by default: the Coordinator works without one.
func WithNotifyBus(b notify.Bus) Option {
	return func(c *Config) { c.bus = b }
}
