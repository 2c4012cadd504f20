package prompts

import (
	"fmt"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Strategy)

	builtinsOnce sync.Once
)

// RegisterBuiltins registers the built-in strategies for all question kinds.
func RegisterBuiltins() {
	builtinsOnce.Do(func() {
		registerStrategy(NewRatingStrategy())
		registerStrategy(NewTextStrategy())
		registerStrategy(NewSingleChoiceStrategy())
		registerStrategy(NewMultiChoiceStrategy())
	})
}

func registerStrategy(strategy Strategy) {
	if strategy == nil {
		panic("cannot register nil strategy")
	}
	MustRegister(strategy)
}

// MustRegister adds a strategy to the registry, panicking when a duplicate
// name is registered.
func MustRegister(strategy Strategy) {
	if strategy == nil {
		panic("cannot register nil strategy")
	}

	key := normalize(strategy.Name())
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[key]; exists {
		panic(fmt.Sprintf("prompt strategy '%s' already registered", strategy.Name()))
	}

	registry[key] = strategy
}

// Get returns the strategy for the given name, or nil when absent.
func Get(name string) Strategy {
	key := normalize(name)
	registryMu.RLock()
	defer registryMu.RUnlock()

	return registry[key]
}

// MustGet returns the registered strategy, panicking when it is missing.
func MustGet(name string) Strategy {
	strat := Get(name)
	if strat == nil {
		panic(fmt.Sprintf("prompt strategy '%s' is not registered", name))
	}
	return strat
}

func normalize(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// resetRegistryForTests wipes registration state. Only used inside unit tests.
func resetRegistryForTests() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Strategy)
	builtinsOnce = sync.Once{}
}
