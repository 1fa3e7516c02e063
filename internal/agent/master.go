package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/logging"
	"github.com/tradecrest/quantagent/internal/risk"
)

// Status is a snapshot of the master's registry.
type Status struct {
	ActiveAgents int       `json:"activeAgents"`
	AgentKinds   []string  `json:"agentKinds"`
	Timestamp    time.Time `json:"timestamp"`
	State        string    `json:"state"`
}

// Master owns the agent registry. It creates agents by kind, looks them up
// by name, and dispatches tasks to them.
type Master struct {
	prices    PriceSource
	sentiment SentimentSource
	riskCfg   config.RiskConfig
	log       *logging.Logger

	mu     sync.RWMutex
	agents map[string]Agent
}

// NewMaster creates an empty master registry. prices backs research agents;
// riskCfg seeds a fresh risk manager per trading agent.
func NewMaster(prices PriceSource, sentiment SentimentSource, riskCfg config.RiskConfig, log *logging.Logger) *Master {
	m := &Master{
		prices:    prices,
		sentiment: sentiment,
		riskCfg:   riskCfg,
		log:       log.Sub("master"),
		agents:    make(map[string]Agent),
	}
	m.log.Info().Msg("master agent initializing")
	return m
}

// Create builds an agent of the given kind and registers it under name.
// Creating over an existing name is an error.
func (m *Master) Create(name, kind string) (Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.agents[name]; exists {
		return nil, fmt.Errorf("agent %q already exists", name)
	}

	m.log.Info().Str("name", name).Str("kind", kind).Msg("creating agent")
	var a Agent
	switch kind {
	case KindResearch:
		a = NewResearch(name, m.prices, m.sentiment, m.log)
	case KindTrading:
		a = NewTrading(name, risk.NewManager(m.riskCfg, m.log), m.log)
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}

	m.agents[name] = a
	return a, nil
}

// Get returns the agent registered under name.
func (m *Master) Get(name string) (Agent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.agents[name]
	return a, ok
}

// List maps each registered agent name to its kind.
func (m *Master) List() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.agents))
	for name, a := range m.agents {
		out[name] = a.Kind()
	}
	return out
}

// Remove unregisters an agent, reporting whether it existed.
func (m *Master) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[name]; !ok {
		return false
	}
	delete(m.agents, name)
	m.log.Info().Str("name", name).Msg("agent removed")
	return true
}

// Status reports the registry snapshot.
func (m *Master) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := make(map[string]struct{})
	for _, a := range m.agents {
		kinds[a.Kind()] = struct{}{}
	}
	distinct := make([]string, 0, len(kinds))
	for k := range kinds {
		distinct = append(distinct, k)
	}
	sort.Strings(distinct)

	return Status{
		ActiveAgents: len(m.agents),
		AgentKinds:   distinct,
		Timestamp:    time.Now(),
		State:        "running",
	}
}

// Execute dispatches a task to the named agent.
func (m *Master) Execute(ctx context.Context, agentName, task string, params Params) (any, error) {
	a, ok := m.Get(agentName)
	if !ok {
		return nil, fmt.Errorf("no agent named %q", agentName)
	}
	result, err := a.Execute(ctx, task, params)
	if err != nil {
		m.log.Error().Err(err).Str("agent", agentName).Str("task", task).Msg("task failed")
		return nil, err
	}
	return result, nil
}
