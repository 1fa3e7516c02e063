package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/lrstanley/girc"
	"github.com/tradecrest/quantagent/internal/config"
	"github.com/tradecrest/quantagent/internal/domain"
	"github.com/tradecrest/quantagent/internal/logging"
)

// IRCSink announces price alerts to IRC channels using the girc library.
// Ticks are not relayed, only alerts.
type IRCSink struct {
	cfg    config.IRCConfig
	client *girc.Client
	log    *logging.Logger

	mu      sync.RWMutex
	running bool
	lastErr string
}

// NewIRCSink creates an IRC sink from configuration.
func NewIRCSink(cfg config.IRCConfig, log *logging.Logger) *IRCSink {
	return &IRCSink{
		cfg: cfg,
		log: log.Sub("irc"),
	}
}

func (s *IRCSink) ID() string { return "irc" }

// Connected reports whether the IRC connection is established.
func (s *IRCSink) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil && s.client.IsConnected()
}

// Start connects to the IRC server and joins the configured channels. It
// blocks until the connection ends or ctx is cancelled.
func (s *IRCSink) Start(ctx context.Context) error {
	port := s.cfg.Port
	if port == 0 {
		if s.cfg.UseTLS {
			port = 6697
		} else {
			port = 6667
		}
	}

	gircCfg := girc.Config{
		Server:  s.cfg.Server,
		Port:    port,
		Nick:    s.cfg.Nick,
		User:    s.cfg.Nick,
		Name:    "QuantAgent Alert Bot",
		SSL:     s.cfg.UseTLS,
		Version: "QuantAgent/1.0",
	}
	if s.cfg.UseTLS {
		gircCfg.TLSConfig = &tls.Config{
			ServerName: s.cfg.Server,
		}
	}
	if s.cfg.Password != "" {
		gircCfg.ServerPass = s.cfg.Password
	}

	client := girc.New(gircCfg)
	client.Handlers.Add(girc.CONNECTED, s.onConnected)
	client.Handlers.Add(girc.DISCONNECTED, s.onDisconnected)

	s.mu.Lock()
	s.client = client
	s.running = true
	s.lastErr = ""
	s.mu.Unlock()

	s.log.Info().
		Str("server", s.cfg.Server).
		Int("port", port).
		Str("nick", s.cfg.Nick).
		Strs("channels", s.cfg.Channels).
		Bool("tls", s.cfg.UseTLS).
		Msg("connecting to IRC")

	// Connect() blocks, run it in a goroutine so ctx can interrupt
	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	select {
	case err := <-errCh:
		s.mu.Lock()
		s.running = false
		if err != nil {
			s.lastErr = err.Error()
		}
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("irc connect: %w", err)
		}
		return nil
	case <-ctx.Done():
		client.Close()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Stop gracefully disconnects from the IRC server.
func (s *IRCSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil && s.client.IsConnected() {
		s.log.Info().Msg("disconnecting from IRC")
		s.client.Quit("QuantAgent shutting down")
	}
	s.running = false
}

func (s *IRCSink) Tick(domain.Tick) {}

// Alert announces the alert to every configured channel. Alerts raised
// while disconnected are dropped.
func (s *IRCSink) Alert(a Alert) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil || !client.IsConnected() {
		s.log.Debug().Str("product", a.ProductID).Msg("dropping alert, IRC not connected")
		return
	}
	for _, ch := range s.cfg.Channels {
		client.Cmd.Message(ch, a.String())
	}
	s.log.Debug().
		Str("product", a.ProductID).
		Float64("changePct", a.ChangePct).
		Msg("sent IRC alert")
}

func (s *IRCSink) onConnected(_ *girc.Client, _ girc.Event) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	s.log.Info().Str("nick", client.GetNick()).Msg("connected to IRC")
	for _, ch := range s.cfg.Channels {
		s.log.Info().Str("channel", ch).Msg("joining channel")
		client.Cmd.Join(ch)
	}
}

func (s *IRCSink) onDisconnected(_ *girc.Client, _ girc.Event) {
	s.log.Warn().Msg("disconnected from IRC")
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
