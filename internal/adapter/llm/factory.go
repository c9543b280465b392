package llm

import (
	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/log"
)

// NewLLMClient returns a MockClient in MOCK mode and a real Client otherwise.
func NewLLMClient(cfg *config.Config) LLMClient {
	if cfg.IsMock() {
		l := log.WithComponent("llm")
		l.Info().Msg("mock mode detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout)
}
