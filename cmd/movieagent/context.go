package main

import (
	"strings"
	"sync"

	"github.com/comigor/movieagent/internal/agent"
	"github.com/comigor/movieagent/internal/config"
	"github.com/comigor/movieagent/internal/history"
	"github.com/comigor/movieagent/internal/llm"
	"github.com/comigor/movieagent/internal/movies"
	"github.com/comigor/movieagent/internal/preferences"
	"github.com/comigor/movieagent/internal/tmdb"
	"github.com/comigor/movieagent/pkg/tools"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// components is everything a command needs to run turns.
type components struct {
	agent     *agent.Agent
	extractor *preferences.Extractor
	lookup    *movies.Lookup
	store     *history.Store
}

func (c *commandContext) build() (*components, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return nil, err
	}
	chat := llm.NewChat(client, cfg.LLM.Model)

	tmdbClient, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
	)
	if err != nil {
		return nil, err
	}

	extractor := preferences.NewExtractor(chat)
	lookup := movies.NewLookup(tmdb.NewBreakerClient(tmdbClient, tmdb.BreakerConfig{}))

	return &components{
		agent:     agent.New(chat, extractor, lookup, agent.OptionsFromConfig(*cfg)),
		extractor: extractor,
		lookup:    lookup,
		store:     history.New(cfg.History.DBPath),
	}, nil
}

func (c *components) toolManager() *tools.ToolManager {
	m := tools.NewToolManager()
	m.RegisterTool(tools.NewRecommendTool(c.lookup))
	m.RegisterTool(tools.NewPreferencesTool(c.extractor))
	return m
}
