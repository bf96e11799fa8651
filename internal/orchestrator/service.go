package orchestrator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/pixelsmith/pixelsmith/internal/cache"
	"github.com/pixelsmith/pixelsmith/internal/config"
	"github.com/pixelsmith/pixelsmith/internal/fileparse"
	"github.com/pixelsmith/pixelsmith/internal/fingerprint"
	"github.com/pixelsmith/pixelsmith/internal/llm"
	"github.com/pixelsmith/pixelsmith/internal/prompt"
)

// clientFactory resolves a provider client for one request.
type clientFactory func(providerID string, override *llm.Credentials, cfg *config.Config) (llm.StreamingProvider, error)

// Service is the AI orchestration service. Construct with New; the cache
// store is injected so tests and callers control its lifecycle.
type Service struct {
	cfg    *config.Config
	store  cache.Store
	hasher fingerprint.Hasher
	log    zerolog.Logger

	newClient clientFactory
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithHasher replaces the default fingerprint hasher.
func WithHasher(h fingerprint.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithLogger replaces the default logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates an orchestration service backed by the given cache store.
func New(cfg *config.Config, store cache.Store, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		hasher:    fingerprint.Default(),
		log:       zlog.With().Str("component", "orchestrator").Logger(),
		newClient: llm.NewClient,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// validate checks the input and provider selection before anything else
// runs. Unknown providers and capability mismatches fail here, so no cache
// slot is touched and no network call is made.
func (s *Service) validate(input DesignInput, mc ModelConfig) (llm.ProviderInfo, error) {
	if len(input.Image) == 0 && input.Text == "" {
		return llm.ProviderInfo{}, ErrInvalidInput
	}

	info, ok := llm.Lookup(mc.Provider)
	if !ok {
		return llm.ProviderInfo{}, &llm.UnsupportedProviderError{Provider: mc.Provider}
	}

	if len(input.Image) > 0 && !info.Capabilities[llm.CapabilityImage] {
		return llm.ProviderInfo{}, &llm.UnsupportedCapabilityError{
			Provider:   info.ID,
			Capability: llm.CapabilityImage,
		}
	}

	return info, nil
}

// analysisKey fingerprints an analysis request. The image is hashed by its
// full payload: identical images collide regardless of origin.
func (s *Service) analysisKey(input DesignInput, mc ModelConfig) (string, error) {
	var image any
	if len(input.Image) > 0 {
		image = base64.StdEncoding.EncodeToString(input.Image)
	}
	var text any
	if input.Text != "" {
		text = input.Text
	}
	return fingerprint.Fingerprint(s.hasher, map[string]any{
		"image":    image,
		"text":     text,
		"provider": mc.Provider,
		"model":    mc.Model,
	})
}

// chatRequest assembles the provider request for one call. Caller-supplied
// sampling values override the provider-tuned defaults.
func (s *Service) chatRequest(mc ModelConfig, systemPrompt, userPrompt string, images [][]byte) *llm.ChatRequest {
	params := prompt.OptimalParameters(mc.Provider, mc.Model)
	if mc.Temperature > 0 {
		params.Temperature = mc.Temperature
	}
	if mc.MaxTokens > 0 {
		params.MaxTokens = mc.MaxTokens
	}

	return &llm.ChatRequest{
		Model:        llm.NormalizeModelName(mc.Provider, mc.Model),
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: userPrompt}},
		Images:       images,
		Temperature:  params.Temperature,
		MaxTokens:    params.MaxTokens,
		TopP:         params.TopP,
	}
}

// cacheGet is fail-open: any key or decode problem is treated as a miss.
func (s *Service) cacheGet(ns cache.Namespace, key string, keyErr error, out any) bool {
	if keyErr != nil {
		s.log.Warn().Err(keyErr).Msg("cache key unavailable, proceeding without cache")
		return false
	}
	raw, ok := s.store.Get(ns, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn().Err(err).Msg("cache entry undecodable, treating as miss")
		return false
	}
	return true
}

// cachePut is fail-open: failures are logged, never surfaced.
func (s *Service) cachePut(ns cache.Namespace, key string, keyErr error, value any) {
	if keyErr != nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache value unserializable, skipping write")
		return
	}
	if err := s.store.Put(ns, key, raw); err != nil {
		s.log.Warn().Err(err).Msg("cache write failed")
	}
}

// Analyze sends the design to the selected provider and returns its
// natural-language analysis. Identical requests within the cache TTL are
// served from cache without a network call.
func (s *Service) Analyze(ctx context.Context, input DesignInput, mc ModelConfig) (*AnalysisResult, error) {
	info, err := s.validate(input, mc)
	if err != nil {
		return nil, err
	}

	key, keyErr := s.analysisKey(input, mc)
	var cached AnalysisResult
	if s.cacheGet(cache.NamespaceAnalysis, key, keyErr, &cached) {
		s.log.Debug().Str("provider", info.ID).Msg("analysis cache hit")
		return &cached, nil
	}

	client, err := s.newClient(mc.Provider, mc.Credentials, s.cfg)
	if err != nil {
		return nil, err
	}

	req := s.chatRequest(mc,
		prompt.AnalysisSystemPrompt(mc.Provider),
		prompt.AnalysisUserPrompt(mc.Provider, input.Text),
		imageList(input),
	)

	resp, err := client.Chat(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("provider", info.ID).Str("model", mc.Model).Msg("analysis request failed")
		return nil, &llm.ProviderRequestError{Provider: info.ID, Err: err}
	}

	result := &AnalysisResult{
		AnalysisText: resp.Content,
		Metadata: Metadata{
			Provider:  info.ID,
			Model:     mc.Model,
			Timestamp: s.now(),
			ResultID:  uuid.NewString(),
		},
	}

	s.cachePut(cache.NamespaceAnalysis, key, keyErr, result)
	return result, nil
}

// StreamAnalyze is like Analyze but yields the response incrementally.
// Input validation failures return synchronously before the stream starts;
// later failures arrive as error chunks. A mid-stream provider error
// triggers one fallback to the blocking call path, whose full result is
// yielded as a final data chunk.
func (s *Service) StreamAnalyze(ctx context.Context, input DesignInput, mc ModelConfig) (<-chan StreamChunk, error) {
	info, err := s.validate(input, mc)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 16)

	go func() {
		defer close(ch)

		send := func(chunk StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		key, keyErr := s.analysisKey(input, mc)
		var cached AnalysisResult
		if s.cacheGet(cache.NamespaceAnalysis, key, keyErr, &cached) {
			send(StreamChunk{Kind: ChunkData, Text: cached.AnalysisText})
			return
		}

		client, err := s.newClient(mc.Provider, mc.Credentials, s.cfg)
		if err != nil {
			send(StreamChunk{Kind: ChunkError, Err: err})
			return
		}

		req := s.chatRequest(mc,
			prompt.AnalysisSystemPrompt(mc.Provider),
			prompt.AnalysisUserPrompt(mc.Provider, input.Text),
			imageList(input),
		)

		full, streamErr := client.ChatStream(ctx, req, func(token string) {
			send(StreamChunk{Kind: ChunkData, Text: token})
		})

		if streamErr != nil {
			s.log.Warn().Err(streamErr).Str("provider", info.ID).Msg("stream failed, falling back to blocking call")
			resp, chatErr := client.Chat(ctx, req)
			if chatErr != nil {
				send(StreamChunk{Kind: ChunkError, Err: &llm.ProviderRequestError{Provider: info.ID, Err: chatErr}})
				return
			}
			full = resp.Content
			send(StreamChunk{Kind: ChunkData, Text: full})
		}

		s.cachePut(cache.NamespaceAnalysis, key, keyErr, &AnalysisResult{
			AnalysisText: full,
			Metadata: Metadata{
				Provider:  info.ID,
				Model:     mc.Model,
				Timestamp: s.now(),
				ResultID:  uuid.NewString(),
			},
		})
	}()

	return ch, nil
}

// GenerateFiles asks the provider to turn an analysis into source files and
// parses the response into named files. Results are cached per
// analysis+project+provider+model.
func (s *Service) GenerateFiles(ctx context.Context, analysisText string, mc ModelConfig, projectName, description string) ([]fileparse.GeneratedFile, error) {
	if analysisText == "" {
		return nil, ErrInvalidInput
	}
	info, ok := llm.Lookup(mc.Provider)
	if !ok {
		return nil, &llm.UnsupportedProviderError{Provider: mc.Provider}
	}

	key, keyErr := fingerprint.Fingerprint(s.hasher, map[string]any{
		"analysis":    analysisText,
		"project":     projectName,
		"description": description,
		"provider":    mc.Provider,
		"model":       mc.Model,
	})
	var cached []fileparse.GeneratedFile
	if s.cacheGet(cache.NamespaceGeneration, key, keyErr, &cached) {
		s.log.Debug().Str("provider", info.ID).Msg("generation cache hit")
		return cached, nil
	}

	client, err := s.newClient(mc.Provider, mc.Credentials, s.cfg)
	if err != nil {
		return nil, err
	}

	userPrompt := prompt.GenerationUserPrompt(mc.Provider, analysisText)
	if projectName != "" {
		userPrompt = "Project: " + projectName + "\n" + userPrompt
	}
	if description != "" {
		userPrompt = userPrompt + "\n\nProject description: " + description
	}

	resp, err := client.Chat(ctx, s.chatRequest(mc, prompt.GenerationSystemPrompt(mc.Provider), userPrompt, nil))
	if err != nil {
		s.log.Error().Err(err).Str("provider", info.ID).Str("model", mc.Model).Msg("generation request failed")
		return nil, &llm.ProviderRequestError{Provider: info.ID, Err: err}
	}

	files := fileparse.Parse(resp.Content)
	s.cachePut(cache.NamespaceGeneration, key, keyErr, files)
	return files, nil
}

// ReviseFiles sends the current files and the user's feedback back to the
// model and re-parses the response. Files whose names match an original keep
// that original's id and path, preserving identity across revisions; new
// files get fresh ids.
func (s *Service) ReviseFiles(ctx context.Context, originals []fileparse.GeneratedFile, feedback string, mc ModelConfig) ([]fileparse.GeneratedFile, error) {
	if feedback == "" {
		return nil, ErrInvalidInput
	}
	info, ok := llm.Lookup(mc.Provider)
	if !ok {
		return nil, &llm.UnsupportedProviderError{Provider: mc.Provider}
	}

	client, err := s.newClient(mc.Provider, mc.Credentials, s.cfg)
	if err != nil {
		return nil, err
	}

	userPrompt := prompt.RevisionUserPrompt(mc.Provider, fileparse.Serialize(originals), feedback)
	resp, err := client.Chat(ctx, s.chatRequest(mc, prompt.GenerationSystemPrompt(mc.Provider), userPrompt, nil))
	if err != nil {
		s.log.Error().Err(err).Str("provider", info.ID).Str("model", mc.Model).Msg("revision request failed")
		return nil, &llm.ProviderRequestError{Provider: info.ID, Err: err}
	}

	byName := make(map[string]fileparse.GeneratedFile, len(originals))
	for _, f := range originals {
		byName[f.Name] = f
	}

	revised := fileparse.Parse(resp.Content)
	for i := range revised {
		if orig, ok := byName[revised[i].Name]; ok {
			revised[i].ID = orig.ID
			revised[i].Path = orig.Path
		}
	}
	return revised, nil
}

// CacheStats exposes the injected store's counters for operational
// visibility.
func (s *Service) CacheStats() (cache.Stats, error) {
	return s.store.Stats()
}

// ClearCache drops all cached results.
func (s *Service) ClearCache() error {
	return s.store.Clear()
}

func imageList(input DesignInput) [][]byte {
	if len(input.Image) == 0 {
		return nil
	}
	return [][]byte{input.Image}
}
