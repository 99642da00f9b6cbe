package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonwraymond/crewops/cache"
	"github.com/jonwraymond/crewops/observe"
	"github.com/jonwraymond/crewops/tool"
)

// DefaultSearchModels are the models queried in parallel when OpenRouter
// multi-model access is available.
var DefaultSearchModels = []string{
	"openai/gpt-4o-mini",
	"google/gemini-2.5-flash-lite",
	"x-ai/grok-beta",
	"deepseek/deepseek-chat",
}

const searchSystemPrompt = "You are a helpful search engine that provides realistic search results."

// ModelResult is one branch of the fan-out: what a single model returned
// and whether the target appeared in it. A branch failure lands in Error
// without affecting the other branches.
type ModelResult struct {
	Model         string `json:"model"`
	Found         bool   `json:"found"`
	SearchResults string `json:"search_results,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SearchReport aggregates all branches. ConsensusFound is a strict
// majority vote over every queried model, failed branches counting as
// not-found.
type SearchReport struct {
	Status         string        `json:"status"`
	Keyword        string        `json:"keyword"`
	Target         string        `json:"target"`
	ConsensusFound bool          `json:"consensus_found"`
	FoundInModels  int           `json:"found_in_models"`
	TotalModels    int           `json:"total_models"`
	ModelResults   []ModelResult `json:"model_results"`
	Cached         bool          `json:"cached"`
}

// KeywordSearchTool asks several chat models in parallel what the top
// search results for a keyword look like, and checks whether a target
// domain or company name shows up.
type KeywordSearchTool struct {
	runner *tool.Runner
	chat   *ChatClient
	models []string
}

// NewKeywordSearchTool builds the tool. An empty models slice uses the
// default four; a single-model slice is how OpenAI-only operation looks.
func NewKeywordSearchTool(chat *ChatClient, models []string, backend observe.Backend, policy cache.Policy, opts ...tool.RunnerOption) *KeywordSearchTool {
	if len(models) == 0 {
		models = DefaultSearchModels
	}
	return &KeywordSearchTool{
		runner: tool.NewRunner("keyword_search", backend, policy, opts...),
		chat:   chat,
		models: models,
	}
}

// Name returns the tool class name.
func (t *KeywordSearchTool) Name() string { return t.runner.Name() }

// Search fans the keyword out to every configured model and reports where
// the target appeared. Model answers are paid calls, so the aggregated
// report is cached under the (keyword, target, models) signature.
func (t *KeywordSearchTool) Search(ctx context.Context, keyword, target string) (*SearchReport, error) {
	if t.chat == nil || t.chat.apiKey == "" {
		return nil, tool.NewError("keyword_search", "search", ErrNoAPIKey)
	}

	key, err := t.runner.CacheKey(map[string]any{
		"keyword": keyword,
		"target":  target,
		"models":  t.models,
	})
	if err != nil {
		return nil, tool.NewError("keyword_search", "key", err)
	}

	out, err := t.runner.Run(ctx, func(ctx context.Context) ([]byte, error) {
		if cached, ok := t.runner.GetCached(ctx, key); ok {
			var report SearchReport
			if err := json.Unmarshal(cached, &report); err == nil {
				report.Cached = true
				return json.Marshal(&report)
			}
		}

		report := t.searchAll(ctx, keyword, target)
		raw, err := json.Marshal(report)
		if err != nil {
			return nil, tool.NewError("keyword_search", "encode", err)
		}

		t.runner.PutCached(ctx, key, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	var report SearchReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, tool.NewError("keyword_search", "decode", err)
	}
	return &report, nil
}

func (t *KeywordSearchTool) searchAll(ctx context.Context, keyword, target string) *SearchReport {
	prompt := fmt.Sprintf(`You are a search engine. When someone searches for %q, what are the top 5 results?

For each result, provide:
1. The website URL or domain name
2. A brief description (1-2 sentences)

Format your response as a numbered list. Be realistic about what would actually appear in search results for this keyword.`, keyword)

	branches := make([]func(context.Context) (ModelResult, error), len(t.models))
	for i, model := range t.models {
		branches[i] = func(ctx context.Context) (ModelResult, error) {
			results, err := t.chat.Complete(ctx, model, searchSystemPrompt, prompt)
			if err != nil {
				return ModelResult{Model: model}, err
			}
			return ModelResult{
				Model:         model,
				Found:         targetAppears(target, results),
				SearchResults: results,
			}, nil
		}
	}

	outcomes := tool.JoinAll(ctx, 0, branches)

	results := make([]ModelResult, len(outcomes))
	found := 0
	for i, o := range outcomes {
		results[i] = o.Value
		if o.Failed() {
			results[i].Model = t.models[i]
			results[i].Error = o.Err.Error()
			continue
		}
		if results[i].Found {
			found++
		}
	}

	return &SearchReport{
		Status:         "success",
		Keyword:        keyword,
		Target:         target,
		ConsensusFound: found*2 > len(t.models),
		FoundInModels:  found,
		TotalModels:    len(t.models),
		ModelResults:   results,
	}
}

// targetAppears checks whether the target domain or company name shows up
// in a model's answer, ignoring case and common URL prefixes.
func targetAppears(target, results string) bool {
	targetLower := strings.ToLower(target)
	resultsLower := strings.ToLower(results)

	clean := targetLower
	for _, prefix := range []string{"https://", "http://", "www."} {
		clean = strings.TrimPrefix(clean, prefix)
	}

	return strings.Contains(resultsLower, clean) || strings.Contains(resultsLower, targetLower)
}
