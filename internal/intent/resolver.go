package intent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/index"
	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

const systemPrompt = `You convert a natural-language question about economic, trade, or financial data into JSON matching this shape exactly, with no prose before or after:
{"providers":[],"indicators":[{"label":"","explicitCode":"","qualifiers":[]}],"geography":[{"kind":"country_iso3|country_group_tag|world|region_tag","value":""}],"timeRange":{"relative":"last_N_years|last_N_months|since_year|between|ytd|latest","n":0},"frequency":"daily|weekly|monthly|quarterly|annual","isTradeQuery":false,"isComparison":false,"isExchangeRate":false,"isCrypto":false}
Emit valid JSON only.`

const reemitPrompt = "That was not valid JSON. Re-emit the same intent as valid JSON only, with no other text."

// Resolver turns free-text into a ParsedIntent end to end: cache-before-call,
// one parse-failure retry, the deterministic post-processor, and the
// optional semantic validation pass over index candidates.
type Resolver struct {
	llm *Client
	cache *cache.Cache
	index *index.Index
}

func NewResolver(llm *Client, c *cache.Cache, ix *index.Index) *Resolver {
	return &Resolver{llm: llm, cache: c, index: ix}
}

// rawIntent is the wire shape the LLM emits; it differs from
// model.ParsedIntent only in using plain strings for enum fields, since the
// post-processor both validates and narrows these to the closed sets.
type rawIntent struct {
	Providers []string `json:"providers"`
	Indicators []struct {
 Label string `json:"label"`
 ExplicitCode string `json:"explicitCode"`
 Qualifiers []string `json:"qualifiers"`
	} `json:"indicators"`
	Geography []struct {
 Kind string `json:"kind"`
 Value string `json:"value"`
	} `json:"geography"`
	TimeRange struct {
 Relative string `json:"relative"`
 N int `json:"n"`
 Start string `json:"start"`
 End string `json:"end"`
	} `json:"timeRange"`
	Frequency string `json:"frequency"`
	IsTradeQuery bool `json:"isTradeQuery"`
	IsComparison bool `json:"isComparison"`
	IsExchangeRate bool `json:"isExchangeRate"`
	IsCrypto bool `json:"isCrypto"`
}

// Resolve does fingerprint + cache lookup, an LLM call with one reemit
// retry on parse failure, then the deterministic post-processor. now is
// injected so the post-processor's relative-range resolution is
// deterministic and testable.
func (r *Resolver) Resolve(ctx context.Context, queryText, conversationTailHash string, now time.Time) (model.ParsedIntent, error) {
	fp := cache.FingerprintText(queryText, conversationTailHash)
	cached, hit, err := r.cache.GetOrCompute(fp, 10*time.Minute, 512, func() (interface{}, error) {
 return r.callAndParse(ctx, queryText)
	})
	if err != nil {
 return model.ParsedIntent{}, err
	}
	_ = hit
	raw := cached.(rawIntent)
	return postProcess(raw, now), nil
}

func (r *Resolver) callAndParse(ctx context.Context, queryText string) (rawIntent, error) {
	text, err := r.llm.Complete(ctx, systemPrompt, queryText)
	if err != nil {
 return rawIntent{}, model.NewUpstreamError("intent-llm", 0, err.Error())
	}

	raw, perr := parseRawIntent(text)
	if perr == nil {
 return raw, nil
	}

	// Retry once with a "re-emit valid JSON" follow-up.
	retryText, rerr := r.llm.Complete(ctx, systemPrompt, queryText+"\n\n"+reemitPrompt)
	if rerr != nil {
 return rawIntent{}, model.NewUpstreamError("intent-llm", 0, rerr.Error())
	}
	raw, perr = parseRawIntent(retryText)
	if perr != nil {
 return rawIntent{}, &model.QueryError{Kind: model.ErrKindIntent, Provider: "intent-llm", Message: "LLM did not return parseable JSON after retry", Temporary: true}
	}
	return raw, nil
}

// parseRawIntent tolerates a fenced ```json code block, the most common
// deviation from "JSON only" instructions in practice.
func parseRawIntent(text string) (rawIntent, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var raw rawIntent
	err := json.Unmarshal([]byte(trimmed), &raw)
	return raw, err
}
