package tools

import (
	"context"
	"strings"

	"github.com/skosovsky/mcptoolkit"
)

// WebSearchInput is the input of the web search tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema:"Search query string"`
}

// Validate rejects a blank query.
func (in WebSearchInput) Validate() error {
	if strings.TrimSpace(in.Query) == "" {
		return &mcptoolkit.InputError{Field: "query", Reason: "must not be empty"}
	}
	return nil
}

// WebSearchResponse holds the search results as text.
type WebSearchResponse struct {
	Query   string            `json:"query" yaml:"query"`
	Results string            `json:"results" yaml:"results"`
	RawData mcptoolkit.Result `json:"raw_data" yaml:"raw_data"`
}

// WebSearch is the facade for WebSearchToolID.
var WebSearch = NewFacade(WebSearchToolID, func(in WebSearchInput, res mcptoolkit.Result) WebSearchResponse {
	return WebSearchResponse{
		Query:   in.Query,
		Results: textOf(res, "results"),
		RawData: res,
	}
})

// PerformWebSearch runs query through the web search tool.
func PerformWebSearch(ctx context.Context, c Caller, query string) (WebSearchResponse, error) {
	return WebSearch.Call(ctx, c, WebSearchInput{Query: query})
}

// PerformWebSearchSync is the synchronous variant of PerformWebSearch.
func PerformWebSearchSync(ctx context.Context, c Caller, mode mcptoolkit.ExecMode, query string) (WebSearchResponse, error) {
	return WebSearch.CallSync(ctx, c, mode, WebSearchInput{Query: query})
}
