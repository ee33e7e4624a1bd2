package snowflake

import (
	"context"
	"fmt"
	"strconv"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// registerResources registers the memo resource and the per-insight
// resource template.
func (t *Toolkit) registerResources(s *mcp.Server) {
	s.AddResource(&mcp.Resource{
		URI:         memoResourceURI,
		Name:        "Data Insights Memo",
		Description: "A running memo of data insights recorded with append_insight",
		MIMEType:    "text/plain",
	}, t.handleMemoResource)

	s.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: insightTemplateURI,
		Name:        "Recorded Insight",
		Description: "A single recorded insight, addressed by its position in the memo",
		MIMEType:    "text/plain",
	}, t.handleInsightResource)
}

// handleMemoResource renders the memo.
func (t *Toolkit) handleMemoResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      memoResourceURI,
				MIMEType: "text/plain",
				Text:     t.client.Memo(),
			},
		},
	}, nil
}

// handleInsightResource handles insight://{index} requests.
func (t *Toolkit) handleInsightResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	vars, err := parseTemplateVars(insightTemplateURI, uri)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	insights := t.client.Insights()
	if index < 0 || index >= len(insights) {
		return nil, mcp.ResourceNotFoundError(uri) //nolint:wrapcheck // MCP protocol error returned as-is for SDK type matching
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/plain",
				Text:     insights[index],
			},
		},
	}, nil
}

// parseTemplateVars extracts named variables from a URI using a URI
// template. Returns an error if the URI does not match the template.
func parseTemplateVars(templateStr, uri string) (map[string]string, error) {
	tmpl, err := uritemplate.New(templateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", templateStr, err)
	}

	match := tmpl.Match(uri)
	if match == nil {
		return nil, fmt.Errorf("uri %q does not match template %q", uri, templateStr)
	}

	result := make(map[string]string)
	for _, name := range tmpl.Varnames() {
		result[name] = match.Get(name).String()
	}
	return result, nil
}
