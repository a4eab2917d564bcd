package quotepipe

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/memegen/kit"
)

// RegisterMCP registers the quotes_ingest, quotes_detect and quotes_formats
// tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerIngestTool(srv)
	p.registerDetectTool(srv)
	p.registerFormatsTool(srv)
}

type ingestReq struct {
	Paths    []string `json:"paths"`
	Parallel int      `json:"parallel,omitempty"`
}

type ingestResp struct {
	Count  int     `json:"count"`
	Quotes []Quote `json:"quotes"`
}

func (p *Pipeline) registerIngestTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "quotes_ingest",
		Description: "Extract body/author quotes from files (txt, csv, docx, pdf, odt, html), in input order.",
		InputSchema: kit.InputSchema(map[string]any{
			"paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Quote files, in order",
			},
			"parallel": map[string]any{"type": "integer", "description": "Files parsed concurrently (0 = sequential)"},
		}, "paths"),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*ingestReq)
		var quotes []Quote
		var err error
		if r.Parallel > 0 {
			quotes, err = p.IngestParallel(ctx, r.Paths, r.Parallel)
		} else {
			quotes, err = p.Ingest(ctx, r.Paths)
		}
		if err != nil {
			return nil, err
		}
		if quotes == nil {
			quotes = []Quote{}
		}
		return ingestResp{Count: len(quotes), Quotes: quotes}, nil
	}

	kit.RegisterMCPTool[ingestReq](srv, tool, kit.Logging(p.logger, tool.Name)(endpoint))
}

type detectReq struct {
	Path string `json:"path"`
}

func (p *Pipeline) registerDetectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "quotes_detect",
		Description: "Report the quote format registered for a file's extension.",
		InputSchema: kit.InputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path"},
		}, "path"),
	}

	endpoint := func(_ context.Context, req any) (any, error) {
		format, err := p.Detect(req.(*detectReq).Path)
		if err != nil {
			return nil, err
		}
		return map[string]string{"format": string(format)}, nil
	}

	kit.RegisterMCPTool[detectReq](srv, tool, kit.Logging(p.logger, tool.Name)(endpoint))
}

func (p *Pipeline) registerFormatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "quotes_formats",
		Description: "List the file extensions quotes can be ingested from.",
		InputSchema: kit.InputSchema(map[string]any{}),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return map[string]any{"formats": p.SupportedFormats()}, nil
	}

	kit.RegisterMCPTool[struct{}](srv, tool, endpoint)
}
