package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rendis/flagbridge/internal/pipeline"
	"github.com/rendis/flagbridge/internal/streaming"
	"github.com/rendis/flagbridge/pkg/resolver"
)

// FlagbridgeServerDeps holds the dependencies for creating a FlagbridgeServer.
type FlagbridgeServerDeps struct {
	// Flags backs flagbridge.resolve. Nil serves an empty table.
	Flags map[string]resolver.Flag
	// Lint enables the context lint for flagbridge.convert.
	Lint bool
	// FilterLang is the default predicate language when a call omits it.
	FilterLang string
	Version    string
	Logger     *slog.Logger
}

// FlagbridgeServer wraps an MCP server with flagbridge tool handlers.
type FlagbridgeServer struct {
	deps      FlagbridgeServerDeps
	resolver  *resolver.Static
	notifier  *RecordNotifier
	hub       *streaming.MemoryHub
	logger    *slog.Logger
	mcpServer *server.MCPServer
	pipelines *pipelineCache
}

// NewFlagbridgeServer creates a new FlagbridgeServer with all 5 tools registered.
func NewFlagbridgeServer(deps FlagbridgeServerDeps) (*FlagbridgeServer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	static, err := resolver.NewStatic(deps.Flags)
	if err != nil {
		return nil, err
	}

	s := &FlagbridgeServer{
		deps:      deps,
		resolver:  static,
		hub:       streaming.NewMemoryHub(),
		logger:    logger,
		pipelines: newPipelineCache(maxCachedPipelines),
	}

	mcpSrv := server.NewMCPServer(
		"flagbridge",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("flagbridge turns feature-flag evaluation contexts into analytics records. Use flagbridge.convert to get the conversion and customData records of a context, flagbridge.inspect to see what a context drops and why, flagbridge.make_conversion and flagbridge.make_custom_data to build context entries, and flagbridge.resolve to evaluate a configured flag while tracking the context's records."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	s.notifier = NewRecordNotifier(mcpSrv)
	return s, nil
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlagbridgeServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// Subscribe streams the records tracked by flagbridge.resolve calls to an
// in-process consumer. Call the returned function to unsubscribe.
func (s *FlagbridgeServer) Subscribe(ctx context.Context, filter streaming.EventFilter) (<-chan streaming.RecordEvent, func(), error) {
	return s.hub.Subscribe(ctx, filter)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlagbridgeServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *FlagbridgeServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: convertTool(), Handler: s.handleConvert},
		{Tool: inspectTool(), Handler: s.handleInspect},
		{Tool: makeConversionTool(), Handler: s.handleMakeConversion},
		{Tool: makeCustomDataTool(), Handler: s.handleMakeCustomData},
		{Tool: resolveTool(), Handler: s.handleResolve},
	}
}

// pipelineFor returns a cached pipeline for opts, building it on first use.
func (s *FlagbridgeServer) pipelineFor(opts pipeline.Options) (*pipeline.Pipeline, error) {
	return s.pipelines.get(opts, func(opts pipeline.Options) (*pipeline.Pipeline, error) {
		return pipeline.New(opts, s.logger)
	})
}

// --- Tool definitions ---

func withContextArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithObject("context", mcp.Description("Evaluation context object. Keys are processed in sorted order; use context_json to keep document order")),
		mcp.WithString("context_json", mcp.Description("Evaluation context as a JSON document; key order is preserved")),
		mcp.WithString("select", mcp.Description("jq expression extracting the context from the document")),
	}
}

func convertTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Convert an evaluation context into conversion and customData records"),
		mcp.WithString("where", mcp.Description(`Predicate over each record, e.g. record.type == "conversion" && record.goalId > 3`)),
		mcp.WithString("filter_lang",
			mcp.Enum("cel", "expr"),
			mcp.Description("Predicate language (default: cel)"),
		),
	}, withContextArgs()...)
	return mcp.NewTool("flagbridge.convert", opts...)
}

func inspectTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Show the records of an evaluation context, every dropped or defaulted entry, and lint warnings"),
	}, withContextArgs()...)
	return mcp.NewTool("flagbridge.inspect", opts...)
}

func makeConversionTool() mcp.Tool {
	return mcp.NewTool("flagbridge.make_conversion",
		mcp.WithDescription("Build a conversion context entry"),
		mcp.WithNumber("goal_id", mcp.Required(), mcp.Description("Goal identifier")),
		mcp.WithNumber("revenue", mcp.Description("Revenue amount (default: 0)")),
	)
}

func makeCustomDataTool() mcp.Tool {
	return mcp.NewTool("flagbridge.make_custom_data",
		mcp.WithDescription("Build a customData context entry"),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Custom data index")),
		mcp.WithArray("values", mcp.Description("String values"), mcp.Items(map[string]any{"type": "string"})),
	)
}

func resolveTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Resolve a configured flag for an evaluation context and track the context's records"),
		mcp.WithString("flag_key", mcp.Required(), mcp.Description("Flag to resolve")),
		mcp.WithString("default_json", mcp.Description("Default value as JSON (default: null)")),
	}, withContextArgs()[:2]...)
	return mcp.NewTool("flagbridge.resolve", opts...)
}
