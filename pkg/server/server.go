// Package server wires the execution pipeline to the MCP protocol.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	pkgerrors "github.com/pkg/errors"

	"github.com/bio-mcp/bedtools-mcp/pkg/config"
	"github.com/bio-mcp/bedtools-mcp/pkg/domain/errors"
	"github.com/bio-mcp/bedtools-mcp/pkg/pipeline"
	"github.com/bio-mcp/bedtools-mcp/pkg/runner"
	"github.com/bio-mcp/bedtools-mcp/pkg/telemetry"
	"github.com/bio-mcp/bedtools-mcp/pkg/tools"
)

const serverName = "bio-mcp-bedtools"

// Server hosts the bedtools tools over an MCP transport.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   map[string]*tools.Tool
	pipeline   *pipeline.Pipeline
	metrics    *telemetry.Metrics
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

// New builds the MCP server and registers every tool descriptor. The
// registry is constructed once here and shared read-only by the handlers.
func New(cfg *config.Config, version string, run runner.CommandRunner, logger *slog.Logger, metrics *telemetry.Metrics) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		logger:   logger.With("component", "server"),
		registry: tools.Registry(),
		pipeline: pipeline.New(cfg, run, logger, metrics),
		metrics:  metrics,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(true),
			server.WithLogging(),
		),
	}

	if err := s.registerTools(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to register tools")
	}

	return s, nil
}

func (s *Server) registerTools() error {
	for name, tool := range s.registry {
		if tool.BuildArgs == nil || len(tool.Files) == 0 {
			return pkgerrors.Errorf("tool %s has an incomplete descriptor", name)
		}

		toolName := name
		s.mcpServer.AddTool(tools.MCPTool(tool), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			result := s.CallTool(ctx, toolName, req.GetArguments())
			return result, nil
		})
		s.logger.Debug("registered tool", "name", name)
	}
	return nil
}

// CallTool runs one invocation and renders the outcome as an MCP result.
// Exactly one outcome object is produced per invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	invocationID := uuid.NewString()
	start := time.Now()

	tool, ok := s.registry[name]
	if !ok {
		s.logger.Warn("unknown tool requested", "tool", name, "invocation_id", invocationID)
		s.metrics.RecordInvocation(name, 500, time.Since(start))
		return errorResult(500, "Unknown tool: "+name)
	}

	out, err := s.pipeline.Run(ctx, tool, args)
	duration := time.Since(start)

	if err != nil {
		typed := errors.Convert(err, "server")
		status := typed.Code.HTTPStatus()
		s.logger.Warn("invocation failed",
			"tool", name,
			"invocation_id", invocationID,
			"status", status,
			"code", typed.Code,
			"duration", duration,
		)
		s.metrics.RecordInvocation(name, status, duration)
		return errorResult(status, typed.Message)
	}

	s.logger.Info("invocation completed",
		"tool", name,
		"invocation_id", invocationID,
		"status", 200,
		"duration", duration,
		"stdout_bytes", len(out),
	)
	s.metrics.RecordInvocation(name, 200, duration)
	return textResult(out)
}

// Start runs the configured transport and blocks until it ends.
func (s *Server) Start(ctx context.Context) error {
	switch s.cfg.Transport {
	case "http":
		s.logger.Info("starting streamable HTTP transport", "addr", s.cfg.HTTPAddr)
		s.httpServer = server.NewStreamableHTTPServer(s.mcpServer)
		return s.httpServer.Start(s.cfg.HTTPAddr)
	default:
		s.logger.Info("starting stdio transport")
		return server.ServeStdio(s.mcpServer)
	}
}

// Stop shuts the transport down. The stdio transport ends with its input
// stream and needs no explicit stop.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
