// Package mcp exposes the chunking pipeline as Model Context Protocol tools.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with the chunking tools.
type Server struct {
	mcpServer *server.MCPServer
	handler   *Handler
	logger    *slog.Logger
}

// NewServer creates a new MCP server backed by handler.
func NewServer(name, version string, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		handler: handler,
		logger:  logger,
	}

	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	chunkFileTool := mcp.NewTool("chunk_file",
		mcp.WithDescription("Split one file into snippets. Source files in supported languages are split along syntax boundaries; other files into fixed line windows."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to chunk"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include snippet text in the response (default: true)"),
		),
		mcp.WithBoolean("redact",
			mcp.Description("Mask credentials in snippet text (default: true)"),
		),
	)
	mcpServer.AddTool(chunkFileTool, s.handler.handleChunkFile)

	chunkDirTool := mcp.NewTool("chunk_directory",
		mcp.WithDescription("Select the chunkable files under a directory and split them all into snippets."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root directory to chunk"),
		),
		mcp.WithBoolean("include_content",
			mcp.Description("Include snippet text in the response (default: false)"),
		),
		mcp.WithBoolean("redact",
			mcp.Description("Mask credentials in snippet text (default: true)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum snippets to return (default: 200)"),
		),
	)
	mcpServer.AddTool(chunkDirTool, s.handler.handleChunkDirectory)

	listFilesTool := mcp.NewTool("list_files",
		mcp.WithDescription("List the files under a directory that would be chunked."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root directory to scan"),
		),
	)
	mcpServer.AddTool(listFilesTool, s.handler.handleListFiles)
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdin/stdout until the client disconnects
// or the process receives SIGINT/SIGTERM.
func (s *Server) ServeStdio() error {
	s.logger.Info("MCP server started")
	return server.ServeStdio(s.mcpServer)
}
