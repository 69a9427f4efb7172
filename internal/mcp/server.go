package mcp

import (
	"context"

	"shipdash/internal/config"
	"shipdash/internal/dashboard"
	"shipdash/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes one dashboard session as MCP tools.
type Server struct {
	cfg     *config.AppConfig
	session *dashboard.Session
	mermaid *visuals.MermaidBoard
	sdk     *sdk.Server
}

// NewServer creates the MCP server and registers every tool.
func NewServer(cfg *config.AppConfig, session *dashboard.Session, mermaid *visuals.MermaidBoard, version string) *Server {
	s := &Server{
		cfg:     cfg,
		session: session,
		mermaid: mermaid,
		sdk: sdk.NewServer(&sdk.Implementation{
			Name:    "shipdash",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Str("session", s.session.ID).Msg("MCP Server starting Stdio loop")
	if err := s.sdk.Run(ctx, &sdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("MCP Server stopped")
	return nil
}
