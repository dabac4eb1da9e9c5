package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for ChatLens resources.
	uriScheme = "chatlens://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the member roster.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "members",
		Name:        "members",
		Description: "Member roster with display names and known aliases",
		MIMEType:    "application/json",
	}, s.handleMembersResource)

	// Static resource for the stored session partition.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Stored session partition with time bounds and summaries",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)
}

// handleMembersResource returns the member roster.
func (s *Server) handleMembersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Stats == nil {
		return jsonResult(req, "[]"), nil
	}

	members, err := s.ports.Stats.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	// Build simplified member list.
	type memberInfo struct {
		ID          string   `json:"id"`
		DisplayName string   `json:"display_name"`
		Aliases     []string `json:"aliases,omitempty"`
	}

	infos := make([]memberInfo, len(members))
	for i, m := range members {
		infos[i] = memberInfo{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Aliases:     m.Aliases,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling members: %w", err)
	}

	return jsonResult(req, string(data)), nil
}

// handleSessionsResource returns the stored session partition.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Segmentation == nil {
		return jsonResult(req, "[]"), nil
	}

	sessions, err := s.ports.Segmentation.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	// Build simplified session list.
	type sessionInfo struct {
		ID           int64  `json:"id"`
		StartTs      int64  `json:"start_ts"`
		EndTs        int64  `json:"end_ts"`
		MessageCount int    `json:"message_count"`
		Summary      string `json:"summary,omitempty"`
	}

	infos := make([]sessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = sessionInfo{
			ID:           sess.ID,
			StartTs:      sess.StartTs,
			EndTs:        sess.EndTs,
			MessageCount: sess.MessageCount,
			Summary:      sess.Summary,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sessions: %w", err)
	}

	return jsonResult(req, string(data)), nil
}

// jsonResult wraps one JSON payload as a resource read result.
func jsonResult(req *mcp.ReadResourceRequest, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}
