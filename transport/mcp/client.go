package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/klondike/game/engine"
	"github.com/wricardo/klondike/game/service"
)

const (
	serverName    = "Klondike Solitaire"
	serverVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Klondike Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Build all four foundations from Ace to King, one suit per foundation.

REFERENCES:
Cards and piles are named with short refs:
- stock      the face-down stock (clicking it draws)
- waste      the revealed stock card
- f0..f3     foundation stacks
- t0..t6     an empty tableau column
- t3:5       the card at row 5 of column 3 (row 0 is the first card dealt)

To play onto a non-empty column, target its last card.

AVAILABLE TOOLS:
- game_state: Current board
- click: Click one ref; the first click selects, the second moves
- bulk_click: Several clicks in order
- move: Move from one ref to another in one call
- move_card: Move a card named by its text (e.g. "7H") to a ref
- draw: Turn the next stock card
- hints: Legal moves in the current position
- reset_game: Deal a new hand
- move_history: Past moves
- create_session / get_session / list_sessions: Session management
- list_configs: Available configurations
- game_instructions: Full rules

NOTE: The 'intent' parameter on click/move tools is for explaining your plan; it is echoed back and otherwise ignored.`),
	)

	c.registerTools()
}

func sessionArg() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session ID"),
	)
}

func intentArg() mcp.ToolOption {
	return mcp.WithString("intent",
		mcp.Description("Why you are making this move"),
	)
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with an optional configuration"),
		mcp.WithString("config_id",
			mcp.Description("Configuration ID from list_configs (optional)"),
		),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionArg(),
	), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Show the current board"),
		sessionArg(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("click",
		mcp.WithDescription("Click a card or pile. With nothing selected a click selects; with a selection it tries to move there"),
		sessionArg(),
		mcp.WithString("ref",
			mcp.Required(),
			mcp.Description("What to click: stock, waste, f0..f3, t0..t6 or t<col>:<row>"),
		),
		intentArg(),
	), c.handleClick)

	c.mcpServer.AddTool(mcp.NewTool("bulk_click",
		mcp.WithDescription("Click several refs in order; stops at the first rejected move or on victory"),
		sessionArg(),
		mcp.WithArray("clicks",
			mcp.Required(),
			mcp.Description("Refs to click in order, e.g. [\"t6:6\", \"f0\"]"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("reset",
			mcp.Description("Deal a new hand before clicking"),
		),
		intentArg(),
	), c.handleBulkClick)

	c.mcpServer.AddTool(mcp.NewTool("move",
		mcp.WithDescription("Move the card (and everything on top of it) at one ref to another"),
		sessionArg(),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source ref")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Destination ref")),
		intentArg(),
	), c.handleMove)

	c.mcpServer.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a card named by its text, e.g. \"7H\" or \"10s\", to a ref"),
		sessionArg(),
		mcp.WithString("card", mcp.Required(), mcp.Description("Card text: rank (A,2-10,J,Q,K) then suit (C,D,H,S)")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Destination ref")),
		intentArg(),
	), c.handleMoveCard)

	c.mcpServer.AddTool(mcp.NewTool("draw",
		mcp.WithDescription("Turn the next stock card, or recycle the waste when the stock is exhausted"),
		sessionArg(),
	), c.handleDraw)

	c.mcpServer.AddTool(mcp.NewTool("hints",
		mcp.WithDescription("List the legal moves in the current position"),
		sessionArg(),
	), c.handleHints)

	c.mcpServer.AddTool(mcp.NewTool("reset_game",
		mcp.WithDescription("Deal a new hand in this session"),
		sessionArg(),
	), c.handleReset)

	c.mcpServer.AddTool(mcp.NewTool("move_history",
		mcp.WithDescription("Get the move history of a session"),
		sessionArg(),
		mcp.WithNumber("page", mcp.Description("Page number (default 1)"), mcp.Min(1)),
		mcp.WithNumber("limit", mcp.Description("Moves per page (default 20)"), mcp.Min(1)),
		mcp.WithString("order",
			mcp.Description("asc or desc (default desc)"),
			mcp.Enum("asc", "desc"),
		),
	), c.handleMoveHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.NewTool("list_configs",
		mcp.WithDescription("List available game configurations"),
	), c.handleListConfigs)

	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the complete rules and ref notation"),
	), c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s",
		session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		moves := 0
		if s.GameState != nil {
			moves = s.GameState.Moves
			if s.GameState.Won {
				status = "won"
			}
		}
		result += fmt.Sprintf("- %s (Config: %s, Moves: %d, %s, Created: %s)\n",
			s.ID, s.ConfigName, moves, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

type clickInput struct {
	SessionID string `json:"session_id"`
	Ref       string `json:"ref"`
	Intent    string `json:"intent"`
}

func (c *Client) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input clickInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid click arguments", err), nil
	}
	ref, err := parseRef(input.Ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ClickResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(input.SessionID, "/click"), ref, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(withIntent(input.Intent, formatClickResult(&result))), nil
}

type bulkClickInput struct {
	SessionID string   `json:"session_id"`
	Clicks    []string `json:"clicks"`
	Reset     bool     `json:"reset"`
	Intent    string   `json:"intent"`
}

func (c *Client) handleBulkClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input bulkClickInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid bulk_click arguments", err), nil
	}

	refs := make([]engine.EntityRef, 0, len(input.Clicks))
	for i, s := range input.Clicks {
		ref, err := parseRef(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("click %d: %v", i+1, err)), nil
		}
		refs = append(refs, ref)
	}

	body := map[string]interface{}{
		"clicks": refs,
		"reset":  input.Reset,
	}

	var result service.BulkClickResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(input.SessionID, "/bulk-click"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(withIntent(input.Intent, formatBulkClickResult(input.SessionID, &result))), nil
}

type moveInput struct {
	SessionID string `json:"session_id"`
	From      string `json:"from"`
	Card      string `json:"card"`
	To        string `json:"to"`
	Intent    string `json:"intent"`
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input moveInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid move arguments", err), nil
	}
	from, err := parseRef(input.From)
	if err != nil {
		return mcp.NewToolResultError("from: " + err.Error()), nil
	}
	to, err := parseRef(input.To)
	if err != nil {
		return mcp.NewToolResultError("to: " + err.Error()), nil
	}

	body := map[string]engine.EntityRef{"from": from, "to": to}
	return c.postMove(ctx, input, body)
}

func (c *Client) handleMoveCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input moveInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid move_card arguments", err), nil
	}
	if _, err := engine.ParseCard(input.Card); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := parseRef(input.To)
	if err != nil {
		return mcp.NewToolResultError("to: " + err.Error()), nil
	}

	body := map[string]interface{}{"card": input.Card, "to": to}
	return c.postMove(ctx, input, body)
}

func (c *Client) postMove(ctx context.Context, input moveInput, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ClickResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(input.SessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(withIntent(input.Intent, formatClickResult(&result))), nil
}

func (c *Client) handleDraw(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ClickResult
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/draw"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatClickResult(&result)), nil
}

func (c *Client) handleHints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var hints service.HintsResponse
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "/hints"), nil, &hints); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHints(&hints)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		deal := "random deal"
		if config.Seed != 0 {
			deal = fmt.Sprintf("fixed deal (seed %d)", config.Seed)
		}
		result += fmt.Sprintf("• %s (config_id: %s)\n  %s\n  %s, bulk limit %d\n\n",
			config.Name, config.ConfigID, config.Description, deal, config.MaxBulkClicks)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

const gameInstructions = `🃏 Klondike Solitaire - Complete Instructions

GAME OBJECTIVE:
Move all 52 cards onto the four foundations. Each foundation holds one suit,
built up from Ace to King.

LAYOUT:
• Tableau: 7 columns (t0..t6). Column n starts with n+1 cards; only the last
  card is face up. Face-down cards show as ##.
• Stock: the remaining 24 cards, face down. Drawing turns one card onto the
  waste; only the most recently turned card (waste) can be played.
• Foundations: 4 stacks (f0..f3), empty at the start.

REFS:
• stock      click to draw the next card
• waste      the turned stock card
• f0..f3     a foundation stack
• t3         column 3 when it is empty (the target for a King)
• t3:5       the card at row 5 of column 3; row 0 is the first card dealt

To play onto a non-empty column, target its last card: if column 2 holds
rows 0..4, the destination is t2:4.

RULES:
• Tableau builds down in alternating colors: a red 6 goes on a black 7.
• Any face-up card can be moved together with every card on top of it.
• Only a King (with its run) may go to an empty column.
• Foundations take the next rank of their suit; an Ace starts an empty one.
• Only single cards go to a foundation: the last card of a column, the
  waste card, or another foundation's top.
• A foundation's top card can come back to the tableau.
• When a column's last face-up card leaves, the card underneath turns up.
• Drawing from an exhausted stock turns the waste back over (a recycle).
  There is no limit on recycles.

CLICKING:
• First click selects a card; the message says what was selected.
• Second click on a legal destination moves the selection.
• Clicking an illegal destination keeps the selection armed.
• Clicking the selection again, or an empty or face-down spot, clears it.
• move and move_card do both clicks in one call.

STRATEGY:
• Turn face-down tableau cards over as early as possible.
• Play Aces and Twos to the foundations immediately.
• Keep an empty column for a King that frees the most face-down cards.
• Use hints to see every legal move when stuck.

VICTORY:
The game is won when all four foundations reach King. Further clicks are
ignored until the game is reset.`
