package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/campus-monopoly/game/engine"
	"github.com/wricardo/campus-monopoly/game/service"
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
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Campus Monopoly",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Campus Monopoly - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Two players race around a campus board buying buildings and charging rent.
The player who bankrupts the other, or holds the most net worth at the turn
limit, wins.

AVAILABLE TOOLS:
- game_instructions: Rules and strategy notes
- create_session / get_session / list_sessions: Manage games
- game_state / show_board: Inspect a game
- take_turn: Roll and resolve one turn (optionally force the buy decision)
- auto_play: Let both players' strategies play up to 50 turns
- advise_purchase: Ask the heuristic whether a property is worth buying
- improve_property / mortgage_property / unmortgage_property / pay_bail: Manage holdings
- turn_history / game_report / save_game / reset_game
- list_configs: Available boards`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

var (
	playerProp = map[string]interface{}{
		"type":        "integer",
		"description": "Player index (0 or 1). Defaults to the player whose turn it is",
	}
	codeProp = map[string]interface{}{
		"type":        "string",
		"description": "Property code as shown on the board, e.g. M, T2, D1",
	}
)

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	noArgs := mcp.ToolInputSchema{Type: "object", Properties: map[string]interface{}{}}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with an optional board config and player names",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the board config to use (optional)",
				},
				"player1": map[string]interface{}{
					"type":        "string",
					"description": "Name of the first (human) player",
				},
				"player2": map[string]interface{}{
					"type":        "string",
					"description": "Name of the second (computer) player",
				},
				"cpu_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Make both players computer controlled",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: noArgs,
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state: players, cash, holdings and the last turn",
		InputSchema: sessionSchema(nil),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "show_board",
		Description: "Render the board grid with player tokens",
		InputSchema: sessionSchema(nil),
	}, c.handleShowBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "take_turn",
		Description: "Roll the die for the active player and resolve the tile they land on",
		InputSchema: sessionSchema(map[string]interface{}{
			"buy": map[string]interface{}{
				"type":        "boolean",
				"description": "Force the purchase decision for this turn. Omit to use the player's own strategy",
			},
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "Brief explanation of why you are taking this turn this way",
			},
		}),
	}, c.handleTakeTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_play",
		Description: "Play several turns with each player's own strategy (at most 50 per call)",
		InputSchema: sessionSchema(map[string]interface{}{
			"turns": map[string]interface{}{
				"type":        "integer",
				"description": "Number of turns to play",
			},
		}, "turns"),
	}, c.handleAutoPlay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a fresh game on the same board",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "advise_purchase",
		Description: "Ask the purchase heuristic whether a player should buy a property",
		InputSchema: sessionSchema(map[string]interface{}{"code": codeProp, "player": playerProp}, "code"),
	}, c.handleAdvise)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "improve_property",
		Description: "Build a house (or a hotel after four houses) on a property in a completed group",
		InputSchema: sessionSchema(map[string]interface{}{"code": codeProp, "player": playerProp}, "code"),
	}, c.propertyTool("improve"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "mortgage_property",
		Description: "Mortgage an unimproved property for half its cost",
		InputSchema: sessionSchema(map[string]interface{}{"code": codeProp, "player": playerProp}, "code"),
	}, c.propertyTool("mortgage"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "unmortgage_property",
		Description: "Lift a mortgage by repaying half the cost plus 10%",
		InputSchema: sessionSchema(map[string]interface{}{"code": codeProp, "player": playerProp}, "code"),
	}, c.propertyTool("unmortgage"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pay_bail",
		Description: "Pay bail to leave jail early (only on boards with the arrest rule)",
		InputSchema: sessionSchema(map[string]interface{}{"player": playerProp}),
	}, c.handlePayBail)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn history for a session",
		InputSchema: sessionSchema(map[string]interface{}{
			"page": map[string]interface{}{
				"type":        "integer",
				"description": "Page number",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Items per page",
			},
		}),
	}, c.handleTurnHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_report",
		Description: "Standings with net worth, and rent collected and ROI for every owned property",
		InputSchema: sessionSchema(nil),
	}, c.handleReport)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_game",
		Description: "Write a snapshot of the game to a JSON file on the server",
		InputSchema: sessionSchema(map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "File name (optional, defaults to a timestamped name)",
			},
		}),
	}, c.handleSave)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board configurations",
		InputSchema: noArgs,
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and strategy notes",
		InputSchema: noArgs,
	}, c.handleGameInstructions)
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

func sessionPath(sessionID string, parts ...string) string {
	path := "/api/sessions/" + url.PathEscape(sessionID)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// optionalPlayer reads the "player" argument; absent means the active player
func optionalPlayer(request mcp.CallToolRequest) *int {
	if _, ok := request.GetArguments()["player"]; !ok {
		return nil
	}
	idx := request.GetInt("player", 0)
	return &idx
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]interface{}{}
	if configName := request.GetString("config_name", ""); configName != "" {
		body["config_name"] = configName
	}

	p1 := request.GetString("player1", "")
	p2 := request.GetString("player2", "")
	cpuOnly := request.GetBool("cpu_only", false)
	if p1 != "" || p2 != "" || cpuOnly {
		first := engine.ControllerHuman
		if cpuOnly {
			first = engine.ControllerCPU
		}
		body["players"] = []engine.PlayerSpec{
			{Name: orDefault(p1, "Player 1"), Token: "@", Controller: first},
			{Name: orDefault(p2, "Player 2"), Token: "#", Controller: engine.ControllerCPU},
		}
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		turn := 0
		status := "in progress"
		if s.GameState != nil {
			turn = s.GameState.TurnCount
			if s.GameState.GameOver {
				status = "finished"
			}
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Turn: %d, %s, Created: %s)\n",
			s.ID, s.ConfigName, turn, status, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetString("session_id", "")), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetString("session_id", ""), "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleShowBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var board service.BoardView
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetString("session_id", ""), "board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handleTakeTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	body := map[string]interface{}{}
	if _, ok := request.GetArguments()["buy"]; ok {
		body["buy"] = request.GetBool("buy", false)
	}

	var result service.TurnResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "turn"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTurnResult(&result)), nil
}

func (c *Client) handleAutoPlay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	body := map[string]int{"turns": request.GetInt("turns", 0)}

	var result service.AutoPlayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "autoplay"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAutoPlayResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(request.GetString("session_id", ""), "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleAdvise(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := sessionPath(request.GetString("session_id", ""), "advice", url.PathEscape(request.GetString("code", "")))
	if player := optionalPlayer(request); player != nil {
		path += fmt.Sprintf("?player=%d", *player)
	}

	var advice service.AdviceResult
	if err := c.apiCall(ctx, "GET", path, nil, &advice); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAdvice(&advice)), nil
}

func (c *Client) propertyTool(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := strings.ToUpper(request.GetString("code", ""))
		if code == "" {
			return mcp.NewToolResultError("code is required"), nil
		}
		path := sessionPath(request.GetString("session_id", ""), "properties", url.PathEscape(code), action)

		var result service.PropertyActionResult
		if err := c.apiCall(ctx, "POST", path, service.PropertyActionRequest{Player: optionalPlayer(request)}, &result); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatPropertyAction(&result)), nil
	}
}

func (c *Client) handlePayBail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]interface{}{}
	if player := optionalPlayer(request); player != nil {
		body["player"] = *player
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "POST", sessionPath(request.GetString("session_id", ""), "bail"), body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Bail paid.\n\n" + formatGameState(&state)), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(request.GetString("session_id", ""), "history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var report engine.Report
	if err := c.apiCall(ctx, "GET", sessionPath(request.GetString("session_id", ""), "report"), nil, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatReport(&report)), nil
}

func (c *Client) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if filename := request.GetString("filename", ""); filename != "" {
		body["filename"] = filename
	}

	var result service.SaveResult
	if err := c.apiCall(ctx, "POST", sessionPath(request.GetString("session_id", ""), "save"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Game saved to %s (turn %d)", result.Filename, result.Snapshot.TurnCount)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Board: %d tiles, %d groups, %d properties, $%d starting cash, %d turn limit\n\n",
			cfg.ConfigID, cfg.Name, cfg.Description, cfg.BoardSize, cfg.GroupCount, cfg.PropertyCount, cfg.StartingCash, cfg.TurnCap)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Campus Monopoly - Instructions

OBJECTIVE:
Bankrupt your rival, or hold the highest net worth when the turn limit is reached.

TURN:
• The active player rolls one six-sided die and moves clockwise.
• Passing or landing on START pays $200.
• Unowned property: the player may buy it at its listed cost.
• Rival's property: pay rent. Rent doubles on unimproved property when the owner holds the whole group.
• Houses replace the base rent with the group's rent table (1-4 houses, then a hotel).
• Mortgaged property charges no rent.
• Scooter toll (R): pay the roll times $25, even if it leaves you broke.
• Event space (E): a random good or bad campus event (no effect on cash).
• Jail (J): just visiting, unless the board enables the arrest rule.

BANKRUPTCY AND GAME OVER:
• A player who cannot pay rent is bankrupt; every property they own goes to the creditor.
• The game ends when the player who just moved has no cash left, or at the turn limit.

STRATEGY NOTES:
• advise_purchase scores a purchase against your cash and a reserve that grows as the game goes on.
• Completing a group doubles rent and unlocks improvements; aim for groups you already hold a piece of.
• Mortgage idle property for cash rather than going bankrupt, and lift mortgages once you are flush.
• auto_play lets both strategies run; take_turn with buy=true/false overrides the active player's choice.

SESSIONS:
• Each session has a 4-character ID and its own board.
• Create several sessions to compare strategies side by side.`

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
