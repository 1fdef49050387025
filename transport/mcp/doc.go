// Package mcp lets AI agents play Campus Monopoly through the Model Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request to the REST API,
// and the JSON response is turned into plain text an agent can read. Nothing
// is cached here, so several agents (or an agent and a browser) can share a
// session.
//
// Tools:
//   - game_instructions, list_configs
//   - create_session, get_session, list_sessions
//   - game_state, show_board, turn_history, game_report
//   - take_turn (optional buy override), auto_play, reset_game
//   - advise_purchase, improve_property, mortgage_property, unmortgage_property, pay_bail
//   - save_game
//
// Tool failures (unknown session, rule violations) are reported as MCP tool
// errors rather than protocol errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
