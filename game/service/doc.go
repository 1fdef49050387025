// Package service provides the business logic layer for Campus Monopoly.
//
// GameService sits between the transports (HTTP, WebSocket, MCP, CLI) and
// the engine. It resolves board configs, creates sessions, plays turns and
// runs the property actions a player may take between turns. One mutex
// serializes every operation, so a session's engine is never touched by two
// requests at once.
//
// SessionManager and ConfigManager are the storage seams; session.Manager
// and config.Manager implement them. Optional collaborators are wired with
// options:
//
//	svc := service.NewGameService(sessions, configs,
//		service.WithLogger(logger),
//		service.WithEventHook(hub.PublishEvent),
//		service.WithSnapshotStore(session.NewSnapshotStore("saves")),
//	)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{ConfigName: "umd"})
//	result, err := svc.TakeTurn(ctx, info.ID, nil)
//
// A nil buy answer on TakeTurn lets the active player's decider choose: the
// heuristic for CPU players, a refusal for humans. AutoPlay runs at most
// engine.MaxAutoPlayTurns turns per call.
package service
