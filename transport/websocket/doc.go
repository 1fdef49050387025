// Package websocket pushes live game updates to browser clients.
//
// A single Hub owns every connection. Clients pick a session with the
// ?sessionId= query parameter and receive only that session's messages.
// Outgoing messages are JSON:
//
//	{"sessionId": "ab12", "event": "purchase", "data": {...}, "gameState": {...}}
//
// The hub is fed in two ways. BroadcastToSession pushes a plain
// "state_update" after any change, and PublishEvent plugs straight into
// the game service as an event hook so purchases, rent payments and game
// over notices reach spectators as they happen:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs,
//		service.WithEventHook(hub.PublishEvent))
//
// Broadcasting never blocks the caller. When the queue is full the message
// is dropped and logged, and a client that cannot keep up is disconnected.
// Cancelling the context passed to Run closes every connection.
package websocket
