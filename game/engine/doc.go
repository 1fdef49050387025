// Package engine provides the core game logic for Campus Monopoly.
//
// The engine package implements the game mechanics including:
//   - Board construction from a perimeter layout and tile resolution
//   - The property catalog with derived costs and rent tables
//   - The ownership ledger: purchases, rent, bankruptcy transfer, improvements
//   - Rent and valuation rules
//   - The turn state machine for exactly two players
//   - A purchase heuristic for computer controlled players
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds players, properties and the
// turn history, while GameConfig defines the board, groups and rules
// loaded from JSON files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), []engine.PlayerSpec{
//		{Name: "Testudo", Token: "@", Controller: engine.ControllerHuman},
//		{Name: "CPU", Token: "#", Controller: engine.ControllerCPU},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	record, err := gameEngine.TakeTurn()
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Players roll one die and move around the board, collecting a bonus each
// time they pass START. Landing on an unowned property offers it for sale;
// landing on a rival's property charges rent, doubled for an unimproved
// property in a completed group. A player who cannot pay rent is bankrupt
// and hands every property to the creditor. The game ends when the player
// who just moved has no cash left, or when the turn limit is reached.
package engine
