package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrPlayerCount = fmt.Errorf("exactly %d players are required", PlayerCount)
	ErrInvalidRoll = errors.New("die roll out of range")
	ErrNotInJail   = errors.New("player is not in jail")

	ErrInvalidPlayerSpec = errors.New("invalid player")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	ActivePlayer() *Player

	// Turn operations
	TakeTurn() (*TurnRecord, error)
	AutoPlay(maxTurns int) ([]TurnRecord, error)

	// Ledger operations outside the turn
	Improve(playerIdx int, code string) error
	Mortgage(playerIdx int, code string) error
	Unmortgage(playerIdx int, code string) error
	PayBail(playerIdx int) error

	// Configuration
	GetConfig() *GameConfig
	GetBoard() *Board

	// Queries
	Advise(playerIdx int, code string) (Advice, error)
	NetWorth(playerIdx int) int
	Occupancy() map[string]int
	GetTurnHistory() []TurnRecord
	GetLastTurn() *TurnRecord
	Snapshot() Snapshot
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state    *GameState
	config   *GameConfig
	board    *Board
	ledger   *Ledger
	random   RandomSource
	deciders []Decider
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewEngine creates a game for exactly two players on the configured board
func NewEngine(config *GameConfig, players []PlayerSpec) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	board, err := NewBoard(config)
	if err != nil {
		return nil, err
	}
	state, err := NewGameState(config, board, players)
	if err != nil {
		return nil, err
	}

	seed, err := NewSeed()
	if err != nil {
		seed = time.Now().UnixNano()
	}

	e := &GameEngine{
		config: config,
		board:  board,
		random: NewRandomSource(seed),
		logger: zap.NewNop().Sugar(),
		now:    time.Now,
	}
	e.setState(state)
	return e, nil
}

// NewEngineWithDefaults creates a CPU vs CPU game on the built-in board
func NewEngineWithDefaults() *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), []PlayerSpec{
		{Name: "Player 1", Token: "@", Controller: ControllerCPU},
		{Name: "Player 2", Token: "#", Controller: ControllerCPU},
	})
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return e
}

// NewGameState creates the opening state: catalog built, players on the
// start tile with the configured cash.
func NewGameState(config *GameConfig, board *Board, specs []PlayerSpec) (*GameState, error) {
	if len(specs) != PlayerCount {
		return nil, fmt.Errorf("%w, got %d", ErrPlayerCount, len(specs))
	}

	defaultTokens := []string{"@", "#"}
	players := make([]*Player, len(specs))
	seen := make(map[string]bool)
	for i, spec := range specs {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		token := spec.Token
		if token == "" {
			token = defaultTokens[i]
		}
		if seen[token] {
			return nil, fmt.Errorf("%w: duplicate player token '%s'", ErrInvalidPlayerSpec, token)
		}
		seen[token] = true
		controller := spec.Controller
		switch controller {
		case "":
			controller = ControllerCPU
		case ControllerCPU, ControllerHuman:
		default:
			return nil, fmt.Errorf("%w: unknown controller '%s'", ErrInvalidPlayerSpec, controller)
		}
		players[i] = &Player{
			Name:        name,
			Token:       token,
			Controller:  controller,
			Cash:        config.StartingCash,
			Properties:  []string{},
			OwnedGroups: make(map[string][]string),
			Monopolies:  make(map[string]bool),
		}
	}

	state := &GameState{
		GameID:      uuid.NewString(),
		ConfigName:  config.Name,
		Players:     players,
		Properties:  BuildCatalog(config, board),
		Phase:       PhaseAwaitingRoll,
		TurnCap:     config.TurnCap,
		Message:     config.Messages.Welcome,
		Winner:      NoWinner,
		TurnHistory: []TurnRecord{},
	}
	state.Occupancy = occupancy(players)
	return state, nil
}

func occupancy(players []*Player) map[string]int {
	occ := make(map[string]int, len(players))
	for _, p := range players {
		occ[p.Token] = p.Position
	}
	return occ
}

func (e *GameEngine) setState(state *GameState) {
	e.state = state
	e.ledger = NewLedger(state, e.board)
	e.deciders = make([]Decider, len(state.Players))
	for i, p := range state.Players {
		if p.Controller == ControllerHuman {
			e.deciders[i] = StaticDecider(false)
		} else {
			e.deciders[i] = HeuristicDecider{}
		}
	}
}

// SetLogger sets the logger used for turn tracing
func (e *GameEngine) SetLogger(logger *zap.SugaredLogger) {
	if logger != nil {
		e.logger = logger
	}
}

// SetRandomSource replaces the dice and event source
func (e *GameEngine) SetRandomSource(r RandomSource) {
	if r != nil {
		e.random = r
	}
}

// SetDecider sets who answers purchase questions for a player
func (e *GameEngine) SetDecider(playerIdx int, d Decider) error {
	if playerIdx < 0 || playerIdx >= len(e.deciders) {
		return fmt.Errorf("%w: %d", ErrUnknownPlayer, playerIdx)
	}
	e.deciders[playerIdx] = d
	return nil
}

// Decider returns the current decider for a player, or nil for an unknown index
func (e *GameEngine) Decider(playerIdx int) Decider {
	if playerIdx < 0 || playerIdx >= len(e.deciders) {
		return nil
	}
	return e.deciders[playerIdx]
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if len(state.Players) != PlayerCount {
		return fmt.Errorf("%w, got %d", ErrPlayerCount, len(state.Players))
	}
	if len(state.Properties) == 0 {
		return fmt.Errorf("state has no properties")
	}
	if state.ActivePlayer < 0 || state.ActivePlayer >= len(state.Players) {
		return fmt.Errorf("%w: active player %d", ErrUnknownPlayer, state.ActivePlayer)
	}
	for _, p := range state.Players {
		if p == nil {
			return fmt.Errorf("state has a nil player")
		}
	}
	for _, prop := range state.Properties {
		if prop == nil {
			return fmt.Errorf("state has a nil property")
		}
		if prop.Owner != NoOwner && (prop.Owner < 0 || prop.Owner >= len(state.Players)) {
			return fmt.Errorf("%w: property %s owned by %d", ErrUnknownPlayer, prop.Code, prop.Owner)
		}
	}
	if state.Occupancy == nil {
		state.Occupancy = occupancy(state.Players)
	}
	e.setState(state)
	return nil
}

// Reset starts a new game with the same players
func (e *GameEngine) Reset() *GameState {
	specs := make([]PlayerSpec, len(e.state.Players))
	for i, p := range e.state.Players {
		specs[i] = PlayerSpec{Name: p.Name, Token: p.Token, Controller: p.Controller}
	}
	deciders := e.deciders
	state, err := NewGameState(e.config, e.board, specs)
	if err != nil {
		// specs came from a valid state
		panic(err)
	}
	e.setState(state)
	e.deciders = deciders
	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// ActivePlayer returns the player whose turn it is
func (e *GameEngine) ActivePlayer() *Player {
	return e.state.Players[e.state.ActivePlayer]
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetBoard returns the board
func (e *GameEngine) GetBoard() *Board {
	return e.board
}

// TakeTurn runs the active player's turn through every phase
func (e *GameEngine) TakeTurn() (*TurnRecord, error) {
	if e.state.GameOver {
		return nil, ErrGameOver
	}

	active := e.state.ActivePlayer
	player := e.state.Players[active]
	rec := &TurnRecord{
		Turn:       e.state.TurnCount + 1,
		Player:     active,
		PlayerName: player.Name,
		From:       player.Position,
		To:         player.Position,
		Payee:      NoOwner,
		Action:     ActionNone,
		Timestamp:  e.now().Unix(),
	}
	e.state.Phase = PhaseAwaitingRoll

	for {
		switch e.state.Phase {
		case PhaseAwaitingRoll:
			if err := e.roll(rec); err != nil {
				return nil, err
			}
		case PhaseMoved:
			e.resolveTile(rec)
		case PhaseTileResolved:
			e.finishTurn(rec)
		default:
			rec.CashAfter = player.Cash
			rec.Message = e.state.Message
			e.state.TurnHistory = append(e.state.TurnHistory, *rec)
			e.logger.Debugw("turn complete",
				"turn", rec.Turn, "player", rec.PlayerName, "roll", rec.Roll,
				"to", rec.To, "action", rec.Action, "amount", rec.Amount, "cash", rec.CashAfter)
			if e.state.Phase == PhaseTurnComplete {
				e.state.ActivePlayer = (active + 1) % len(e.state.Players)
				e.state.Phase = PhaseAwaitingRoll
			}
			return rec, nil
		}
	}
}

// AutoPlay takes up to maxTurns turns, stopping early when the game ends
func (e *GameEngine) AutoPlay(maxTurns int) ([]TurnRecord, error) {
	var records []TurnRecord
	for i := 0; i < maxTurns && !e.state.GameOver; i++ {
		rec, err := e.TakeTurn()
		if err != nil {
			return records, err
		}
		records = append(records, *rec)
	}
	return records, nil
}

func (e *GameEngine) roll(rec *TurnRecord) error {
	player := e.state.Players[e.state.ActivePlayer]

	if e.config.JailArrest && player.InJail {
		player.JailTurns--
		if player.JailTurns <= 0 {
			player.InJail = false
			player.JailTurns = 0
		}
		tile := e.board.TileAt(player.Position)
		rec.Symbol = tile.Symbol
		rec.TileKind = tile.Kind
		rec.Action = ActionServedJail
		e.state.Message = fmt.Sprintf("%s is serving jail time (%d turns left)", player.Name, player.JailTurns)
		e.state.Phase = PhaseTileResolved
		return nil
	}

	roll := e.random.RollDie()
	if roll < 1 || roll > DieFaces {
		return fmt.Errorf("%w: %d", ErrInvalidRoll, roll)
	}

	from := player.Position
	steps := from + roll
	to := steps % e.board.Size()
	e.state.Message = ""
	if steps >= e.board.Size() {
		player.Cash += e.config.PassStartBonus
		rec.PassedStart = true
		e.state.Message = format(e.config.Messages.PassStart, "Passed START, collected $%d", e.config.PassStartBonus)
	}
	player.Position = to
	player.TotalMoves++

	e.state.LastRoll = roll
	e.state.Occupancy[player.Token] = to
	rec.Roll = roll
	rec.From = from
	rec.To = to
	e.state.Phase = PhaseMoved
	return nil
}

func (e *GameEngine) resolveTile(rec *TurnRecord) {
	player := e.state.Players[e.state.ActivePlayer]
	tile := e.board.TileAt(player.Position)
	rec.Symbol = tile.Symbol
	rec.TileKind = tile.Kind

	var msg string
	switch tile.Kind {
	case TileEvent:
		rec.Event = DrawEvent(e.random, e.config.Events)
		rec.Action = ActionEvent
		msg = rec.Event
	case TileJail:
		if e.config.JailArrest {
			player.InJail = true
			player.JailTurns = e.config.JailTurns
			rec.Action = ActionArrested
			msg = format(e.config.Messages.Arrested, "%s was sent to jail", player.Name)
		} else {
			rec.Action = ActionVisitJail
			msg = format(e.config.Messages.Visiting, "%s is just visiting jail", player.Name)
		}
	case TileToll:
		amount := TollDue(e.state.LastRoll, e.config.TollMultiplier)
		player.Cash -= amount
		rec.Action = ActionToll
		rec.Amount = amount
		msg = format(e.config.Messages.Toll, "%s paid a $%d toll", player.Name, amount)
	case TileProperty:
		msg = e.resolveProperty(rec, player, tile)
	default:
		msg = fmt.Sprintf("%s landed on %s", player.Name, tileName(tile))
	}

	e.state.Message = joinMessage(e.state.Message, msg)
	e.state.Phase = PhaseTileResolved
}

func (e *GameEngine) resolveProperty(rec *TurnRecord, player *Player, tile Tile) string {
	active := e.state.ActivePlayer
	prop, err := e.ledger.Property(tile.Symbol)
	if err != nil {
		return fmt.Sprintf("%s landed on %s", player.Name, tileName(tile))
	}
	rec.PropertyCode = prop.Code

	switch {
	case !prop.IsOwned():
		stage := StageFor(e.state.TurnCount, e.state.TurnCap)
		advice := ShouldBuy(player.Cash, prop.Cost, stage)
		rec.Advice = &advice
		if player.Cash < prop.Cost {
			rec.Action = ActionCantAfford
			return fmt.Sprintf("%s cannot afford %s ($%d)", player.Name, prop.Name, prop.Cost)
		}
		req := PurchaseRequest{PlayerIndex: active, Player: player, Property: prop, Stage: stage, Advice: advice}
		if !e.deciders[active].DecidePurchase(req) {
			rec.Action = ActionDeclined
			return format(e.config.Messages.Declined, "%s passed on %s", player.Name, prop.Name)
		}
		if err := e.ledger.Purchase(active, prop.Code); err != nil {
			rec.Action = ActionCantAfford
			return fmt.Sprintf("%s could not buy %s: %v", player.Name, prop.Name, err)
		}
		rec.Action = ActionPurchase
		rec.Amount = prop.Cost
		return format(e.config.Messages.Purchased, "%s bought %s for $%d", player.Name, prop.Name, prop.Cost)

	case prop.Owner == active:
		rec.Action = ActionOwnProperty
		return fmt.Sprintf("%s is on their own property %s", player.Name, prop.Name)

	default:
		owner := prop.Owner
		ownerPlayer := e.state.Players[owner]
		monopoly := e.ledger.HasMonopoly(owner, prop.Group)
		rent := RentDue(prop, e.board.Group(prop.Group), e.state.LastRoll, monopoly, e.config.TollMultiplier)
		rec.Payee = owner
		if rent == 0 {
			rec.Action = ActionMortgaged
			return fmt.Sprintf("%s is mortgaged, no rent due", prop.Name)
		}
		prop.RentHistory = append(prop.RentHistory, RentEvent{
			Timestamp: e.now().Unix(),
			Amount:    rent,
			DiceRoll:  e.state.LastRoll,
			Level:     prop.Level,
			Monopoly:  monopoly,
			Payer:     active,
		})
		rec.Amount = rent
		outcome, err := e.ledger.PayRent(active, rent, owner)
		if err != nil {
			return fmt.Sprintf("rent could not be applied: %v", err)
		}
		if outcome == Bankrupted {
			rec.Action = ActionBankrupt
			return format(e.config.Messages.Bankrupt, "%s could not pay $%d to %s and is bankrupt",
				player.Name, rent, ownerPlayer.Name)
		}
		rec.Action = ActionRent
		return format(e.config.Messages.RentPaid, "%s paid $%d rent to %s for %s",
			player.Name, rent, ownerPlayer.Name, prop.Name)
	}
}

func (e *GameEngine) finishTurn(rec *TurnRecord) {
	active := e.state.ActivePlayer
	player := e.state.Players[active]
	player.TurnsPlayed++
	e.state.TurnCount++

	switch {
	case player.Cash <= 0:
		player.Cash = 0
		player.Bankrupt = true
		e.endGame(ReasonInsolvent, (active+1)%len(e.state.Players))
	case e.state.TurnCount >= e.state.TurnCap:
		e.endGame(ReasonTurnCap, e.leader())
	default:
		e.state.Phase = PhaseTurnComplete
	}
}

func (e *GameEngine) endGame(reason string, winner int) {
	e.state.GameOver = true
	e.state.GameOverReason = reason
	e.state.Winner = winner
	e.state.Phase = PhaseGameOver

	var msg string
	if reason == ReasonTurnCap {
		msg = format(e.config.Messages.TurnCapHit, "Turn limit reached")
	}
	if winner != NoWinner {
		msg = joinMessage(msg, format(e.config.Messages.GameOver, "Game over: %s wins", e.state.Players[winner].Name))
	} else {
		msg = joinMessage(msg, "Game over: tie")
	}
	e.state.Message = joinMessage(e.state.Message, msg)
	e.logger.Infow("game over", "game_id", e.state.GameID, "reason", reason, "winner", winner, "turns", e.state.TurnCount)
}

// leader returns the player with the higher net worth, or NoWinner on a tie
func (e *GameEngine) leader() int {
	best, bestWorth, tie := NoWinner, 0, false
	for i, p := range e.state.Players {
		if p.Bankrupt {
			continue
		}
		worth := e.ledger.NetWorth(i)
		switch {
		case best == NoWinner || worth > bestWorth:
			best, bestWorth, tie = i, worth, false
		case worth == bestWorth:
			tie = true
		}
	}
	if tie {
		return NoWinner
	}
	return best
}

// Improve buys one improvement level on a property
func (e *GameEngine) Improve(playerIdx int, code string) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	return e.ledger.Improve(playerIdx, code)
}

// Mortgage mortgages a property for half its cost
func (e *GameEngine) Mortgage(playerIdx int, code string) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	return e.ledger.Mortgage(playerIdx, code)
}

// Unmortgage lifts a mortgage
func (e *GameEngine) Unmortgage(playerIdx int, code string) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	return e.ledger.Unmortgage(playerIdx, code)
}

// PayBail releases a jailed player early
func (e *GameEngine) PayBail(playerIdx int) error {
	if e.state.GameOver {
		return ErrGameOver
	}
	player, err := e.ledger.player(playerIdx)
	if err != nil {
		return err
	}
	if !player.InJail {
		return ErrNotInJail
	}
	if player.Cash < e.config.BailAmount {
		return fmt.Errorf("%w: bail is $%d", ErrInsufficientFunds, e.config.BailAmount)
	}
	player.Cash -= e.config.BailAmount
	player.InJail = false
	player.JailTurns = 0
	return nil
}

// Advise runs the purchase heuristic for a player and property
func (e *GameEngine) Advise(playerIdx int, code string) (Advice, error) {
	player, err := e.ledger.player(playerIdx)
	if err != nil {
		return Advice{}, err
	}
	prop, err := e.ledger.Property(code)
	if err != nil {
		return Advice{}, err
	}
	if !prop.Purchasable() {
		return Advice{}, fmt.Errorf("%w: %s", ErrNotPurchasable, code)
	}
	return ShouldBuy(player.Cash, prop.Cost, StageFor(e.state.TurnCount, e.state.TurnCap)), nil
}

// Property returns a catalog entry by code
func (e *GameEngine) Property(code string) (*Property, error) {
	return e.ledger.Property(code)
}

// NetWorth returns cash plus property values for a player
func (e *GameEngine) NetWorth(playerIdx int) int {
	return e.ledger.NetWorth(playerIdx)
}

// Occupancy maps player tokens to board positions
func (e *GameEngine) Occupancy() map[string]int {
	return occupancy(e.state.Players)
}

// GetTurnHistory returns the complete turn history
func (e *GameEngine) GetTurnHistory() []TurnRecord {
	return e.state.TurnHistory
}

// GetLastTurn returns the last turn taken, or nil if none
func (e *GameEngine) GetLastTurn() *TurnRecord {
	if len(e.state.TurnHistory) == 0 {
		return nil
	}
	return &e.state.TurnHistory[len(e.state.TurnHistory)-1]
}

func tileName(t Tile) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Symbol
}

// format applies a configured message template, falling back when it is empty
func format(template, fallback string, args ...interface{}) string {
	if template == "" {
		template = fallback
	}
	return fmt.Sprintf(template, args...)
}

func joinMessage(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + ". " + b
	}
}
