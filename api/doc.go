// Package api exposes the game service over HTTP.
//
// Sessions:
//   - POST   /api/sessions                 create ({"config_name", "players"}, both optional)
//   - GET    /api/sessions                 list (?sort=created|accessed&order=asc|desc&limit=n)
//   - GET    /api/sessions/{id}            session info with state and board config
//   - DELETE /api/sessions/{id}            delete
//
// Play:
//   - POST /api/sessions/{id}/turn        one turn; {"buy": true|false} overrides the purchase prompt
//   - POST /api/sessions/{id}/autoplay    {"turns": n}, capped at 50 per call
//   - POST /api/sessions/{id}/reset       fresh game on the same board
//   - POST /api/sessions/{id}/bail        {"player": i} pays bail when the arrest rule is on
//   - POST /api/sessions/{id}/properties/{code}/improve|mortgage|unmortgage   {"player": i}
//
// Queries:
//   - GET  /api/sessions/{id}/state
//   - GET  /api/sessions/{id}/board       ?format=text returns the rendered grid
//   - GET  /api/sessions/{id}/history     ?page=&limit=&order=
//   - GET  /api/sessions/{id}/advice/{code}?player=i
//   - GET  /api/sessions/{id}/report
//   - POST /api/sessions/{id}/save        {"filename": "..."} writes a snapshot file
//
// Configs: GET /api/configs, GET /api/configs/{name}, POST /api/configs.
// Live updates: GET /ws?session={id}. Liveness: GET /health.
//
// Errors are returned as {"error": "..."}. Unknown sessions, configs and
// property codes give 404, rule violations such as building without a full
// group or playing after game over give 409, and malformed input gives 400.
package api
