// Package config loads, validates and caches board configurations.
//
// A board configuration is a JSON file in the configs directory describing
// the perimeter layout, the property groups with their rent tables, the
// special tiles, the event deck and the message templates. Files are
// addressed by their base name, so "quick" resolves to configs/quick.json.
//
// The default configuration is umd.json when present, otherwise the first
// valid file in the directory, otherwise the built-in campus board from
// engine.DefaultGameConfig.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	quick, err := manager.LoadConfig("quick")
//	infos, err := manager.ListConfigs()
package config
