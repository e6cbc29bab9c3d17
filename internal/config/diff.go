package config

import "reflect"

// Changes lists the top-level sections that differ between two configs,
// split into those applied live (logging) and those needing a restart.
func Changes(oldCfg, newCfg *Config) (live, restart []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) || oldCfg.Telegram.LogChatID != newCfg.Telegram.LogChatID {
		live = append(live, "logging")
	}

	tgOld, tgNew := oldCfg.Telegram, newCfg.Telegram
	tgOld.LogChatID, tgNew.LogChatID = "", ""
	sections := []struct {
		name     string
		old, new any
	}{
		{"telegram", tgOld, tgNew},
		{"storage", oldCfg.Storage, newCfg.Storage},
		{"fetch", oldCfg.Fetch, newCfg.Fetch},
		{"pipeline", oldCfg.Pipeline, newCfg.Pipeline},
		{"categories", oldCfg.Categories, newCfg.Categories},
		{"ops", oldCfg.Ops, newCfg.Ops},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.new) {
			restart = append(restart, s.name)
		}
	}
	return live, restart
}
