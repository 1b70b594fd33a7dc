package config

// mergeConfigs merges override configuration into base. Scalars replace when
// set, sections merge field-wise, and extension maps merge one level deep.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.ClaudeDir != "" {
		result.ClaudeDir = override.ClaudeDir
	}
	if override.TokensMax != 0 {
		result.TokensMax = override.TokensMax
	}
	if override.DefaultBudget != 0 {
		result.DefaultBudget = override.DefaultBudget
	}
	if len(override.Exclude) > 0 {
		result.Exclude = override.Exclude
	}

	result.TUI = mergeTUI(result.TUI, override.TUI)
	result.Poll = mergePoll(result.Poll, override.Poll)
	result.Server = mergeServer(result.Server, override.Server)

	// Merge extensions
	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			// If both base and override have the same extension key, merge them
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						result.Extensions[key] = mergedMap
						continue
					}
				}
			}
			// Otherwise just replace
			result.Extensions[key] = value
		}
	}

	return &result
}

func mergeTUI(base, override *TUIConfig) *TUIConfig {
	if override == nil {
		return base
	}
	if base == nil {
		copied := *override
		return &copied
	}

	result := *base
	if override.Theme != "" {
		result.Theme = override.Theme
	}
	if override.Icons != "" {
		result.Icons = override.Icons
	}
	if override.RefreshInterval != "" {
		result.RefreshInterval = override.RefreshInterval
	}
	if override.DefaultSort != "" {
		result.DefaultSort = override.DefaultSort
	}
	return &result
}

func mergePoll(base, override *PollConfig) *PollConfig {
	if override == nil {
		return base
	}
	if base == nil {
		copied := *override
		return &copied
	}

	result := *base
	if override.Interval != "" {
		result.Interval = override.Interval
	}
	if override.BranchTimeout != "" {
		result.BranchTimeout = override.BranchTimeout
	}
	if override.Workers != 0 {
		result.Workers = override.Workers
	}
	if override.WatchEnrichment != nil {
		result.WatchEnrichment = override.WatchEnrichment
	}
	if override.DebounceMs != 0 {
		result.DebounceMs = override.DebounceMs
	}
	return &result
}

func mergeServer(base, override *ServerConfig) *ServerConfig {
	if override == nil {
		return base
	}
	if base == nil {
		copied := *override
		return &copied
	}

	result := *base
	if override.Socket != "" {
		result.Socket = override.Socket
	}
	return &result
}
