// Package config provides lazyline's typed configuration.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (applied by cmd)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← LAZYLINE_SECTION_KEY
//	├─────────────────────────────┤
//	│  2. Config File             │  ← ~/.config/lazyline/config.toml or .yaml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// File and environment layers are read into maps by the loader sub-package,
// deep-merged, and decoded over Default(). Unknown keys are rejected so a
// misspelled setting does not pass silently.
//
// # Example Config
//
//	[index]
//	chunk_size = 1000000
//
//	[cache]
//	capacity = 2000
//	eviction_batch = 500
//
//	[view]
//	tab_width = 4
//	line_numbers = "absolute"   # off, absolute, relative, hybrid
//
//	[journal]
//	enabled = true
//	interval = "30s"
//
// # Usage
//
//	cfg, err := config.Load(config.WithFile(path))
//	if err != nil {
//		return err
//	}
//	buf := vbuffer.New(src, vbuffer.WithCacheCapacity(cfg.Cache.Capacity))
package config
