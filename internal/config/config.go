// Package config holds the engine's runtime-tunable options: depth
// bounds, cache sizing, and which optional subsystems (fallback
// rendering, the HTTP surface's auth middleware) are enabled.
package config

import "cmp"

// HighlightOptions configures one Engine instance end to end. Zero
// values are valid and resolved against DefaultHighlightOptions by
// merge. Fields carry both toml tags (internal/config/toml.go's file
// loader) and json/jsonschema tags, for hosts that surface this as a
// schema-validated config document instead of a TOML file.
type HighlightOptions struct {
	// MaxDepth is an injection recursion bound (§4.3). Zero means
	// DefaultMaxDepth. cmd/arborium-server does not pass it to the engine;
	// HTTP requests carry their own max_depth.
	MaxDepth int `toml:"max_depth" json:"max_depth,omitempty" jsonschema:"description=Injection recursion depth bound (0 = engine default)"`

	// CacheMaxEntries bounds the parse-result cache's LRU entry count.
	CacheMaxEntries int `toml:"cache_max_entries" json:"cache_max_entries,omitempty" jsonschema:"description=Maximum parse-cache entries (0 = engine default)"`
	// CacheMaxBytes bounds the parse-result cache's estimated memory usage.
	CacheMaxBytes int64 `toml:"cache_max_bytes" json:"cache_max_bytes,omitempty" jsonschema:"description=Maximum parse-cache estimated bytes (0 = engine default)"`

	// ParserPoolSize sets the per-language parser pool capacity. Zero
	// uses the runtime default (runtime.NumCPU()).
	ParserPoolSize int `toml:"parser_pool_size" json:"parser_pool_size,omitempty" jsonschema:"description=Per-language parser pool size (0 = runtime default)"`

	// FallbackEnabled records whether the opt-in chroma fallback lexer
	// (internal/fallback) is enabled. No code in this module reads it.
	FallbackEnabled bool `toml:"fallback_enabled" json:"fallback_enabled,omitempty" jsonschema:"description=Enable the chroma fallback lexer for languages with no grammar plugin"`
	// FallbackStyle names the chroma style for the fallback renderer. No
	// code in this module reads it.
	FallbackStyle string `toml:"fallback_style" json:"fallback_style,omitempty" jsonschema:"description=Chroma style name for the fallback renderer"`

	// HTTPAddr is the listen address for the HTTP serving surface.
	HTTPAddr string `toml:"http_addr" json:"http_addr,omitempty" jsonschema:"description=Listen address for the HTTP serving surface"`
	// HTTPAuthJWT requires a valid bearer JWT on every HTTP request.
	HTTPAuthJWT bool `toml:"http_auth_jwt" json:"http_auth_jwt,omitempty" jsonschema:"description=Require a bearer JWT on every HTTP request"`
}

// DefaultHighlightOptions returns the engine's out-of-the-box settings.
func DefaultHighlightOptions() HighlightOptions {
	return HighlightOptions{
		MaxDepth:        8,
		CacheMaxEntries: 5000,
		CacheMaxBytes:   256 * 1024 * 1024,
		ParserPoolSize:  0, // 0 => runtime.NumCPU()
		FallbackEnabled: false,
		FallbackStyle:   "github",
		HTTPAddr:        ":8080",
		HTTPAuthJWT:     false,
	}
}

// merge overlays any non-zero field of o onto base and returns the
// result; base is left untouched. Follows the teacher's
// RepoMapOptions.merge shape: cmp.Or for scalar overrides, boolean OR
// for flags that only ever turn a subsystem on.
func merge(base, o HighlightOptions) HighlightOptions {
	out := base
	out.MaxDepth = cmp.Or(o.MaxDepth, out.MaxDepth)
	out.CacheMaxEntries = cmp.Or(o.CacheMaxEntries, out.CacheMaxEntries)
	out.CacheMaxBytes = cmp.Or(o.CacheMaxBytes, out.CacheMaxBytes)
	out.ParserPoolSize = cmp.Or(o.ParserPoolSize, out.ParserPoolSize)
	out.FallbackEnabled = out.FallbackEnabled || o.FallbackEnabled
	out.FallbackStyle = cmp.Or(o.FallbackStyle, out.FallbackStyle)
	out.HTTPAddr = cmp.Or(o.HTTPAddr, out.HTTPAddr)
	out.HTTPAuthJWT = out.HTTPAuthJWT || o.HTTPAuthJWT
	return out
}

// Merge overlays o onto DefaultHighlightOptions.
func Merge(o HighlightOptions) HighlightOptions {
	return merge(DefaultHighlightOptions(), o)
}
