package config

import (
	"fmt"
	"time"
)

// DomainConfig holds the canvas tunables: block geometry, hit areas, interaction
// thresholds and content limits.
type DomainConfig struct {
	// Identity
	EntityKind         string `yaml:"entity_kind" toml:"entity_kind"`
	EntityIDPrefix     string `yaml:"entity_id_prefix" toml:"entity_id_prefix"`
	ConnectionIDPrefix string `yaml:"connection_id_prefix" toml:"connection_id_prefix"`

	// Block geometry
	DefaultEntityWidth  float64 `yaml:"default_entity_width" toml:"default_entity_width"`
	DefaultEntityHeight float64 `yaml:"default_entity_height" toml:"default_entity_height"`
	HeaderHeight        float64 `yaml:"header_height" toml:"header_height"`
	ContentPadding      float64 `yaml:"content_padding" toml:"content_padding"`
	DeleteControlSize   float64 `yaml:"delete_control_size" toml:"delete_control_size"`
	ConnectHandleSize   float64 `yaml:"connect_handle_size" toml:"connect_handle_size"`

	// Tag badges
	TagBadgeHeight    float64 `yaml:"tag_badge_height" toml:"tag_badge_height"`
	TagBadgeCharWidth float64 `yaml:"tag_badge_char_width" toml:"tag_badge_char_width"`
	TagBadgePadding   float64 `yaml:"tag_badge_padding" toml:"tag_badge_padding"`
	TagBadgeGap       float64 `yaml:"tag_badge_gap" toml:"tag_badge_gap"`

	// Connections
	HitRegionWidth         float64 `yaml:"hit_region_width" toml:"hit_region_width"`
	DeleteAffordanceRadius float64 `yaml:"delete_affordance_radius" toml:"delete_affordance_radius"`
	IndicatorSize          float64 `yaml:"indicator_size" toml:"indicator_size"`
	IndicatorMinGap        float64 `yaml:"indicator_min_gap" toml:"indicator_min_gap"`

	// Interaction
	SignificantMoveThreshold float64       `yaml:"significant_move_threshold" toml:"significant_move_threshold"`
	CanvasWidth              float64       `yaml:"canvas_width" toml:"canvas_width"`
	FocusDelay               time.Duration `yaml:"focus_delay" toml:"focus_delay"`

	// Limits
	MaxEntities      int `yaml:"max_entities" toml:"max_entities"`
	MaxTagsPerEntity int `yaml:"max_tags_per_entity" toml:"max_tags_per_entity"`
	MaxContentLength int `yaml:"max_content_length" toml:"max_content_length"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		EntityKind:         "block",
		EntityIDPrefix:     "entity-",
		ConnectionIDPrefix: "conn-",

		DefaultEntityWidth:  120,
		DefaultEntityHeight: 60,
		HeaderHeight:        16,
		ContentPadding:      6,
		DeleteControlSize:   16,
		ConnectHandleSize:   14,

		TagBadgeHeight:    14,
		TagBadgeCharWidth: 6,
		TagBadgePadding:   4,
		TagBadgeGap:       4,

		HitRegionWidth:         12,
		DeleteAffordanceRadius: 8,
		IndicatorSize:          8,
		IndicatorMinGap:        12,

		SignificantMoveThreshold: 0, // every release commits
		CanvasWidth:              1600,
		FocusDelay:               10 * time.Millisecond,

		MaxEntities:      10000,
		MaxTagsPerEntity: 20,
		MaxContentLength: 50000,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxEntities = 5000
	config.MaxContentLength = 20000
	// Ignore pointer jitter on release.
	config.SignificantMoveThreshold = 2

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxEntities = 100000
	config.FocusDelay = 0

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Clone returns an independent copy.
func (c *DomainConfig) Clone() *DomainConfig {
	cp := *c
	return &cp
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.EntityIDPrefix == "" || c.ConnectionIDPrefix == "" {
		return fmt.Errorf("id prefixes must not be empty")
	}
	if c.EntityIDPrefix == c.ConnectionIDPrefix {
		return fmt.Errorf("entity and connection id prefixes must differ")
	}
	if c.DefaultEntityWidth <= 0 || c.DefaultEntityHeight <= 0 {
		return fmt.Errorf("default entity size must be positive, got %vx%v", c.DefaultEntityWidth, c.DefaultEntityHeight)
	}
	if c.HeaderHeight+c.ContentPadding >= c.DefaultEntityHeight {
		return fmt.Errorf("header height %v leaves no content region", c.HeaderHeight)
	}
	if c.DeleteControlSize <= 0 || c.ConnectHandleSize <= 0 {
		return fmt.Errorf("control sizes must be positive")
	}
	if c.HitRegionWidth <= 0 {
		return fmt.Errorf("hit region width must be positive")
	}
	if c.IndicatorMinGap < 0 || c.SignificantMoveThreshold < 0 {
		return fmt.Errorf("gaps and thresholds must not be negative")
	}
	if c.CanvasWidth < c.DefaultEntityWidth {
		return fmt.Errorf("canvas width %v is narrower than a block", c.CanvasWidth)
	}
	if c.FocusDelay < 0 {
		return fmt.Errorf("focus delay must not be negative")
	}
	if c.MaxEntities <= 0 || c.MaxTagsPerEntity <= 0 || c.MaxContentLength <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	return nil
}
