package models

import "time"

// LineItemType classifies how the platform prioritizes and delivers a line
// item. The five types below get explicit goal handling during assembly;
// any other value is passed through to the platform without a goal.
type LineItemType string

const (
	LineItemTypeStandard      LineItemType = "STANDARD"
	LineItemTypePricePriority LineItemType = "PRICE_PRIORITY"
	LineItemTypeSponsorship   LineItemType = "SPONSORSHIP"
	LineItemTypeNetwork       LineItemType = "NETWORK"
	LineItemTypeHouse         LineItemType = "HOUSE"
)

// Goal types and unit types used by the platform goal object.
const (
	GoalTypeLifetime = "LIFETIME"
	GoalTypeNone     = "NONE"

	GoalUnitImpressions = "IMPRESSIONS"
)

// Environment values for a line item's serving environment.
const (
	EnvironmentBrowser     = "BROWSER"
	EnvironmentVideoPlayer = "VIDEO_PLAYER"
)

// CostTypeCPM is the only cost model this tool creates line items with.
const CostTypeCPM = "CPM"

// RotationOptimized is the only creative rotation policy exposed.
const RotationOptimized = "OPTIMIZED"

// StartImmediately marks a line item to begin serving as soon as it is
// approved, instead of at an explicit start timestamp.
const StartImmediately = "IMMEDIATELY"

// Goal is a delivery target. Units of zero with GoalType NONE means the
// platform tracks no target at all.
type Goal struct {
	GoalType string `json:"goal_type,omitempty"`
	UnitType string `json:"unit_type,omitempty"`
	Units    int64  `json:"units,omitempty"`
}

// Money is an amount in micro currency units (1 USD = 1,000,000 micros),
// matching the platform's fixed-point representation.
type Money struct {
	CurrencyCode string `json:"currency_code"`
	MicroAmount  int64  `json:"micro_amount"`
}

// Size is a creative slot dimension in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CreativePlaceholder reserves a creative slot of a given size on the line
// item. One placeholder per requested size.
type CreativePlaceholder struct {
	Size Size `json:"size"`
}

// InventoryTargeting scopes a line item to an ad unit subtree. This tool
// always targets the network's effective root ad unit with descendants, so
// every impression on the network is eligible.
type InventoryTargeting struct {
	AdUnitID           string `json:"ad_unit_id"`
	IncludeDescendants bool   `json:"include_descendants"`
}

// LineItem is the owned, plain-value representation of a platform line item.
// The remote API's wire shape is mapped to and from this struct at the
// gateway boundary; nothing in the core holds platform SDK state.
type LineItem struct {
	ID      int64  `json:"id,omitempty"` // platform-assigned, zero until created
	OrderID int64  `json:"order_id"`
	Name    string `json:"name"`

	Type     LineItemType `json:"type"`
	Priority int          `json:"priority"`

	Inventory InventoryTargeting `json:"inventory"`
	// Targeting is nil when the line item has no custom targeting configured.
	Targeting *TargetingTree `json:"targeting,omitempty"`

	PrimaryGoal *Goal  `json:"primary_goal,omitempty"`
	CostType    string `json:"cost_type"`
	CostPerUnit Money  `json:"cost_per_unit"`

	// StartType is StartImmediately when no explicit start was given.
	StartType     string     `json:"start_type,omitempty"`
	StartDateTime *time.Time `json:"start_date_time,omitempty"`
	UnlimitedEnd  bool       `json:"unlimited_end"`
	EndDateTime   *time.Time `json:"end_date_time,omitempty"`

	CreativePlaceholders []CreativePlaceholder `json:"creative_placeholders"`
	CreativeRotation     string                `json:"creative_rotation"`
	Environment          string                `json:"environment"`

	DisableSameAdvertiserExclusion bool `json:"disable_same_advertiser_exclusion"`

	// AllowOverbook and SkipInventoryCheck are forced true before any
	// targeting mutation is pushed, so the platform cannot reject the
	// write on inventory availability grounds.
	AllowOverbook      bool `json:"allow_overbook"`
	SkipInventoryCheck bool `json:"skip_inventory_check"`

	IsArchived bool `json:"is_archived,omitempty"`
}

// CreateResult is what callers get back after a successful create.
type CreateResult struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OrderID int64  `json:"orderId"`
}
