package lineitem

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
	"github.com/fraszczakszymon/dfp-query-tool/internal/targeting"
)

// Lifetime impression goal every STANDARD line item is created with, and the
// flat unit goal for sponsorship-class types.
const (
	standardGoalUnits    = 500000
	sponsorshipGoalUnits = 100
)

// Timestamp layouts accepted on the start/end form fields, tried in order.
// All are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Assembler turns a validated form into a full line-item payload. It is pure
// construction: the only remote work is name resolution inside the tree
// builder. The network root ad unit is resolved once at startup and injected
// here, not fetched per call.
type Assembler struct {
	trees *targeting.TreeBuilder
	root  models.InventoryTargeting
}

// NewAssembler returns an Assembler scoping every line item to the given
// root ad unit.
func NewAssembler(trees *targeting.TreeBuilder, root models.InventoryTargeting) *Assembler {
	return &Assembler{trees: trees, root: root}
}

// Assemble validates the form and builds the line item to create.
func (a *Assembler) Assemble(ctx context.Context, form Form) (*models.LineItem, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	orderID, err := form.orderID()
	if err != nil {
		return nil, err
	}
	priority, err := form.priority()
	if err != nil {
		return nil, err
	}

	tree, err := a.trees.Build(ctx, form.Keys, form.Values, form.Operators)
	if err != nil {
		return nil, err
	}

	placeholders, err := parsePlaceholders(form.Sizes)
	if err != nil {
		return nil, err
	}

	cost, err := costPerUnit(form)
	if err != nil {
		return nil, err
	}

	li := &models.LineItem{
		OrderID:   orderID,
		Name:      form.LineItemName,
		Type:      models.LineItemType(form.Type),
		Priority:  priority,
		Inventory: a.root,
		Targeting: tree,

		CostType:    models.CostTypeCPM,
		CostPerUnit: cost,

		CreativePlaceholders: placeholders,
		CreativeRotation:     models.RotationOptimized,
		Environment:          models.EnvironmentBrowser,

		// Same-advertiser competitive exclusion stays on unless the form
		// explicitly opts out of it.
		DisableSameAdvertiserExclusion: form.SameAdvertiser,

		AllowOverbook: true,
	}

	if form.IsVideo {
		li.Environment = models.EnvironmentVideoPlayer
	}

	li.PrimaryGoal = goalForType(li.Type)

	if err := applySchedule(li, form); err != nil {
		return nil, err
	}

	return li, nil
}

// goalForType implements the per-type goal policy. Types outside the five
// recognized ones get no goal at all; the legacy tool fell through its type
// switch silently and that behavior is kept on purpose.
func goalForType(t models.LineItemType) *models.Goal {
	switch t {
	case models.LineItemTypeStandard:
		return &models.Goal{
			GoalType: models.GoalTypeLifetime,
			UnitType: models.GoalUnitImpressions,
			Units:    standardGoalUnits,
		}
	case models.LineItemTypePricePriority:
		return &models.Goal{GoalType: models.GoalTypeNone}
	case models.LineItemTypeSponsorship, models.LineItemTypeNetwork, models.LineItemTypeHouse:
		return &models.Goal{Units: sponsorshipGoalUnits}
	}
	return nil
}

// costPerUnit normalizes the form rate to USD micro units. Rates arrive in
// major currency units unless the cents flag is set.
func costPerUnit(form Form) (models.Money, error) {
	rate, err := form.rate()
	if err != nil {
		return models.Money{}, err
	}
	if form.Cents {
		rate /= 100
	}
	return models.Money{
		CurrencyCode: "USD",
		MicroAmount:  int64(math.Round(rate * 1e6)),
	}, nil
}

// parsePlaceholders parses the comma-separated WxH size list into creative
// placeholders, one per size.
func parsePlaceholders(sizes string) ([]models.CreativePlaceholder, error) {
	tokens := strings.Split(sizes, ",")
	placeholders := make([]models.CreativePlaceholder, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		width, height, ok := strings.Cut(token, "x")
		if !ok {
			return nil, &models.ValidationError{Field: "sizes", Reason: "size must be WIDTHxHEIGHT: " + token}
		}
		w, werr := strconv.Atoi(strings.TrimSpace(width))
		h, herr := strconv.Atoi(strings.TrimSpace(height))
		if werr != nil || herr != nil || w <= 0 || h <= 0 {
			return nil, &models.ValidationError{Field: "sizes", Reason: "size must be WIDTHxHEIGHT: " + token}
		}
		placeholders = append(placeholders, models.CreativePlaceholder{Size: models.Size{Width: w, Height: h}})
	}
	return placeholders, nil
}

// applySchedule sets the start/end policy: explicit UTC timestamps when
// supplied, otherwise immediate start and unlimited end.
func applySchedule(li *models.LineItem, form Form) error {
	if form.Start != "" {
		start, err := parseUTC(form.Start)
		if err != nil {
			return &models.ValidationError{Field: "start", Reason: "unparseable timestamp"}
		}
		li.StartDateTime = &start
	} else {
		li.StartType = models.StartImmediately
	}

	if form.End != "" {
		end, err := parseUTC(form.End)
		if err != nil {
			return &models.ValidationError{Field: "end", Reason: "unparseable timestamp"}
		}
		li.EndDateTime = &end
	} else {
		li.UnlimitedEnd = true
	}
	return nil
}

func parseUTC(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		ts, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return ts.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
