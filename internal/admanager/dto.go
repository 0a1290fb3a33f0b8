// Package admanager talks to the ad platform's REST API. It is a pure
// serialization boundary: wire DTOs in this file, owned value structs from
// the models package everywhere else.
package admanager

import (
	"time"

	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
)

// criteriaNode is one node of the platform's custom-targeting expression.
// The platform models the expression as a set-of-sets: a top-level set with
// logicalOperator AND whose children are sets, each holding leaf criteria.
type criteriaNode struct {
	LogicalOperator string         `json:"logicalOperator,omitempty"`
	Children        []criteriaNode `json:"children,omitempty"`
	KeyID           int64          `json:"keyId,omitempty"`
	ValueIDs        []int64        `json:"valueIds,omitempty"`
	Operator        string         `json:"operator,omitempty"`
}

type adUnitTargetingDTO struct {
	AdUnitID           string `json:"adUnitId"`
	IncludeDescendants bool   `json:"includeDescendants"`
}

type targetingDTO struct {
	InventoryTargeting struct {
		TargetedAdUnits []adUnitTargetingDTO `json:"targetedAdUnits"`
	} `json:"inventoryTargeting"`
	CustomTargeting *criteriaNode `json:"customTargeting,omitempty"`
}

type moneyDTO struct {
	CurrencyCode string `json:"currencyCode"`
	MicroAmount  int64  `json:"microAmount"`
}

type goalDTO struct {
	GoalType string `json:"goalType,omitempty"`
	UnitType string `json:"unitType,omitempty"`
	Units    int64  `json:"units,omitempty"`
}

type sizeDTO struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type creativePlaceholderDTO struct {
	Size sizeDTO `json:"size"`
}

type lineItemDTO struct {
	ID                   int64                    `json:"id,omitempty"`
	OrderID              int64                    `json:"orderId"`
	Name                 string                   `json:"name"`
	LineItemType         string                   `json:"lineItemType"`
	Priority             int                      `json:"priority"`
	Targeting            targetingDTO             `json:"targeting"`
	PrimaryGoal          *goalDTO                 `json:"primaryGoal,omitempty"`
	CostType             string                   `json:"costType"`
	CostPerUnit          moneyDTO                 `json:"costPerUnit"`
	StartDateTimeType    string                   `json:"startDateTimeType,omitempty"`
	StartDateTime        *time.Time               `json:"startDateTime,omitempty"`
	UnlimitedEndDateTime bool                     `json:"unlimitedEndDateTime"`
	EndDateTime          *time.Time               `json:"endDateTime,omitempty"`
	CreativePlaceholders []creativePlaceholderDTO `json:"creativePlaceholders"`
	CreativeRotationType string                   `json:"creativeRotationType"`
	EnvironmentType      string                   `json:"environmentType,omitempty"`

	DisableSameAdvertiserCompetitiveExclusion bool `json:"disableSameAdvertiserCompetitiveExclusion"`
	AllowOverbook                             bool `json:"allowOverbook,omitempty"`
	SkipInventoryCheck                        bool `json:"skipInventoryCheck,omitempty"`
	IsArchived                                bool `json:"isArchived,omitempty"`
}

func encodeTargeting(li *models.LineItem) targetingDTO {
	var dto targetingDTO
	dto.InventoryTargeting.TargetedAdUnits = []adUnitTargetingDTO{{
		AdUnitID:           li.Inventory.AdUnitID,
		IncludeDescendants: li.Inventory.IncludeDescendants,
	}}
	dto.CustomTargeting = encodeTree(li.Targeting)
	return dto
}

func encodeTree(tree *models.TargetingTree) *criteriaNode {
	if tree == nil {
		return nil
	}
	root := &criteriaNode{LogicalOperator: "AND", Children: make([]criteriaNode, 0, len(tree.Groups))}
	for _, group := range tree.Groups {
		set := criteriaNode{LogicalOperator: "AND", Children: make([]criteriaNode, 0, len(group.Criteria))}
		for _, c := range group.Criteria {
			set.Children = append(set.Children, criteriaNode{
				KeyID:    c.KeyID,
				ValueIDs: c.ValueIDs,
				Operator: string(c.Operator),
			})
		}
		root.Children = append(root.Children, set)
	}
	return root
}

func decodeTree(node *criteriaNode) *models.TargetingTree {
	if node == nil {
		return nil
	}
	tree := &models.TargetingTree{Groups: make([]models.Group, 0, len(node.Children))}
	for _, set := range node.Children {
		group := models.Group{Criteria: make([]models.Criterion, 0, len(set.Children))}
		for _, leaf := range set.Children {
			group.Criteria = append(group.Criteria, models.Criterion{
				KeyID:    leaf.KeyID,
				ValueIDs: leaf.ValueIDs,
				Operator: models.Operator(leaf.Operator),
			})
		}
		tree.Groups = append(tree.Groups, group)
	}
	return tree
}

func encodeLineItem(li *models.LineItem) lineItemDTO {
	dto := lineItemDTO{
		ID:                   li.ID,
		OrderID:              li.OrderID,
		Name:                 li.Name,
		LineItemType:         string(li.Type),
		Priority:             li.Priority,
		Targeting:            encodeTargeting(li),
		CostType:             li.CostType,
		CostPerUnit:          moneyDTO{CurrencyCode: li.CostPerUnit.CurrencyCode, MicroAmount: li.CostPerUnit.MicroAmount},
		StartDateTimeType:    li.StartType,
		StartDateTime:        li.StartDateTime,
		UnlimitedEndDateTime: li.UnlimitedEnd,
		EndDateTime:          li.EndDateTime,
		CreativeRotationType: li.CreativeRotation,
		EnvironmentType:      li.Environment,

		DisableSameAdvertiserCompetitiveExclusion: li.DisableSameAdvertiserExclusion,
		AllowOverbook:      li.AllowOverbook,
		SkipInventoryCheck: li.SkipInventoryCheck,
		IsArchived:         li.IsArchived,
	}
	if li.PrimaryGoal != nil {
		dto.PrimaryGoal = &goalDTO{
			GoalType: li.PrimaryGoal.GoalType,
			UnitType: li.PrimaryGoal.UnitType,
			Units:    li.PrimaryGoal.Units,
		}
	}
	dto.CreativePlaceholders = make([]creativePlaceholderDTO, 0, len(li.CreativePlaceholders))
	for _, p := range li.CreativePlaceholders {
		dto.CreativePlaceholders = append(dto.CreativePlaceholders, creativePlaceholderDTO{
			Size: sizeDTO{Width: p.Size.Width, Height: p.Size.Height},
		})
	}
	return dto
}

func decodeLineItem(dto lineItemDTO) models.LineItem {
	li := models.LineItem{
		ID:               dto.ID,
		OrderID:          dto.OrderID,
		Name:             dto.Name,
		Type:             models.LineItemType(dto.LineItemType),
		Priority:         dto.Priority,
		Targeting:        decodeTree(dto.Targeting.CustomTargeting),
		CostType:         dto.CostType,
		CostPerUnit:      models.Money{CurrencyCode: dto.CostPerUnit.CurrencyCode, MicroAmount: dto.CostPerUnit.MicroAmount},
		StartType:        dto.StartDateTimeType,
		StartDateTime:    dto.StartDateTime,
		UnlimitedEnd:     dto.UnlimitedEndDateTime,
		EndDateTime:      dto.EndDateTime,
		CreativeRotation: dto.CreativeRotationType,
		Environment:      dto.EnvironmentType,

		DisableSameAdvertiserExclusion: dto.DisableSameAdvertiserCompetitiveExclusion,
		AllowOverbook:                  dto.AllowOverbook,
		SkipInventoryCheck:             dto.SkipInventoryCheck,
		IsArchived:                     dto.IsArchived,
	}
	if len(dto.Targeting.InventoryTargeting.TargetedAdUnits) > 0 {
		unit := dto.Targeting.InventoryTargeting.TargetedAdUnits[0]
		li.Inventory = models.InventoryTargeting{
			AdUnitID:           unit.AdUnitID,
			IncludeDescendants: unit.IncludeDescendants,
		}
	}
	if dto.PrimaryGoal != nil {
		li.PrimaryGoal = &models.Goal{
			GoalType: dto.PrimaryGoal.GoalType,
			UnitType: dto.PrimaryGoal.UnitType,
			Units:    dto.PrimaryGoal.Units,
		}
	}
	li.CreativePlaceholders = make([]models.CreativePlaceholder, 0, len(dto.CreativePlaceholders))
	for _, p := range dto.CreativePlaceholders {
		li.CreativePlaceholders = append(li.CreativePlaceholders, models.CreativePlaceholder{
			Size: models.Size{Width: p.Size.Width, Height: p.Size.Height},
		})
	}
	return li
}
