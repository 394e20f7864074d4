package costing

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrDeliveryZoneRequired is returned when an order requests delivery
// without referencing a delivery zone. The engine does not guess a fallback
// zone or silently price delivery at zero.
var ErrDeliveryZoneRequired = errors.New("delivery requested without a delivery zone")

// MissingIngredientError indicates a recipe references an ingredient that
// does not exist in the snapshot. Fatal: a silently free ingredient would
// understate the price.
type MissingIngredientError struct {
	RecipeID     string
	IngredientID string
}

func (e *MissingIngredientError) Error() string {
	return fmt.Sprintf("recipe %s references unknown ingredient %s", e.RecipeID, e.IngredientID)
}

// UnknownRecipeError indicates a tier slot references a recipe that does not
// exist in the snapshot.
type UnknownRecipeError struct {
	RecipeID string
}

func (e *UnknownRecipeError) Error() string {
	return fmt.Sprintf("unknown recipe %s", e.RecipeID)
}

// UnknownTierSizeError indicates a tier references a tier size that does not
// exist in the snapshot.
type UnknownTierSizeError struct {
	TierSizeID string
}

func (e *UnknownTierSizeError) Error() string {
	return fmt.Sprintf("unknown tier size %s", e.TierSizeID)
}

// UnknownTechniqueError indicates a decoration references a technique that
// does not exist in the snapshot. Fatal: decoration cost must never silently
// vanish from the total.
type UnknownTechniqueError struct {
	TechniqueID string
}

func (e *UnknownTechniqueError) Error() string {
	return fmt.Sprintf("unknown decoration technique %s", e.TechniqueID)
}

// UnknownRoleError indicates a labor role referenced by a technique, or one
// of the reserved baker/assistant roles, does not exist in the snapshot.
type UnknownRoleError struct {
	RoleID string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown labor role %s", e.RoleID)
}

// MissingDeliveryZoneError indicates the order's delivery zone does not
// exist in the snapshot.
type MissingDeliveryZoneError struct {
	ZoneID string
}

func (e *MissingDeliveryZoneError) Error() string {
	return fmt.Sprintf("unknown delivery zone %s", e.ZoneID)
}
