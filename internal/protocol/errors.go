package protocol

import (
	"errors"

	"campfire.ai/internal/sim/cooking"
	"campfire.ai/internal/sim/fuel"
)

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session/scene routing.
	ErrNoScene       = "E_NO_SCENE"
	ErrUnknownScene  = "E_UNKNOWN_SCENE"
	ErrUnknownSource = "E_UNKNOWN_SOURCE"
	ErrNoCooking     = "E_NO_COOKING"

	// Fuel.
	ErrMaxStokes            = "E_MAX_STOKES"
	ErrNotFuel              = "E_NOT_FUEL"
	ErrInsufficientQuantity = "E_INSUFFICIENT_QUANTITY"

	// Cooking.
	ErrFireNotLit     = "E_FIRE_NOT_LIT"
	ErrAlreadyCooking = "E_ALREADY_COOKING"
	ErrNotCookable    = "E_NOT_COOKABLE"
	ErrNotReady       = "E_NOT_READY"

	ErrBadRequest = "E_BAD_REQUEST"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:      {},
	ErrNoScene:              {},
	ErrUnknownScene:         {},
	ErrUnknownSource:        {},
	ErrNoCooking:            {},
	ErrMaxStokes:            {},
	ErrNotFuel:              {},
	ErrInsufficientQuantity: {},
	ErrFireNotLit:           {},
	ErrAlreadyCooking:       {},
	ErrNotCookable:          {},
	ErrNotReady:             {},
	ErrBadRequest:           {},
	ErrInternal:             {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeFor maps a simulation error to its wire code. Errors the simulation does not
// define map to E_BAD_REQUEST.
func CodeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fuel.ErrMaxStokesReached):
		return ErrMaxStokes
	case errors.Is(err, fuel.ErrNotFuel):
		return ErrNotFuel
	case errors.Is(err, fuel.ErrInsufficientQuantity), errors.Is(err, cooking.ErrInsufficientQuantity):
		return ErrInsufficientQuantity
	case errors.Is(err, cooking.ErrFireNotLit):
		return ErrFireNotLit
	case errors.Is(err, cooking.ErrAlreadyCooking):
		return ErrAlreadyCooking
	case errors.Is(err, cooking.ErrNotCookable):
		return ErrNotCookable
	case errors.Is(err, cooking.ErrNotReady):
		return ErrNotReady
	default:
		return ErrBadRequest
	}
}
