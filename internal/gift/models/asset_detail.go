package models

import (
	"strings"

	dErrors "urithi/pkg/domain-errors"
)

// AssetKind discriminates the gift's asset detail variant.
type AssetKind string

const (
	AssetKindLand      AssetKind = "LAND"
	AssetKindFinancial AssetKind = "FINANCIAL"
	AssetKindVehicle   AssetKind = "VEHICLE"
	AssetKindBusiness  AssetKind = "BUSINESS"
)

// AssetDetail is a tagged union over the four gift asset variants. Exactly
// the variant named by Kind is populated; Validate enforces both the tag and
// the per-variant required fields.
type AssetDetail struct {
	Kind      AssetKind        `json:"kind"`
	Land      *LandDetail      `json:"land,omitempty"`
	Financial *FinancialDetail `json:"financial,omitempty"`
	Vehicle   *VehicleDetail   `json:"vehicle,omitempty"`
	Business  *BusinessDetail  `json:"business,omitempty"`
}

// LandDetail describes gifted land or buildings.
type LandDetail struct {
	TitleNumber  string `json:"title_number"`
	ParcelNumber string `json:"parcel_number"`
	County       string `json:"county,omitempty"`
}

// FinancialDetail describes gifted financial holdings.
type FinancialDetail struct {
	Institution   string `json:"institution"`
	AccountNumber string `json:"account_number"`
}

// VehicleDetail describes a gifted vehicle.
type VehicleDetail struct {
	RegistrationNumber string `json:"registration_number"`
	Make               string `json:"make,omitempty"`
}

// BusinessDetail describes a gifted business interest.
type BusinessDetail struct {
	RegisteredName     string `json:"registered_name"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

// Validate checks the tag and the populated variant's required fields.
//
// Errors: CodeInvalidInput; the detail is usable only when Validate passes.
func (d AssetDetail) Validate() error {
	switch d.Kind {
	case AssetKindLand:
		if d.Land == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "land detail is required for LAND gifts")
		}
		if strings.TrimSpace(d.Land.TitleNumber) == "" || strings.TrimSpace(d.Land.ParcelNumber) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "land gifts require title and parcel numbers")
		}
	case AssetKindFinancial:
		if d.Financial == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "financial detail is required for FINANCIAL gifts")
		}
		if strings.TrimSpace(d.Financial.Institution) == "" || strings.TrimSpace(d.Financial.AccountNumber) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "financial gifts require institution and account number")
		}
	case AssetKindVehicle:
		if d.Vehicle == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "vehicle detail is required for VEHICLE gifts")
		}
		if strings.TrimSpace(d.Vehicle.RegistrationNumber) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "vehicle gifts require a registration number")
		}
	case AssetKindBusiness:
		if d.Business == nil {
			return dErrors.New(dErrors.CodeInvalidInput, "business detail is required for BUSINESS gifts")
		}
		if strings.TrimSpace(d.Business.RegisteredName) == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "business gifts require a registered name")
		}
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown asset kind %q", d.Kind)
	}
	if err := d.exactlyOneVariant(); err != nil {
		return err
	}
	return nil
}

func (d AssetDetail) exactlyOneVariant() error {
	count := 0
	if d.Land != nil {
		count++
	}
	if d.Financial != nil {
		count++
	}
	if d.Vehicle != nil {
		count++
	}
	if d.Business != nil {
		count++
	}
	if count != 1 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "asset detail must carry exactly one variant, got %d", count)
	}
	return nil
}
