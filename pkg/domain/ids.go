// Package domain defines the typed identifiers shared across the succession
// engine. Each entity family gets its own UUID-backed type so an estate ID
// can never be passed where a gift ID is expected.
//
// Usage: construct via the NewXxxID helpers, or ParseXxxID at trust
// boundaries; direct casting from uuid.UUID is reserved for stores.
package domain

import (
	"github.com/google/uuid"

	dErrors "urithi/pkg/domain-errors"
)

type (
	// EstateID identifies one deceased person's estate (the aggregate root).
	EstateID uuid.UUID
	// GiftID identifies one inter-vivos gift ledger entry.
	GiftID uuid.UUID
	// DebtID identifies one estate liability ledger entry.
	DebtID uuid.UUID
	// BequestID identifies one bequest assignment.
	BequestID uuid.UUID
	// PersonID identifies a beneficiary, recipient, creditor or deceased
	// person as resolved by the external identity provider.
	PersonID uuid.UUID
	// AssetID identifies one estate asset by reference.
	AssetID uuid.UUID
)

func NewEstateID() EstateID   { return EstateID(uuid.New()) }
func NewGiftID() GiftID       { return GiftID(uuid.New()) }
func NewDebtID() DebtID       { return DebtID(uuid.New()) }
func NewBequestID() BequestID { return BequestID(uuid.New()) }
func NewPersonID() PersonID   { return PersonID(uuid.New()) }
func NewAssetID() AssetID     { return AssetID(uuid.New()) }

func (id EstateID) String() string  { return uuid.UUID(id).String() }
func (id GiftID) String() string    { return uuid.UUID(id).String() }
func (id DebtID) String() string    { return uuid.UUID(id).String() }
func (id BequestID) String() string { return uuid.UUID(id).String() }
func (id PersonID) String() string  { return uuid.UUID(id).String() }
func (id AssetID) String() string   { return uuid.UUID(id).String() }

func (id EstateID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id GiftID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id DebtID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AssetID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id EstateID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id GiftID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id DebtID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id BequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PersonID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id AssetID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *EstateID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = EstateID(u)
	return nil
}

func (id *GiftID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = GiftID(u)
	return nil
}

func (id *DebtID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = DebtID(u)
	return nil
}

func (id *BequestID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = BequestID(u)
	return nil
}

func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = PersonID(u)
	return nil
}

func (id *AssetID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = AssetID(u)
	return nil
}

// ParseEstateID constructs an EstateID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, the nil UUID,
// or not a UUID at all.
func ParseEstateID(s string) (EstateID, error) {
	u, err := parseUUID(s, "estate id")
	return EstateID(u), err
}

// ParseGiftID constructs a GiftID from external input.
func ParseGiftID(s string) (GiftID, error) {
	u, err := parseUUID(s, "gift id")
	return GiftID(u), err
}

// ParseDebtID constructs a DebtID from external input.
func ParseDebtID(s string) (DebtID, error) {
	u, err := parseUUID(s, "debt id")
	return DebtID(u), err
}

// ParseBequestID constructs a BequestID from external input.
func ParseBequestID(s string) (BequestID, error) {
	u, err := parseUUID(s, "bequest id")
	return BequestID(u), err
}

// ParsePersonID constructs a PersonID from external input.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s, "person id")
	return PersonID(u), err
}

// ParseAssetID constructs an AssetID from external input.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset id")
	return AssetID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be the nil uuid", what)
	}
	return u, nil
}
