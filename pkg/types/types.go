package types

const (
	FieldSKU           = "SKU"
	FieldItemName      = "Item Name"
	FieldBrand         = "Brand"
	FieldColor         = "Color"
	FieldMSRP          = "MSRP"
	FieldBottleSize    = "Bottle Size"
	FieldAlcoholVolume = "Alcohol Volume"
	FieldDescription   = "Description"
)

// Record is one normalized catalog item keyed by display field name.
// SKU and Item Name are always present; optional fields only when the feed
// had a non-empty value for them.
type Record map[string]string

// SKU returns the record identifier, "" when unset.
func (r Record) SKU() string {
	return r[FieldSKU]
}

// Payload is the decoded body returned by the catalog API for a successful update.
type Payload map[string]any

// SuccessPayload is returned when the API answers with an empty success body.
func SuccessPayload() Payload {
	return Payload{"status": "success"}
}

// Outcome is the result of publishing a single record.
type Outcome struct {
	SKU     string  `json:"sku"`
	Payload Payload `json:"payload,omitempty"`
	Err     error   `json:"-"`
	Error   string  `json:"error,omitempty"`
}

func (o Outcome) Succeeded() bool {
	return o.Err == nil
}
