package types

// SPHData is the in-flight quotation request pulled out of a user message.
// It is not persisted until it has passed validation; until then any field
// may be null, which is why the scalar fields are pointers. The JSON field
// names are part of the extraction prompt contract and must not change.
type SPHData struct {
  CustomerName  *string         `json:"customerName"`
  SPHDate       *string         `json:"sphDate"`
  Services      []ServiceItem   `json:"services"`
  Notes         *string         `json:"notes,omitempty"`
  Attachments   []string        `json:"attachments,omitempty"`
  IsComplete    bool            `json:"isComplete"`
}

type ServiceItem struct {
  ServiceName         *string     `json:"serviceName"`
  ConnectionCount     *int64      `json:"connectionCount"`
  PSBFee              *int64      `json:"psbFee"`
  MonthlyFeeNormal    *int64      `json:"monthlyFeeNormal"`
  MonthlyFeeDiscount  *int64      `json:"monthlyFeeDiscount"`
  DiscountPercentage  *float64    `json:"discountPercentage,omitempty"`
}

// ValidationResult reports the outcome of validating an SPHData. IsValid
// depends on hard errors only; warnings never block generation.
type ValidationResult struct {
  IsValid   bool      `json:"isValid"`
  Errors    []string  `json:"errors"`
  Warnings  []string  `json:"warnings"`
}
