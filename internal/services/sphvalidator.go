package services

import (
  "fmt"
  "math"
  "strings"
  "time"

  "github.com/agent-sparta/sparta-backend/internal/types"
)

// ValidateSPHData checks extracted quotation data against the business
// rules before a document is generated. Errors block generation,
// warnings are surfaced to the user but do not block.
func ValidateSPHData(data *types.SPHData) types.ValidationResult {
  result := types.ValidationResult{IsValid: true}

  addError := func(msg string) {
    result.IsValid = false
    result.Errors = append(result.Errors, msg)
  }
  addWarning := func(msg string) {
    result.Warnings = append(result.Warnings, msg)
  }

  if data.CustomerName == nil || strings.TrimSpace(*data.CustomerName) == "" {
    addError("Nama pelanggan harus diisi")
  }

  if data.SPHDate == nil || strings.TrimSpace(*data.SPHDate) == "" {
    addError("Tanggal SPH harus diisi")
  } else {
    parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*data.SPHDate))
    if err != nil {
      addError("Format tanggal SPH tidak valid")
    } else {
      today := time.Now().Format("2006-01-02")
      if parsed.Format("2006-01-02") < today {
        addWarning("Tanggal SPH sudah lewat dari hari ini")
      }
    }
  }

  if len(data.Services) == 0 {
    addError("Minimal harus ada satu layanan")
  }

  for i, svc := range data.Services {
    n := i + 1
    if svc.ServiceName == nil || strings.TrimSpace(*svc.ServiceName) == "" {
      addError(fmt.Sprintf("Layanan %d: Nama layanan harus diisi", n))
    }
    if svc.ConnectionCount == nil {
      addError(fmt.Sprintf("Layanan %d: Jumlah sambungan harus diisi", n))
    } else {
      if *svc.ConnectionCount <= 0 {
        addError(fmt.Sprintf("Layanan %d: Jumlah sambungan harus lebih dari 0", n))
      } else if *svc.ConnectionCount > 1000 {
        addWarning(fmt.Sprintf("Layanan %d: Jumlah sambungan sangat besar (%d), mohon periksa kembali", n, *svc.ConnectionCount))
      }
    }
    if svc.PSBFee == nil {
      addError(fmt.Sprintf("Layanan %d: Biaya pemasangan (PSB) harus diisi", n))
    } else {
      if *svc.PSBFee < 0 {
        addError(fmt.Sprintf("Layanan %d: Biaya pemasangan (PSB) tidak boleh negatif", n))
      } else if *svc.PSBFee == 0 {
        addWarning(fmt.Sprintf("Layanan %d: Biaya pemasangan (PSB) gratis", n))
      }
    }
    if svc.MonthlyFeeNormal == nil {
      addError(fmt.Sprintf("Layanan %d: Biaya bulanan normal harus diisi", n))
    } else if *svc.MonthlyFeeNormal < 0 {
      addError(fmt.Sprintf("Layanan %d: Biaya bulanan normal tidak boleh negatif", n))
    }
    if svc.MonthlyFeeDiscount == nil {
      addError(fmt.Sprintf("Layanan %d: Biaya bulanan diskon harus diisi", n))
    } else if *svc.MonthlyFeeDiscount < 0 {
      addError(fmt.Sprintf("Layanan %d: Biaya bulanan diskon tidak boleh negatif", n))
    }
    if svc.MonthlyFeeNormal != nil && svc.MonthlyFeeDiscount != nil &&
      *svc.MonthlyFeeDiscount > *svc.MonthlyFeeNormal {
      addWarning(fmt.Sprintf("Layanan %d: Biaya diskon lebih besar dari biaya normal", n))
    }
    // Cross-check a stated percentage against the actual fee pair only
    // when a real discount exists. Tolerance is one percentage point.
    if svc.DiscountPercentage != nil && svc.MonthlyFeeNormal != nil && svc.MonthlyFeeDiscount != nil &&
      *svc.MonthlyFeeNormal > 0 && *svc.MonthlyFeeDiscount < *svc.MonthlyFeeNormal {
      actual := (float64(*svc.MonthlyFeeNormal-*svc.MonthlyFeeDiscount) / float64(*svc.MonthlyFeeNormal)) * 100
      if math.Abs(actual-*svc.DiscountPercentage) > 1 {
        addWarning(fmt.Sprintf("Layanan %d: Persentase diskon (%.0f%%) tidak sesuai dengan perhitungan biaya (%.0f%%)", n, *svc.DiscountPercentage, actual))
      }
    }
  }

  for i, att := range data.Attachments {
    if strings.TrimSpace(att) == "" {
      addError(fmt.Sprintf("Lampiran %d tidak valid", i+1))
    }
  }

  return result
}

// SanitizeSPHData normalizes extracted data in place: trims strings,
// clamps negative fees to zero, floors connection counts to at least
// one, defaults a missing date to today, and drops blank attachments.
// Running it twice yields the same result.
func SanitizeSPHData(data *types.SPHData) {
  if data.CustomerName != nil {
    trimmed := strings.TrimSpace(*data.CustomerName)
    data.CustomerName = &trimmed
  }

  if data.SPHDate == nil || strings.TrimSpace(*data.SPHDate) == "" {
    today := time.Now().Format("2006-01-02")
    data.SPHDate = &today
  } else {
    trimmed := strings.TrimSpace(*data.SPHDate)
    data.SPHDate = &trimmed
  }

  for i := range data.Services {
    svc := &data.Services[i]
    if svc.ServiceName != nil {
      trimmed := strings.TrimSpace(*svc.ServiceName)
      svc.ServiceName = &trimmed
    }
    if svc.ConnectionCount != nil && *svc.ConnectionCount < 1 {
      one := int64(1)
      svc.ConnectionCount = &one
    }
    if svc.PSBFee != nil && *svc.PSBFee < 0 {
      zero := int64(0)
      svc.PSBFee = &zero
    }
    if svc.MonthlyFeeNormal != nil && *svc.MonthlyFeeNormal < 0 {
      zero := int64(0)
      svc.MonthlyFeeNormal = &zero
    }
    if svc.MonthlyFeeDiscount != nil && *svc.MonthlyFeeDiscount < 0 {
      zero := int64(0)
      svc.MonthlyFeeDiscount = &zero
    }
    // The percentage is only an extraction cross-check; the rendered
    // document derives it from the fee pair.
    svc.DiscountPercentage = nil
  }

  if data.Notes != nil {
    trimmed := strings.TrimSpace(*data.Notes)
    if trimmed == "" {
      data.Notes = nil
    } else {
      data.Notes = &trimmed
    }
  }

  kept := data.Attachments[:0]
  for _, att := range data.Attachments {
    if trimmed := strings.TrimSpace(att); trimmed != "" {
      kept = append(kept, trimmed)
    }
  }
  data.Attachments = kept
}

// MissingSPHFields names, in display form, the required fields still
// absent from a partial extraction. It backs the guidance reply that
// asks the user to complete their request.
func MissingSPHFields(data *types.SPHData) []string {
  var missing []string
  if data.CustomerName == nil || strings.TrimSpace(*data.CustomerName) == "" {
    missing = append(missing, "Nama Pelanggan")
  }
  if len(data.Services) == 0 {
    missing = append(missing, "Detail Layanan")
    return missing
  }
  // Gaps are named from the first service item only.
  svc := data.Services[0]
  if svc.ServiceName == nil || strings.TrimSpace(*svc.ServiceName) == "" {
    missing = append(missing, "Detail Layanan")
  }
  if svc.ConnectionCount == nil {
    missing = append(missing, "Jumlah Sambungan")
  }
  if svc.PSBFee == nil {
    missing = append(missing, "Biaya Pemasangan (PSB)")
  }
  if svc.MonthlyFeeNormal == nil {
    missing = append(missing, "Biaya Bulanan Normal")
  }
  if svc.MonthlyFeeDiscount == nil {
    missing = append(missing, "Biaya Bulanan Diskon")
  }
  return missing
}
