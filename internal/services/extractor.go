package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "time"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/types"
)

// ErrExtractParse means the model's answer carried no parseable JSON
// object. The caller replies with a fixed apology and keeps nothing.
var ErrExtractParse = errors.New("failed to parse extraction output")

type ExtractorService interface {
  ExtractSPH(ctx context.Context, message string) (*types.SPHData, error)
}

type extractorService struct {
  log *logger.Logger
  llm LLMService
  now func() time.Time
}

func NewExtractorService(log *logger.Logger, llm LLMService) ExtractorService {
  return &extractorService{
    log: log.With("service", "ExtractorService"),
    llm: llm,
    now: time.Now,
  }
}

// ExtractSPH runs the single extraction prompt over the message and
// decodes the first balanced JSON object of the answer into SPHData.
// The prompt pins: today's date as the default, plain-integer currency
// values, null for anything the model cannot determine, and an
// isComplete boolean that is true only when every required field of at
// least one service is present.
func (es *extractorService) ExtractSPH(ctx context.Context, message string) (*types.SPHData, error) {
  today := es.now().Format("2006-01-02")

  prompt := fmt.Sprintf(`PERAN ANDA :
Anda adalah AI ahli ekstraksi data yang sangat teliti. Tugas Anda adalah menganalisis teks dari pengguna dan mengubahnya menjadi format JSON yang terstruktur secara akurat. Jangan pernah membuat data yang tidak ada di dalam teks.

TUGAS ANDA :
Ekstrak informasi untuk pembuatan Surat Penawaran Harga (SPH) dari pesan pengguna di bawah. Hasilkan HANYA sebuah objek JSON yang valid tanpa teks pembuka atau penutup.

FORMAT JSON YANG WAJIB DIIKUTI :
{
  "customerName": "string | null",
  "sphDate": "string (YYYY-MM-DD) | null",
  "services": [
    {
      "serviceName": "string",
      "connectionCount": "integer",
      "psbFee": "integer",
      "monthlyFeeNormal": "integer",
      "monthlyFeeDiscount": "integer"
    }
  ],
  "notes": "string | null",
  "isComplete": "boolean"
}

ATURAN :
1.  **isComplete**: Setel ke 'true' HANYA jika SEMUA field wajib (customerName, sphDate, dan setidaknya satu item di services dengan semua field-nya) terisi. Jika tidak, setel ke 'false'.
2.  **Tanggal**: Jika pengguna tidak menyebutkan tanggal, gunakan tanggal hari %s ini dalam format YYYY-MM-DD.
3.  **Angka**: Semua nilai biaya (psbFee, monthlyFeeNormal, monthlyFeeDiscount) harus berupa integer tanpa format mata uang (misalnya, 500000 bukan "Rp 500.000").
4.  **Data Tidak Lengkap**: Jika ada informasi yang kurang, isi field yang relevan dengan 'null' dan setel 'isComplete' ke 'false'.
5.  **Beberapa Layanan**: Pengguna mungkin menyebutkan beberapa layanan dalam satu pesan. Pastikan semua layanan masuk ke dalam array 'services'.

CONTOH INPUT DAN OUTPUT :

### Contoh Input 1 (Lengkap):
"Tolong buatkan SPH untuk PT Maju Jaya per hari ini. Layanannya internet 100 Mbps 2 koneksi, PSB gratis, bulanan 800rb dari harga normal 1jt. Tambah juga internet 50 Mbps 1 koneksi, psb 250rb, bulanan 500rb dari normal 650rb. Catatan: penawaran berlaku 14 hari."

### Contoh Output JSON 1:
{
  "customerName": "PT Maju Jaya",
  "sphDate": "%s",
  "services": [
    {
      "serviceName": "Internet 100 Mbps",
      "connectionCount": 2,
      "psbFee": 0,
      "monthlyFeeNormal": 1000000,
      "monthlyFeeDiscount": 800000
    },
    {
      "serviceName": "Internet 50 Mbps",
      "connectionCount": 1,
      "psbFee": 250000,
      "monthlyFeeNormal": 650000,
      "monthlyFeeDiscount": 500000
    }
  ],
  "notes": "Penawaran berlaku 14 hari.",
  "isComplete": true
}

### Contoh Input 2 (Tidak Lengkap):
"Buatkan quotation untuk PT Sinar Abadi dong, layanannya internet 20 Mbps."

### Contoh Output JSON 2:
{
  "customerName": "PT Sinar Abadi",
  "sphDate": "%s",
  "services": [
    {
      "serviceName": "Internet 20 Mbps",
      "connectionCount": null,
      "psbFee": null,
      "monthlyFeeNormal": null,
      "monthlyFeeDiscount": null
    }
  ],
  "notes": null,
  "isComplete": false
}

PESAN PENGGUNA UNTUK DIANALISIS :"%s"`, today, today, today, message)

  response, err := es.llm.Complete(ctx, []LLMMessage{
    {Role: "user", Content: prompt},
  })
  if err != nil {
    return nil, err
  }

  raw := extractJSONObject(response)
  if raw == "" {
    es.log.Warn("no JSON object found in extraction response")
    return nil, ErrExtractParse
  }
  var data types.SPHData
  if err := json.Unmarshal([]byte(raw), &data); err != nil {
    es.log.Warn("failed to unmarshal extraction JSON", "error", err)
    return nil, ErrExtractParse
  }
  es.log.Debug("extracted SPH data", "isComplete", data.IsComplete, "services", len(data.Services))
  return &data, nil
}
