package services

import (
  "bytes"
  "context"
  "fmt"
  "html/template"
  "os"
  "path/filepath"
  "strings"
  "time"

  "github.com/chromedp/cdproto/page"
  "github.com/chromedp/chromedp"
  "github.com/google/uuid"

  "github.com/agent-sparta/sparta-backend/internal/logger"
  "github.com/agent-sparta/sparta-backend/internal/types"
  "github.com/agent-sparta/sparta-backend/internal/utils"
)

// RenderResult carries the artifacts of a document render: the HTML
// body that was laid out and the web paths of both written files.
type RenderResult struct {
  HTML     string
  HTMLPath string
  PDFPath  string
}

type RendererService interface {
  GenerateSPHDocument(ctx context.Context, docID uuid.UUID, data *types.SPHData) (*RenderResult, error)
  RegeneratePDF(ctx context.Context, docID uuid.UUID, html string) (*RenderResult, error)
}

type rendererService struct {
  log        *logger.Logger
  bucket     BucketService
  uploadsDir string

  companyName    string
  companyAddress string
  companyPhone   string
  companyEmail   string
}

// NewRendererService reads the letterhead fields from the environment
// and makes sure the uploads directory exists. bucket may be nil, in
// which case rendered files stay local only.
func NewRendererService(log *logger.Logger, bucket BucketService) (RendererService, error) {
  rlog := log.With("service", "RendererService")
  uploadsDir := utils.GetEnv("UPLOADS_DIR", "uploads", rlog)
  if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
    return nil, fmt.Errorf("failed to create uploads dir: %w", err)
  }
  return &rendererService{
    log:            rlog,
    bucket:         bucket,
    uploadsDir:     uploadsDir,
    companyName:    utils.GetEnv("COMPANY_NAME", "PT Sarana Pactindo", rlog),
    companyAddress: utils.GetEnv("COMPANY_ADDRESS", "Jl. Jend. Sudirman No. 1, Jakarta", rlog),
    companyPhone:   utils.GetEnv("COMPANY_PHONE", "+62 21 000 0000", rlog),
    companyEmail:   utils.GetEnv("COMPANY_EMAIL", "sales@example.co.id", rlog),
  }, nil
}

var indonesianMonths = [...]string{
  "Januari", "Februari", "Maret", "April", "Mei", "Juni",
  "Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatIndonesianDate renders an ISO date as "2 Januari 2026". Dates
// that fail to parse come back unchanged.
func FormatIndonesianDate(iso string) string {
  parsed, err := time.Parse("2006-01-02", iso)
  if err != nil {
    return iso
  }
  return fmt.Sprintf("%d %s %d", parsed.Day(), indonesianMonths[parsed.Month()-1], parsed.Year())
}

// FormatRupiah renders an amount as "Rp 1.500.000".
func FormatRupiah(amount int64) string {
  negative := amount < 0
  if negative {
    amount = -amount
  }
  digits := fmt.Sprintf("%d", amount)
  var b strings.Builder
  for i, d := range digits {
    if i > 0 && (len(digits)-i)%3 == 0 {
      b.WriteByte('.')
    }
    b.WriteRune(d)
  }
  if negative {
    return "Rp -" + b.String()
  }
  return "Rp " + b.String()
}

type sphTemplateRow struct {
  Index           int
  ServiceName     string
  ConnectionCount int64
  PSBFee          string
  MonthlyNormal   string
  MonthlyDiscount string
  Subtotal        string
}

type sphTemplateData struct {
  CompanyName    string
  CompanyAddress string
  CompanyPhone   string
  CompanyEmail   string
  DocumentNumber string
  CustomerName   string
  SPHDate        string
  Rows           []sphTemplateRow
  TotalPSB       string
  TotalMonthly   string
  Notes          string
}

var sphTemplate = template.Must(template.New("sph").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>Surat Penawaran Harga</title>
<style>
  body { font-family: Arial, Helvetica, sans-serif; font-size: 12px; color: #1a1a1a; margin: 40px; }
  .letterhead { border-bottom: 3px solid #0b4f8a; padding-bottom: 12px; margin-bottom: 24px; }
  .letterhead h1 { margin: 0; font-size: 20px; color: #0b4f8a; }
  .letterhead p { margin: 2px 0; color: #555; }
  h2 { text-align: center; text-decoration: underline; font-size: 16px; margin: 24px 0 4px; }
  .docnum { text-align: center; color: #555; margin-bottom: 24px; }
  table { width: 100%; border-collapse: collapse; margin: 16px 0; }
  th, td { border: 1px solid #999; padding: 6px 8px; text-align: left; }
  th { background: #eef4fa; }
  td.num, th.num { text-align: right; }
  .totals td { font-weight: bold; background: #f7f7f7; }
  .notes { margin-top: 16px; padding: 10px; background: #fffbe6; border: 1px solid #e0d28a; }
  .signature { margin-top: 48px; width: 240px; }
  .signature .space { height: 70px; }
</style>
</head>
<body>
  <div class="letterhead">
    <h1>{{.CompanyName}}</h1>
    <p>{{.CompanyAddress}}</p>
    <p>Telp: {{.CompanyPhone}} | Email: {{.CompanyEmail}}</p>
  </div>

  <h2>SURAT PENAWARAN HARGA</h2>
  <p class="docnum">Nomor: {{.DocumentNumber}}</p>

  <p>Tanggal: {{.SPHDate}}</p>
  <p>Kepada Yth,<br><strong>{{.CustomerName}}</strong></p>

  <p>Dengan hormat,<br>
  Bersama surat ini kami sampaikan penawaran harga layanan sebagai berikut:</p>

  <table>
    <tr>
      <th>No</th>
      <th>Layanan</th>
      <th class="num">Jumlah Sambungan</th>
      <th class="num">Biaya Pemasangan</th>
      <th class="num">Biaya Bulanan Normal</th>
      <th class="num">Biaya Bulanan Penawaran</th>
      <th class="num">Subtotal / Bulan</th>
    </tr>
    {{range .Rows}}
    <tr>
      <td>{{.Index}}</td>
      <td>{{.ServiceName}}</td>
      <td class="num">{{.ConnectionCount}}</td>
      <td class="num">{{.PSBFee}}</td>
      <td class="num">{{.MonthlyNormal}}</td>
      <td class="num">{{.MonthlyDiscount}}</td>
      <td class="num">{{.Subtotal}}</td>
    </tr>
    {{end}}
    <tr class="totals">
      <td colspan="3">Total</td>
      <td class="num">{{.TotalPSB}}</td>
      <td></td>
      <td></td>
      <td class="num">{{.TotalMonthly}}</td>
    </tr>
  </table>

  {{if .Notes}}
  <div class="notes"><strong>Catatan:</strong> {{.Notes}}</div>
  {{end}}

  <p>Demikian penawaran ini kami sampaikan. Atas perhatian dan kerja sama Bapak/Ibu, kami ucapkan terima kasih.</p>

  <div class="signature">
    <p>Hormat kami,<br>{{.CompanyName}}</p>
    <div class="space"></div>
    <p>________________________<br>Sales &amp; Marketing</p>
  </div>
</body>
</html>
`))

func (rs *rendererService) GenerateSPHDocument(ctx context.Context, docID uuid.UUID, data *types.SPHData) (*RenderResult, error) {
  tmplData := sphTemplateData{
    CompanyName:    rs.companyName,
    CompanyAddress: rs.companyAddress,
    CompanyPhone:   rs.companyPhone,
    CompanyEmail:   rs.companyEmail,
    DocumentNumber: fmt.Sprintf("SPH/%s/%s", time.Now().Format("2006/01"), strings.ToUpper(docID.String()[:8])),
  }
  if data.CustomerName != nil {
    tmplData.CustomerName = *data.CustomerName
  }
  if data.SPHDate != nil {
    tmplData.SPHDate = FormatIndonesianDate(*data.SPHDate)
  }
  if data.Notes != nil {
    tmplData.Notes = *data.Notes
  }

  var totalPSB, totalMonthly int64
  for i, svc := range data.Services {
    row := sphTemplateRow{Index: i + 1}
    if svc.ServiceName != nil {
      row.ServiceName = *svc.ServiceName
    }
    var count int64 = 1
    if svc.ConnectionCount != nil {
      count = *svc.ConnectionCount
    }
    row.ConnectionCount = count
    var psb, normal, discount int64
    if svc.PSBFee != nil {
      psb = *svc.PSBFee
    }
    if svc.MonthlyFeeNormal != nil {
      normal = *svc.MonthlyFeeNormal
    }
    if svc.MonthlyFeeDiscount != nil {
      discount = *svc.MonthlyFeeDiscount
    }
    row.PSBFee = FormatRupiah(psb)
    row.MonthlyNormal = FormatRupiah(normal)
    row.MonthlyDiscount = FormatRupiah(discount)
    subtotal := discount * count
    row.Subtotal = FormatRupiah(subtotal)
    totalPSB += psb * count
    totalMonthly += subtotal
    tmplData.Rows = append(tmplData.Rows, row)
  }
  tmplData.TotalPSB = FormatRupiah(totalPSB)
  tmplData.TotalMonthly = FormatRupiah(totalMonthly)

  var buf bytes.Buffer
  if err := sphTemplate.Execute(&buf, tmplData); err != nil {
    return nil, fmt.Errorf("failed to render SPH template: %w", err)
  }
  return rs.writeArtifacts(ctx, docID, buf.String())
}

// RegeneratePDF re-renders an edited HTML body onto the same file pair
// the document was first written to.
func (rs *rendererService) RegeneratePDF(ctx context.Context, docID uuid.UUID, html string) (*RenderResult, error) {
  return rs.writeArtifacts(ctx, docID, html)
}

func (rs *rendererService) writeArtifacts(ctx context.Context, docID uuid.UUID, html string) (*RenderResult, error) {
  htmlName := fmt.Sprintf("sph-%s.html", docID)
  pdfName := fmt.Sprintf("sph-%s.pdf", docID)
  htmlFile := filepath.Join(rs.uploadsDir, htmlName)
  pdfFile := filepath.Join(rs.uploadsDir, pdfName)

  if err := os.WriteFile(htmlFile, []byte(html), 0o644); err != nil {
    return nil, fmt.Errorf("failed to write HTML file: %w", err)
  }

  pdf, err := rs.printPDF(ctx, htmlFile)
  if err != nil {
    return nil, err
  }
  if err := os.WriteFile(pdfFile, pdf, 0o644); err != nil {
    return nil, fmt.Errorf("failed to write PDF file: %w", err)
  }

  if rs.bucket != nil {
    if err := rs.bucket.UploadFile(ctx, htmlFile, "documents/"+htmlName); err != nil {
      rs.log.Warn("failed to mirror HTML to bucket", "error", err)
    }
    if err := rs.bucket.UploadFile(ctx, pdfFile, "documents/"+pdfName); err != nil {
      rs.log.Warn("failed to mirror PDF to bucket", "error", err)
    }
  }

  rs.log.Info("rendered SPH document", "docID", docID, "htmlPath", htmlFile, "pdfPath", pdfFile)
  return &RenderResult{
    HTML:     html,
    HTMLPath: "/" + filepath.ToSlash(filepath.Join("uploads", htmlName)),
    PDFPath:  "/" + filepath.ToSlash(filepath.Join("uploads", pdfName)),
  }, nil
}

// printPDF loads the written HTML file in headless Chrome and prints
// it to A4 with backgrounds on.
func (rs *rendererService) printPDF(ctx context.Context, htmlFile string) ([]byte, error) {
  abs, err := filepath.Abs(htmlFile)
  if err != nil {
    return nil, fmt.Errorf("failed to resolve HTML path: %w", err)
  }

  opts := append(chromedp.DefaultExecAllocatorOptions[:],
    chromedp.NoSandbox,
    chromedp.DisableGPU,
  )
  allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
  defer cancelAlloc()
  browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
  defer cancelBrowser()
  timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, 60*time.Second)
  defer cancelTimeout()

  var pdf []byte
  err = chromedp.Run(timeoutCtx,
    chromedp.Navigate("file://"+abs),
    chromedp.ActionFunc(func(ctx context.Context) error {
      buf, _, err := page.PrintToPDF().
        WithPrintBackground(true).
        WithPaperWidth(8.27).
        WithPaperHeight(11.69).
        Do(ctx)
      if err != nil {
        return err
      }
      pdf = buf
      return nil
    }),
  )
  if err != nil {
    return nil, fmt.Errorf("failed to print PDF: %w", err)
  }
  return pdf, nil
}
