package wagateway

import (
  "bytes"
  "encoding/base64"
  "fmt"
  "image/color"
  "os"

  "github.com/disintegration/imaging"
  "github.com/fogleman/gg"
  "github.com/golang/freetype/truetype"
  qrcode "github.com/skip2/go-qrcode"
  "golang.org/x/image/font"
)

const (
  qrCardWidth  = 480
  qrCardHeight = 560
  qrSize       = 400
)

// RenderQRCard turns a pairing code into a labeled PNG card and
// returns it as a data URL ready for an <img> tag. The label is
// skipped when no usable font is configured.
func RenderQRCard(code string) (string, error) {
  qr, err := qrcode.New(code, qrcode.Medium)
  if err != nil {
    return "", fmt.Errorf("failed to encode QR code: %w", err)
  }
  qrImg := imaging.Fit(qr.Image(qrSize), qrSize, qrSize, imaging.Lanczos)

  dc := gg.NewContext(qrCardWidth, qrCardHeight)
  dc.SetColor(color.White)
  dc.DrawRectangle(0, 0, qrCardWidth, qrCardHeight)
  dc.Fill()

  dc.DrawImage(qrImg, (qrCardWidth-qrSize)/2, 40)

  if face := cardFontFace(); face != nil {
    dc.SetFontFace(face)
    dc.SetColor(color.NRGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff})
    dc.DrawStringAnchored("Scan dengan WhatsApp", qrCardWidth/2, qrCardHeight-60, 0.5, 0.5)
  }

  var buf bytes.Buffer
  if err := dc.EncodePNG(&buf); err != nil {
    return "", fmt.Errorf("failed to encode PNG: %w", err)
  }
  return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func cardFontFace() font.Face {
  fontPath := os.Getenv("QR_CARD_FONT_PATH")
  if fontPath == "" {
    return nil
  }
  fontBytes, err := os.ReadFile(fontPath)
  if err != nil {
    return nil
  }
  parsedFont, err := truetype.Parse(fontBytes)
  if err != nil {
    return nil
  }
  return truetype.NewFace(parsedFont, &truetype.Options{
    Size:    22,
    DPI:     72,
    Hinting: font.HintingNone,
  })
}
