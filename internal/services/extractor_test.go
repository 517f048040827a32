package services

import (
  "context"
  "errors"
  "strings"
  "testing"
  "time"
)

func TestExtractSPH(t *testing.T) {
  ctx := context.Background()

  t.Run("parses a complete extraction", func(t *testing.T) {
    llm := &fakeLLM{response: `Berikut data yang saya temukan:
{
  "customerName": "PT Maju Jaya",
  "sphDate": "2026-09-15",
  "services": [
    {
      "serviceName": "Internet 50 Mbps",
      "connectionCount": 2,
      "psbFee": 500000,
      "monthlyFeeNormal": 1500000,
      "monthlyFeeDiscount": 1200000
    }
  ],
  "isComplete": true
}`}
    svc := NewExtractorService(newTestLogger(t), llm)
    data, err := svc.ExtractSPH(ctx, "buatkan SPH untuk PT Maju Jaya")
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if data.CustomerName == nil || *data.CustomerName != "PT Maju Jaya" {
      t.Fatalf("customer name not parsed: %+v", data)
    }
    if data.SPHDate == nil || *data.SPHDate != "2026-09-15" {
      t.Fatalf("date not parsed: %+v", data)
    }
    if len(data.Services) != 1 {
      t.Fatalf("expected one service, got %d", len(data.Services))
    }
    svc0 := data.Services[0]
    if svc0.ConnectionCount == nil || *svc0.ConnectionCount != 2 {
      t.Fatalf("connection count not parsed: %+v", svc0)
    }
    if svc0.MonthlyFeeDiscount == nil || *svc0.MonthlyFeeDiscount != 1200000 {
      t.Fatalf("discount fee not parsed: %+v", svc0)
    }
    if !data.IsComplete {
      t.Fatalf("isComplete not parsed")
    }
  })

  t.Run("keeps nulls for fields the message never stated", func(t *testing.T) {
    llm := &fakeLLM{response: `{"customerName":"PT Sinar Abadi","sphDate":null,"services":[{"serviceName":"Internet 20 Mbps","connectionCount":null,"psbFee":null,"monthlyFeeNormal":null,"monthlyFeeDiscount":null}],"isComplete":false}`}
    svc := NewExtractorService(newTestLogger(t), llm)
    data, err := svc.ExtractSPH(ctx, "buatkan SPH internet 20 mbps untuk PT Sinar Abadi")
    if err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if data.IsComplete {
      t.Fatalf("expected incomplete extraction")
    }
    if data.SPHDate != nil {
      t.Fatalf("expected nil date, got %q", *data.SPHDate)
    }
    if data.Services[0].ConnectionCount != nil {
      t.Fatalf("expected nil connection count")
    }
  })

  t.Run("no JSON in response is a parse error", func(t *testing.T) {
    llm := &fakeLLM{response: "maaf, saya tidak mengerti"}
    svc := NewExtractorService(newTestLogger(t), llm)
    if _, err := svc.ExtractSPH(ctx, "buatkan SPH"); !errors.Is(err, ErrExtractParse) {
      t.Fatalf("got %v, want ErrExtractParse", err)
    }
  })

  t.Run("malformed JSON is a parse error", func(t *testing.T) {
    llm := &fakeLLM{response: `{"customerName": "PT Maju Jaya", "services": "bukan array"}`}
    svc := NewExtractorService(newTestLogger(t), llm)
    if _, err := svc.ExtractSPH(ctx, "buatkan SPH"); !errors.Is(err, ErrExtractParse) {
      t.Fatalf("got %v, want ErrExtractParse", err)
    }
  })

  t.Run("completion error passes through unchanged", func(t *testing.T) {
    llm := &fakeLLM{err: ErrLLMRateLimited}
    svc := NewExtractorService(newTestLogger(t), llm)
    if _, err := svc.ExtractSPH(ctx, "buatkan SPH"); !errors.Is(err, ErrLLMRateLimited) {
      t.Fatalf("got %v, want ErrLLMRateLimited", err)
    }
  })

  t.Run("prompt carries today's date and the message", func(t *testing.T) {
    llm := &fakeLLM{response: `{"customerName":null,"sphDate":null,"services":[],"isComplete":false}`}
    svc := NewExtractorService(newTestLogger(t), llm).(*extractorService)
    fixed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
    svc.now = func() time.Time { return fixed }

    if _, err := svc.ExtractSPH(ctx, "buatkan SPH besok"); err != nil {
      t.Fatalf("unexpected error: %v", err)
    }
    if len(llm.calls) != 1 {
      t.Fatalf("expected one completion call, got %d", len(llm.calls))
    }
    prompt := llm.calls[0][0].Content
    if !strings.Contains(prompt, "2026-09-01") {
      t.Fatalf("prompt missing today's date")
    }
    if !strings.Contains(prompt, "buatkan SPH besok") {
      t.Fatalf("prompt missing user message")
    }
  })
}
