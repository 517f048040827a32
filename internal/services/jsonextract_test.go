package services

import "testing"

func TestExtractJSONObject(t *testing.T) {
  cases := []struct {
    name string
    in   string
    want string
  }{
    {
      name: "bare object",
      in:   `{"intent":"create_sph"}`,
      want: `{"intent":"create_sph"}`,
    },
    {
      name: "object wrapped in prose",
      in:   "Berikut hasilnya:\n{\"intent\":\"create_sph\"}\nSemoga membantu.",
      want: `{"intent":"create_sph"}`,
    },
    {
      name: "object in code fence",
      in:   "```json\n{\"isComplete\": true}\n```",
      want: `{"isComplete": true}`,
    },
    {
      name: "nested braces",
      in:   `{"a":{"b":{"c":1}},"d":2}`,
      want: `{"a":{"b":{"c":1}},"d":2}`,
    },
    {
      name: "braces inside string values",
      in:   `{"note":"pakai { dan } di teks","ok":true}`,
      want: `{"note":"pakai { dan } di teks","ok":true}`,
    },
    {
      name: "escaped quote inside string",
      in:   `{"note":"dia bilang \"halo\" {"}`,
      want: `{"note":"dia bilang \"halo\" {"}`,
    },
    {
      name: "takes the first object only",
      in:   `{"a":1} {"b":2}`,
      want: `{"a":1}`,
    },
    {
      name: "no object",
      in:   "maaf, saya tidak bisa menjawab dalam format JSON",
      want: "",
    },
    {
      name: "unbalanced open brace",
      in:   `{"a":1`,
      want: "",
    },
    {
      name: "empty input",
      in:   "",
      want: "",
    },
  }

  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      got := extractJSONObject(tc.in)
      if got != tc.want {
        t.Fatalf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
      }
    })
  }
}
