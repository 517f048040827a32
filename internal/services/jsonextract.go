package services

// extractJSONObject returns the first balanced {...} substring of s, or ""
// when none exists. The scan is aware of string literals and escapes so
// braces inside JSON strings do not unbalance the count. Model output
// often wraps the object in prose or code fences; this strips all of it.
func extractJSONObject(s string) string {
  start := -1
  depth := 0
  inString := false
  escaped := false
  for i, r := range s {
    if start == -1 {
      if r == '{' {
        start = i
        depth = 1
      }
      continue
    }
    if escaped {
      escaped = false
      continue
    }
    switch r {
    case '\\':
      if inString {
        escaped = true
      }
    case '"':
      inString = !inString
    case '{':
      if !inString {
        depth++
      }
    case '}':
      if !inString {
        depth--
        if depth == 0 {
          return s[start : i+1]
        }
      }
    }
  }
  return ""
}
