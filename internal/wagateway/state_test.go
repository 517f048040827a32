package wagateway

import "testing"

func TestConnStateString(t *testing.T) {
  cases := map[ConnState]string{
    StateUninitialized: "uninitialized",
    StateInitializing:  "initializing",
    StateAwaitingScan:  "awaiting_scan",
    StateAuthenticated: "authenticated",
    StateReady:         "ready",
    StateDisconnected:  "disconnected",
    StateAuthFailed:    "auth_failed",
  }
  for state, want := range cases {
    if got := state.String(); got != want {
      t.Errorf("%d.String() = %q, want %q", state, got, want)
    }
  }
  if got := ConnState(99).String(); got != "unknown" {
    t.Errorf("out-of-range state = %q, want unknown", got)
  }
}

func TestCanTransition(t *testing.T) {
  all := []ConnState{
    StateUninitialized,
    StateInitializing,
    StateAwaitingScan,
    StateAuthenticated,
    StateReady,
    StateDisconnected,
    StateAuthFailed,
  }

  allowed := map[ConnState][]ConnState{
    StateInitializing:  {StateUninitialized, StateDisconnected, StateAuthFailed},
    StateAwaitingScan:  {StateInitializing},
    StateAuthenticated: {StateInitializing, StateAwaitingScan},
    StateReady:         {StateInitializing, StateAwaitingScan, StateAuthenticated},
    StateDisconnected:  {StateInitializing, StateAwaitingScan, StateAuthenticated, StateReady},
  }

  t.Run("failure and teardown are reachable from anywhere", func(t *testing.T) {
    for _, from := range all {
      if !canTransition(from, StateAuthFailed) {
        t.Errorf("%s -> auth_failed should be legal", from)
      }
      if !canTransition(from, StateUninitialized) {
        t.Errorf("%s -> uninitialized should be legal", from)
      }
    }
  })

  t.Run("every other edge matches the lifecycle", func(t *testing.T) {
    for _, from := range all {
      for to, froms := range allowed {
        want := false
        for _, f := range froms {
          if f == from {
            want = true
          }
        }
        if got := canTransition(from, to); got != want {
          t.Errorf("canTransition(%s, %s) = %v, want %v", from, to, got, want)
        }
      }
    }
  })

  t.Run("ready cannot restart initialization", func(t *testing.T) {
    if canTransition(StateReady, StateInitializing) {
      t.Fatalf("ready -> initializing should be illegal")
    }
  })
}
