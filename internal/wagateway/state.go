package wagateway

// ConnState is the lifecycle state of the external WhatsApp client.
type ConnState int

const (
  StateUninitialized ConnState = iota
  StateInitializing
  StateAwaitingScan
  StateAuthenticated
  StateReady
  StateDisconnected
  StateAuthFailed
)

func (s ConnState) String() string {
  switch s {
  case StateUninitialized:
    return "uninitialized"
  case StateInitializing:
    return "initializing"
  case StateAwaitingScan:
    return "awaiting_scan"
  case StateAuthenticated:
    return "authenticated"
  case StateReady:
    return "ready"
  case StateDisconnected:
    return "disconnected"
  case StateAuthFailed:
    return "auth_failed"
  }
  return "unknown"
}

// canTransition enumerates every legal edge of the lifecycle. AuthFailed
// is reachable from anywhere; Uninitialized is the explicit-teardown
// target; Disconnected and AuthFailed both permit a fresh Initializing.
func canTransition(from, to ConnState) bool {
  switch to {
  case StateAuthFailed:
    return true
  case StateUninitialized:
    return true
  case StateInitializing:
    return from == StateUninitialized || from == StateDisconnected || from == StateAuthFailed
  case StateAwaitingScan:
    return from == StateInitializing
  case StateAuthenticated:
    return from == StateInitializing || from == StateAwaitingScan
  case StateReady:
    return from == StateInitializing || from == StateAwaitingScan || from == StateAuthenticated
  case StateDisconnected:
    return from == StateInitializing || from == StateAwaitingScan || from == StateAuthenticated || from == StateReady
  }
  return false
}
