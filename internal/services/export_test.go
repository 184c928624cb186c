package services

// SessionFile exposes the unexported sessionFile type to external tests.
type SessionFile = sessionFile
