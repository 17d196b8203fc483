package domain

// Context keys for request-scoped values set by the REST middleware.
const (
	ActorCtxKey = "registry-actor"
)

// ActorHeader carries the opaque authenticated identity of the caller.
// Credential validation belongs to the identity provider in front of this
// service; the registry only threads the identity into provenance fields.
const ActorHeader = "authorization"
