// Package services implements the driving port interfaces.
// Services contain the analytics engine and orchestrate calls to
// driven ports (adapters).
//
// Every scoring pass owns its intermediate maps; nothing is shared
// between concurrent invocations. Long-running operations check a
// request sequence at loop boundaries and abort with
// domain.ErrSuperseded when a newer request replaces them.
package services
