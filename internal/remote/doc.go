// Package remote defines the publishing boundary between the reconciliation
// core and the video hosting service.
//
// Publisher is the fallible RPC surface; every failure it returns is (or wraps)
// an *Error carrying the service's reason code so callers can classify and
// report without inspecting transport details. The ytapi subpackage provides
// the production implementation.
package remote
