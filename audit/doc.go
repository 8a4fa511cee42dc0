// Package audit provides membership.AuditSink implementations: a bun
// sink writing the audit_logs table and a rotating JSON lines file
// sink.
package audit
