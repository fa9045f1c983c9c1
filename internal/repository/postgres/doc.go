// Package postgres implements the domain repositories on database/sql with
// the lib/pq driver.
//
// Expected tables:
//
//	events(id, tenant_id, local_church_id NULL, scope, capacity NULL,
//	       visible_to_roles text[], is_active, name, starts_at,
//	       created_at, updated_at)
//	event_registrations(id, event_id, user_id, status, seq bigserial,
//	       registered_at, cancelled_at NULL, has_paid,
//	       UNIQUE (event_id, user_id) WHERE status IN ('going','waitlist'))
//	church_memberships(tenant_id, user_id, local_church_id)
//	users(id, email)
//	idempotency_records(endpoint, user_id, client_token, result, created_at,
//	       expires_at, PRIMARY KEY (endpoint, user_id, client_token))
//	audit_log(id, action, entity_id, actor_id, tenant_id, changes jsonb,
//	       created_at)
//
// Enroll and CancelAndPromote lock the parent event row (SELECT ... FOR
// UPDATE) before reading counts or waitlist order, so all mutations for one
// event serialize and the going count can never exceed capacity.
package postgres
