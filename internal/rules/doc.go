// Package rules implements the conditional automation engine.
//
// A Rule combines one or more Conditions, evaluated against the most
// recent telemetry snapshot, with a list of named Actions that run when
// every condition holds. Conditions are stateless comparisons (greater
// than, between, contains, truthiness and so on) whose left-hand side
// is either a literal or a reference to a metric key resolved fresh
// each cycle.
//
// The Engine owns the in-memory rule set and is driven by the
// scheduler at a fixed cadence. Rules are persisted as StoredRule rows
// (conditions plus action names) and rebound to callbacks through an
// ActionRegistry at load time, so the database never holds function
// values.
//
// Evaluation semantics:
//   - Conditions within a rule are AND-ed; the first false (or faulty)
//     condition stops the rule.
//   - An unknown operator or incomparable pair is an error, surfaced to
//     the caller rather than treated as false.
//   - Action failures are contained per action and never roll back the
//     rule's trigger bookkeeping.
package rules
