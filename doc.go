// Package accounts provides a user account subsystem (registration, login
// with lockout, email verification, password resets) backed by Bun
// repositories, plus lifecycle extension points for downstream admin
// workflows.
//
// Account lifecycle:
//   - Users carry an AccountStanding field that is persisted via Bun. The
//     standing is either active or locked, and accounts move between the two
//     through a central transition graph.
//   - StandingMachine centralizes the transition handling, timestamp updates,
//     hooks, and persistence. The Users repository exposes Lock and Unlock,
//     which invoke Transition with ActorRef metadata so every standing change
//     is attributed and auditable.
//
// Login lockout:
//   - UserProvider counts failed password checks per account. Once the count
//     reaches LockoutThreshold the account is moved to the locked standing and
//     stays there until an explicit unlock. Failures older than CooldownPeriod
//     are forgiven before counting.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the command
//     handlers, and the standing machine to describe lifecycle, login, and
//     password reset events. Sinks run best-effort (errors are logged) so you
//     can forward to a database or queue without blocking authentication.
package accounts
