// Package clubshareservice implements the club share lifecycle for the
// cooperative finance monolith.
//
// The module owns club member, allocation, holding account, and release log
// tables and exposes HTTP command/query handlers plus an outbox relay worker.
// Allocations move from batch import through member consent into escrow
// holding accounts, and shares leave escrow either through proportional bulk
// releases or a manual full release that lands them in the trading ledger.
package clubshareservice
