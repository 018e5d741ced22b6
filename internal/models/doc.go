// Package models defines the core domain entities for Splitpot.
//
// # Entities
//
//   - User: registered account, referenced by every money-bearing record
//   - Group: reusable participant list that can own expenses
//   - Currency: ISO-like currency record, immutable once created
//   - ConversionRate: directional, timestamped rate between two currencies
//   - Expense: one cost paid by one user, split among participants
//   - Participation: one participant's share of one expense
//   - Transaction: one payment event, usable to settle multiple shares
//
// # Design principles
//
//  1. All money fields are decimal.Decimal, persisted as decimal strings
//     with 2-decimal precision; raw floats never reach storage.
//  2. Relationships use ID strings instead of pointers to avoid circular
//     references.
//  3. Partial updates go through explicit patch types (ExpensePatch) so
//     services only ever see fully-formed entities.
package models
