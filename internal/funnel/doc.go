// Package funnel computes prospecting funnel metrics from raw spreadsheet rows.
//
// The package is split into three small parts:
//
//  1. Normalizer: maps raw cell values ("Si", "SI ", "yes", "VC", "", "nan")
//     onto canonical labels, and parses dates written in several layouts.
//  2. Aggregator: counts how many records satisfy each stage predicate, for
//     the whole collection or per group (prospector, campaign, country...).
//  3. Rate calculator: turns stage counts into zero-safe conversion
//     percentages, both versus the previous stage and versus the first one.
//
// # Data Flow
//
//	raw rows → Normalizer → Aggregator → Rates → presentation
//
// Everything here is a pure function over its inputs. Nothing is cached and
// no package-level state is mutated, so a single Stage list can be shared by
// concurrent requests. Callers must not mutate a record slice while it is
// being aggregated.
//
// # Error Handling
//
// Bad business data never produces an error: unknown booleans become "No",
// unparseable dates become absent and a zero denominator yields 0.0.
// Programming errors such as a Stage without a predicate panic immediately.
package funnel
