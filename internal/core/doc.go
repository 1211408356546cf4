// Package core provides the cleaning pipeline and the service around it.
//
// The package holds all domain logic independent of any UI or transport
// layer. The web handlers and the tidycsv command both drive it through
// [Service].
//
// # Pipeline
//
// [Clean] transforms a [table.Table] in place, in this order:
//
//  1. Remove exact duplicate rows, keeping the first occurrence. Missing
//     cells equal each other and numeric cells compare by value.
//  2. Fill missing numeric cells with the mean, median or mode of the
//     column's present values, or leave them missing.
//  3. Fill missing categorical cells with the column mode or the
//     placeholder "Not Available".
//  4. Trim and lowercase every categorical cell, placeholders included.
//
// Statistics are computed once per column before that column is filled.
// Unrecognized strategy names fall back to the defaults and are reported in
// [Summary.Warnings], never as errors.
//
// # Service
//
// [Service.Clean] stores the upload, parses it by extension, runs the
// pipeline and writes cleaned_<name> atomically next to earlier outputs.
// Runs share no state beyond the file store, so concurrent requests are not
// coordinated: same-name uploads overwrite each other, last writer wins.
// Results stay available through [Service.Run] for the configured
// retention window.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE008: File errors (size, parsing, type, name, not found)
//   - UPL003-UPL005: Run errors (expired, cancelled, timeout)
//   - RATE001: Rate limiting
package core
