// Package core provides the transform logic of the regional sales ETL.
//
// This package is independent of file formats and databases. It receives
// already-read sheets and returns a table ready for persistence, so it can be
// driven by the CLI, by tests, or by any other caller without modification.
//
// # Loader
//
// [Flatten] validates a [Sheet]'s header, decodes each row's PromotionDiscount
// JSON into a [Discount] and tags the row with its [Region]:
//
//	flat, err := core.Flatten(sheet, core.RegionA)
//
// The discount schema is fixed: CurrencyCode and Amount, spelled exactly and
// each at most once. Any other key, a missing Amount or a non-numeric Amount
// fails the whole sheet.
//
// # Transformer
//
// [Transform] concatenates region A then region B, computes
//
//	total_sales = QuantityOrdered * ItemPrice
//	net_sale    = total_sales - Amount
//
// keeps the first record per OrderId and drops records with net_sale <= 0.
//
// # Error Handling
//
// Every failure is fatal and returned as a [StageError] carrying the stage,
// a support code and, when known, the source file and line. See errors.go
// for the code reference.
package core
