// Package diag decodes the packed diagnostic bitfields stored in datalog
// frames: active fault codes and OBD-II readiness monitors.
//
// The fault code table is reference data. DefaultTable parses the embedded
// faultcodes.yaml once and shares the result; LoadTable builds an independent
// table from a caller supplied file with the same schema. Tables are never
// mutated after construction and are safe for concurrent readers.
package diag
