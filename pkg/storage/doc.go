// Package storage persists ingested datalogs in a pebble database.
//
// Each datalog is stored under a KSUID, so listing the archive returns
// datalogs in ingestion order. Two keys are written per datalog in one
// batch: the canonical document bytes (FlashPro as an OPDL container, KPro
// plain) and a JSON Summary used for listings without decoding the
// document.
//
// An Archive is safe for concurrent use.
package storage
