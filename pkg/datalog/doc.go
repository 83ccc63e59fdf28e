// Package datalog loads and saves FlashPro and KPro datalog documents.
//
// A document is a header, a time-ordered frame collection, (KPro only) a
// time-ordered comment collection and an opaque footer that is copied
// verbatim between load and save:
//
//	[Header][Frame]×N[Comment]×M[Footer to EOF]
//
// Documents are only constructed from a validated source through
// ReadFlashPro, ReadKPro, Read or one of the file loaders. Frame numbers
// stored on disk are derived data: every save renumbers frames 0..N-1 in
// offset order.
//
// FlashPro documents may also be stored inside an OPDL container; the
// readers detect this and decompress transparently, and Save with
// compressed set writes one.
//
// Documents and their collections are not safe for concurrent mutation.
package datalog
