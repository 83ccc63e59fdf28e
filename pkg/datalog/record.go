package datalog

import (
	"time"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
)

// Owner is the document-level context a record consults for derived
// values. Records hold it as a lookup, not as ownership; it is cleared when
// a record leaves its collection.
type Owner interface {
	StoichRatio() float64
	FaultTable() *diag.Table
}

// Record is an element of a Collection.
type Record interface {
	Time() time.Duration
	Owner() Owner

	setOwner(Owner)
	encode(size int) ([]byte, error)
}

type numbered interface {
	setNumber(n uint32)
}

// FlashProFrame is a FlashPro sample held by a document.
type FlashProFrame struct {
	codec.FlashProFrame
	owner Owner
}

// NewFlashProFrame wraps a decoded record.
func NewFlashProFrame(f codec.FlashProFrame) *FlashProFrame {
	return &FlashProFrame{FlashProFrame: f}
}

func (f *FlashProFrame) Owner() Owner { return f.owner }
func (f *FlashProFrame) setOwner(o Owner) { f.owner = o }
func (f *FlashProFrame) setNumber(n uint32) { f.FrameNumber = n }
func (f *FlashProFrame) encode(size int) ([]byte, error) { return f.FlashProFrame.Encode(size) }

// AFR returns the air/fuel ratio from the stored lambda and the owning
// document's stoichiometric ratio.
func (f *FlashProFrame) AFR() float64 {
	return afr(f.Channels, f.owner)
}

// Faults returns the fault codes active in this frame.
func (f *FlashProFrame) Faults() diag.FaultSet {
	return tableOf(f.owner).Active(diag.Mask(f.FaultCodes[:]))
}

// KProFrame is a KPro sample held by a document.
type KProFrame struct {
	codec.KProFrame
	owner Owner
}

// NewKProFrame wraps a decoded record.
func NewKProFrame(f codec.KProFrame) *KProFrame {
	return &KProFrame{KProFrame: f}
}

func (f *KProFrame) Owner() Owner { return f.owner }
func (f *KProFrame) setOwner(o Owner) { f.owner = o }
func (f *KProFrame) setNumber(n uint32) { f.FrameNumber = n }
func (f *KProFrame) encode(size int) ([]byte, error) { return f.KProFrame.Encode(size) }

// AFR returns the air/fuel ratio from the stored lambda and the owning
// document's stoichiometric ratio.
func (f *KProFrame) AFR() float64 {
	return afr(f.Channels, f.owner)
}

// Faults returns the fault codes active in this frame.
func (f *KProFrame) Faults() diag.FaultSet {
	return tableOf(f.owner).Active(diag.Mask(f.FaultCodes[:]))
}

// Readiness decodes the readiness monitors reported in this frame.
func (f *KProFrame) Readiness() []diag.Readiness {
	return diag.DecodeReadiness(f.ReadinessSupport, f.ReadinessStatus)
}

// Comment is a KPro comment held by a document.
type Comment struct {
	codec.Comment
	owner Owner
}

// NewComment returns a comment at offset seconds.
func NewComment(offset float32, text string) *Comment {
	return &Comment{Comment: codec.Comment{Offset: offset, Text: text}}
}

func (c *Comment) Owner() Owner { return c.owner }
func (c *Comment) setOwner(o Owner) { c.owner = o }

// Comments are variable length; the declared record size does not apply.
func (c *Comment) encode(int) ([]byte, error) { return c.Comment.Encode() }

func afr(ch codec.Channels, owner Owner) float64 {
	stoich := DefaultStoich
	if owner != nil {
		stoich = owner.StoichRatio()
	}
	return ch.LambdaRatio() * stoich
}

func tableOf(owner Owner) *diag.Table {
	if owner != nil {
		if t := owner.FaultTable(); t != nil {
			return t
		}
	}
	return diag.DefaultTable()
}
