// Package testschema is a small, hand-authored fixture schema covering
// enough of IEEE 2030.5 (EndDevice, FunctionSetAssignments, DERProgram,
// DERControl, DefaultDERControl, DERControlBase, Subscription) to
// exercise the schema engine, object pool, parser drivers, and DER
// scheduler in tests without generating the full ~1000-element schema,
// which is data a code generator produces from the standard, not logic
// this repository implements.
package testschema

import "github.com/psu-powerlab/se2030/pkg/schema"

// Element indices (redirect entries, 0..5).
const (
	ElDERControl = iota
	ElDERProgram
	ElDefaultDERControl
	ElEndDevice
	ElFunctionSetAssignments
	ElSubscription
	numElements
)

// Type header and field indices.
const (
	TEndDevice = numElements + iota
	FSFDI
	FLFDI
	FFunctionSetAssignments
	term1

	TFunctionSetAssignments
	FDERProgram
	term2

	TDERProgram
	FPrimacy
	FDERControl
	FDefaultDERControl
	term3

	TDERControl
	FMRID
	FDERControlBase1
	term4

	TDefaultDERControl
	FDERControlBase2
	term5

	TDERControlBase
	FOpModConnect
	FOpModEnergize
	FOpModFixedW
	FOpModMaxLimW
	FRampTms
	term6

	TSubscription
	FSubscribedResource
	FNotificationURI
	FLimit
	term7
)

// Bit positions within a DERControlBase's presence/value bitset.
const (
	BitOpModConnect = iota
	BitOpModEnergize
	BitOpModFixedW
	BitOpModMaxLimW
	BitRampTms
)

// New builds the fixture Schema.
func New() *schema.Schema {
	s := &schema.Schema{
		Namespace: "urn:ieee:std:2030.5:ns",
		SchemaID:  "S1",
		Elements: []string{
			"DERControl",           // ElDERControl
			"DERProgram",           // ElDERProgram
			"DefaultDERControl",    // ElDefaultDERControl
			"EndDevice",            // ElEndDevice
			"FunctionSetAssignments", // ElFunctionSetAssignments
			"Subscription",         // ElSubscription
		},
	}
	s.Names = append([]string(nil), s.Elements...)
	s.Types = []int{ElDERControl, ElDERProgram, ElDefaultDERControl, ElEndDevice, ElFunctionSetAssignments, ElSubscription}

	entries := make([]schema.Entry, term7+1)

	entries[ElDERControl] = schema.Entry{Kind: schema.KindType, Base: TDERControl}
	entries[ElDERProgram] = schema.Entry{Kind: schema.KindType, Base: TDERProgram}
	entries[ElDefaultDERControl] = schema.Entry{Kind: schema.KindType, Base: TDefaultDERControl}
	entries[ElEndDevice] = schema.Entry{Kind: schema.KindType, Base: TEndDevice}
	entries[ElFunctionSetAssignments] = schema.Entry{Kind: schema.KindType, Base: TFunctionSetAssignments}
	entries[ElSubscription] = schema.Entry{Kind: schema.KindType, Base: TSubscription}

	entries[TEndDevice] = schema.Entry{Kind: schema.KindType, Size: 64}
	entries[FSFDI] = schema.Entry{Kind: schema.KindField, Name: "sFDI", Min: 1, Max: 1, Simple: true, XSKind: schema.XSULong}
	entries[FLFDI] = schema.Entry{Kind: schema.KindField, Name: "lFDI", Min: 0, Max: 1, Simple: true, XSKind: schema.XSHexBinary, Length: 20}
	entries[FFunctionSetAssignments] = schema.Entry{Kind: schema.KindField, Name: "FunctionSetAssignments", Min: 0, Max: 255, Unbounded: true, ChildType: TFunctionSetAssignments}
	entries[term1] = schema.Entry{Kind: schema.KindField}

	entries[TFunctionSetAssignments] = schema.Entry{Kind: schema.KindType, Size: 16}
	entries[FDERProgram] = schema.Entry{Kind: schema.KindField, Name: "DERProgram", Min: 0, Max: 255, Unbounded: true, ChildType: TDERProgram}
	entries[term2] = schema.Entry{Kind: schema.KindField}

	entries[TDERProgram] = schema.Entry{Kind: schema.KindType, Size: 32}
	entries[FPrimacy] = schema.Entry{Kind: schema.KindField, Name: "primacy", Min: 1, Max: 1, Simple: true, XSKind: schema.XSUByte}
	entries[FDERControl] = schema.Entry{Kind: schema.KindField, Name: "DERControl", Min: 0, Max: 255, Unbounded: true, ChildType: TDERControl}
	entries[FDefaultDERControl] = schema.Entry{Kind: schema.KindField, Name: "DefaultDERControl", Min: 0, Max: 1, ChildType: TDefaultDERControl}
	entries[term3] = schema.Entry{Kind: schema.KindField}

	entries[TDERControl] = schema.Entry{Kind: schema.KindType, Size: 48}
	entries[FMRID] = schema.Entry{Kind: schema.KindField, Name: "mRID", Min: 1, Max: 1, Simple: true, XSKind: schema.XSString, Length: 32}
	entries[FDERControlBase1] = schema.Entry{Kind: schema.KindField, Name: "DERControlBase", Min: 1, Max: 1, ChildType: TDERControlBase}
	entries[term4] = schema.Entry{Kind: schema.KindField}

	entries[TDefaultDERControl] = schema.Entry{Kind: schema.KindType, Size: 24}
	entries[FDERControlBase2] = schema.Entry{Kind: schema.KindField, Name: "DERControlBase", Min: 1, Max: 1, ChildType: TDERControlBase}
	entries[term5] = schema.Entry{Kind: schema.KindField}

	entries[TDERControlBase] = schema.Entry{Kind: schema.KindType, Size: 16}
	entries[FOpModConnect] = schema.Entry{Kind: schema.KindField, Name: "opModConnect", Min: 0, Max: 1, Simple: true, XSKind: schema.XSBoolean, Bit: BitOpModConnect}
	entries[FOpModEnergize] = schema.Entry{Kind: schema.KindField, Name: "opModEnergize", Min: 0, Max: 1, Simple: true, XSKind: schema.XSBoolean, Bit: BitOpModEnergize}
	entries[FOpModFixedW] = schema.Entry{Kind: schema.KindField, Name: "opModFixedW", Min: 0, Max: 1, Simple: true, XSKind: schema.XSInt, Bit: BitOpModFixedW}
	entries[FOpModMaxLimW] = schema.Entry{Kind: schema.KindField, Name: "opModMaxLimW", Min: 0, Max: 1, Simple: true, XSKind: schema.XSInt, Bit: BitOpModMaxLimW}
	entries[FRampTms] = schema.Entry{Kind: schema.KindField, Name: "rampTms", Min: 0, Max: 1, Simple: true, XSKind: schema.XSUShort, Bit: BitRampTms}
	entries[term6] = schema.Entry{Kind: schema.KindField}

	entries[TSubscription] = schema.Entry{Kind: schema.KindType, Size: 40}
	entries[FSubscribedResource] = schema.Entry{Kind: schema.KindField, Name: "subscribedResource", Min: 1, Max: 1, Simple: true, XSKind: schema.XSString}
	entries[FNotificationURI] = schema.Entry{Kind: schema.KindField, Name: "notificationURI", Min: 1, Max: 1, Simple: true, XSKind: schema.XSAnyURI}
	entries[FLimit] = schema.Entry{Kind: schema.KindField, Name: "limit", Min: 0, Max: 1, Simple: true, XSKind: schema.XSUInt}
	entries[term7] = schema.Entry{Kind: schema.KindField}

	s.Entries = entries
	return s
}
