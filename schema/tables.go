// Package schema declares the ECMA-335 table layouts and coded-index unions,
// and computes per-image column widths from table cardinalities and heap
// sizes.
package schema

// TableIndex identifies one of the ECMA-335 metadata tables by its table
// number (the high byte of a token).
type TableIndex byte

// The ECMA-335 §II.22 table indices actually populated by this
// implementation. Gaps in the numbering (e.g. 0x03, 0x05, 0x07) are
// reserved and never assigned rows.
const (
	Module                TableIndex = 0x00
	TypeRef               TableIndex = 0x01
	TypeDef               TableIndex = 0x02
	Field                 TableIndex = 0x04
	MethodDef             TableIndex = 0x06
	Param                 TableIndex = 0x08
	InterfaceImpl         TableIndex = 0x09
	MemberRef             TableIndex = 0x0A
	Constant              TableIndex = 0x0B
	CustomAttribute       TableIndex = 0x0C
	FieldMarshal          TableIndex = 0x0D
	DeclSecurity          TableIndex = 0x0E
	ClassLayout           TableIndex = 0x0F
	FieldLayout           TableIndex = 0x10
	StandAloneSig         TableIndex = 0x11
	EventMap              TableIndex = 0x12
	Event                 TableIndex = 0x14
	PropertyMap           TableIndex = 0x15
	Property              TableIndex = 0x17
	MethodSemantics       TableIndex = 0x18
	MethodImpl            TableIndex = 0x19
	ModuleRef             TableIndex = 0x1A
	TypeSpec              TableIndex = 0x1B
	ImplMap               TableIndex = 0x1C
	FieldRVA              TableIndex = 0x1D
	Assembly              TableIndex = 0x20
	AssemblyProcessor     TableIndex = 0x21
	AssemblyOS            TableIndex = 0x22
	AssemblyRef           TableIndex = 0x23
	AssemblyRefProcessor  TableIndex = 0x24
	AssemblyRefOS         TableIndex = 0x25
	File                  TableIndex = 0x26
	ExportedType          TableIndex = 0x27
	ManifestResource      TableIndex = 0x28
	NestedClass           TableIndex = 0x29
	GenericParam          TableIndex = 0x2A
	MethodSpec            TableIndex = 0x2B
	GenericParamConstraint TableIndex = 0x2C
)

// ColumnKind discriminates how a column's on-disk width is determined.
type ColumnKind int

const (
	// FixedWidth columns are always the declared byte width (1, 2, or 4).
	FixedWidth ColumnKind = iota
	// HeapIndex columns index into one of the four heaps.
	HeapIndex
	// TableIndexColumn columns index a row in a single named table.
	TableIndexColumn
	// CodedIndexColumn columns index a coded-index union across several tables.
	CodedIndexColumn
)

// HeapKind names one of the four metadata heaps.
type HeapKind int

const (
	HeapStrings HeapKind = iota
	HeapUserStrings
	HeapBlob
	HeapGUID
)

// Column declares one field of a table row.
type Column struct {
	Name       string
	Kind       ColumnKind
	FixedBytes int        // meaningful when Kind == FixedWidth
	Heap       HeapKind   // meaningful when Kind == HeapIndex
	Table      TableIndex // meaningful when Kind == TableIndexColumn
	CodedIndex CodedIndexKind
}

// TableSchema is the ordered column list for one table.
type TableSchema struct {
	Index   TableIndex
	Name    string
	Columns []Column
}

// sortedTables maps each table ECMA-335 requires held in sorted order to the
// name of its primary key column, matching the "sort
// predicates the builder invokes before layout" of §4.D.
var sortedTables = map[TableIndex]string{
	InterfaceImpl:   "Class",
	Constant:        "Parent",
	CustomAttribute: "Parent",
	FieldMarshal:    "Parent",
	DeclSecurity:    "Parent",
	ClassLayout:     "Parent",
	FieldLayout:     "Field",
	MethodSemantics: "Association",
	MethodImpl:      "Class",
	ImplMap:         "MemberForwarded",
	FieldRVA:        "Field",
	NestedClass:     "NestedClass",
	GenericParam:    "Owner",
	GenericParamConstraint: "Owner",
}

// IsSorted reports whether idx must be held in sorted order, and by which
// column, per ECMA-335 §II.22.
func IsSorted(idx TableIndex) (column string, sorted bool) {
	column, sorted = sortedTables[idx]
	return
}

// Tables returns the static schema for every table this implementation
// populates, declared as a package-level literal.
func Tables() map[TableIndex]TableSchema {
	col := func(name string, bytes int) Column { return Column{Name: name, Kind: FixedWidth, FixedBytes: bytes} }
	str := func(name string) Column { return Column{Name: name, Kind: HeapIndex, Heap: HeapStrings} }
	blob := func(name string) Column { return Column{Name: name, Kind: HeapIndex, Heap: HeapBlob} }
	guid := func(name string) Column { return Column{Name: name, Kind: HeapIndex, Heap: HeapGUID} }
	tbl := func(name string, t TableIndex) Column { return Column{Name: name, Kind: TableIndexColumn, Table: t} }
	coded := func(name string, k CodedIndexKind) Column { return Column{Name: name, Kind: CodedIndexColumn, CodedIndex: k} }

	tables := map[TableIndex]TableSchema{
		Module: {Module, "Module", []Column{
			col("Generation", 2), str("Name"), guid("Mvid"), guid("EncId"), guid("EncBaseId"),
		}},
		TypeRef: {TypeRef, "TypeRef", []Column{
			coded("ResolutionScope", ResolutionScope), str("TypeName"), str("TypeNamespace"),
		}},
		TypeDef: {TypeDef, "TypeDef", []Column{
			col("Flags", 4), str("TypeName"), str("TypeNamespace"),
			coded("Extends", TypeDefOrRef), tbl("FieldList", Field), tbl("MethodList", MethodDef),
		}},
		Field: {Field, "Field", []Column{
			col("Flags", 2), str("Name"), blob("Signature"),
		}},
		MethodDef: {MethodDef, "MethodDef", []Column{
			col("RVA", 4), col("ImplFlags", 2), col("Flags", 2), str("Name"), blob("Signature"), tbl("ParamList", Param),
		}},
		Param: {Param, "Param", []Column{
			col("Flags", 2), col("Sequence", 2), str("Name"),
		}},
		InterfaceImpl: {InterfaceImpl, "InterfaceImpl", []Column{
			tbl("Class", TypeDef), coded("Interface", TypeDefOrRef),
		}},
		MemberRef: {MemberRef, "MemberRef", []Column{
			coded("Class", MemberRefParent), str("Name"), blob("Signature"),
		}},
		Constant: {Constant, "Constant", []Column{
			col("Type", 1), col("PaddingZero", 1), coded("Parent", HasConstant), blob("Value"),
		}},
		CustomAttribute: {CustomAttribute, "CustomAttribute", []Column{
			coded("Parent", HasCustomAttribute), coded("Type", CustomAttributeType), blob("Value"),
		}},
		FieldMarshal: {FieldMarshal, "FieldMarshal", []Column{
			coded("Parent", HasFieldMarshal), blob("NativeType"),
		}},
		DeclSecurity: {DeclSecurity, "DeclSecurity", []Column{
			col("Action", 2), coded("Parent", HasDeclSecurity), blob("PermissionSet"),
		}},
		ClassLayout: {ClassLayout, "ClassLayout", []Column{
			col("PackingSize", 2), col("ClassSize", 4), tbl("Parent", TypeDef),
		}},
		FieldLayout: {FieldLayout, "FieldLayout", []Column{
			col("Offset", 4), tbl("Field", Field),
		}},
		StandAloneSig: {StandAloneSig, "StandAloneSig", []Column{
			blob("Signature"),
		}},
		EventMap: {EventMap, "EventMap", []Column{
			tbl("Parent", TypeDef), tbl("EventList", Event),
		}},
		Event: {Event, "Event", []Column{
			col("EventFlags", 2), str("Name"), coded("EventType", TypeDefOrRef),
		}},
		PropertyMap: {PropertyMap, "PropertyMap", []Column{
			tbl("Parent", TypeDef), tbl("PropertyList", Property),
		}},
		Property: {Property, "Property", []Column{
			col("Flags", 2), str("Name"), blob("Type"),
		}},
		MethodSemantics: {MethodSemantics, "MethodSemantics", []Column{
			col("Semantics", 2), tbl("Method", MethodDef), coded("Association", HasSemantics),
		}},
		MethodImpl: {MethodImpl, "MethodImpl", []Column{
			tbl("Class", TypeDef), coded("MethodBody", MethodDefOrRef), coded("MethodDeclaration", MethodDefOrRef),
		}},
		ModuleRef: {ModuleRef, "ModuleRef", []Column{
			str("Name"),
		}},
		TypeSpec: {TypeSpec, "TypeSpec", []Column{
			blob("Signature"),
		}},
		ImplMap: {ImplMap, "ImplMap", []Column{
			col("MappingFlags", 2), coded("MemberForwarded", MemberForwarded), str("ImportName"), tbl("ImportScope", ModuleRef),
		}},
		FieldRVA: {FieldRVA, "FieldRVA", []Column{
			col("RVA", 4), tbl("Field", Field),
		}},
		Assembly: {Assembly, "Assembly", []Column{
			col("HashAlgId", 4), col("MajorVersion", 2), col("MinorVersion", 2), col("BuildNumber", 2), col("RevisionNumber", 2),
			col("Flags", 4), blob("PublicKey"), str("Name"), str("Culture"),
		}},
		AssemblyProcessor: {AssemblyProcessor, "AssemblyProcessor", []Column{col("Processor", 4)}},
		AssemblyOS:        {AssemblyOS, "AssemblyOS", []Column{col("OSPlatformID", 4), col("OSMajorVersion", 4), col("OSMinorVersion", 4)}},
		AssemblyRef: {AssemblyRef, "AssemblyRef", []Column{
			col("MajorVersion", 2), col("MinorVersion", 2), col("BuildNumber", 2), col("RevisionNumber", 2),
			col("Flags", 4), blob("PublicKeyOrToken"), str("Name"), str("Culture"), blob("HashValue"),
		}},
		AssemblyRefProcessor: {AssemblyRefProcessor, "AssemblyRefProcessor", []Column{col("Processor", 4), tbl("AssemblyRef", AssemblyRef)}},
		AssemblyRefOS:        {AssemblyRefOS, "AssemblyRefOS", []Column{col("OSPlatformID", 4), col("OSMajorVersion", 4), col("OSMinorVersion", 4), tbl("AssemblyRef", AssemblyRef)}},
		File: {File, "File", []Column{
			col("Flags", 4), str("Name"), blob("HashValue"),
		}},
		ExportedType: {ExportedType, "ExportedType", []Column{
			col("Flags", 4), col("TypeDefId", 4), str("TypeName"), str("TypeNamespace"), coded("Implementation", Implementation),
		}},
		ManifestResource: {ManifestResource, "ManifestResource", []Column{
			col("Offset", 4), col("Flags", 4), str("Name"), coded("Implementation", Implementation),
		}},
		NestedClass: {NestedClass, "NestedClass", []Column{
			tbl("NestedClass", TypeDef), tbl("EnclosingClass", TypeDef),
		}},
		GenericParam: {GenericParam, "GenericParam", []Column{
			col("Number", 2), col("Flags", 2), coded("Owner", TypeOrMethodDef), str("Name"),
		}},
		MethodSpec: {MethodSpec, "MethodSpec", []Column{
			coded("Method", MethodDefOrRef), blob("Instantiation"),
		}},
		GenericParamConstraint: {GenericParamConstraint, "GenericParamConstraint", []Column{
			tbl("Owner", GenericParam), coded("Constraint", TypeDefOrRef),
		}},
	}
	return tables
}
