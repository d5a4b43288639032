package ir

// Namespaces for the conceptual (PIM) and structural (PSM) vocabularies.
const (
	PimNamespace = "https://ofn.gov.cz/slovník/pim/"
	PsmNamespace = "https://ofn.gov.cz/slovník/psm/"
)

// PIM resource type tags.
const (
	TypePimSchema         = PimNamespace + "Schema"
	TypePimClass          = PimNamespace + "Class"
	TypePimCodelist       = PimNamespace + "Codelist"
	TypePimAttribute      = PimNamespace + "Attribute"
	TypePimAssociation    = PimNamespace + "Association"
	TypePimAssociationEnd = PimNamespace + "AssociationEnd"
)

// PSM resource type tags.
const (
	TypePsmSchema         = PsmNamespace + "Schema"
	TypePsmClass          = PsmNamespace + "Class"
	TypePsmAttribute      = PsmNamespace + "Attribute"
	TypePsmAssociationEnd = PsmNamespace + "AssociationEnd"
	TypePsmOr             = PsmNamespace + "Or"
	TypePsmInclude        = PsmNamespace + "Include"
)

// PIM resource fields.
const (
	FieldPimParts            = "pimParts"
	FieldPimHumanLabel       = "pimHumanLabel"
	FieldPimHumanDescription = "pimHumanDescription"
	FieldPimTechnicalLabel   = "pimTechnicalLabel"
	FieldPimInterpretation   = "pimInterpretation"
	FieldPimExtends          = "pimExtends"
	FieldPimCodelistURL      = "pimCodelistUrl"
	FieldPimOwnerClass       = "pimOwnerClass"
	FieldPimDatatype         = "pimDatatype"
	FieldPimCardinalityMin   = "pimCardinalityMin"
	FieldPimCardinalityMax   = "pimCardinalityMax"
	FieldPimEnd              = "pimEnd"
	FieldPimPart             = "pimPart"
	FieldPimIsOriented       = "pimIsOriented"
)

// PSM resource fields.
const (
	FieldPsmParts            = "dataPsmParts"
	FieldPsmRoots            = "dataPsmRoots"
	FieldPsmHumanLabel       = "dataPsmHumanLabel"
	FieldPsmHumanDescription = "dataPsmHumanDescription"
	FieldPsmTechnicalLabel   = "dataPsmTechnicalLabel"
	FieldPsmInterpretation   = "dataPsmInterpretation"
	FieldPsmExtends          = "dataPsmExtends"
	FieldPsmDatatype         = "dataPsmDatatype"
	FieldPsmPart             = "dataPsmPart"
	FieldPsmChoices          = "dataPsmChoices"
	FieldPsmIncludes         = "dataPsmIncludes"
)

// Identifier kinds passed to identifier generators. They become the middle
// segment of generated IRIs (baseIri/kind/counter).
const (
	KindSegmentSchema         = "schema"
	KindSegmentClass          = "class"
	KindSegmentAttribute      = "attribute"
	KindSegmentAssociation    = "association"
	KindSegmentAssociationEnd = "association-end"
	KindSegmentOr             = "or"
	KindSegmentInclude        = "include"
	KindSegmentOperation      = "operation"
)

// SchemaTypes lists the type tags that mark a schema resource.
var SchemaTypes = []string{TypePimSchema, TypePsmSchema}

// ManifestField returns the membership list field of a schema resource.
func ManifestField(schema *Resource) string {
	if schema.HasType(TypePsmSchema) {
		return FieldPsmParts
	}
	return FieldPimParts
}
