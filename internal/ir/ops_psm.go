package ir

const psmOpPrefix = PsmNamespace + "op-"

func init() {
	registerKind(KindPsmCreateSchema, psmOpPrefix+"create-schema", "psm-create-schema", func() Operation { return &PsmCreateSchema{} })
	registerKind(KindPsmCreateClass, psmOpPrefix+"create-class", "psm-create-class", func() Operation { return &PsmCreateClass{} })
	registerKind(KindPsmCreateAttribute, psmOpPrefix+"create-attribute", "psm-create-attribute", func() Operation { return &PsmCreateAttribute{} })
	registerKind(KindPsmCreateAssociationEnd, psmOpPrefix+"create-association-end", "psm-create-association-end", func() Operation { return &PsmCreateAssociationEnd{} })
	registerKind(KindPsmCreateInclude, psmOpPrefix+"create-include", "psm-create-include", func() Operation { return &PsmCreateInclude{} })
	registerKind(KindPsmCreateOr, psmOpPrefix+"create-or", "psm-create-or", func() Operation { return &PsmCreateOr{} })
	registerKind(KindPsmDeleteClass, psmOpPrefix+"delete-class", "psm-delete-class", func() Operation { return &PsmDeleteClass{} })
	registerKind(KindPsmDeleteAttribute, psmOpPrefix+"delete-attribute", "psm-delete-attribute", func() Operation { return &PsmDeleteAttribute{} })
	registerKind(KindPsmDeleteAssociationEnd, psmOpPrefix+"delete-association-end", "psm-delete-association-end", func() Operation { return &PsmDeleteAssociationEnd{} })
	registerKind(KindPsmDeleteInclude, psmOpPrefix+"delete-include", "psm-delete-include", func() Operation { return &PsmDeleteInclude{} })
	registerKind(KindPsmDeleteOr, psmOpPrefix+"delete-or", "psm-delete-or", func() Operation { return &PsmDeleteOr{} })
	registerKind(KindPsmSetRoots, psmOpPrefix+"set-roots", "psm-set-roots", func() Operation { return &PsmSetRoots{} })
	registerKind(KindPsmSetOrder, psmOpPrefix+"set-order", "psm-set-order", func() Operation { return &PsmSetOrder{} })
	registerKind(KindPsmSetChoice, psmOpPrefix+"set-choice", "psm-set-choice", func() Operation { return &PsmSetChoice{} })
	registerKind(KindPsmUnsetChoice, psmOpPrefix+"unset-choice", "psm-unset-choice", func() Operation { return &PsmUnsetChoice{} })
	registerKind(KindPsmUnwrapOr, psmOpPrefix+"unwrap-or", "psm-unwrap-or", func() Operation { return &PsmUnwrapOr{} })
	registerKind(KindPsmSetHumanLabel, psmOpPrefix+"set-human-label", "psm-set-human-label", func() Operation { return &PsmSetHumanLabel{} })
	registerKind(KindPsmSetTechnicalLabel, psmOpPrefix+"set-technical-label", "psm-set-technical-label", func() Operation { return &PsmSetTechnicalLabel{} })
}

// PsmCreateSchema creates the root resource of a structural model.
type PsmCreateSchema struct {
	OperationHeader
	DataPsmBaseIRI          string         `json:"dataPsmBaseIri"`
	DataPsmNewIRI           string         `json:"dataPsmNewIri,omitempty"`
	DataPsmHumanLabel       LanguageString `json:"dataPsmHumanLabel,omitempty"`
	DataPsmHumanDescription LanguageString `json:"dataPsmHumanDescription,omitempty"`
	DataPsmTechnicalLabel   string         `json:"dataPsmTechnicalLabel,omitempty"`
}

func (*PsmCreateSchema) Kind() OperationKind { return KindPsmCreateSchema }

// BaseIRI returns the namespace new identifiers are minted under.
func (o *PsmCreateSchema) BaseIRI() string { return o.DataPsmBaseIRI }

// PsmCreateClass creates a structural class.
type PsmCreateClass struct {
	OperationHeader
	DataPsmInterpretation string         `json:"dataPsmInterpretation,omitempty"`
	DataPsmTechnicalLabel string         `json:"dataPsmTechnicalLabel,omitempty"`
	DataPsmHumanLabel     LanguageString `json:"dataPsmHumanLabel,omitempty"`
	DataPsmExtends        []string       `json:"dataPsmExtends,omitempty"`
	DataPsmNewIRI         string         `json:"dataPsmNewIri,omitempty"`
}

func (*PsmCreateClass) Kind() OperationKind { return KindPsmCreateClass }

// PsmCreateAttribute creates an attribute and appends it to its owner's parts.
type PsmCreateAttribute struct {
	OperationHeader
	DataPsmOwner          string         `json:"dataPsmOwner"`
	DataPsmInterpretation string         `json:"dataPsmInterpretation,omitempty"`
	DataPsmTechnicalLabel string         `json:"dataPsmTechnicalLabel,omitempty"`
	DataPsmHumanLabel     LanguageString `json:"dataPsmHumanLabel,omitempty"`
	DataPsmDatatype       string         `json:"dataPsmDatatype,omitempty"`
	DataPsmNewIRI         string         `json:"dataPsmNewIri,omitempty"`
}

func (*PsmCreateAttribute) Kind() OperationKind { return KindPsmCreateAttribute }

// PsmCreateAssociationEnd creates an association end pointing at a class or Or.
type PsmCreateAssociationEnd struct {
	OperationHeader
	DataPsmOwner          string         `json:"dataPsmOwner"`
	DataPsmPart           string         `json:"dataPsmPart"`
	DataPsmInterpretation string         `json:"dataPsmInterpretation,omitempty"`
	DataPsmTechnicalLabel string         `json:"dataPsmTechnicalLabel,omitempty"`
	DataPsmHumanLabel     LanguageString `json:"dataPsmHumanLabel,omitempty"`
	DataPsmNewIRI         string         `json:"dataPsmNewIri,omitempty"`
}

func (*PsmCreateAssociationEnd) Kind() OperationKind { return KindPsmCreateAssociationEnd }

// PsmCreateInclude makes the owner class include the parts of another class.
type PsmCreateInclude struct {
	OperationHeader
	DataPsmOwner    string `json:"dataPsmOwner"`
	DataPsmIncludes string `json:"dataPsmIncludes"`
	DataPsmNewIRI   string `json:"dataPsmNewIri,omitempty"`
}

func (*PsmCreateInclude) Kind() OperationKind { return KindPsmCreateInclude }

// PsmCreateOr creates a choice between classes.
type PsmCreateOr struct {
	OperationHeader
	DataPsmChoices []string `json:"dataPsmChoices"`
	DataPsmNewIRI  string   `json:"dataPsmNewIri,omitempty"`
}

func (*PsmCreateOr) Kind() OperationKind { return KindPsmCreateOr }

// PsmDeleteClass deletes an empty, unreferenced class.
type PsmDeleteClass struct {
	OperationHeader
	DataPsmClass string `json:"dataPsmClass"`
}

func (*PsmDeleteClass) Kind() OperationKind { return KindPsmDeleteClass }

// PsmDeleteAttribute removes an attribute from its owner and deletes it.
type PsmDeleteAttribute struct {
	OperationHeader
	DataPsmOwner     string `json:"dataPsmOwner"`
	DataPsmAttribute string `json:"dataPsmAttribute"`
}

func (*PsmDeleteAttribute) Kind() OperationKind { return KindPsmDeleteAttribute }

// PsmDeleteAssociationEnd removes an association end from its owner and deletes it.
type PsmDeleteAssociationEnd struct {
	OperationHeader
	DataPsmOwner          string `json:"dataPsmOwner"`
	DataPsmAssociationEnd string `json:"dataPsmAssociationEnd"`
}

func (*PsmDeleteAssociationEnd) Kind() OperationKind { return KindPsmDeleteAssociationEnd }

// PsmDeleteInclude removes an include from its owner and deletes it.
type PsmDeleteInclude struct {
	OperationHeader
	DataPsmOwner   string `json:"dataPsmOwner"`
	DataPsmInclude string `json:"dataPsmInclude"`
}

func (*PsmDeleteInclude) Kind() OperationKind { return KindPsmDeleteInclude }

// PsmDeleteOr deletes an unreferenced Or.
type PsmDeleteOr struct {
	OperationHeader
	DataPsmOr string `json:"dataPsmOr"`
}

func (*PsmDeleteOr) Kind() OperationKind { return KindPsmDeleteOr }

// PsmSetRoots replaces the root list of the schema.
type PsmSetRoots struct {
	OperationHeader
	DataPsmRoots []string `json:"dataPsmRoots"`
}

func (*PsmSetRoots) Kind() OperationKind { return KindPsmSetRoots }

// PsmSetOrder moves one part of a class right after another part, or to the
// front when DataPsmNewPositionAfter is nil.
type PsmSetOrder struct {
	OperationHeader
	DataPsmOwnerClass       string  `json:"dataPsmOwnerClass"`
	DataPsmResourceToMove   string  `json:"dataPsmResourceToMove"`
	DataPsmNewPositionAfter *string `json:"dataPsmNewPositionAfter"`
}

func (*PsmSetOrder) Kind() OperationKind { return KindPsmSetOrder }

// PsmSetChoice adds a class to the choices of an Or.
type PsmSetChoice struct {
	OperationHeader
	DataPsmOr     string `json:"dataPsmOr"`
	DataPsmChoice string `json:"dataPsmChoice"`
}

func (*PsmSetChoice) Kind() OperationKind { return KindPsmSetChoice }

// PsmUnsetChoice removes a class from the choices of an Or. The class itself
// is kept.
type PsmUnsetChoice struct {
	OperationHeader
	DataPsmOr     string `json:"dataPsmOr"`
	DataPsmChoice string `json:"dataPsmChoice"`
}

func (*PsmUnsetChoice) Kind() OperationKind { return KindPsmUnsetChoice }

// PsmUnwrapOr replaces a single-choice Or by its choice everywhere it is
// referenced and deletes the Or.
type PsmUnwrapOr struct {
	OperationHeader
	DataPsmOr string `json:"dataPsmOr"`
}

func (*PsmUnwrapOr) Kind() OperationKind { return KindPsmUnwrapOr }

// PsmSetHumanLabel replaces the label map of a PSM resource.
type PsmSetHumanLabel struct {
	OperationHeader
	DataPsmResource   string         `json:"dataPsmResource"`
	DataPsmHumanLabel LanguageString `json:"dataPsmHumanLabel"`
}

func (*PsmSetHumanLabel) Kind() OperationKind { return KindPsmSetHumanLabel }

// PsmSetTechnicalLabel sets the technical label of a class, attribute or
// association end.
type PsmSetTechnicalLabel struct {
	OperationHeader
	DataPsmResource       string `json:"dataPsmResource"`
	DataPsmTechnicalLabel string `json:"dataPsmTechnicalLabel"`
}

func (*PsmSetTechnicalLabel) Kind() OperationKind { return KindPsmSetTechnicalLabel }
