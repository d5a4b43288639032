package ir

const pimOpPrefix = PimNamespace + "op-"

func init() {
	registerKind(KindPimCreateSchema, pimOpPrefix+"create-schema", "pim-create-schema", func() Operation { return &PimCreateSchema{} })
	registerKind(KindPimCreateClass, pimOpPrefix+"create-class", "pim-create-class", func() Operation { return &PimCreateClass{} })
	registerKind(KindPimCreateAttribute, pimOpPrefix+"create-attribute", "pim-create-attribute", func() Operation { return &PimCreateAttribute{} })
	registerKind(KindPimCreateAssociation, pimOpPrefix+"create-association", "pim-create-association", func() Operation { return &PimCreateAssociation{} })
	registerKind(KindPimDeleteClass, pimOpPrefix+"delete-class", "pim-delete-class", func() Operation { return &PimDeleteClass{} })
	registerKind(KindPimDeleteAttribute, pimOpPrefix+"delete-attribute", "pim-delete-attribute", func() Operation { return &PimDeleteAttribute{} })
	registerKind(KindPimDeleteAssociation, pimOpPrefix+"delete-association", "pim-delete-association", func() Operation { return &PimDeleteAssociation{} })
	registerKind(KindPimSetCardinality, pimOpPrefix+"set-cardinality", "pim-set-cardinality", func() Operation { return &PimSetCardinality{} })
	registerKind(KindPimSetDatatype, pimOpPrefix+"set-datatype", "pim-set-datatype", func() Operation { return &PimSetDatatype{} })
	registerKind(KindPimSetHumanLabel, pimOpPrefix+"set-human-label", "pim-set-human-label", func() Operation { return &PimSetHumanLabel{} })
	registerKind(KindPimSetHumanDescription, pimOpPrefix+"set-human-description", "pim-set-human-description", func() Operation { return &PimSetHumanDescription{} })
	registerKind(KindPimSetTechnicalLabel, pimOpPrefix+"set-technical-label", "pim-set-technical-label", func() Operation { return &PimSetTechnicalLabel{} })
	registerKind(KindPimSetClassCodelist, pimOpPrefix+"set-class-codelist", "pim-set-class-codelist", func() Operation { return &PimSetClassCodelist{} })
	registerKind(KindPimSetExtends, pimOpPrefix+"set-extends", "pim-set-extends", func() Operation { return &PimSetExtends{} })
}

// PimCreateSchema creates the root resource of a conceptual model.
type PimCreateSchema struct {
	OperationHeader
	PimBaseIRI          string         `json:"pimBaseIri"`
	PimNewIRI           string         `json:"pimNewIri,omitempty"`
	PimHumanLabel       LanguageString `json:"pimHumanLabel,omitempty"`
	PimHumanDescription LanguageString `json:"pimHumanDescription,omitempty"`
}

func (*PimCreateSchema) Kind() OperationKind { return KindPimCreateSchema }

// BaseIRI returns the namespace new identifiers are minted under.
func (o *PimCreateSchema) BaseIRI() string { return o.PimBaseIRI }

// PimCreateClass creates a class and appends it to the schema.
type PimCreateClass struct {
	OperationHeader
	PimInterpretation   string         `json:"pimInterpretation,omitempty"`
	PimTechnicalLabel   string         `json:"pimTechnicalLabel,omitempty"`
	PimHumanLabel       LanguageString `json:"pimHumanLabel,omitempty"`
	PimHumanDescription LanguageString `json:"pimHumanDescription,omitempty"`
	PimIsCodelist       bool           `json:"pimIsCodelist,omitempty"`
	PimCodelistURL      []string       `json:"pimCodelistUrl,omitempty"`
	PimExtends          []string       `json:"pimExtends,omitempty"`
	PimNewIRI           string         `json:"pimNewIri,omitempty"`
}

func (*PimCreateClass) Kind() OperationKind { return KindPimCreateClass }

// PimCreateAttribute creates an attribute owned by a class.
type PimCreateAttribute struct {
	OperationHeader
	PimOwnerClass       string         `json:"pimOwnerClass"`
	PimInterpretation   string         `json:"pimInterpretation,omitempty"`
	PimTechnicalLabel   string         `json:"pimTechnicalLabel,omitempty"`
	PimHumanLabel       LanguageString `json:"pimHumanLabel,omitempty"`
	PimHumanDescription LanguageString `json:"pimHumanDescription,omitempty"`
	PimDatatype         string         `json:"pimDatatype,omitempty"`
	PimCardinalityMin   *int64         `json:"pimCardinalityMin,omitempty"`
	PimCardinalityMax   *int64         `json:"pimCardinalityMax,omitempty"`
	PimNewIRI           string         `json:"pimNewIri,omitempty"`
}

func (*PimCreateAttribute) Kind() OperationKind { return KindPimCreateAttribute }

// PimCreateAssociation creates an association together with its two ends.
type PimCreateAssociation struct {
	OperationHeader
	PimAssociationEnds  []string       `json:"pimAssociationEnds"`
	PimInterpretation   string         `json:"pimInterpretation,omitempty"`
	PimTechnicalLabel   string         `json:"pimTechnicalLabel,omitempty"`
	PimHumanLabel       LanguageString `json:"pimHumanLabel,omitempty"`
	PimHumanDescription LanguageString `json:"pimHumanDescription,omitempty"`
	PimIsOriented       bool           `json:"pimIsOriented,omitempty"`
	PimNewIRI           string         `json:"pimNewIri,omitempty"`
	PimNewEndIRIs       []string       `json:"pimNewEndIris,omitempty"`
}

func (*PimCreateAssociation) Kind() OperationKind { return KindPimCreateAssociation }

// PimDeleteClass deletes an unused class.
type PimDeleteClass struct {
	OperationHeader
	PimClass string `json:"pimClass"`
}

func (*PimDeleteClass) Kind() OperationKind { return KindPimDeleteClass }

// PimDeleteAttribute deletes an attribute.
type PimDeleteAttribute struct {
	OperationHeader
	PimAttribute string `json:"pimAttribute"`
}

func (*PimDeleteAttribute) Kind() OperationKind { return KindPimDeleteAttribute }

// PimDeleteAssociation deletes an association and both of its ends.
type PimDeleteAssociation struct {
	OperationHeader
	PimAssociation string `json:"pimAssociation"`
}

func (*PimDeleteAssociation) Kind() OperationKind { return KindPimDeleteAssociation }

// PimSetCardinality sets the bounds of an attribute or association end.
// A nil maximum means unbounded.
type PimSetCardinality struct {
	OperationHeader
	PimResource       string `json:"pimResource"`
	PimCardinalityMin int64  `json:"pimCardinalityMin"`
	PimCardinalityMax *int64 `json:"pimCardinalityMax"`
}

func (*PimSetCardinality) Kind() OperationKind { return KindPimSetCardinality }

// PimSetDatatype sets (or clears, when empty) the datatype of an attribute.
type PimSetDatatype struct {
	OperationHeader
	PimAttribute string `json:"pimAttribute"`
	PimDatatype  string `json:"pimDatatype"`
}

func (*PimSetDatatype) Kind() OperationKind { return KindPimSetDatatype }

// PimSetHumanLabel replaces the label map of a PIM resource.
type PimSetHumanLabel struct {
	OperationHeader
	PimResource   string         `json:"pimResource"`
	PimHumanLabel LanguageString `json:"pimHumanLabel"`
}

func (*PimSetHumanLabel) Kind() OperationKind { return KindPimSetHumanLabel }

// PimSetHumanDescription replaces the description map of a PIM resource.
type PimSetHumanDescription struct {
	OperationHeader
	PimResource         string         `json:"pimResource"`
	PimHumanDescription LanguageString `json:"pimHumanDescription"`
}

func (*PimSetHumanDescription) Kind() OperationKind { return KindPimSetHumanDescription }

// PimSetTechnicalLabel sets the technical label of a class, attribute or association.
type PimSetTechnicalLabel struct {
	OperationHeader
	PimResource       string `json:"pimResource"`
	PimTechnicalLabel string `json:"pimTechnicalLabel"`
}

func (*PimSetTechnicalLabel) Kind() OperationKind { return KindPimSetTechnicalLabel }

// PimSetClassCodelist marks or unmarks a class as a codelist.
type PimSetClassCodelist struct {
	OperationHeader
	PimClass       string   `json:"pimClass"`
	PimIsCodelist  bool     `json:"pimIsCodelist"`
	PimCodelistURL []string `json:"pimCodelistUrl,omitempty"`
}

func (*PimSetClassCodelist) Kind() OperationKind { return KindPimSetClassCodelist }

// PimSetExtends replaces the list of classes a class specializes.
type PimSetExtends struct {
	OperationHeader
	PimClass   string   `json:"pimClass"`
	PimExtends []string `json:"pimExtends"`
}

func (*PimSetExtends) Kind() OperationKind { return KindPimSetExtends }
