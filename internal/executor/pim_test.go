package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

func newPimStore(t *testing.T) (*testStore, string) {
	t.Helper()
	s := newTestStore()
	schema := s.create(t, &ir.PimCreateSchema{PimBaseIRI: "https://example.com/"})
	return s, schema
}

func TestPimCreateBeforeSchema(t *testing.T) {
	s := newTestStore()
	requireFailure(t, s.apply(t, &ir.PimCreateClass{}), ir.FailSchemaNotFound)
}

func TestPimSecondSchemaRefused(t *testing.T) {
	s, _ := newPimStore(t)
	requireFailure(t, s.apply(t, &ir.PimCreateSchema{PimBaseIRI: "x"}), ir.FailPreconditionFailed)
}

func TestPimManifestTracksCreatesInOrder(t *testing.T) {
	s, schema := newPimStore(t)

	person := s.create(t, &ir.PimCreateClass{PimTechnicalLabel: "person"})
	address := s.create(t, &ir.PimCreateClass{PimTechnicalLabel: "address"})
	name := s.create(t, &ir.PimCreateAttribute{PimOwnerClass: person, PimDatatype: "xsd:string"})
	res := s.mustApply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{person, address}})

	created, ok := res.Result.(ir.CreatedAssociationResult)
	require.True(t, ok)
	assert.Len(t, res.Created, 3, "association plus two ends")

	assert.Equal(t,
		[]string{person, address, name, created.AssociationIRI, created.EndIRIs[0], created.EndIRIs[1]},
		s.get(t, schema).StringList(ir.FieldPimParts))

	assoc := s.get(t, created.AssociationIRI)
	assert.Equal(t, created.EndIRIs[:], assoc.StringList(ir.FieldPimEnd))
	assert.Equal(t, person, s.get(t, created.EndIRIs[0]).String(ir.FieldPimPart))
	assert.Equal(t, address, s.get(t, created.EndIRIs[1]).String(ir.FieldPimPart))
}

func TestPimCreateAttributeChecksOwner(t *testing.T) {
	s, schema := newPimStore(t)

	requireFailure(t, s.apply(t, &ir.PimCreateAttribute{PimOwnerClass: "https://example.com/none"}), ir.FailMissingResource)
	requireFailure(t, s.apply(t, &ir.PimCreateAttribute{PimOwnerClass: schema}), ir.FailInvalidType)
	requireFailure(t, s.apply(t, &ir.PimCreateAttribute{}), ir.FailInvalidShape)
}

func TestPimCreateAssociationNeedsTwoEnds(t *testing.T) {
	s, _ := newPimStore(t)
	c := s.create(t, &ir.PimCreateClass{})

	requireFailure(t, s.apply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{c}}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{c, c, c}}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PimCreateAssociation{
		PimAssociationEnds: []string{c, c},
		PimNewEndIRIs:      []string{"https://example.com/e"},
	}), ir.FailInvalidShape)
}

func TestPimExplicitIRIs(t *testing.T) {
	s, _ := newPimStore(t)

	c := s.create(t, &ir.PimCreateClass{PimNewIRI: "https://example.com/Person"})
	assert.Equal(t, "https://example.com/Person", c)

	requireFailure(t, s.apply(t, &ir.PimCreateClass{PimNewIRI: c}), ir.FailPreconditionFailed)

	res := s.mustApply(t, &ir.PimCreateAssociation{
		PimAssociationEnds: []string{c, c},
		PimNewIRI:          "https://example.com/knows",
		PimNewEndIRIs:      []string{"https://example.com/knows/from", "https://example.com/knows/to"},
	})
	assert.Equal(t, ir.CreatedAssociationResult{
		AssociationIRI: "https://example.com/knows",
		EndIRIs:        [2]string{"https://example.com/knows/from", "https://example.com/knows/to"},
	}, res.Result)
}

func TestPimDeleteAssociationRemovesBothEnds(t *testing.T) {
	s, schema := newPimStore(t)
	a := s.create(t, &ir.PimCreateClass{})
	b := s.create(t, &ir.PimCreateClass{})
	created := s.mustApply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{a, b}}).
		Result.(ir.CreatedAssociationResult)

	res := s.mustApply(t, &ir.PimDeleteAssociation{PimAssociation: created.AssociationIRI})

	assert.ElementsMatch(t,
		[]string{created.AssociationIRI, created.EndIRIs[0], created.EndIRIs[1]},
		res.Deleted)
	assert.Equal(t, []string{schema}, res.ChangedIRIs(), "one manifest delta")
	assert.Equal(t, []string{a, b}, s.get(t, schema).StringList(ir.FieldPimParts))
}

func TestPimDeleteUsedClassIsRefused(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *testStore, class string)
	}{
		{"owner of attribute", func(t *testing.T, s *testStore, class string) {
			s.create(t, &ir.PimCreateAttribute{PimOwnerClass: class})
		}},
		{"part of association end", func(t *testing.T, s *testStore, class string) {
			other := s.create(t, &ir.PimCreateClass{})
			s.mustApply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{other, class}})
		}},
		{"self association", func(t *testing.T, s *testStore, class string) {
			s.mustApply(t, &ir.PimCreateAssociation{PimAssociationEnds: []string{class, class}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newPimStore(t)
			class := s.create(t, &ir.PimCreateClass{})
			tt.setup(t, s, class)

			before := s.snapshot()
			requireFailure(t, s.apply(t, &ir.PimDeleteClass{PimClass: class}), ir.FailPreconditionFailed)
			assert.Equal(t, before, s.snapshot(), "store is unchanged")
		})
	}
}

func TestPimDeleteUnusedClass(t *testing.T) {
	s, schema := newPimStore(t)
	class := s.create(t, &ir.PimCreateClass{})
	attr := s.create(t, &ir.PimCreateAttribute{PimOwnerClass: class})

	s.mustApply(t, &ir.PimDeleteAttribute{PimAttribute: attr})
	res := s.mustApply(t, &ir.PimDeleteClass{PimClass: class})

	assert.Equal(t, []string{class}, res.Deleted)
	assert.Empty(t, s.get(t, schema).StringList(ir.FieldPimParts))

	requireFailure(t, s.apply(t, &ir.PimDeleteAttribute{PimAttribute: attr}), ir.FailMissingResource)
}

func TestPimSetCardinality(t *testing.T) {
	s, _ := newPimStore(t)
	class := s.create(t, &ir.PimCreateClass{})
	attr := s.create(t, &ir.PimCreateAttribute{PimOwnerClass: class})

	s.mustApply(t, &ir.PimSetCardinality{PimResource: attr, PimCardinalityMin: 1, PimCardinalityMax: nil})
	got := s.get(t, attr)
	lo, _ := got.Int(ir.FieldPimCardinalityMin)
	assert.Equal(t, int64(1), lo)
	assert.Equal(t, ir.Null{}, got.Fields[ir.FieldPimCardinalityMax], "null maximum means unbounded")

	s.mustApply(t, &ir.PimSetCardinality{PimResource: attr, PimCardinalityMin: 0, PimCardinalityMax: ptr(int64(1))})
	hi, ok := s.get(t, attr).Int(ir.FieldPimCardinalityMax)
	assert.True(t, ok)
	assert.Equal(t, int64(1), hi)

	requireFailure(t, s.apply(t, &ir.PimSetCardinality{PimResource: attr, PimCardinalityMin: 2, PimCardinalityMax: ptr(int64(1))}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PimSetCardinality{PimResource: attr, PimCardinalityMin: -1}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PimSetCardinality{PimResource: class}), ir.FailInvalidType)
}

func TestPimFieldSettersAreTypeGuarded(t *testing.T) {
	s, schema := newPimStore(t)
	class := s.create(t, &ir.PimCreateClass{})
	attr := s.create(t, &ir.PimCreateAttribute{PimOwnerClass: class})

	requireFailure(t, s.apply(t, &ir.PimSetTechnicalLabel{PimResource: schema, PimTechnicalLabel: "x"}), ir.FailInvalidType)
	requireFailure(t, s.apply(t, &ir.PimSetDatatype{PimAttribute: class, PimDatatype: "x"}), ir.FailInvalidType)

	s.mustApply(t, &ir.PimSetTechnicalLabel{PimResource: class, PimTechnicalLabel: "person"})
	s.mustApply(t, &ir.PimSetDatatype{PimAttribute: attr, PimDatatype: "xsd:date"})
	s.mustApply(t, &ir.PimSetHumanLabel{PimResource: schema, PimHumanLabel: ir.LanguageString{"cs": "Slovník"}})
	s.mustApply(t, &ir.PimSetHumanDescription{PimResource: attr, PimHumanDescription: ir.LanguageString{"en": "Birth date"}})

	assert.Equal(t, "person", s.get(t, class).String(ir.FieldPimTechnicalLabel))
	assert.Equal(t, "xsd:date", s.get(t, attr).String(ir.FieldPimDatatype))
	assert.Equal(t, ir.LanguageString{"cs": "Slovník"}, s.get(t, schema).Labels(ir.FieldPimHumanLabel))
	assert.Equal(t, ir.LanguageString{"en": "Birth date"}, s.get(t, attr).Labels(ir.FieldPimHumanDescription))

	s.mustApply(t, &ir.PimSetDatatype{PimAttribute: attr})
	_, present := s.get(t, attr).Get(ir.FieldPimDatatype)
	assert.False(t, present, "empty datatype clears the field")
}

func TestPimLabelsRejectMalformedLanguageTags(t *testing.T) {
	s, _ := newPimStore(t)
	requireFailure(t, s.apply(t, &ir.PimCreateClass{PimHumanLabel: ir.LanguageString{"??": "x"}}), ir.FailInvalidShape)
}

func TestPimSetClassCodelistTogglesType(t *testing.T) {
	s, _ := newPimStore(t)
	class := s.create(t, &ir.PimCreateClass{})

	s.mustApply(t, &ir.PimSetClassCodelist{PimClass: class, PimIsCodelist: true, PimCodelistURL: []string{"https://example.com/list"}})
	got := s.get(t, class)
	assert.Equal(t, []string{ir.TypePimClass, ir.TypePimCodelist}, got.Types)
	assert.Equal(t, []string{"https://example.com/list"}, got.StringList(ir.FieldPimCodelistURL))

	s.mustApply(t, &ir.PimSetClassCodelist{PimClass: class, PimIsCodelist: false})
	got = s.get(t, class)
	assert.Equal(t, []string{ir.TypePimClass}, got.Types)
	_, present := got.Get(ir.FieldPimCodelistURL)
	assert.False(t, present)
}

func TestPimSetExtends(t *testing.T) {
	s, _ := newPimStore(t)
	parent := s.create(t, &ir.PimCreateClass{})
	child := s.create(t, &ir.PimCreateClass{PimExtends: []string{parent}})
	assert.Equal(t, []string{parent}, s.get(t, child).StringList(ir.FieldPimExtends))

	requireFailure(t, s.apply(t, &ir.PimSetExtends{PimClass: child, PimExtends: []string{child}}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PimSetExtends{PimClass: child, PimExtends: []string{"https://example.com/none"}}), ir.FailMissingResource)

	s.mustApply(t, &ir.PimSetExtends{PimClass: child, PimExtends: nil})
	assert.Empty(t, s.get(t, child).StringList(ir.FieldPimExtends))
}

func TestPimOperationInPsmStore(t *testing.T) {
	s := newTestStore()
	s.create(t, &ir.PsmCreateSchema{DataPsmBaseIRI: "https://example.com/"})
	requireFailure(t, s.apply(t, &ir.PimCreateClass{}), ir.FailInvalidType)
}
