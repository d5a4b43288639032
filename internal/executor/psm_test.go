package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mff-uk/dataspecer-sub018/internal/ir"
)

func newPsmStore(t *testing.T) (*testStore, string) {
	t.Helper()
	s := newTestStore()
	schema := s.create(t, &ir.PsmCreateSchema{DataPsmBaseIRI: "https://example.com/"})
	return s, schema
}

func TestPsmCreateSchemaShape(t *testing.T) {
	s, schema := newPsmStore(t)
	got := s.get(t, schema)

	assert.True(t, got.HasType(ir.TypePsmSchema))
	assert.Equal(t, ir.List{}, got.Fields[ir.FieldPsmRoots])
	assert.Equal(t, ir.List{}, got.Fields[ir.FieldPsmParts])
}

func TestPsmPartsAppendToOwnerAndManifest(t *testing.T) {
	s, schema := newPsmStore(t)
	person := s.create(t, &ir.PsmCreateClass{DataPsmTechnicalLabel: "person"})
	address := s.create(t, &ir.PsmCreateClass{})

	name := s.create(t, &ir.PsmCreateAttribute{DataPsmOwner: person, DataPsmDatatype: "xsd:string"})
	end := s.create(t, &ir.PsmCreateAssociationEnd{DataPsmOwner: person, DataPsmPart: address})
	include := s.create(t, &ir.PsmCreateInclude{DataPsmOwner: address, DataPsmIncludes: person})

	assert.Equal(t, []string{name, end}, s.get(t, person).StringList(ir.FieldPsmParts))
	assert.Equal(t, []string{include}, s.get(t, address).StringList(ir.FieldPsmParts))
	assert.Equal(t,
		[]string{person, address, name, end, include},
		s.get(t, schema).StringList(ir.FieldPsmParts))

	requireFailure(t, s.apply(t, &ir.PsmCreateAttribute{DataPsmOwner: name}), ir.FailInvalidType)
	requireFailure(t, s.apply(t, &ir.PsmCreateAssociationEnd{DataPsmOwner: person, DataPsmPart: name}), ir.FailInvalidType)
	requireFailure(t, s.apply(t, &ir.PsmCreateInclude{DataPsmOwner: person, DataPsmIncludes: person}), ir.FailPreconditionFailed)
}

func TestPsmSetOrder(t *testing.T) {
	s, _ := newPsmStore(t)
	class := s.create(t, &ir.PsmCreateClass{})
	var parts []string
	for range 4 {
		parts = append(parts, s.create(t, &ir.PsmCreateAttribute{DataPsmOwner: class}))
	}
	a, b, c, d := parts[0], parts[1], parts[2], parts[3]

	s.mustApply(t, &ir.PsmSetOrder{DataPsmOwnerClass: class, DataPsmResourceToMove: a, DataPsmNewPositionAfter: ptr(c)})
	assert.Equal(t, []string{b, c, a, d}, s.get(t, class).StringList(ir.FieldPsmParts))

	s.mustApply(t, &ir.PsmSetOrder{DataPsmOwnerClass: class, DataPsmResourceToMove: d, DataPsmNewPositionAfter: nil})
	assert.Equal(t, []string{d, b, c, a}, s.get(t, class).StringList(ir.FieldPsmParts))

	res := s.mustApply(t, &ir.PsmSetOrder{DataPsmOwnerClass: class, DataPsmResourceToMove: b, DataPsmNewPositionAfter: ptr(b)})
	assert.Empty(t, res.Touched(), "moving after itself is a no-op")

	requireFailure(t, s.apply(t, &ir.PsmSetOrder{DataPsmOwnerClass: class, DataPsmResourceToMove: class}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PsmSetOrder{DataPsmOwnerClass: class, DataPsmResourceToMove: a, DataPsmNewPositionAfter: ptr(class)}), ir.FailPreconditionFailed)
}

func TestPsmDeleteClassGuards(t *testing.T) {
	s, schema := newPsmStore(t)
	root := s.create(t, &ir.PsmCreateClass{})
	target := s.create(t, &ir.PsmCreateClass{})
	attr := s.create(t, &ir.PsmCreateAttribute{DataPsmOwner: root})
	end := s.create(t, &ir.PsmCreateAssociationEnd{DataPsmOwner: root, DataPsmPart: target})
	s.mustApply(t, &ir.PsmSetRoots{DataPsmRoots: []string{root}})

	requireFailure(t, s.apply(t, &ir.PsmDeleteClass{DataPsmClass: root}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PsmDeleteClass{DataPsmClass: target}), ir.FailPreconditionFailed)

	s.mustApply(t, &ir.PsmDeleteAssociationEnd{DataPsmOwner: root, DataPsmAssociationEnd: end})
	s.mustApply(t, &ir.PsmDeleteClass{DataPsmClass: target})

	requireFailure(t, s.apply(t, &ir.PsmDeleteAttribute{DataPsmOwner: target, DataPsmAttribute: attr}), ir.FailMissingResource)
	s.mustApply(t, &ir.PsmDeleteAttribute{DataPsmOwner: root, DataPsmAttribute: attr})
	s.mustApply(t, &ir.PsmSetRoots{DataPsmRoots: nil})
	s.mustApply(t, &ir.PsmDeleteClass{DataPsmClass: root})

	assert.Empty(t, s.get(t, schema).StringList(ir.FieldPsmParts))
	assert.Len(t, s.resources, 1, "only the schema is left")
}

func TestPsmDeletePartMustBelongToOwner(t *testing.T) {
	s, _ := newPsmStore(t)
	a := s.create(t, &ir.PsmCreateClass{})
	b := s.create(t, &ir.PsmCreateClass{})
	attr := s.create(t, &ir.PsmCreateAttribute{DataPsmOwner: a})

	requireFailure(t, s.apply(t, &ir.PsmDeleteAttribute{DataPsmOwner: b, DataPsmAttribute: attr}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PsmDeleteInclude{DataPsmOwner: a, DataPsmInclude: attr}), ir.FailInvalidType)
}

func TestPsmSetRootsValidates(t *testing.T) {
	s, schema := newPsmStore(t)
	class := s.create(t, &ir.PsmCreateClass{})
	attr := s.create(t, &ir.PsmCreateAttribute{DataPsmOwner: class})

	requireFailure(t, s.apply(t, &ir.PsmSetRoots{DataPsmRoots: []string{class, class}}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PsmSetRoots{DataPsmRoots: []string{attr}}), ir.FailInvalidType)

	s.mustApply(t, &ir.PsmSetRoots{DataPsmRoots: []string{class}})
	assert.Equal(t, []string{class}, s.get(t, schema).StringList(ir.FieldPsmRoots))
}

func TestPsmChoices(t *testing.T) {
	s, _ := newPsmStore(t)
	a := s.create(t, &ir.PsmCreateClass{})
	b := s.create(t, &ir.PsmCreateClass{})
	or := s.create(t, &ir.PsmCreateOr{DataPsmChoices: []string{a}})

	s.mustApply(t, &ir.PsmSetChoice{DataPsmOr: or, DataPsmChoice: b})
	s.mustApply(t, &ir.PsmSetChoice{DataPsmOr: or, DataPsmChoice: b})
	assert.Equal(t, []string{a, b}, s.get(t, or).StringList(ir.FieldPsmChoices))

	s.mustApply(t, &ir.PsmUnsetChoice{DataPsmOr: or, DataPsmChoice: a})
	assert.Equal(t, []string{b}, s.get(t, or).StringList(ir.FieldPsmChoices))
	assert.Contains(t, s.resources, a, "unset keeps the class")

	requireFailure(t, s.apply(t, &ir.PsmUnsetChoice{DataPsmOr: or, DataPsmChoice: a}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PsmCreateOr{DataPsmChoices: []string{a, a}}), ir.FailInvalidShape)
	requireFailure(t, s.apply(t, &ir.PsmDeleteClass{DataPsmClass: b}), ir.FailPreconditionFailed)
}

func TestPsmUnwrapOrReplacesReferences(t *testing.T) {
	s, schema := newPsmStore(t)
	owner := s.create(t, &ir.PsmCreateClass{})
	a := s.create(t, &ir.PsmCreateClass{})
	b := s.create(t, &ir.PsmCreateClass{})
	or := s.create(t, &ir.PsmCreateOr{DataPsmChoices: []string{a, b}})
	end := s.create(t, &ir.PsmCreateAssociationEnd{DataPsmOwner: owner, DataPsmPart: or})
	s.mustApply(t, &ir.PsmSetRoots{DataPsmRoots: []string{owner, or}})

	requireFailure(t, s.apply(t, &ir.PsmUnwrapOr{DataPsmOr: or}), ir.FailPreconditionFailed)
	requireFailure(t, s.apply(t, &ir.PsmDeleteOr{DataPsmOr: or}), ir.FailPreconditionFailed)

	s.mustApply(t, &ir.PsmUnsetChoice{DataPsmOr: or, DataPsmChoice: a})
	res := s.mustApply(t, &ir.PsmUnwrapOr{DataPsmOr: or})

	assert.Equal(t, []string{or}, res.Deleted)
	assert.Equal(t, b, s.get(t, end).String(ir.FieldPsmPart))
	assert.Equal(t, []string{owner, b}, s.get(t, schema).StringList(ir.FieldPsmRoots))
	assert.NotContains(t, s.get(t, schema).StringList(ir.FieldPsmParts), or)
}

func TestPsmDeleteUnusedOr(t *testing.T) {
	s, schema := newPsmStore(t)
	a := s.create(t, &ir.PsmCreateClass{})
	or := s.create(t, &ir.PsmCreateOr{DataPsmChoices: []string{a}})

	s.mustApply(t, &ir.PsmDeleteOr{DataPsmOr: or})
	assert.Equal(t, []string{a}, s.get(t, schema).StringList(ir.FieldPsmParts))
}

func TestPsmLabels(t *testing.T) {
	s, schema := newPsmStore(t)
	class := s.create(t, &ir.PsmCreateClass{})
	include := s.create(t, &ir.PsmCreateInclude{DataPsmOwner: class, DataPsmIncludes: s.create(t, &ir.PsmCreateClass{})})

	s.mustApply(t, &ir.PsmSetHumanLabel{DataPsmResource: class, DataPsmHumanLabel: ir.LanguageString{"en": "Person"}})
	s.mustApply(t, &ir.PsmSetTechnicalLabel{DataPsmResource: class, DataPsmTechnicalLabel: "person"})
	require.Equal(t, ir.LanguageString{"en": "Person"}, s.get(t, class).Labels(ir.FieldPsmHumanLabel))
	require.Equal(t, "person", s.get(t, class).String(ir.FieldPsmTechnicalLabel))

	requireFailure(t, s.apply(t, &ir.PsmSetTechnicalLabel{DataPsmResource: schema, DataPsmTechnicalLabel: "x"}), ir.FailInvalidType)
	requireFailure(t, s.apply(t, &ir.PsmSetHumanLabel{DataPsmResource: include}), ir.FailInvalidType)
}
